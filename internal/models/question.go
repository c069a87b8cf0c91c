package models

import (
	"errors"
	"time"
)

// Categories carried over from the content catalogue. Tests additionally
// accept "general".
var QuestionCategories = []string{
	"signalisation", "regles", "priorites", "infractions",
	"securite", "mecanique", "conduite", "poids-lourd",
}

var Difficulties = []string{"facile", "moyen", "difficile"}

type Question struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Prompt        string    `bson:"question" json:"question"`
	Options       []string  `bson:"options" json:"options"`
	CorrectAnswer int       `bson:"correct_answer" json:"correctAnswer"`
	Explanation   string    `bson:"explanation" json:"explanation"`
	Category      string    `bson:"category" json:"category"`
	Difficulty    string    `bson:"difficulty" json:"difficulty"`
	TimesAsked    int       `bson:"times_asked" json:"timesAsked"`
	TimesCorrect  int       `bson:"times_correct" json:"timesCorrect"`
	IsActive      bool      `bson:"is_active" json:"isActive"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// SanitizedQuestion is the view delivered before submission: no answer key,
// no explanation.
type SanitizedQuestion struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"question"`
	Options    []string `json:"options"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
}

func (q *Question) Sanitized() SanitizedQuestion {
	return SanitizedQuestion{
		ID:         q.ID,
		Prompt:     q.Prompt,
		Options:    q.Options,
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}

// SuccessRate returns the percentage of correct answers, 0 when never asked.
// Always derived from the counters, never stored.
func (q *Question) SuccessRate() float64 {
	if q.TimesAsked == 0 {
		return 0
	}
	return float64(q.TimesCorrect) / float64(q.TimesAsked) * 100
}

func (q *Question) Validate() error {
	if q.Prompt == "" {
		return errors.New("la question est requise")
	}
	if len(q.Options) < 2 || len(q.Options) > 4 {
		return errors.New("il doit y avoir entre 2 et 4 options")
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return errors.New("l'index de la réponse correcte est invalide")
	}
	if q.Explanation == "" {
		return errors.New("l'explication est requise")
	}
	if !contains(QuestionCategories, q.Category) {
		return errors.New("la catégorie est invalide")
	}
	if q.Difficulty != "" && !contains(Difficulties, q.Difficulty) {
		return errors.New("la difficulté est invalide")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
