package models

import (
	"errors"
	"time"
)

type Test struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Title         string    `bson:"title" json:"title"`
	Description   string    `bson:"description" json:"description"`
	Questions     []string  `bson:"questions" json:"questions"`
	Category      string    `bson:"category" json:"category"`
	Difficulty    string    `bson:"difficulty" json:"difficulty"`
	Duration      int       `bson:"duration" json:"duration"` // minutes
	PassThreshold float64   `bson:"pass_threshold" json:"passThreshold"`
	IsPremium     bool      `bson:"is_premium" json:"isPremium"`
	IsPublished   bool      `bson:"is_published" json:"isPublished"`
	AttemptCount  int       `bson:"attempt_count" json:"attemptCount"`
	PassCount     int       `bson:"pass_count" json:"passCount"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

func (t *Test) QuestionCount() int {
	return len(t.Questions)
}

// PassRate returns the percentage of passing attempts, 0 when unattempted.
func (t *Test) PassRate() float64 {
	if t.AttemptCount == 0 {
		return 0
	}
	return float64(t.PassCount) / float64(t.AttemptCount) * 100
}

func (t *Test) Validate() error {
	if t.Title == "" {
		return errors.New("le titre est requis")
	}
	if t.Description == "" {
		return errors.New("la description est requise")
	}
	if t.PassThreshold < 0 || t.PassThreshold > 100 {
		return errors.New("le seuil de réussite doit être entre 0 et 100")
	}
	if t.Category != "" && t.Category != "general" && !contains(QuestionCategories, t.Category) {
		return errors.New("la catégorie est invalide")
	}
	if t.Difficulty != "" && !contains(Difficulties, t.Difficulty) {
		return errors.New("la difficulté est invalide")
	}
	return nil
}
