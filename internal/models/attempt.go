package models

import "time"

// SubmittedAnswer is one raw client answer. Nothing about it is trusted:
// the question id may not belong to the test and the selected index may be
// out of range.
type SubmittedAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer int    `json:"selectedAnswer"`
}

// AttemptAnswer is a submitted answer resolved against the test's question
// bank.
type AttemptAnswer struct {
	QuestionID     string `bson:"question_id" json:"questionId"`
	SelectedAnswer int    `bson:"selected_answer" json:"selectedAnswer"`
	IsCorrect      bool   `bson:"is_correct" json:"isCorrect"`
}

// TestAttempt is the immutable record of one submission. It is never
// updated or deleted; statistics and progression are derived from it.
type TestAttempt struct {
	ID          string          `bson:"_id,omitempty" json:"id"`
	UserID      string          `bson:"user_id" json:"userId"`
	TestID      string          `bson:"test_id" json:"testId"`
	Answers     []AttemptAnswer `bson:"answers" json:"answers"`
	Score       float64         `bson:"score" json:"score"`
	Passed      bool            `bson:"passed" json:"passed"`
	TimeTaken   int             `bson:"time_taken" json:"timeTaken"` // seconds
	CompletedAt time.Time       `bson:"completed_at" json:"completedAt"`
}
