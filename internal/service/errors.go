package service

import "errors"

var (
	ErrTestNotFound     = errors.New("test not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrNoQuestions marks a zero-question test reaching the scoring
	// engine. A content-data bug, not a user error.
	ErrNoQuestions = errors.New("test has no questions")

	ErrPremiumRequired = errors.New("premium subscription required")
)
