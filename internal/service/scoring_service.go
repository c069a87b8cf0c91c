package service

import (
	"context"
	"errors"
	"time"

	"theory-service/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type ScoringService struct {
	tests     TestStore
	questions QuestionStore
	attempts  AttemptStore
	users     UserStore
	events    EventSink
	now       func() time.Time
}

func NewScoringService(tests TestStore, questions QuestionStore, attempts AttemptStore, users UserStore, events EventSink) *ScoringService {
	return &ScoringService{
		tests:     tests,
		questions: questions,
		attempts:  attempts,
		users:     users,
		events:    events,
		now:       time.Now,
	}
}

// TestSummary is the slice of a test embedded in an attempt review.
type TestSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	PassThreshold float64 `json:"passThreshold"`
}

// ReviewAnswer pairs a graded answer with its full question, answer key
// included, for post-submission review.
type ReviewAnswer struct {
	Question       *models.Question `json:"question"`
	SelectedAnswer int              `json:"selectedAnswer"`
	IsCorrect      bool             `json:"isCorrect"`
}

type AttemptReview struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Test        TestSummary    `json:"test"`
	Answers     []ReviewAnswer `json:"answers"`
	Score       float64        `json:"score"`
	Passed      bool           `json:"passed"`
	TimeTaken   int            `json:"timeTaken"`
	CompletedAt time.Time      `json:"completedAt"`
}

type SubmitResult struct {
	Attempt       *AttemptReview
	Score         float64
	Passed        bool
	CorrectCount  int
	QuestionCount int
	XPEarned      int
	NewBadges     []models.Badge
}

// GradeSubmission resolves raw answers against the test's question bank.
// Answers referencing a question outside the bank are dropped. An
// out-of-range selected index is just incorrect. Duplicate question ids are
// each graded independently: double-credit is the documented behavior.
func GradeSubmission(questions []models.Question, answers []models.SubmittedAnswer) ([]models.AttemptAnswer, int) {
	byID := make(map[string]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	graded := make([]models.AttemptAnswer, 0, len(answers))
	correctCount := 0
	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			continue
		}
		isCorrect := answer.SelectedAnswer == question.CorrectAnswer
		if isCorrect {
			correctCount++
		}
		graded = append(graded, models.AttemptAnswer{
			QuestionID:     question.ID,
			SelectedAnswer: answer.SelectedAnswer,
			IsCorrect:      isCorrect,
		})
	}
	return graded, correctCount
}

// SubmitAttempt scores a submission against the full question list of the
// test, records the attempt, bumps test and question statistics, and
// advances the user's progression (streak, xp snapshot, badges).
func (s *ScoringService) SubmitAttempt(ctx context.Context, userID, testID string, answers []models.SubmittedAnswer, timeTaken int) (*SubmitResult, error) {
	test, err := s.tests.FindByID(ctx, testID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	if test.QuestionCount() == 0 {
		return nil, ErrNoQuestions
	}

	questions, err := s.questions.FindByIDs(ctx, test.Questions)
	if err != nil {
		return nil, err
	}

	graded, correctCount := GradeSubmission(questions, answers)

	// The denominator is the test's full question list, not the number of
	// answers submitted.
	score := float64(correctCount) / float64(test.QuestionCount()) * 100
	passed := score >= test.PassThreshold
	now := s.now()

	attempt := &models.TestAttempt{
		UserID:      userID,
		TestID:      test.ID,
		Answers:     graded,
		Score:       score,
		Passed:      passed,
		TimeTaken:   timeTaken,
		CompletedAt: now,
	}
	// Attempt first, statistics after: a failure mid-way loses a counter
	// bump, never the attempt record.
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, err
	}

	for _, a := range graded {
		if err := s.questions.IncrementStats(ctx, a.QuestionID, a.IsCorrect); err != nil {
			return nil, err
		}
	}
	if err := s.tests.IncrementAttemptStats(ctx, test.ID, passed); err != nil {
		return nil, err
	}
	if err := s.users.AppendAttempt(ctx, userID, attempt.ID); err != nil {
		return nil, err
	}

	newBadges, err := s.advanceProgression(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	s.publish("test.attempt.submitted", map[string]interface{}{
		"user_id": userID,
		"test_id": test.ID,
		"score":   score,
		"passed":  passed,
	})

	return &SubmitResult{
		Attempt:       buildReview(test, questions, attempt),
		Score:         score,
		Passed:        passed,
		CorrectCount:  correctCount,
		QuestionCount: test.QuestionCount(),
		XPEarned:      CalcXPEarned(passed, score),
		NewBadges:     newBadges,
	}, nil
}

// advanceProgression is the only writer of streak and badges: viewing the
// dashboard never progresses anything.
func (s *ScoringService) advanceProgression(ctx context.Context, userID string, now time.Time) ([]models.Badge, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	history, err := s.attempts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	streak, lastActivity, changed := NextStreak(user.Streak, user.LastActivityDate, now)
	if changed {
		if err := s.users.UpdateStreak(ctx, userID, streak, lastActivity); err != nil {
			return nil, err
		}
	}

	xp := RecomputeXP(history)
	level := CalcLevel(xp)
	if err := s.users.UpdateXP(ctx, userID, xp, level); err != nil {
		return nil, err
	}

	// Badge predicates read the freshly derived values, not the stale
	// snapshot.
	user.XP = xp
	user.Level = level
	user.Streak = streak

	var awarded []models.Badge
	for _, badge := range EvaluateBadges(user, history, now) {
		applied, err := s.users.AwardBadge(ctx, userID, badge)
		if err != nil {
			return nil, err
		}
		if applied {
			awarded = append(awarded, badge)
			s.publish("user.badge.awarded", map[string]interface{}{
				"user_id":  userID,
				"badge_id": badge.ID,
			})
		}
	}
	return awarded, nil
}

func (s *ScoringService) publish(eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	// Events are advisory; a broker hiccup must not fail the submission.
	_ = s.events.Publish(eventType, payload)
}

func buildReview(test *models.Test, questions []models.Question, attempt *models.TestAttempt) *AttemptReview {
	byID := make(map[string]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}
	answers := make([]ReviewAnswer, 0, len(attempt.Answers))
	for _, a := range attempt.Answers {
		answers = append(answers, ReviewAnswer{
			Question:       byID[a.QuestionID],
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      a.IsCorrect,
		})
	}
	return &AttemptReview{
		ID:     attempt.ID,
		UserID: attempt.UserID,
		Test: TestSummary{
			ID:            test.ID,
			Title:         test.Title,
			Description:   test.Description,
			PassThreshold: test.PassThreshold,
		},
		Answers:     answers,
		Score:       attempt.Score,
		Passed:      attempt.Passed,
		TimeTaken:   attempt.TimeTaken,
		CompletedAt: attempt.CompletedAt,
	}
}
