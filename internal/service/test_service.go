package service

import (
	"context"
	"errors"
	"time"

	"theory-service/internal/models"
	"theory-service/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

type TestService struct {
	Tests     *repository.TestRepository
	Questions *repository.QuestionRepository
	Attempts  *repository.AttemptRepository
}

func NewTestService(tests *repository.TestRepository, questions *repository.QuestionRepository, attempts *repository.AttemptRepository) *TestService {
	return &TestService{Tests: tests, Questions: questions, Attempts: attempts}
}

func (s *TestService) ListPublished(ctx context.Context, category, difficulty string, isPremium *bool) ([]models.Test, error) {
	return s.Tests.FindPublished(ctx, category, difficulty, isPremium)
}

// GetForTaking loads a published test with its questions sanitized for
// delivery: no answer key, no explanation. Premium tests require an active
// premium subscription. Question order follows the test's reference list;
// dangling references are skipped.
func (s *TestService) GetForTaking(ctx context.Context, testID string, user *models.User) (*models.Test, []models.SanitizedQuestion, error) {
	test, err := s.Tests.FindByID(ctx, testID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrTestNotFound
		}
		return nil, nil, err
	}
	if !test.IsPublished {
		return nil, nil, ErrTestNotFound
	}
	if test.IsPremium && !user.IsPremiumActive() {
		return nil, nil, ErrPremiumRequired
	}

	questions, err := s.Questions.FindByIDs(ctx, test.Questions)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}
	sanitized := make([]models.SanitizedQuestion, 0, len(test.Questions))
	for _, id := range test.Questions {
		if q, ok := byID[id]; ok {
			sanitized = append(sanitized, q.Sanitized())
		}
	}
	return test, sanitized, nil
}

func (s *TestService) Create(ctx context.Context, test *models.Test) error {
	if err := test.Validate(); err != nil {
		return err
	}
	now := time.Now()
	test.CreatedAt = now
	test.UpdatedAt = now
	return s.Tests.Create(ctx, test)
}

func (s *TestService) Update(ctx context.Context, id string, update map[string]interface{}) error {
	if _, err := s.Tests.FindByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTestNotFound
		}
		return err
	}
	update["updated_at"] = time.Now()
	return s.Tests.Update(ctx, id, update)
}

func (s *TestService) Delete(ctx context.Context, id string) error {
	if _, err := s.Tests.FindByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTestNotFound
		}
		return err
	}
	return s.Tests.Delete(ctx, id)
}

// AttemptsForUser returns the caller's last 10 attempts on a test.
func (s *TestService) AttemptsForUser(ctx context.Context, userID, testID string) ([]models.TestAttempt, error) {
	return s.Attempts.FindByUserAndTest(ctx, userID, testID)
}
