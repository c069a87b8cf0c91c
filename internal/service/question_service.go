package service

import (
	"context"
	"errors"
	"time"

	"theory-service/internal/models"
	"theory-service/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

type QuestionService struct {
	Repo *repository.QuestionRepository
}

func NewQuestionService(repo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{Repo: repo}
}

func (s *QuestionService) ListQuestions(ctx context.Context, category, difficulty string) ([]models.Question, error) {
	return s.Repo.FindAll(ctx, category, difficulty)
}

func (s *QuestionService) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) CreateQuestion(ctx context.Context, question *models.Question) error {
	if question.Difficulty == "" {
		question.Difficulty = "moyen"
	}
	if err := question.Validate(); err != nil {
		return err
	}
	question.IsActive = true
	now := time.Now()
	question.CreatedAt = now
	question.UpdatedAt = now
	return s.Repo.Create(ctx, question)
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, id string, update map[string]interface{}) error {
	if _, err := s.GetQuestion(ctx, id); err != nil {
		return err
	}
	update["updated_at"] = time.Now()
	return s.Repo.Update(ctx, id, update)
}

// DeleteQuestion deactivates the question. Historical attempts keep their
// reference; read paths treat the dangling link as absent.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id string) error {
	if _, err := s.GetQuestion(ctx, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}
