package service

import (
	"context"
	"time"

	"theory-service/internal/models"
)

// Narrow store interfaces consumed by the scoring and progression services.
// The repository types satisfy them; tests substitute in-memory fakes.

type TestStore interface {
	FindByID(ctx context.Context, id string) (*models.Test, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Test, error)
	IncrementAttemptStats(ctx context.Context, id string, passed bool) error
}

type QuestionStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Question, error)
	IncrementStats(ctx context.Context, id string, correct bool) error
}

type AttemptStore interface {
	Create(ctx context.Context, attempt *models.TestAttempt) error
	FindByUser(ctx context.Context, userID string) ([]models.TestAttempt, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	AppendAttempt(ctx context.Context, userID, attemptID string) error
	UpdateXP(ctx context.Context, userID string, xp, level int) error
	UpdateStreak(ctx context.Context, userID string, streak int, lastActivity time.Time) error
	AwardBadge(ctx context.Context, userID string, badge models.Badge) (bool, error)
}

// EventSink is the outbound event boundary. A nil sink is valid and means
// events are skipped.
type EventSink interface {
	Publish(eventType string, payload interface{}) error
}
