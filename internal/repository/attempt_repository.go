package repository

import (
	"context"

	"theory-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AttemptRepository struct {
	Col *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{Col: db.Collection("test_attempts")}
}

// Create persists an attempt. Attempts are append-only: there is no update
// or delete on this repository.
func (r *AttemptRepository) Create(ctx context.Context, attempt *models.TestAttempt) error {
	res, err := r.Col.InsertOne(ctx, attempt)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		attempt.ID = oid.Hex()
	}
	return nil
}

// FindByUserAndTest returns the caller's most recent attempts for one test,
// capped at 10.
func (r *AttemptRepository) FindByUserAndTest(ctx context.Context, userID, testID string) ([]models.TestAttempt, error) {
	opts := options.Find().SetSort(bson.M{"completed_at": -1}).SetLimit(10)
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID, "test_id": testID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeAttempts(ctx, cur)
}

// FindByUser returns the user's full attempt history, newest first.
func (r *AttemptRepository) FindByUser(ctx context.Context, userID string) ([]models.TestAttempt, error) {
	opts := options.Find().SetSort(bson.M{"completed_at": -1})
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeAttempts(ctx, cur)
}

func decodeAttempts(ctx context.Context, cur *mongo.Cursor) ([]models.TestAttempt, error) {
	var attempts []models.TestAttempt
	for cur.Next(ctx) {
		var a models.TestAttempt
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, cur.Err()
}
