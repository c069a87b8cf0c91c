package repository

import (
	"context"
	"time"

	"theory-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepository struct {
	Col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{Col: db.Collection("users")}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	var user models.User
	if err := r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AppendAttempt records an attempt id on the user's history list.
func (r *UserRepository) AppendAttempt(ctx context.Context, userID, attemptID string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID},
		bson.M{"$push": bson.M{"tests_attempted": attemptID}})
	return err
}

// UpdateXP overwrites the xp/level snapshot. The snapshot is display-only;
// the recomputation from attempt history is the ground truth.
func (r *UserRepository) UpdateXP(ctx context.Context, userID string, xp, level int) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID},
		bson.M{"$set": bson.M{"xp": xp, "level": level}})
	return err
}

func (r *UserRepository) UpdateStreak(ctx context.Context, userID string, streak int, lastActivity time.Time) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID},
		bson.M{"$set": bson.M{"streak": streak, "last_activity_date": lastActivity}})
	return err
}

// AwardBadge appends a badge unless the user already holds that badge id.
// The filter guard makes concurrent awards of the same badge collapse to
// one; returns whether this call applied it.
func (r *UserRepository) AwardBadge(ctx context.Context, userID string, badge models.Badge) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, mongo.ErrNoDocuments
	}
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"_id": objID, "badges.id": bson.M{"$ne": badge.ID}},
		bson.M{"$push": bson.M{"badges": badge}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
