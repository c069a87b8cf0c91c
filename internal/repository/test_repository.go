package repository

import (
	"context"

	"theory-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TestRepository struct {
	Col *mongo.Collection
}

func NewTestRepository(db *mongo.Database) *TestRepository {
	return &TestRepository{Col: db.Collection("tests")}
}

// FindPublished lists published tests, newest first, optionally filtered.
func (r *TestRepository) FindPublished(ctx context.Context, category, difficulty string, isPremium *bool) ([]models.Test, error) {
	filter := bson.M{"is_published": true}
	if category != "" {
		filter["category"] = category
	}
	if difficulty != "" {
		filter["difficulty"] = difficulty
	}
	if isPremium != nil {
		filter["is_premium"] = *isPremium
	}
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var tests []models.Test
	for cur.Next(ctx) {
		var t models.Test
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, cur.Err()
}

func (r *TestRepository) FindByID(ctx context.Context, id string) (*models.Test, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	var test models.Test
	if err := r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&test); err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *TestRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Test, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}
	if len(objIDs) == 0 {
		return nil, nil
	}
	cur, err := r.Col.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var tests []models.Test
	for cur.Next(ctx) {
		var t models.Test
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, cur.Err()
}

func (r *TestRepository) Create(ctx context.Context, test *models.Test) error {
	res, err := r.Col.InsertOne(ctx, test)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		test.ID = oid.Hex()
	}
	return nil
}

func (r *TestRepository) Update(ctx context.Context, id string, update bson.M) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update})
	return err
}

func (r *TestRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	_, err = r.Col.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}

// IncrementAttemptStats bumps attempt_count, and pass_count when the
// attempt passed. Both in one $inc, so pass_count can never outrun
// attempt_count under concurrent submissions.
func (r *TestRepository) IncrementAttemptStats(ctx context.Context, id string, passed bool) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	inc := bson.M{"attempt_count": 1}
	if passed {
		inc["pass_count"] = 1
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": inc})
	return err
}
