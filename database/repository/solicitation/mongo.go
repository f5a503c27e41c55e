package solicitationRepo

import (
	"context"
	"fmt"
	"time"

	"caresched/database"
	"caresched/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSolicitationRepo implements SolicitationRepository using MongoDB.
type MongoSolicitationRepo struct {
	coll *mongo.Collection
}

// NewMongoSolicitationRepo creates a new instance of SolicitationRepository using MongoDB.
func NewMongoSolicitationRepo() SolicitationRepository {
	coll := database.Collection("solicitations")
	repo := &MongoSolicitationRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoSolicitationRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: 1}}},
		{Keys: bson.D{{Key: "patientId", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoSolicitationRepo) Create(s *models.Solicitation) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("failed to create solicitation: %w", err)
	}
	return nil
}

func (r *MongoSolicitationRepo) GetByID(id string) (*models.Solicitation, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var s models.Solicitation
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch solicitation %s: %w", id, err)
	}
	return &s, nil
}

func (r *MongoSolicitationRepo) TransitionStatus(id string, from []string, to, failureReason string) (bool, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	set := bson.M{"status": to, "updatedAt": time.Now()}
	if failureReason != "" {
		set["failureReason"] = failureReason
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to transition solicitation %s to %s: %w", id, to, err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing document from a lost status race.
		if _, err := r.GetByID(id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *MongoSolicitationRepo) MarkSuperseded(id, successorID string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"supersededBy": successorID, "updatedAt": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark solicitation %s superseded: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoSolicitationRepo) ListStuckProcessing(olderThan time.Time) ([]models.Solicitation, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{
		"status":    models.SolicitationProcessing,
		"updatedAt": bson.M{"$lt": olderThan},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck solicitations: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Solicitation
	for cursor.Next(ctx) {
		var s models.Solicitation
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode solicitation: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}
