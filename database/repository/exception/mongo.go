package exceptionRepo

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

// MongoExceptionRepo implements ExceptionRepository using MongoDB.
type MongoExceptionRepo struct {
	coll        *mongo.Collection
	negotiation *mongo.Collection
}

// NewMongoExceptionRepo creates a new instance of ExceptionRepository using MongoDB.
func NewMongoExceptionRepo() ExceptionRepository {
	repo := &MongoExceptionRepo{
		coll:        database.Collection("scheduling_exceptions"),
		negotiation: database.Collection("negotiation_records"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoExceptionRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "solicitationId", Value: 1}, {Key: "status", Value: 1}}},
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

func (r *MongoExceptionRepo) Create(e *models.SchedulingException) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("failed to create scheduling exception: %w", err)
	}
	return nil
}

func (r *MongoExceptionRepo) GetByID(id string) (*models.SchedulingException, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var e models.SchedulingException
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&e); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch scheduling exception %s: %w", id, err)
	}
	return &e, nil
}

func (r *MongoExceptionRepo) Resolve(id, status, actor, rejectReason string) (*models.SchedulingException, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	set := bson.M{
		"status":     status,
		"resolvedBy": actor,
		"resolvedAt": now,
	}
	if rejectReason != "" {
		set["rejectReason"] = rejectReason
	}

	filter := bson.M{"id": id, "status": models.ExceptionPending}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e models.SchedulingException
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&e)
	if err == nil {
		return &e, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to resolve scheduling exception %s: %w", id, err)
	}
	// Either the exception does not exist or it was resolved already.
	if _, getErr := r.GetByID(id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrAlreadyResolved
}

func (r *MongoExceptionRepo) CreateNegotiation(n *models.NegotiationRecord) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.negotiation.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to create negotiation record: %w", err)
	}
	return nil
}
