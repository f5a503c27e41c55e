package contractRepo

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

// MongoContractRepo implements ContractRepository using MongoDB.
type MongoContractRepo struct {
	coll *mongo.Collection
}

// NewMongoContractRepo creates a new instance of ContractRepository using MongoDB.
func NewMongoContractRepo() ContractRepository {
	coll := database.Collection("price_contracts")
	repo := &MongoContractRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoContractRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "procedureCode", Value: 1}, {Key: "payerId", Value: 1}, {Key: "active", Value: 1}}},
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

// inForceFilter matches contracts that are active and either open-ended or
// ending today or later.
func inForceFilter(procedureCode, payerID string) bson.M {
	today := time.Now().Truncate(24 * time.Hour)
	return bson.M{
		"procedureCode": procedureCode,
		"payerId":       payerID,
		"active":        true,
		"$or": []bson.M{
			{"endDate": nil},
			{"endDate": bson.M{"$exists": false}},
			{"endDate": bson.M{"$gte": today}},
		},
	}
}

func (r *MongoContractRepo) FindInForce(procedureCode, payerID string) ([]models.PriceContract, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := inForceFilter(procedureCode, payerID)
	filter["provider.id"] = bson.M{"$nin": []interface{}{nil, ""}}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find contracts for %s/%s: %w", procedureCode, payerID, err)
	}
	defer cursor.Close(ctx)

	var contracts []models.PriceContract
	for cursor.Next(ctx) {
		var c models.PriceContract
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

func (r *MongoContractRepo) FindGlobal(procedureCode, payerID string) (*models.PriceContract, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := inForceFilter(procedureCode, payerID)
	filter["$and"] = []bson.M{
		{"$or": []bson.M{
			{"provider.id": nil},
			{"provider.id": ""},
			{"provider": bson.M{"$exists": false}},
		}},
	}

	var c models.PriceContract
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find global contract for %s/%s: %w", procedureCode, payerID, err)
	}
	return &c, nil
}
