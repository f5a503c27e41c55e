package appointmentRepo

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

// MongoAppointmentRepo implements AppointmentRepository using MongoDB.
type MongoAppointmentRepo struct {
	coll    *mongo.Collection
	solColl *mongo.Collection
}

// NewMongoAppointmentRepo creates a new instance of AppointmentRepository using MongoDB.
func NewMongoAppointmentRepo() AppointmentRepository {
	repo := &MongoAppointmentRepo{
		coll:    database.Collection("appointments"),
		solColl: database.Collection("solicitations"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoAppointmentRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// One scheduled appointment per solicitation, enforced at the
		// storage level so concurrent commits cannot both win.
		{
			Keys: bson.D{{Key: "solicitationId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.AppointmentScheduled}),
		},
		{Keys: bson.D{{Key: "provider.kind", Value: 1}, {Key: "provider.id", Value: 1}, {Key: "scheduledAt", Value: 1}}},
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

func (r *MongoAppointmentRepo) GetByID(id string) (*models.Appointment, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var a models.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch appointment %s: %w", id, err)
	}
	return &a, nil
}

func (r *MongoAppointmentRepo) GetActiveBySolicitation(solicitationID string) (*models.Appointment, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{
		"solicitationId": solicitationID,
		"status":         bson.M{"$ne": models.AppointmentCancelled},
	}
	var a models.Appointment
	if err := r.coll.FindOne(ctx, filter).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch active appointment for solicitation %s: %w", solicitationID, err)
	}
	return &a, nil
}

// overlapFilter matches non-cancelled appointments for the provider whose
// [scheduledAt, scheduledAt+duration) interval intersects [from, to).
func overlapFilter(ref models.ProviderRef, from, to time.Time) bson.M {
	return bson.M{
		"provider.kind": ref.Kind,
		"provider.id":   ref.ID,
		"status":        bson.M{"$ne": models.AppointmentCancelled},
		"scheduledAt":   bson.M{"$lt": to},
		"$expr": bson.M{
			"$gt": bson.A{
				bson.M{"$add": bson.A{
					"$scheduledAt",
					bson.M{"$multiply": bson.A{"$durationMinutes", 60000}},
				}},
				from,
			},
		},
	}
}

func (r *MongoAppointmentRepo) ListActiveInRange(ref models.ProviderRef, from, to time.Time) ([]models.Appointment, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, overlapFilter(ref, from, to))
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for provider %s/%s: %w", ref.Kind, ref.ID, err)
	}
	defer cursor.Close(ctx)

	var out []models.Appointment
	for cursor.Next(ctx) {
		var a models.Appointment
		if err := cursor.Decode(&a); err != nil {
			return nil, fmt.Errorf("failed to decode appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *MongoAppointmentRepo) CountActiveInRange(ref models.ProviderRef, from, to time.Time) (int, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, overlapFilter(ref, from, to))
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments for provider %s/%s: %w", ref.Kind, ref.ID, err)
	}
	return int(n), nil
}

func (r *MongoAppointmentRepo) SetStatus(id string, from []string, to, actor string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	set := bson.M{"status": to}
	switch to {
	case models.AppointmentConfirmed:
		set["confirmedBy"] = actor
		set["confirmedAt"] = now
	case models.AppointmentCancelled:
		set["cancelledBy"] = actor
		set["cancelledAt"] = now
	}

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to set appointment %s status to %s: %w", id, to, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return fmt.Errorf("appointment %s is not in a valid status for %s", id, to)
	}
	return nil
}
