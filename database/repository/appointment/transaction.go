package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"caresched/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CommitScheduled performs the commit step of a scheduling attempt inside a
// single Mongo transaction: re-check that no active appointment exists for
// the solicitation, insert the new appointment, and move the solicitation to
// scheduled. The re-check makes the eligibility/ranking/slot-search results
// advisory; whatever attempt reaches this point first wins.
func (r *MongoAppointmentRepo) CommitScheduled(ctx context.Context, appt *models.Appointment, fromStatuses []string) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		existing := bson.M{
			"solicitationId": appt.SolicitationID,
			"status":         bson.M{"$ne": models.AppointmentCancelled},
		}
		if err := r.coll.FindOne(sc, existing).Err(); err == nil {
			return ErrAlreadyScheduled
		} else if err != mongo.ErrNoDocuments {
			return fmt.Errorf("active appointment re-check failed: %w", err)
		}

		if _, err := r.coll.InsertOne(sc, appt); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrAlreadyScheduled
			}
			return fmt.Errorf("insert appointment failed: %w", err)
		}

		filter := bson.M{
			"id":     appt.SolicitationID,
			"status": bson.M{"$in": fromStatuses},
		}
		update := bson.M{"$set": bson.M{
			"status":        models.SolicitationScheduled,
			"failureReason": "",
			"updatedAt":     time.Now(),
		}}
		res, err := r.solColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("solicitation transition failed: %w", err)
		}
		if res.MatchedCount == 0 {
			var sol models.Solicitation
			if err := r.solColl.FindOne(sc, bson.M{"id": appt.SolicitationID}).Decode(&sol); err != nil {
				return fmt.Errorf("solicitation %s not found during commit: %w", appt.SolicitationID, err)
			}
			if sol.Status == models.SolicitationScheduled {
				return ErrAlreadyScheduled
			}
			return fmt.Errorf("solicitation %s in status %s cannot be scheduled", sol.ID, sol.Status)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return err
	}

	return nil
}
