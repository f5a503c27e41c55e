package models

import "time"

// Solicitation statuses.
const (
	SolicitationPending       = "pending"
	SolicitationProcessing    = "processing"
	SolicitationScheduled     = "scheduled"
	SolicitationWaitingManual = "waiting_manual_response"
	SolicitationFailed        = "failed"
)

// Solicitation is a patient's pending request for a procedure awaiting
// provider assignment. Solicitations are never deleted; a reschedule creates
// a new one and supersedes the old.
type Solicitation struct {
	ID              string    `bson:"id" json:"id"`
	PatientID       string    `bson:"patientId" json:"patientId"`
	ProcedureCode   string    `bson:"procedureCode" json:"procedureCode"`
	PayerID         string    `bson:"payerId" json:"payerId"`
	WindowStart     time.Time `bson:"windowStart" json:"windowStart"`
	WindowEnd       time.Time `bson:"windowEnd" json:"windowEnd"`
	Location        *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
	RadiusKm        float64   `bson:"radiusKm" json:"radiusKm"`
	State           string    `bson:"state,omitempty" json:"state,omitempty"`
	City            string    `bson:"city,omitempty" json:"city,omitempty"`
	DurationMinutes int       `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Status          string    `bson:"status" json:"status"`
	FailureReason   string    `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	SupersededBy    string    `bson:"supersededBy,omitempty" json:"supersededBy,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}
