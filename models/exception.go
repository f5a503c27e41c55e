package models

import "time"

// SchedulingException statuses.
const (
	ExceptionPending  = "pending"
	ExceptionApproved = "approved"
	ExceptionRejected = "rejected"
)

// SchedulingException is a human-escalation record: an operator proposes a
// provider/price/date that diverges from (or supplements) the automatic
// matching outcome. Immutable once resolved.
type SchedulingException struct {
	ID               string      `bson:"id" json:"id"`
	SolicitationID   string      `bson:"solicitationId" json:"solicitationId"`
	Provider         ProviderRef `bson:"provider" json:"provider"`
	RequestedPrice   float64     `bson:"requestedPrice" json:"requestedPrice"`
	RecommendedPrice float64     `bson:"recommendedPrice" json:"recommendedPrice"` // algorithm's best price, kept for variance auditing
	RequestedDate    time.Time   `bson:"requestedDate" json:"requestedDate"`
	Reason           string      `bson:"reason" json:"reason"`
	Status           string      `bson:"status" json:"status"`

	RequestedBy  string     `bson:"requestedBy,omitempty" json:"requestedBy,omitempty"`
	ResolvedBy   string     `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	RejectReason string     `bson:"rejectReason,omitempty" json:"rejectReason,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
}

// NegotiationRecord registers the commercial side of an approved exception:
// an extemporaneous price agreed outside the contracted table.
type NegotiationRecord struct {
	ID               string      `bson:"id" json:"id"`
	ExceptionID      string      `bson:"exceptionId" json:"exceptionId"`
	SolicitationID   string      `bson:"solicitationId" json:"solicitationId"`
	Provider         ProviderRef `bson:"provider" json:"provider"`
	AgreedPrice      float64     `bson:"agreedPrice" json:"agreedPrice"`
	RecommendedPrice float64     `bson:"recommendedPrice" json:"recommendedPrice"`
	CreatedBy        string      `bson:"createdBy" json:"createdBy"`
	CreatedAt        time.Time   `bson:"createdAt" json:"createdAt"`
}
