package exceptionRepo

import (
	"errors"

	"caresched/models"
)

// ErrAlreadyResolved is returned when resolving an exception that is no
// longer pending. Resolved exceptions are immutable.
var ErrAlreadyResolved = errors.New("scheduling exception already resolved")

// ErrNotFound is returned when no exception matches the given id.
var ErrNotFound = errors.New("scheduling exception not found")

// ExceptionRepository persists the human-escalation records and the
// negotiation ledger written on approval.
type ExceptionRepository interface {
	Create(e *models.SchedulingException) error
	GetByID(id string) (*models.SchedulingException, error)
	// Resolve moves a pending exception to approved or rejected. Returns
	// ErrAlreadyResolved when the exception is not pending anymore.
	Resolve(id, status, actor, rejectReason string) (*models.SchedulingException, error)
	CreateNegotiation(n *models.NegotiationRecord) error
}
