package solicitationRepo

import (
	"errors"
	"time"

	"caresched/models"
)

// ErrNotFound is returned when no solicitation matches the given id.
var ErrNotFound = errors.New("solicitation not found")

// SolicitationRepository persists service requests and their status machine.
type SolicitationRepository interface {
	Create(s *models.Solicitation) error
	GetByID(id string) (*models.Solicitation, error)
	// TransitionStatus conditionally moves the solicitation from one of the
	// given statuses to the target status. Returns false when the document
	// exists but is not in an allowed source status.
	TransitionStatus(id string, from []string, to, failureReason string) (bool, error)
	// MarkSuperseded links a replaced solicitation to its successor.
	MarkSuperseded(id, successorID string) error
	// ListStuckProcessing returns solicitations sitting in processing since
	// before the given time, for watchdog re-attempts.
	ListStuckProcessing(olderThan time.Time) ([]models.Solicitation, error)
}
