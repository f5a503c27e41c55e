package contractRepo

import "caresched/models"

// ContractRepository exposes read-only access to the contracted price table.
// Contract lifecycle is owned by contract management.
type ContractRepository interface {
	// FindInForce returns the provider-specific contracts for a
	// procedure/payer pair that are active and not expired.
	FindInForce(procedureCode, payerID string) ([]models.PriceContract, error)
	// FindGlobal returns the payer-wide fallback contract for the procedure,
	// or nil when none exists.
	FindGlobal(procedureCode, payerID string) (*models.PriceContract, error)
}
