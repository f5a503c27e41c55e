package models

import "time"

// PriceContract binds a provider to a payer and procedure with a price.
// Contracts with a zero-valued Provider are global fallback prices for the
// payer/procedure pair. Read-only to the scheduling core.
type PriceContract struct {
	ID            string      `bson:"id" json:"id"`
	// Global contracts persist a zero Provider subdocument; lookups match
	// on provider.id being empty.
	Provider      ProviderRef `bson:"provider" json:"provider,omitzero"`
	PayerID       string      `bson:"payerId" json:"payerId"`
	ProcedureCode string      `bson:"procedureCode" json:"procedureCode"`
	Price         float64     `bson:"price" json:"price"`
	Active        bool        `bson:"active" json:"active"`
	EndDate       *time.Time  `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CreatedAt     time.Time   `bson:"createdAt" json:"createdAt,omitzero"`
}

// Global reports whether the contract is a payer-wide fallback price rather
// than a provider-specific one.
func (c PriceContract) Global() bool {
	return c.Provider.ID == ""
}

// InForce reports whether the contract is active and not expired at ref time.
func (c PriceContract) InForce(ref time.Time) bool {
	if !c.Active {
		return false
	}
	if c.EndDate != nil && c.EndDate.Before(ref.Truncate(24*time.Hour)) {
		return false
	}
	return true
}
