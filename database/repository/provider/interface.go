package providerRepo

import "caresched/models"

// ProviderRepository abstracts provider lookups for the matching engine.
// Providers are owned by network management; this core only reads them.
type ProviderRepository interface {
	// GetByRef fetches a single provider. Returns nil when not found.
	GetByRef(ref models.ProviderRef) (*models.Provider, error)
	// ListBookableByRefs loads the given providers, keeping only those in a
	// bookable status. state/city, when non-empty, narrow by jurisdiction.
	ListBookableByRefs(refs []models.ProviderRef, state, city string) ([]models.Provider, error)
}
