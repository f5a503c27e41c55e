package models

// ProviderCandidate is a transient projection built per matching run. It is
// never persisted.
type ProviderCandidate struct {
	Provider Provider
	Price    float64
	HasPrice bool
	// DistanceKm is nil when either the solicitation or the provider has no
	// usable coordinates.
	DistanceKm *float64
	// Load is the count of non-cancelled appointments for this provider
	// within the solicitation's preferred window.
	Load  int
	Score float64
}
