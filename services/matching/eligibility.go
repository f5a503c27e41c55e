package matching

import (
	"context"
	"fmt"
	"time"

	appointmentRepo "caresched/database/repository/appointment"
	contractRepo "caresched/database/repository/contract"
	providerRepo "caresched/database/repository/provider"
	"caresched/models"
	"caresched/services/geo"
	"caresched/services/pricing"

	"go.uber.org/zap"
)

// DefaultRadiusKm applies when a solicitation does not set its own search radius.
const DefaultRadiusKm = 50.0

// EligibilityService narrows the provider network down to the candidates that
// can legally and practically serve a solicitation.
type EligibilityService interface {
	// Eligible returns the candidate set. An empty result is not an error;
	// the caller decides whether that is terminal.
	Eligible(ctx context.Context, sol models.Solicitation) ([]models.ProviderCandidate, error)
}

// DefaultEligibilityService implements EligibilityService against the
// contract table and provider registry.
type DefaultEligibilityService struct {
	Contracts    contractRepo.ContractRepository
	Providers    providerRepo.ProviderRepository
	Appointments appointmentRepo.AppointmentRepository
	Geo          geo.Service
	Pricing      pricing.Catalog
	Logger       *zap.Logger
}

func (s *DefaultEligibilityService) Eligible(ctx context.Context, sol models.Solicitation) ([]models.ProviderCandidate, error) {
	contracts, err := s.Contracts.FindInForce(sol.ProcedureCode, sol.PayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracts for %s/%s: %w", sol.ProcedureCode, sol.PayerID, err)
	}
	if len(contracts) == 0 {
		return nil, nil
	}

	// Global contracts price providers but do not name them.
	now := time.Now()
	seen := make(map[models.ProviderRef]bool, len(contracts))
	refs := make([]models.ProviderRef, 0, len(contracts))
	for _, c := range contracts {
		if c.Global() || !c.InForce(now) || seen[c.Provider] {
			continue
		}
		seen[c.Provider] = true
		refs = append(refs, c.Provider)
	}
	if len(refs) == 0 {
		return nil, nil
	}

	providers, err := s.Providers.ListBookableByRefs(refs, sol.State, sol.City)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracted providers: %w", err)
	}

	radius := sol.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}

	var patLat, patLng float64
	var hasPatientLocation bool
	if sol.Location != nil {
		patLat, patLng, hasPatientLocation = sol.Location.LatLng()
	}

	var candidates []models.ProviderCandidate
	for _, p := range providers {
		cand := models.ProviderCandidate{Provider: p}
		if price, ok := s.Pricing.ActivePrice(ctx, p.Ref(), sol.ProcedureCode, sol.PayerID); ok {
			cand.Price = price
			cand.HasPrice = true
		}

		if hasPatientLocation {
			if provLat, provLng, ok := p.LocationGeo.LatLng(); ok {
				d := s.Geo.DistanceKm(patLat, patLng, provLat, provLng)
				if d > radius {
					continue
				}
				cand.DistanceKm = &d
			}
			// Providers without coordinates are kept with a nil distance;
			// distance-sensitive policies sort or filter them out later.
		}

		load, err := s.Appointments.CountActiveInRange(p.Ref(), sol.WindowStart, sol.WindowEnd)
		if err != nil {
			s.Logger.Warn("failed to count provider load, assuming zero",
				zap.String("provider", p.ID),
				zap.Error(err))
		}
		cand.Load = load

		candidates = append(candidates, cand)
	}

	return candidates, nil
}
