package matching

import (
	"math"
	"sort"

	"caresched/models"
)

// Policy selects how eligible candidates are ordered.
type Policy string

const (
	PolicyCost         Policy = "cost"
	PolicyDistance     Policy = "distance"
	PolicyAvailability Policy = "availability"
	PolicyBalanced     Policy = "balanced"
)

// ParsePolicy maps a configuration string to a Policy, defaulting to balanced.
func ParsePolicy(s string) Policy {
	switch Policy(s) {
	case PolicyCost, PolicyDistance, PolicyAvailability, PolicyBalanced:
		return Policy(s)
	default:
		return PolicyBalanced
	}
}

// RankWeights parameterizes the balanced composite score. The defaults are
// hand-tuned legacy constants, kept configurable on purpose.
type RankWeights struct {
	Price        float64
	Distance     float64
	Load         float64
	PriceCeiling float64
	LoadCeiling  int
	MaxRadiusKm  float64
}

// DefaultRankWeights returns the stock 0.4/0.4/0.2 weighting.
func DefaultRankWeights() RankWeights {
	return RankWeights{
		Price:        0.4,
		Distance:     0.4,
		Load:         0.2,
		PriceCeiling: 10000,
		LoadCeiling:  50,
		MaxRadiusKm:  DefaultRadiusKm,
	}
}

// Rank orders candidates best-first under the given policy. The input slice
// is not modified. Every policy yields a deterministic total order: ties are
// broken by ascending distance (unknown last), then ascending price, then
// provider kind and id.
func Rank(policy Policy, candidates []models.ProviderCandidate, w RankWeights) []models.ProviderCandidate {
	out := make([]models.ProviderCandidate, 0, len(candidates))

	if policy == PolicyDistance {
		// Distance is load-bearing here; candidates without one are excluded.
		for _, c := range candidates {
			if c.DistanceKm != nil {
				out = append(out, c)
			}
		}
	} else {
		out = append(out, candidates...)
	}

	if policy == PolicyBalanced {
		for i := range out {
			out[i].Score = balancedScore(out[i], w)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch policy {
		case PolicyCost:
			pa, pb := priceOrInf(a), priceOrInf(b)
			if pa != pb {
				return pa < pb
			}
		case PolicyDistance:
			if *a.DistanceKm != *b.DistanceKm {
				return *a.DistanceKm < *b.DistanceKm
			}
		case PolicyAvailability:
			if a.Load != b.Load {
				return a.Load < b.Load
			}
		default: // balanced, higher score first
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		}
		return tieLess(a, b)
	})

	return out
}

func priceOrInf(c models.ProviderCandidate) float64 {
	if !c.HasPrice {
		return math.Inf(1)
	}
	return c.Price
}

func balancedScore(c models.ProviderCandidate, w RankWeights) float64 {
	var normPrice float64
	if c.HasPrice && w.PriceCeiling > 0 {
		normPrice = clamp01(1 - c.Price/w.PriceCeiling)
	}
	var normDistance float64
	if c.DistanceKm != nil && w.MaxRadiusKm > 0 {
		normDistance = clamp01(1 - *c.DistanceKm/w.MaxRadiusKm)
	}
	var normLoad float64
	if w.LoadCeiling > 0 {
		normLoad = clamp01(1 - float64(c.Load)/float64(w.LoadCeiling))
	}
	return w.Price*normPrice + w.Distance*normDistance + w.Load*normLoad
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// tieLess is the shared deterministic tie-break: nearest, then cheapest,
// then lexical provider identity.
func tieLess(a, b models.ProviderCandidate) bool {
	switch {
	case a.DistanceKm != nil && b.DistanceKm == nil:
		return true
	case a.DistanceKm == nil && b.DistanceKm != nil:
		return false
	case a.DistanceKm != nil && b.DistanceKm != nil && *a.DistanceKm != *b.DistanceKm:
		return *a.DistanceKm < *b.DistanceKm
	}
	if pa, pb := priceOrInf(a), priceOrInf(b); pa != pb {
		return pa < pb
	}
	if a.Provider.Kind != b.Provider.Kind {
		return a.Provider.Kind < b.Provider.Kind
	}
	return a.Provider.ID < b.Provider.ID
}
