package matching

import (
	"testing"

	"caresched/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func km(v float64) *float64 { return &v }

func cand(id string, price float64, distance *float64, load int) models.ProviderCandidate {
	return models.ProviderCandidate{
		Provider:   models.Provider{ID: id, Kind: models.ProviderClinic},
		Price:      price,
		HasPrice:   true,
		DistanceKm: distance,
		Load:       load,
	}
}

func ids(ranked []models.ProviderCandidate) []string {
	out := make([]string, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, c.Provider.ID)
	}
	return out
}

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, PolicyCost, ParsePolicy("cost"))
	assert.Equal(t, PolicyDistance, ParsePolicy("distance"))
	assert.Equal(t, PolicyAvailability, ParsePolicy("availability"))
	assert.Equal(t, PolicyBalanced, ParsePolicy("balanced"))
	assert.Equal(t, PolicyBalanced, ParsePolicy(""))
	assert.Equal(t, PolicyBalanced, ParsePolicy("cheapest"))
}

func TestRankCostOrdersByPrice(t *testing.T) {
	unknown := cand("c", 0, km(1), 0)
	unknown.HasPrice = false

	ranked := Rank(PolicyCost, []models.ProviderCandidate{
		cand("a", 300, km(10), 0),
		cand("b", 150, km(20), 0),
		unknown,
	}, DefaultRankWeights())

	// Unknown price sorts last, treated as +infinity.
	assert.Equal(t, []string{"b", "a", "c"}, ids(ranked))
}

func TestRankDistanceExcludesUnlocatedCandidates(t *testing.T) {
	ranked := Rank(PolicyDistance, []models.ProviderCandidate{
		cand("far", 100, km(42), 0),
		cand("unlocated", 50, nil, 0),
		cand("near", 200, km(3), 0),
	}, DefaultRankWeights())

	assert.Equal(t, []string{"near", "far"}, ids(ranked))
}

func TestRankDistanceEmptyWhenNothingIsLocated(t *testing.T) {
	ranked := Rank(PolicyDistance, []models.ProviderCandidate{
		cand("a", 100, nil, 0),
		cand("b", 50, nil, 0),
	}, DefaultRankWeights())

	assert.Empty(t, ranked)
}

func TestRankAvailabilityOrdersByLoad(t *testing.T) {
	ranked := Rank(PolicyAvailability, []models.ProviderCandidate{
		cand("busy", 100, km(1), 12),
		cand("idle", 100, km(1), 0),
		cand("mid", 100, km(1), 4),
	}, DefaultRankWeights())

	assert.Equal(t, []string{"idle", "mid", "busy"}, ids(ranked))
}

func TestRankBalancedWeighsPriceDistanceAndLoad(t *testing.T) {
	// A is pricier but much closer; with 0.4/0.4/0.2 weights and the stock
	// ceilings it must outrank the cheaper, farther B.
	a := cand("a", 100, km(5), 0)
	b := cand("b", 80, km(40), 0)

	ranked := Rank(PolicyBalanced, []models.ProviderCandidate{b, a}, DefaultRankWeights())
	require.Len(t, ranked, 2)

	assert.Equal(t, []string{"a", "b"}, ids(ranked))
	// 0.4*(1-100/10000) + 0.4*(1-5/50) + 0.2*1
	assert.InDelta(t, 0.956, ranked[0].Score, 1e-9)
	// 0.4*(1-80/10000) + 0.4*(1-40/50) + 0.2*1
	assert.InDelta(t, 0.6768, ranked[1].Score, 1e-9)
}

func TestRankBalancedClampsBeyondCeilings(t *testing.T) {
	expensive := cand("expensive", 25000, km(5), 0)
	overloaded := cand("overloaded", 100, km(5), 90)

	ranked := Rank(PolicyBalanced, []models.ProviderCandidate{expensive, overloaded}, DefaultRankWeights())

	// Price term floors at zero rather than going negative.
	assert.InDelta(t, 0.4*0.9+0.2, scoreOf(t, ranked, "expensive"), 1e-9)
	// Load term floors at zero likewise.
	assert.InDelta(t, 0.4*0.99+0.4*0.9, scoreOf(t, ranked, "overloaded"), 1e-9)
}

func scoreOf(t *testing.T, ranked []models.ProviderCandidate, id string) float64 {
	t.Helper()
	for _, c := range ranked {
		if c.Provider.ID == id {
			return c.Score
		}
	}
	t.Fatalf("candidate %s not in ranking", id)
	return 0
}

func TestRankTieBreakIsDeterministic(t *testing.T) {
	located := cand("z-located", 100, km(2), 0)
	unlocatedA := cand("alpha", 100, nil, 0)
	unlocatedB := cand("beta", 100, nil, 0)
	professional := models.ProviderCandidate{
		Provider: models.Provider{ID: "alpha", Kind: models.ProviderProfessional},
		Price:    100,
		HasPrice: true,
	}

	in := []models.ProviderCandidate{professional, unlocatedB, unlocatedA, located}
	ranked := Rank(PolicyAvailability, in, DefaultRankWeights())

	// All loads tie: nearest first, then unlocated by kind then id.
	assert.Equal(t, []string{"z-located", "alpha", "beta", "alpha"}, ids(ranked))
	assert.Equal(t, models.ProviderClinic, ranked[1].Provider.Kind)
	assert.Equal(t, models.ProviderProfessional, ranked[3].Provider.Kind)

	again := Rank(PolicyAvailability, in, DefaultRankWeights())
	assert.Equal(t, ids(ranked), ids(again))
}

func TestRankLeavesInputUntouched(t *testing.T) {
	in := []models.ProviderCandidate{
		cand("b", 200, km(10), 0),
		cand("a", 100, km(5), 0),
	}
	_ = Rank(PolicyCost, in, DefaultRankWeights())

	assert.Equal(t, "b", in[0].Provider.ID)
	assert.Equal(t, "a", in[1].Provider.ID)
}
