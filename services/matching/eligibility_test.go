package matching

import (
	"context"
	"testing"
	"time"

	"caresched/models"
	"caresched/services/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeContracts struct {
	contracts []models.PriceContract
	err       error
}

func (f *fakeContracts) FindInForce(procedureCode, payerID string) ([]models.PriceContract, error) {
	return f.contracts, f.err
}

func (f *fakeContracts) FindGlobal(procedureCode, payerID string) (*models.PriceContract, error) {
	return nil, nil
}

type fakeProviders struct {
	providers []models.Provider
	gotState  string
	gotCity   string
}

func (f *fakeProviders) GetByRef(ref models.ProviderRef) (*models.Provider, error) {
	for _, p := range f.providers {
		if p.Ref() == ref {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProviders) ListBookableByRefs(refs []models.ProviderRef, state, city string) ([]models.Provider, error) {
	f.gotState, f.gotCity = state, city
	wanted := make(map[models.ProviderRef]bool, len(refs))
	for _, r := range refs {
		wanted[r] = true
	}
	var out []models.Provider
	for _, p := range f.providers {
		if wanted[p.Ref()] && p.Bookable() {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeLoads struct {
	loads map[models.ProviderRef]int
}

func (f *fakeLoads) GetByID(string) (*models.Appointment, error)               { return nil, nil }
func (f *fakeLoads) GetActiveBySolicitation(string) (*models.Appointment, error) { return nil, nil }
func (f *fakeLoads) ListActiveInRange(models.ProviderRef, time.Time, time.Time) ([]models.Appointment, error) {
	return nil, nil
}
func (f *fakeLoads) CountActiveInRange(ref models.ProviderRef, from, to time.Time) (int, error) {
	return f.loads[ref], nil
}
func (f *fakeLoads) CommitScheduled(context.Context, *models.Appointment, []string) error {
	return nil
}
func (f *fakeLoads) SetStatus(string, []string, string, string) error { return nil }

type haversineGeo struct{}

func (haversineGeo) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	return 0, 0, false
}

func (haversineGeo) DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	return geo.Haversine(lat1, lng1, lat2, lng2)
}

type stubCatalog map[models.ProviderRef]float64

func (s stubCatalog) ActivePrice(ctx context.Context, ref models.ProviderRef, procedureCode, payerID string) (float64, bool) {
	price, ok := s[ref]
	return price, ok
}

func bookableClinic(id string, lat, lng float64) models.Provider {
	return models.Provider{
		ID:          id,
		Kind:        models.ProviderClinic,
		Status:      models.ProviderStatusActive,
		LocationGeo: models.NewGeoPoint(lat, lng),
	}
}

func eligibilitySubject(contracts *fakeContracts, providers *fakeProviders, loads *fakeLoads, prices stubCatalog) *DefaultEligibilityService {
	return &DefaultEligibilityService{
		Contracts:    contracts,
		Providers:    providers,
		Appointments: loads,
		Geo:          haversineGeo{},
		Pricing:      prices,
		Logger:       zap.NewNop(),
	}
}

func TestEligibleEmptyWithoutContracts(t *testing.T) {
	svc := eligibilitySubject(&fakeContracts{}, &fakeProviders{}, &fakeLoads{}, stubCatalog{})

	candidates, err := svc.Eligible(context.Background(), models.Solicitation{ProcedureCode: "proc-1", PayerID: "payer-1"})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestEligibleDropsProvidersBeyondRadius(t *testing.T) {
	near := bookableClinic("near", -23.56, -46.64)
	far := bookableClinic("far", -24.5505, -46.6333) // about 111 km due south

	contracts := &fakeContracts{contracts: []models.PriceContract{
		{Provider: near.Ref(), Price: 120, Active: true},
		{Provider: far.Ref(), Price: 90, Active: true},
	}}
	providers := &fakeProviders{providers: []models.Provider{near, far}}
	prices := stubCatalog{near.Ref(): 120, far.Ref(): 90}

	patient := models.NewGeoPoint(-23.5505, -46.6333)
	sol := models.Solicitation{
		ProcedureCode: "proc-1",
		PayerID:       "payer-1",
		Location:      &patient,
		RadiusKm:      50,
	}

	candidates, err := eligibilitySubject(contracts, providers, &fakeLoads{}, prices).Eligible(context.Background(), sol)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "near", candidates[0].Provider.ID)
	require.NotNil(t, candidates[0].DistanceKm)
	assert.Less(t, *candidates[0].DistanceKm, 50.0)
}

func TestEligibleKeepsUnlocatedProvidersWithNilDistance(t *testing.T) {
	unlocated := models.Provider{ID: "p1", Kind: models.ProviderProfessional, Status: models.ProviderStatusActive}

	contracts := &fakeContracts{contracts: []models.PriceContract{{Provider: unlocated.Ref(), Price: 75, Active: true}}}
	providers := &fakeProviders{providers: []models.Provider{unlocated}}
	prices := stubCatalog{unlocated.Ref(): 75}

	patient := models.NewGeoPoint(-23.5505, -46.6333)
	sol := models.Solicitation{ProcedureCode: "proc-1", PayerID: "payer-1", Location: &patient}

	candidates, err := eligibilitySubject(contracts, providers, &fakeLoads{}, prices).Eligible(context.Background(), sol)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Nil(t, candidates[0].DistanceKm)
	assert.True(t, candidates[0].HasPrice)
	assert.Equal(t, 75.0, candidates[0].Price)
}

func TestEligibleSkipsLapsedContracts(t *testing.T) {
	clinic := bookableClinic("c1", -23.56, -46.64)
	lastWeek := time.Now().AddDate(0, 0, -7)

	contracts := &fakeContracts{contracts: []models.PriceContract{
		{Provider: clinic.Ref(), Price: 200, Active: true, EndDate: &lastWeek},
	}}
	providers := &fakeProviders{providers: []models.Provider{clinic}}

	sol := models.Solicitation{ProcedureCode: "proc-1", PayerID: "payer-1"}

	candidates, err := eligibilitySubject(contracts, providers, &fakeLoads{}, stubCatalog{}).Eligible(context.Background(), sol)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestEligiblePassesJurisdictionAndCountsLoad(t *testing.T) {
	clinic := bookableClinic("c1", -23.56, -46.64)
	clinic.State = "SP"
	clinic.City = "Sao Paulo"

	contracts := &fakeContracts{contracts: []models.PriceContract{
		{Provider: clinic.Ref(), Price: 200, Active: true},
		{Price: 150, Active: true}, // global fallback never names a provider
	}}
	providers := &fakeProviders{providers: []models.Provider{clinic}}
	loads := &fakeLoads{loads: map[models.ProviderRef]int{clinic.Ref(): 7}}
	prices := stubCatalog{clinic.Ref(): 200}

	sol := models.Solicitation{ProcedureCode: "proc-1", PayerID: "payer-1", State: "SP", City: "Sao Paulo"}

	candidates, err := eligibilitySubject(contracts, providers, loads, prices).Eligible(context.Background(), sol)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 7, candidates[0].Load)
	assert.Equal(t, "SP", providers.gotState)
	assert.Equal(t, "Sao Paulo", providers.gotCity)
}
