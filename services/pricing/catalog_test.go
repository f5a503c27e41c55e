package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"caresched/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeContractRepo struct {
	contracts []models.PriceContract
	global    *models.PriceContract
	err       error
}

func (f *fakeContractRepo) FindInForce(procedureCode, payerID string) ([]models.PriceContract, error) {
	return f.contracts, f.err
}

func (f *fakeContractRepo) FindGlobal(procedureCode, payerID string) (*models.PriceContract, error) {
	return f.global, f.err
}

func clinicRef(id string) models.ProviderRef {
	return models.ProviderRef{Kind: models.ProviderClinic, ID: id}
}

func TestActivePricePrefersProviderContract(t *testing.T) {
	repo := &fakeContractRepo{
		contracts: []models.PriceContract{
			{Provider: clinicRef("c1"), Price: 250, Active: true},
			{Provider: clinicRef("c2"), Price: 180, Active: true},
		},
		global: &models.PriceContract{Price: 300, Active: true},
	}
	catalog := &DefaultCatalog{Contracts: repo, Logger: zap.NewNop()}

	price, found := catalog.ActivePrice(context.Background(), clinicRef("c2"), "proc-1", "payer-1")
	assert.True(t, found)
	assert.Equal(t, 180.0, price)
}

func TestActivePriceFallsBackToGlobal(t *testing.T) {
	repo := &fakeContractRepo{
		contracts: []models.PriceContract{{Provider: clinicRef("c1"), Price: 250, Active: true}},
		global:    &models.PriceContract{Price: 300, Active: true},
	}
	catalog := &DefaultCatalog{Contracts: repo, Logger: zap.NewNop()}

	price, found := catalog.ActivePrice(context.Background(), clinicRef("uncontracted"), "proc-1", "payer-1")
	assert.True(t, found)
	assert.Equal(t, 300.0, price)
}

func TestActivePriceSkipsExpiredContracts(t *testing.T) {
	lastWeek := time.Now().AddDate(0, 0, -7)
	repo := &fakeContractRepo{
		contracts: []models.PriceContract{
			{Provider: clinicRef("c1"), Price: 250, Active: true, EndDate: &lastWeek},
			{Provider: clinicRef("c2"), Price: 180},
		},
		global: &models.PriceContract{Price: 300, Active: true},
	}
	catalog := &DefaultCatalog{Contracts: repo, Logger: zap.NewNop()}

	// c1's contract lapsed and c2's is inactive; both get the global price.
	price, found := catalog.ActivePrice(context.Background(), clinicRef("c1"), "proc-1", "payer-1")
	assert.True(t, found)
	assert.Equal(t, 300.0, price)

	price, found = catalog.ActivePrice(context.Background(), clinicRef("c2"), "proc-1", "payer-1")
	assert.True(t, found)
	assert.Equal(t, 300.0, price)

	// An expired global is no fallback at all.
	repo.global.EndDate = &lastWeek
	_, found = catalog.ActivePrice(context.Background(), clinicRef("c3"), "proc-1", "payer-1")
	assert.False(t, found)
}

func TestActivePriceNotFoundWithoutAnyContract(t *testing.T) {
	catalog := &DefaultCatalog{Contracts: &fakeContractRepo{}, Logger: zap.NewNop()}

	_, found := catalog.ActivePrice(context.Background(), clinicRef("c1"), "proc-1", "payer-1")
	assert.False(t, found)
}

func TestActivePriceDegradesOnRepositoryError(t *testing.T) {
	repo := &fakeContractRepo{err: errors.New("connection reset")}
	catalog := &DefaultCatalog{Contracts: repo, Logger: zap.NewNop()}

	_, found := catalog.ActivePrice(context.Background(), clinicRef("c1"), "proc-1", "payer-1")
	assert.False(t, found)
}
