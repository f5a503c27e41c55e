package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	contractRepo "caresched/database/repository/contract"
	"caresched/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Catalog resolves the active contracted price for a provider, procedure and
// payer. A payer-wide global contract is the fallback when the provider has
// no specific one.
type Catalog interface {
	ActivePrice(ctx context.Context, ref models.ProviderRef, procedureCode, payerID string) (float64, bool)
}

// DefaultCatalog is the contract-table-backed implementation with a short
// cache-aside layer; the contract table changes rarely within a run.
type DefaultCatalog struct {
	Contracts contractRepo.ContractRepository
	Cache     *redis.Client
	Logger    *zap.Logger
}

const priceCacheTTL = 5 * time.Minute

type cachedPrice struct {
	Price float64 `json:"price"`
	Found bool    `json:"found"`
}

func (c *DefaultCatalog) ActivePrice(ctx context.Context, ref models.ProviderRef, procedureCode, payerID string) (float64, bool) {
	cacheKey := fmt.Sprintf("price:%s:%s:%s:%s", ref.Kind, ref.ID, procedureCode, payerID)

	if c.Cache != nil {
		if cached, err := c.Cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var cp cachedPrice
			if err := json.Unmarshal([]byte(cached), &cp); err == nil {
				return cp.Price, cp.Found
			}
		}
	}

	price, found := c.resolve(ref, procedureCode, payerID)

	if c.Cache != nil {
		if data, err := json.Marshal(cachedPrice{Price: price, Found: found}); err == nil {
			c.Cache.Set(ctx, cacheKey, data, priceCacheTTL)
		}
	}
	return price, found
}

func (c *DefaultCatalog) resolve(ref models.ProviderRef, procedureCode, payerID string) (float64, bool) {
	now := time.Now()

	contracts, err := c.Contracts.FindInForce(procedureCode, payerID)
	if err != nil {
		c.Logger.Warn("contract lookup failed",
			zap.String("procedure", procedureCode),
			zap.String("payer", payerID),
			zap.Error(err))
		return 0, false
	}
	for _, contract := range contracts {
		if contract.Provider == ref && contract.InForce(now) {
			return contract.Price, true
		}
	}

	global, err := c.Contracts.FindGlobal(procedureCode, payerID)
	if err != nil {
		c.Logger.Warn("global contract lookup failed",
			zap.String("procedure", procedureCode),
			zap.String("payer", payerID),
			zap.Error(err))
		return 0, false
	}
	if global == nil || !global.InForce(now) {
		return 0, false
	}
	return global.Price, true
}
