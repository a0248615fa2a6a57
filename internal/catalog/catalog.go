// Package catalog seeds the initial product table for a run.
package catalog

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/iliamunaev/order-session-server/internal/apperr"
	"github.com/iliamunaev/order-session-server/internal/model"
)

// Params bounds the generated catalog. Prices are drawn in whole-unit
// steps from PriceMin up to PriceMax; stock is drawn from [StockMin, StockMax].
type Params struct {
	Size     int
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
	StockMin int
	StockMax int
}

// Seed generates Size products named "Product 1".."Product N".
// The same seed always yields the same catalog.
func Seed(p Params, seed uint64) ([]model.Product, error) {
	if p.Size < 1 {
		return nil, fmt.Errorf("catalog: size %d: %w", p.Size, apperr.ErrInvalidConfig)
	}
	if !p.PriceMin.IsPositive() || p.PriceMax.LessThan(p.PriceMin) {
		return nil, fmt.Errorf("catalog: price range [%s,%s]: %w", p.PriceMin, p.PriceMax, apperr.ErrInvalidConfig)
	}
	if p.StockMin < 0 || p.StockMax < p.StockMin {
		return nil, fmt.Errorf("catalog: stock range [%d,%d]: %w", p.StockMin, p.StockMax, apperr.ErrInvalidConfig)
	}

	rng := rand.New(rand.NewPCG(seed, ^seed))
	priceSteps := p.PriceMax.Sub(p.PriceMin).Floor().IntPart() + 1
	stockSpan := p.StockMax - p.StockMin + 1

	out := make([]model.Product, p.Size)
	for i := range out {
		out[i] = model.Product{
			Description: fmt.Sprintf("Product %d", i+1),
			UnitPrice:   p.PriceMin.Add(decimal.NewFromInt(rng.Int64N(priceSteps))),
			Stock:       p.StockMin + rng.IntN(stockSpan),
		}
	}
	return out, nil
}
