package session

import (
	"math/rand/v2"

	"github.com/iliamunaev/order-session-server/internal/model"
)

// Picker generates the next synthetic order for a session.
type Picker interface {
	Pick() model.OrderRequest
}

// RandomPicker draws a product uniformly from [0, products) and a
// quantity uniformly from [1, maxQty]. It is not safe for concurrent use;
// give every session its own.
type RandomPicker struct {
	rng      *rand.Rand
	products int
	maxQty   int
}

// NewRandomPicker panics if products or maxQty is below 1.
func NewRandomPicker(seed uint64, products, maxQty int) *RandomPicker {
	if products < 1 || maxQty < 1 {
		panic("session.NewRandomPicker: products and maxQty must be positive")
	}
	return &RandomPicker{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		products: products,
		maxQty:   maxQty,
	}
}

func (p *RandomPicker) Pick() model.OrderRequest {
	return model.OrderRequest{
		ProductIndex: p.rng.IntN(p.products),
		Quantity:     1 + p.rng.IntN(p.maxQty),
	}
}
