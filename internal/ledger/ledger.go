// Package ledger is the shared, synchronized inventory store.
//
// Every product record carries its own mutex, so orders against different
// products never contend. EvaluateOrder is the only way to mutate stock
// and counters; Snapshot seals the ledger and returns its final state.
package ledger

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/iliamunaev/order-session-server/internal/apperr"
	"github.com/iliamunaev/order-session-server/internal/model"
)

type record struct {
	mu sync.Mutex

	description  string
	unitPrice    decimal.Decimal
	initialStock int

	stock      int
	total      int
	successful int
	failed     int
	unitsSold  int
}

// Ledger owns the catalog for the lifetime of one run.
type Ledger struct {
	records []*record
	sealed  atomic.Bool
}

// New builds a ledger from seeded catalog entries. Only Description,
// UnitPrice and Stock of each seed are used; counters start at zero.
func New(seeds []model.Product) (*Ledger, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("ledger: empty catalog: %w", apperr.ErrInvalidConfig)
	}
	records := make([]*record, len(seeds))
	for i, s := range seeds {
		if !s.UnitPrice.IsPositive() {
			return nil, fmt.Errorf("ledger: product %d: price %s must be positive: %w",
				i+1, s.UnitPrice, apperr.ErrInvalidConfig)
		}
		if s.Stock < 0 {
			return nil, fmt.Errorf("ledger: product %d: negative stock %d: %w",
				i+1, s.Stock, apperr.ErrInvalidConfig)
		}
		records[i] = &record{
			description:  s.Description,
			unitPrice:    s.UnitPrice,
			initialStock: s.Stock,
			stock:        s.Stock,
		}
	}
	return &Ledger{records: records}, nil
}

// Len returns the catalog size.
func (l *Ledger) Len() int { return len(l.records) }

// Sealed reports whether Snapshot has been called.
func (l *Ledger) Sealed() bool { return l.sealed.Load() }

// EvaluateOrder atomically checks and decrements one product's stock.
//
// It panics when productIndex is out of range, quantity is below 1, or the
// ledger has been sealed: those are programming errors in the caller, not
// order outcomes.
func (l *Ledger) EvaluateOrder(productIndex, quantity int) model.Outcome {
	if productIndex < 0 || productIndex >= len(l.records) {
		panic(fmt.Errorf("ledger: product index %d outside [0,%d): %w",
			productIndex, len(l.records), apperr.ErrContractViolation))
	}
	if quantity < 1 {
		panic(fmt.Errorf("ledger: quantity %d below 1: %w", quantity, apperr.ErrContractViolation))
	}

	r := l.records[productIndex]
	r.mu.Lock()
	defer r.mu.Unlock()

	if l.sealed.Load() {
		panic(fmt.Errorf("ledger: order on product %d after snapshot: %w",
			productIndex+1, apperr.ErrLedgerSealed))
	}

	out := model.Outcome{ProductIndex: productIndex, Quantity: quantity}
	r.total++
	if r.stock >= quantity {
		r.stock -= quantity
		r.successful++
		r.unitsSold += quantity
		out.Kind = model.Success
	} else {
		r.failed++
		out.Kind = model.OutOfStock
	}
	return out
}

// Snapshot seals the ledger and returns every product in catalog order.
// It must only be called once all sessions have drained; any later
// EvaluateOrder panics. Calling it again returns the same final values.
func (l *Ledger) Snapshot() []model.Product {
	l.sealed.Store(true)

	out := make([]model.Product, len(l.records))
	for i, r := range l.records {
		r.mu.Lock()
		out[i] = model.Product{
			Description:      r.description,
			UnitPrice:        r.unitPrice,
			Stock:            r.stock,
			InitialStock:     r.initialStock,
			TotalOrders:      r.total,
			SuccessfulOrders: r.successful,
			FailedOrders:     r.failed,
			UnitsSold:        r.unitsSold,
		}
		r.mu.Unlock()
	}
	return out
}
