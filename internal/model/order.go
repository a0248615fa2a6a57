// Package model defines the catalog, order and outcome types shared by
// the ledger, the session runner and the admin API.
package model

import "github.com/shopspring/decimal"

// Product is a read-only view of one catalog slot.
type Product struct {
	Description      string          `json:"description"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Stock            int             `json:"stock"`
	InitialStock     int             `json:"initial_stock"`
	TotalOrders      int             `json:"total_orders"`
	SuccessfulOrders int             `json:"successful_orders"`
	FailedOrders     int             `json:"failed_orders"`
	UnitsSold        int             `json:"units_sold"`
}

// Revenue returns the value of every unit sold at the product's unit price.
func (p Product) Revenue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.UnitsSold)))
}

// OrderRequest is one synthetic purchase attempt. ProductIndex is 0-based.
type OrderRequest struct {
	ProductIndex int `json:"product_index"`
	Quantity     int `json:"quantity"`
}

// OutcomeKind is the business result of evaluating an order.
type OutcomeKind int

const (
	Success OutcomeKind = iota + 1
	OutOfStock
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case OutOfStock:
		return "out_of_stock"
	default:
		return "unknown"
	}
}

// Outcome is produced by the ledger for a single evaluated order.
type Outcome struct {
	ProductIndex int         `json:"product_index"`
	Quantity     int         `json:"quantity"`
	Kind         OutcomeKind `json:"kind"`
}

// DisplayNumber returns the 1-based product number used in client messages.
func DisplayNumber(productIndex int) int { return productIndex + 1 }
