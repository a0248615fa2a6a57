// Package report renders the end-of-run sales report.
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/iliamunaev/order-session-server/internal/model"
)

// Totals aggregates counters across the whole catalog.
type Totals struct {
	Orders     int             `json:"orders"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	UnitsSold  int             `json:"units_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Summarize adds up every product's counters.
func Summarize(products []model.Product) Totals {
	t := Totals{Revenue: decimal.Zero}
	for _, p := range products {
		t.Orders += p.TotalOrders
		t.Successful += p.SuccessfulOrders
		t.Failed += p.FailedOrders
		t.UnitsSold += p.UnitsSold
		t.Revenue = t.Revenue.Add(p.Revenue())
	}
	return t
}

// Write prints one block per product in catalog order followed by totals.
func Write(w io.Writer, products []model.Product) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "\n--- Sales Report ---")
	for _, p := range products {
		fmt.Fprintf(bw, "\nProduct: %s\n", p.Description)
		fmt.Fprintf(bw, "Price: %s\n", p.UnitPrice.StringFixed(2))
		fmt.Fprintf(bw, "Stock Remaining: %d\n", p.Stock)
		fmt.Fprintf(bw, "Total Orders: %d\n", p.TotalOrders)
		fmt.Fprintf(bw, "Successful Orders: %d\n", p.SuccessfulOrders)
		fmt.Fprintf(bw, "Failed Orders: %d\n", p.FailedOrders)
	}

	t := Summarize(products)
	fmt.Fprintln(bw, "\n--- Totals ---")
	fmt.Fprintf(bw, "Orders: %d (successful %d, failed %d)\n", t.Orders, t.Successful, t.Failed)
	fmt.Fprintf(bw, "Units Sold: %d\n", t.UnitsSold)
	fmt.Fprintf(bw, "Revenue: %s\n", t.Revenue.StringFixed(2))

	return bw.Flush()
}
