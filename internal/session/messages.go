package session

import (
	"fmt"

	"github.com/iliamunaev/order-session-server/internal/model"
)

// RequestMessage describes a generated order before it is evaluated.
func RequestMessage(req model.OrderRequest) string {
	return fmt.Sprintf("Customer requested Product %d, Quantity: %d",
		model.DisplayNumber(req.ProductIndex), req.Quantity)
}

// OutcomeMessage describes the ledger's verdict on an order.
func OutcomeMessage(out model.Outcome) string {
	if out.Kind == model.Success {
		return fmt.Sprintf("Order Success: Product %d, Quantity: %d",
			model.DisplayNumber(out.ProductIndex), out.Quantity)
	}
	return fmt.Sprintf("Order Failed: Product %d, Out of stock", model.DisplayNumber(out.ProductIndex))
}
