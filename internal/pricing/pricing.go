// Package pricing derives order totals from a cart snapshot. Pure functions,
// no state: recompute on every ledger change.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/viha/freshmart-api/internal/cart"
)

type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}

// Quote computes subtotal, delivery fee, and grand total. Each line uses its
// frozen snapshot price. The fee is waived once subtotal reaches the
// free-delivery threshold.
func Quote(lines []cart.Line, freeDeliveryThreshold, flatFee decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, ln := range lines {
		subtotal = subtotal.Add(ln.Product.Price.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}
	fee := flatFee
	if subtotal.GreaterThanOrEqual(freeDeliveryThreshold) {
		fee = decimal.Zero
	}
	return Totals{Subtotal: subtotal, DeliveryFee: fee, Total: subtotal.Add(fee)}
}
