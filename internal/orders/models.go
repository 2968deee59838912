package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          string
	ExternalID  string
	SessionID   string
	UserID      string
	Status      Status // see status.go
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem carries the frozen cart snapshot price, not the live catalog price.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Name      string
	Unit      string
	Qty       int
	Price     decimal.Decimal
}

type Reservation struct {
	ID        string
	OrderID   string
	ProductID string
	Qty       int
	Status    string // RESERVED | RELEASED
	CreatedAt time.Time
}
