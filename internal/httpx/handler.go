package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/viha/freshmart-api/internal/cart"
	"github.com/viha/freshmart-api/internal/catalog"
	kafkax "github.com/viha/freshmart-api/internal/kafka"
	"github.com/viha/freshmart-api/internal/orders"
	"github.com/viha/freshmart-api/internal/pricing"
)

// OrderPlacer is the slice of the orders repo the storefront needs.
// *orders.Repo is the Postgres implementation.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, externalID, sessionID, userID string, lines []cart.Line, totals pricing.Totals) (orderID string, existed bool, err error)
	GetOrderStatus(ctx context.Context, orderID string) (orders.Status, error)
	ListBySession(ctx context.Context, sessionID string) ([]orders.Order, error)
}

var _ OrderPlacer = (*orders.Repo)(nil)

// StorefrontHandler serves the customer-facing API: catalog reads, per-session
// cart mutations, order totals, checkout.
type StorefrontHandler struct {
	Catalog  *catalog.Store
	Sessions *cart.Sessions
	Orders   OrderPlacer
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string

	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
}

func (h *StorefrontHandler) Register(r *chi.Mux) {
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{id}", h.getCategory)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Post("/catalog/refresh", h.refreshCatalog)

	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addCartItem)
	r.Delete("/cart/items/{productID}", h.removeCartItem)
	r.Delete("/cart", h.clearCart)
	r.Get("/cart/totals", h.getCartTotals)

	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
}

// Responses use the same {success, data?, error?} envelope the upstream
// catalog API speaks, so clients deal with one wrapper.

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, code int, errCode, msg string) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"error":   map[string]string{"code": errCode, "message": msg},
	})
}

// sessionID pulls the cart session from the X-Session-Id header. Empty means
// the caller skipped session setup; cart routes reject that.
func sessionID(r *http.Request) string {
	return r.Header.Get("X-Session-Id")
}
