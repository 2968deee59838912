package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/viha/freshmart-api/internal/kafka"
	"github.com/viha/freshmart-api/internal/orders"
	"github.com/viha/freshmart-api/internal/pricing"
	"github.com/viha/freshmart-api/internal/redisx"
)

type CheckoutReq struct {
	ExternalID string `json:"external_id"`
	UserID     string `json:"user_id"`
}

type CheckoutResp struct {
	OrderID    string         `json:"order_id"`
	Totals     pricing.Totals `json:"totals"`
	Idempotent bool           `json:"idempotent"`
}

func (h *StorefrontHandler) checkout(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION", "X-Session-Id header required")
		return
	}
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.ExternalID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "external_id and user_id required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	l := h.Sessions.Ledger(ctx, sid)
	lines := l.Lines()
	if len(lines) == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_CART", "cart has no items")
		return
	}
	totals := pricing.Quote(lines, h.FreeDeliveryThreshold, h.DeliveryFee)

	orderID, existed, err := h.Orders.PlaceOrder(ctx, req.ExternalID, sid, req.UserID, lines, totals)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ORDER_FAILED", err.Error())
		return
	}

	// Idempotency shortcut + status cache for fast GETs.
	idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, req.ExternalID)
	_ = h.Redis.Set(ctx, idemKey, orderID, redisx.TTLIdempotency).Err()
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, statusKey, `{"status":"PLACED"}`, redisx.TTLStatusCache).Err()

	if !existed {
		items := make([]orders.ItemPrice, 0, len(lines))
		for _, ln := range lines {
			items = append(items, orders.ItemPrice{
				ProductID: ln.Product.ID, Qty: ln.Quantity, Price: ln.Product.Price,
			})
		}
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderPlaced,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: orderID,
			Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
				OrderID:     orderID,
				ExternalID:  req.ExternalID,
				SessionID:   sid,
				UserID:      req.UserID,
				Items:       items,
				Subtotal:    totals.Subtotal,
				DeliveryFee: totals.DeliveryFee,
				Total:       totals.Total,
			}),
		}
		h.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	// Order placed: empty the ledger so the next visit starts fresh. An
	// idempotent replay (existed=true) captured nothing from this cart, so
	// its contents stay put.
	if !existed {
		l.Clear()
		h.Sessions.Persist(ctx, sid)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"data":    CheckoutResp{OrderID: orderID, Totals: totals, Idempotent: existed},
	})
}

func (h *StorefrontHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION", "X-Session-Id header required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	os, err := h.Orders.ListBySession(ctx, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ORDERS_FAILED", err.Error())
		return
	}
	writeData(w, http.StatusOK, os)
}

func (h *StorefrontHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeData(w, http.StatusOK, json.RawMessage(s))
		return
	}

	// fall back to DB
	status, err := h.Orders.GetOrderStatus(ctx, orderID)
	if err != nil {
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "not found")
		return
	}
	body := map[string]any{"status": status}
	b, _ := json.Marshal(body)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	writeData(w, http.StatusOK, json.RawMessage(b))
}
