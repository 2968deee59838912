package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viha/freshmart-api/internal/cart"
	"github.com/viha/freshmart-api/internal/pricing"
)

type AddCartItemReq struct {
	ProductID string `json:"product_id"`
}

type CartResp struct {
	Items      []cart.Line    `json:"items"`
	TotalItems int            `json:"totalItems"`
	Totals     pricing.Totals `json:"totals"`
}

func (h *StorefrontHandler) cartResp(l *cart.Ledger) CartResp {
	lines := l.Lines()
	return CartResp{
		Items:      lines,
		TotalItems: l.TotalItemCount(),
		Totals:     pricing.Quote(lines, h.FreeDeliveryThreshold, h.DeliveryFee),
	}
}

func (h *StorefrontHandler) getCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION", "X-Session-Id header required")
		return
	}
	writeData(w, http.StatusOK, h.cartResp(h.Sessions.Ledger(r.Context(), sid)))
}

func (h *StorefrontHandler) addCartItem(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION", "X-Session-Id header required")
		return
	}
	var req AddCartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "product_id required")
		return
	}

	// The snapshot taken here is what the cart freezes; later catalog reloads
	// do not reprice existing lines.
	p, ok := h.Catalog.Product(req.ProductID)
	if !ok {
		writeError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found: "+req.ProductID)
		return
	}

	l := h.Sessions.Ledger(r.Context(), sid)
	l.AddOrIncrement(p)
	h.Sessions.Persist(r.Context(), sid)
	writeData(w, http.StatusOK, h.cartResp(l))
}

// removeCartItem decrements by one, or removes the whole line with ?all=1.
// Absent product ids are a no-op, not an error.
func (h *StorefrontHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION", "X-Session-Id header required")
		return
	}
	productID := chi.URLParam(r, "productID")

	l := h.Sessions.Ledger(r.Context(), sid)
	if r.URL.Query().Get("all") == "1" {
		l.Remove(productID)
	} else {
		l.DecrementOrRemove(productID)
	}
	h.Sessions.Persist(r.Context(), sid)
	writeData(w, http.StatusOK, h.cartResp(l))
}

func (h *StorefrontHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION", "X-Session-Id header required")
		return
	}
	l := h.Sessions.Ledger(r.Context(), sid)
	l.Clear()
	h.Sessions.Persist(r.Context(), sid)
	writeData(w, http.StatusOK, h.cartResp(l))
}

func (h *StorefrontHandler) getCartTotals(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION", "X-Session-Id header required")
		return
	}
	l := h.Sessions.Ledger(r.Context(), sid)
	writeData(w, http.StatusOK, pricing.Quote(l.Lines(), h.FreeDeliveryThreshold, h.DeliveryFee))
}
