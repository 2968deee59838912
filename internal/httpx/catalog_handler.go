package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (h *StorefrontHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.Catalog.RootCategories())
}

func (h *StorefrontHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, ok := h.Catalog.Category(id)
	if !ok {
		writeError(w, http.StatusNotFound, "CATEGORY_NOT_FOUND", "category not found: "+id)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *StorefrontHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	if cat := r.URL.Query().Get("category"); cat != "" {
		writeData(w, http.StatusOK, h.Catalog.ProductsByCategory(cat))
		return
	}
	writeData(w, http.StatusOK, h.Catalog.Products())
}

func (h *StorefrontHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.Catalog.Product(id)
	if !ok {
		writeError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found: "+id)
		return
	}
	writeData(w, http.StatusOK, p)
}

// refreshCatalog re-runs the upstream load. On failure the previous snapshot
// stays live and the caller gets a 502.
func (h *StorefrontHandler) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Catalog.Load(ctx); err != nil {
		writeError(w, http.StatusBadGateway, "CATALOG_FETCH_FAILED", err.Error())
		return
	}
	writeData(w, http.StatusOK, map[string]int{
		"categories": len(h.Catalog.Categories()),
		"products":   len(h.Catalog.Products()),
	})
}
