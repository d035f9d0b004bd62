package handler

import (
	"log/slog"
	"net/http"

	"cartpromo/internal/model"
)

// handleSaveProduct saves a product for a shop.
// POST /saved-products
func (h *Handler) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p model.SavedProduct
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "saving product",
		slog.String("shop", p.Shop),
		slog.String("product_id", p.ProductID),
	)

	if err := h.savedProducts.Save(ctx, &p); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, p)
}

// handleListSavedProducts lists a shop's saved products.
// GET /saved-products?shop=...
func (h *Handler) handleListSavedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.savedProducts.List(r.Context(), r.URL.Query().Get("shop"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, savedProductsResponse{Products: products})
}

type savedProductsResponse struct {
	Products []model.SavedProduct `json:"products"`
}
