// Package handler provides the HTTP surface of the cart promotion service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cartpromo/internal/cartfunc"
	"cartpromo/internal/carttransform"
	"cartpromo/internal/model"
	"cartpromo/internal/reconcile"
)

// Reconciler applies an inventory notification.
type Reconciler interface {
	Reconcile(ctx context.Context, update model.ProductUpdate) (reconcile.Action, error)
}

// SavedProducts is the save action.
type SavedProducts interface {
	Save(ctx context.Context, p *model.SavedProduct) error
	List(ctx context.Context, shop string) ([]model.SavedProduct, error)
}

// Deps are the collaborators a Handler serves.
type Deps struct {
	Engine        *carttransform.Engine
	Reconciler    Reconciler
	SavedProducts SavedProducts

	// WebhookSecret verifies X-Shopify-Hmac-Sha256.
	WebhookSecret []byte
	// APIVersion is the Admin API version the payload handling targets.
	APIVersion string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine        *carttransform.Engine
	codec         cartfunc.Codec
	reconciler    Reconciler
	savedProducts SavedProducts
	webhookSecret []byte
	apiVersion    string
	logger        *slog.Logger
}

// New creates a Handler.
func New(deps Deps, logger *slog.Logger) *Handler {
	h := &Handler{
		engine:        deps.Engine,
		reconciler:    deps.Reconciler,
		savedProducts: deps.SavedProducts,
		webhookSecret: deps.WebhookSecret,
		apiVersion:    deps.APIVersion,
		logger:        logger,
	}
	if deps.Engine != nil {
		h.codec = cartfunc.NewCodec(deps.Engine.Config().WidgetAttribute)
	}
	return h
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /cart-transform", h.handleCartTransform)
	mux.HandleFunc("POST /webhooks/products/update", h.handleProductUpdate)

	mux.HandleFunc("POST /saved-products", h.handleSaveProduct)
	mux.HandleFunc("GET /saved-products", h.handleListSavedProducts)

	mux.Handle("/mcp", h.NewMCPHandler())

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details []errorBody `json:"details,omitempty"`
}

// MaxRequestBodySize limits request bodies to 1MB.
const MaxRequestBodySize = 1 << 20

// decodeJSON reads JSON from request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
