package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"cartpromo/internal/model"
	"cartpromo/internal/reconcile"
	"cartpromo/internal/webhook"
)

// handleProductUpdate reconciles saved-product availability.
// POST /webhooks/products/update
//
// NoOp and Update both answer 200 with a Reconcile-Result header. A failed
// write answers 502 with one detail per failed side so the platform
// redelivers.
func (h *Handler) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	delivery, update, err := webhook.Decode(r, h.webhookSecret, MaxRequestBodySize)
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) {
			h.logger.WarnContext(ctx, "webhook rejected", slog.String("error", err.Error()))
		}
		h.writeError(w, err)
		return
	}

	if !webhook.VersionSupported(h.apiVersion, delivery.APIVersion) {
		h.logger.WarnContext(ctx, "webhook api version newer than supported",
			slog.String("supported", h.apiVersion),
			slog.String("received", delivery.APIVersion),
		)
	}

	h.logger.InfoContext(ctx, "product update received",
		slog.String("shop", delivery.Shop),
		slog.String("product_id", update.ProductID),
		slog.String("webhook_id", delivery.WebhookID),
		slog.Int("variants", len(update.Variants)),
	)

	action, err := h.reconciler.Reconcile(ctx, update)
	if err != nil {
		var writeErr *reconcile.WriteError
		if errors.As(err, &writeErr) {
			h.writeReconcileHeader(w, action)
			h.writeJSON(w, http.StatusBadGateway, errorResponse{Error: writeErrorBody(writeErr)})
			return
		}
		h.writeError(w, model.NewUpstreamError("saved product store", err))
		return
	}

	h.writeReconcileHeader(w, action)
	h.writeJSON(w, http.StatusOK, reconcileResponse{
		Action:            string(action.Kind),
		Reason:            string(action.Reason),
		ProductID:         action.ProductID,
		ObservedTotal:     action.ObservedTotal,
		AvailableQuantity: action.AvailableQuantity,
		IsAvailable:       action.IsAvailable,
	})
}

func (h *Handler) writeReconcileHeader(w http.ResponseWriter, a reconcile.Action) {
	value, err := a.HeaderValue()
	if err != nil {
		h.logger.Error("failed to encode reconcile header", slog.String("error", err.Error()))
		return
	}
	w.Header().Set(reconcile.ResultHeader, value)
}

func writeErrorBody(err *reconcile.WriteError) errorBody {
	body := errorBody{
		Code:    "RECONCILE_WRITE_FAILED",
		Message: "inventory reconciliation did not complete",
	}
	if err.Persist != nil {
		body.Details = append(body.Details, errorBody{Code: "PERSIST_FAILED", Message: "saved product store update failed"})
	}
	if err.Publish != nil {
		body.Details = append(body.Details, errorBody{Code: "PUBLISH_FAILED", Message: "remote availability flag update failed"})
	}
	return body
}

type reconcileResponse struct {
	Action            string `json:"action"`
	Reason            string `json:"reason"`
	ProductID         string `json:"product_id"`
	ObservedTotal     int    `json:"observed_total"`
	AvailableQuantity int    `json:"available_quantity,omitempty"`
	IsAvailable       bool   `json:"is_available,omitempty"`
}
