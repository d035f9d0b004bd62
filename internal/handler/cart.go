package handler

import (
	"io"
	"log/slog"
	"net/http"

	"cartpromo/internal/cartfunc"
	"cartpromo/internal/model"
)

// handleCartTransform runs the engine on a host invocation document.
// POST /cart-transform
func (h *Handler) handleCartTransform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
	if err != nil {
		h.writeError(w, model.NewValidationError("body", "too large or unreadable"))
		return
	}

	cart, err := h.codec.DecodeInput(raw)
	if err != nil {
		h.writeError(w, err)
		return
	}

	res := h.engine.Transform(cart)

	h.logger.DebugContext(ctx, "cart transformed",
		slog.Int("lines", len(cart.Lines)),
		slog.Int("operations", len(res.Operations)),
	)

	body, err := cartfunc.EncodeOutput(res)
	if err != nil {
		h.writeError(w, model.NewInternalError(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
