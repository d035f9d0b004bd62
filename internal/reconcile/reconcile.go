// Package reconcile keeps saved-product availability in step with inventory
// notifications.
//
// Decide is pure: from the stored record and the observed total it picks
// NoOp or Update. Handler performs an Update as two independent writes (local
// record, remote flag) dispatched together and awaited together. There is no
// transaction across the two systems and no retry here; a redelivered
// notification finds the record already updated and becomes a NoOp.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"cartpromo/internal/adapter"
	"cartpromo/internal/model"
)

// ActionKind is the outcome of a decision.
type ActionKind string

const (
	ActionNoOp   ActionKind = "noop"
	ActionUpdate ActionKind = "update"
)

// Reason explains why an action was chosen.
type Reason string

const (
	ReasonUntracked Reason = "untracked" // no saved record for the product
	ReasonUnchanged Reason = "unchanged" // stored quantity equals observed total
	ReasonChanged   Reason = "changed"
)

// Action is what reconciliation decided for one notification.
// AvailableQuantity and IsAvailable are meaningful only for ActionUpdate.
type Action struct {
	Kind              ActionKind
	Reason            Reason
	Shop              string
	ProductID         string
	ObservedTotal     int
	AvailableQuantity int
	IsAvailable       bool
}

// IsNoOp returns true if no write is required.
func (a Action) IsNoOp() bool {
	return a.Kind == ActionNoOp
}

// Decide picks the action for update given the stored record (nil on miss).
func Decide(update model.ProductUpdate, record *model.SavedProduct) Action {
	observed := update.TotalInventory()
	action := Action{
		Kind:          ActionNoOp,
		Shop:          update.Shop,
		ProductID:     update.ProductID,
		ObservedTotal: observed,
	}

	switch {
	case record == nil:
		action.Reason = ReasonUntracked
	case record.AvailableQuantity == observed:
		action.Reason = ReasonUnchanged
	default:
		action.Kind = ActionUpdate
		action.Reason = ReasonChanged
		action.AvailableQuantity = observed
		action.IsAvailable = observed > 0
	}
	return action
}

// Lookup reads the stored record. A miss is (nil, nil), not an error.
type Lookup interface {
	Lookup(ctx context.Context, shop, productID string) (*model.SavedProduct, error)
}

// Persister writes the local availability snapshot.
type Persister interface {
	PersistAvailability(ctx context.Context, shop, productID string, quantity int, available bool) error
}

// Handler applies decisions against the local store and the remote platform.
type Handler struct {
	lookup    Lookup
	persister Persister
	publisher adapter.FlagPublisher
	logger    *slog.Logger
}

// NewHandler creates a Handler. All collaborators are required.
func NewHandler(lookup Lookup, persister Persister, publisher adapter.FlagPublisher, logger *slog.Logger) *Handler {
	return &Handler{
		lookup:    lookup,
		persister: persister,
		publisher: publisher,
		logger:    logger,
	}
}

// Reconcile handles one notification and returns the action taken.
// On a lookup failure nothing is written. On an Update both writes are
// attempted; a *WriteError reports whichever failed.
func (h *Handler) Reconcile(ctx context.Context, update model.ProductUpdate) (Action, error) {
	record, err := h.lookup.Lookup(ctx, update.Shop, update.ProductID)
	if err != nil {
		return Action{}, fmt.Errorf("lookup saved product: %w", err)
	}

	action := Decide(update, record)
	if action.IsNoOp() {
		h.logger.DebugContext(ctx, "inventory reconcile skipped",
			slog.String("shop", action.Shop),
			slog.String("product_id", action.ProductID),
			slog.String("reason", string(action.Reason)),
			slog.Int("observed_total", action.ObservedTotal),
		)
		return action, nil
	}

	if err := h.apply(ctx, action); err != nil {
		h.logger.ErrorContext(ctx, "inventory reconcile write failed",
			slog.String("shop", action.Shop),
			slog.String("product_id", action.ProductID),
			slog.String("error", err.Error()),
		)
		return action, err
	}

	h.logger.InfoContext(ctx, "inventory reconciled",
		slog.String("shop", action.Shop),
		slog.String("product_id", action.ProductID),
		slog.Int("available_quantity", action.AvailableQuantity),
		slog.Bool("is_available", action.IsAvailable),
	)
	return action, nil
}

// apply starts both writes, waits for both, and reports every failure.
// Neither write is cancelled or rolled back when the other fails.
func (h *Handler) apply(ctx context.Context, a Action) error {
	var (
		wg                     sync.WaitGroup
		persistErr, publishErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		persistErr = h.persister.PersistAvailability(ctx, a.Shop, a.ProductID, a.AvailableQuantity, a.IsAvailable)
	}()
	go func() {
		defer wg.Done()
		publishErr = h.publisher.PublishAvailability(ctx, a.ProductID, a.IsAvailable)
	}()
	wg.Wait()

	if persistErr == nil && publishErr == nil {
		return nil
	}
	return &WriteError{Persist: persistErr, Publish: publishErr}
}
