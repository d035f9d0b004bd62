// Package savedproduct implements the merchant "save product" action.
package savedproduct

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cartpromo/internal/adapter"
	"cartpromo/internal/model"
)

// Repository stores saved-product records.
type Repository interface {
	Create(ctx context.Context, p *model.SavedProduct) error
	List(ctx context.Context, shop string) ([]model.SavedProduct, error)
}

// Service saves products locally and flags them on the remote platform.
type Service struct {
	repo      Repository
	publisher adapter.FlagPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service.
func NewService(repo Repository, publisher adapter.FlagPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Save creates the record and then sets the remote "is saved" flag.
// A duplicate yields ErrConflict and no remote write. If the flag write
// fails the record is kept and the error returned.
func (s *Service) Save(ctx context.Context, p *model.SavedProduct) error {
	p.Shop = strings.TrimSpace(p.Shop)
	p.ProductID = strings.TrimSpace(p.ProductID)
	if p.Shop == "" {
		return model.NewValidationError("shop", "required")
	}
	if p.ProductID == "" {
		return model.NewValidationError("product_id", "required")
	}
	if p.AvailableQuantity < 0 {
		p.AvailableQuantity = 0
	}
	p.IsAvailable = p.AvailableQuantity > 0
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	if err := s.publisher.MarkSaved(ctx, p.ProductID); err != nil {
		s.logger.ErrorContext(ctx, "saved product flag failed",
			slog.String("shop", p.Shop),
			slog.String("product_id", p.ProductID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("mark saved: %w", err)
	}

	s.logger.InfoContext(ctx, "product saved",
		slog.String("shop", p.Shop),
		slog.String("product_id", p.ProductID),
		slog.Int("available_quantity", p.AvailableQuantity),
	)
	return nil
}

// List returns the saved products of shop.
func (s *Service) List(ctx context.Context, shop string) ([]model.SavedProduct, error) {
	shop = strings.TrimSpace(shop)
	if shop == "" {
		return nil, model.NewValidationError("shop", "required")
	}
	return s.repo.List(ctx, shop)
}
