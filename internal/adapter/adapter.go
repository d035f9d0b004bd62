// Package adapter defines the interface to the remote commerce platform.
// Implementations translate availability flags into platform-specific calls
// (Shopify product metafields today).
package adapter

import (
	"context"
)

// FlagPublisher writes per-product flags that storefront code reads back
// from the remote platform.
//
// Retry and error classification belong to the implementation; callers
// treat a returned error as "this write did not land".
type FlagPublisher interface {
	// PublishAvailability records whether a saved product is in stock.
	// Shopify: metafield my_app.is_saved_available (boolean).
	PublishAvailability(ctx context.Context, productID string, available bool) error

	// MarkSaved records that the merchant saved the product.
	// Shopify: metafield my_app.is_saved = true.
	MarkSaved(ctx context.Context, productID string) error
}
