package shopify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cartpromo/internal/adapter"
	"cartpromo/internal/model"
)

// Metafield keys written under Config.Namespace.
const (
	KeyIsSaved          = "is_saved"
	KeyIsSavedAvailable = "is_saved_available"
)

const metafieldTypeBoolean = "boolean"

const metafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
	metafieldsSet(metafields: $metafields) {
		metafields { id namespace key value }
		userErrors { field message }
	}
}`

type metafieldsSetData struct {
	MetafieldsSet struct {
		Metafields []struct {
			ID        string `json:"id"`
			Namespace string `json:"namespace"`
			Key       string `json:"key"`
			Value     string `json:"value"`
		} `json:"metafields"`
		UserErrors []userError `json:"userErrors"`
	} `json:"metafieldsSet"`
}

// PublishAvailability sets the product's saved-availability flag.
func (c *Client) PublishAvailability(ctx context.Context, productID string, available bool) error {
	return c.setBoolMetafield(ctx, productID, KeyIsSavedAvailable, available)
}

// MarkSaved sets the product's "is saved" flag.
func (c *Client) MarkSaved(ctx context.Context, productID string) error {
	return c.setBoolMetafield(ctx, productID, KeyIsSaved, true)
}

func (c *Client) setBoolMetafield(ctx context.Context, productID, key string, value bool) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return model.NewValidationError("product_id", "required")
	}

	metafields := []map[string]any{{
		"ownerId":   productID,
		"namespace": c.config.Namespace,
		"key":       key,
		"type":      metafieldTypeBoolean,
		"value":     strconv.FormatBool(value),
	}}

	var data metafieldsSetData
	if err := c.graphqlRequest(ctx, metafieldsSetMutation, map[string]any{"metafields": metafields}, &data); err != nil {
		return fmt.Errorf("set metafield %s.%s: %w", c.config.Namespace, key, err)
	}
	if len(data.MetafieldsSet.UserErrors) > 0 {
		return model.NewUpstreamError("shopify",
			errors.New("metafieldsSet: "+formatUserErrors(data.MetafieldsSet.UserErrors)))
	}
	return nil
}

var _ adapter.FlagPublisher = (*Client)(nil)
