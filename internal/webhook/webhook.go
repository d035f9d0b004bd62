// Package webhook authenticates and decodes Shopify webhook deliveries.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cartpromo/internal/model"
)

// Delivery headers set by Shopify.
const (
	HeaderHmac       = "X-Shopify-Hmac-Sha256"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderAPIVersion = "X-Shopify-API-Version"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// TopicProductsUpdate is the only topic this service subscribes to.
const TopicProductsUpdate = "products/update"

// Delivery is an authenticated webhook request.
type Delivery struct {
	Shop       string
	Topic      string
	APIVersion string
	WebhookID  string
	Body       []byte
}

// Sign returns the base64 HMAC-SHA256 of body under secret, as Shopify
// sends it in HeaderHmac.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body. The comparison is constant
// time.
func Verify(secret, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// ReadDelivery reads at most maxBytes of r's body and authenticates it.
// A bad or missing signature yields ErrUnauthorized; a missing shop header
// or oversized body yields ErrInvalidRequest.
func ReadDelivery(r *http.Request, secret []byte, maxBytes int64) (*Delivery, error) {
	if len(secret) == 0 {
		return nil, errors.New("webhook secret is not configured")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return nil, model.NewValidationError("body", "unreadable")
	}
	if int64(len(body)) > maxBytes {
		return nil, model.NewValidationError("body", "too large")
	}

	if !Verify(secret, body, r.Header.Get(HeaderHmac)) {
		return nil, model.NewUnauthorizedError("invalid webhook signature")
	}

	d := &Delivery{
		Shop:       strings.TrimSpace(r.Header.Get(HeaderShopDomain)),
		Topic:      strings.TrimSpace(r.Header.Get(HeaderTopic)),
		APIVersion: strings.TrimSpace(r.Header.Get(HeaderAPIVersion)),
		WebhookID:  strings.TrimSpace(r.Header.Get(HeaderWebhookID)),
		Body:       body,
	}
	if d.Shop == "" {
		return nil, model.NewValidationError(HeaderShopDomain, "required")
	}
	return d, nil
}

type productPayload struct {
	ID                int64  `json:"id"`
	AdminGraphQLAPIID string `json:"admin_graphql_api_id"`
	Variants          []struct {
		ID                int64 `json:"id"`
		AdminGraphQLAPIID string `json:"admin_graphql_api_id"`
		InventoryQuantity *int  `json:"inventory_quantity"`
	} `json:"variants"`
}

// ParseProductUpdate decodes a products/update payload for shop.
// The product reference is the GraphQL id; when only the numeric id is
// present it is converted to one.
func ParseProductUpdate(shop string, body []byte) (model.ProductUpdate, error) {
	var p productPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return model.ProductUpdate{}, model.NewValidationError("payload", "malformed JSON")
	}

	productID := strings.TrimSpace(p.AdminGraphQLAPIID)
	if productID == "" && p.ID != 0 {
		productID = fmt.Sprintf("gid://shopify/Product/%d", p.ID)
	}
	if productID == "" {
		return model.ProductUpdate{}, model.NewValidationError("admin_graphql_api_id", "required")
	}

	update := model.ProductUpdate{
		Shop:      shop,
		ProductID: productID,
		Variants:  make([]model.VariantInventory, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		variantID := v.AdminGraphQLAPIID
		if variantID == "" && v.ID != 0 {
			variantID = fmt.Sprintf("gid://shopify/ProductVariant/%d", v.ID)
		}
		update.Variants = append(update.Variants, model.VariantInventory{
			VariantID: variantID,
			Quantity:  v.InventoryQuantity,
		})
	}
	return update, nil
}

// Decode authenticates r and returns the product update it carries.
// Deliveries for another topic are rejected with ErrInvalidRequest.
func Decode(r *http.Request, secret []byte, maxBytes int64) (*Delivery, model.ProductUpdate, error) {
	d, err := ReadDelivery(r, secret, maxBytes)
	if err != nil {
		return nil, model.ProductUpdate{}, err
	}
	if d.Topic != TopicProductsUpdate {
		return d, model.ProductUpdate{}, model.NewValidationError(HeaderTopic, fmt.Sprintf("unsupported topic %q", d.Topic))
	}
	update, err := ParseProductUpdate(d.Shop, d.Body)
	if err != nil {
		return d, model.ProductUpdate{}, err
	}
	return d, update, nil
}
