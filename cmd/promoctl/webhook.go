package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cartpromo/internal/config"
	"cartpromo/internal/reconcile"
	"cartpromo/internal/webhook"
)

type webhookOptions struct {
	*rootOptions
	Secret     string
	Shop       string
	Product    string
	Quantities []int
	APIVersion string
}

// productUpdatePayload is the subset of products/update the service reads.
type productUpdatePayload struct {
	AdminGraphQLAPIID string           `json:"admin_graphql_api_id"`
	Variants          []variantPayload `json:"variants"`
}

type variantPayload struct {
	AdminGraphQLAPIID string `json:"admin_graphql_api_id"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

func newWebhookCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &webhookOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Send a signed products/update webhook",
		Long: `Send a signed products/update webhook and print the reconcile result.

Each --qty adds one variant with that inventory quantity.

Example:
  promoctl webhook --secret shpss_x --shop demo.myshopify.com \
    --product gid://shopify/Product/1 --qty 3 --qty 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendWebhook(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Secret, "secret", "", "app API secret used to sign the body (required)")
	cmd.Flags().StringVar(&opts.Shop, "shop", "", "shop domain (required)")
	cmd.Flags().StringVar(&opts.Product, "product", "", "product GraphQL id (required)")
	cmd.Flags().IntSliceVar(&opts.Quantities, "qty", nil, "variant inventory quantity, repeatable")
	cmd.Flags().StringVar(&opts.APIVersion, "api-version", config.DefaultAPIVersion, "X-Shopify-API-Version header")
	for _, name := range []string{"secret", "shop", "product"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func sendWebhook(cmd *cobra.Command, opts *webhookOptions) error {
	payload := productUpdatePayload{
		AdminGraphQLAPIID: opts.Product,
		Variants:          make([]variantPayload, 0, len(opts.Quantities)),
	}
	for i, q := range opts.Quantities {
		payload.Variants = append(payload.Variants, variantPayload{
			AdminGraphQLAPIID: fmt.Sprintf("%s/variant-%d", opts.Product, i+1),
			InventoryQuantity: q,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		strings.TrimRight(opts.Server, "/")+"/webhooks/products/update", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.HeaderHmac, webhook.Sign([]byte(opts.Secret), body))
	req.Header.Set(webhook.HeaderShopDomain, opts.Shop)
	req.Header.Set(webhook.HeaderTopic, webhook.TopicProductsUpdate)
	req.Header.Set(webhook.HeaderAPIVersion, opts.APIVersion)
	req.Header.Set(webhook.HeaderWebhookID, uuid.NewString())

	resp, err := opts.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status: %d\n", resp.StatusCode)

	if header := resp.Header.Get(reconcile.ResultHeader); header != "" {
		action, err := reconcile.ParseHeaderValue(header)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", reconcile.ResultHeader, err)
		}
		fmt.Fprintf(out, "action: %s\n", action.Kind)
		fmt.Fprintf(out, "reason: %s\n", action.Reason)
		if !action.IsNoOp() {
			fmt.Fprintf(out, "quantity: %d\n", action.AvailableQuantity)
			fmt.Fprintf(out, "available: %t\n", action.IsAvailable)
		}
	}

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook failed: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
