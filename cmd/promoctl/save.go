package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"cartpromo/internal/model"
)

type saveOptions struct {
	*rootOptions
	Shop     string
	Product  string
	Title    string
	Handle   string
	Image    string
	Quantity int
}

func newSaveCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &saveOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a product for a shop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return saveProduct(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Shop, "shop", "", "shop domain (required)")
	cmd.Flags().StringVar(&opts.Product, "product", "", "product GraphQL id (required)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "product title")
	cmd.Flags().StringVar(&opts.Handle, "handle", "", "product handle")
	cmd.Flags().StringVar(&opts.Image, "image", "", "product image URL")
	cmd.Flags().IntVar(&opts.Quantity, "qty", 0, "available quantity")
	_ = cmd.MarkFlagRequired("shop")
	_ = cmd.MarkFlagRequired("product")

	return cmd
}

func saveProduct(cmd *cobra.Command, opts *saveOptions) error {
	body, err := json.Marshal(model.SavedProduct{
		Shop:              opts.Shop,
		ProductID:         opts.Product,
		Title:             opts.Title,
		Handle:            opts.Handle,
		Image:             opts.Image,
		AvailableQuantity: opts.Quantity,
	})
	if err != nil {
		return fmt.Errorf("encoding product: %w", err)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		strings.TrimRight(opts.Server, "/")+"/saved-products", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := opts.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("saving product: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("save failed: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var saved model.SavedProduct
	if err := json.Unmarshal(respBody, &saved); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s (id %d, available %t)\n", saved.ProductID, saved.ID, saved.IsAvailable)
	return nil
}
