// MCP transport for the cart promotion service using the official MCP Go SDK.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"cartpromo/internal/cartfunc"
	"cartpromo/internal/model"
	"cartpromo/internal/reconcile"
)

// ReconcileInventoryInput is the input schema for the reconcile_inventory tool.
type ReconcileInventoryInput struct {
	Shop      string            `json:"shop" jsonschema:"shop domain, e.g. example.myshopify.com"`
	ProductID string            `json:"product_id" jsonschema:"product GID"`
	Variants  []VariantQtyInput `json:"variants" jsonschema:"per-variant inventory quantities"`
}

// VariantQtyInput is one variant's inventory.
type VariantQtyInput struct {
	VariantID         string `json:"variant_id,omitempty" jsonschema:"variant GID"`
	InventoryQuantity *int   `json:"inventory_quantity" jsonschema:"available quantity, null when unknown"`
}

// ReconcileInventoryOutput reports the action taken.
type ReconcileInventoryOutput struct {
	Action            string `json:"action"`
	Reason            string `json:"reason"`
	ObservedTotal     int    `json:"observed_total"`
	AvailableQuantity int    `json:"available_quantity"`
	IsAvailable       bool   `json:"is_available"`
}

// NewMCPServer creates an MCP server with the service's tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cartpromo",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Cart promotion service. Run the cart transform on a cart document, " +
				"or reconcile saved-product availability from inventory quantities.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cart_transform",
		Description: "Compute the line price overrides and bundle expansion for a cart. Input is the host cart document.",
	}, h.mcpCartTransform)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reconcile_inventory",
		Description: "Reconcile a saved product's availability with the given variant quantities.",
	}, h.mcpReconcileInventory)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpCartTransform(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input cartfunc.Input,
) (*mcp.CallToolResult, *cartfunc.Output, error) {
	// Round-trip through the wire codec so tool calls get the same schema
	// validation as the REST endpoint.
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	cart, err := h.codec.DecodeInput(raw)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	out := cartfunc.BuildOutput(h.engine.Transform(cart))
	return nil, &out, nil
}

func (h *Handler) mcpReconcileInventory(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ReconcileInventoryInput,
) (*mcp.CallToolResult, *ReconcileInventoryOutput, error) {
	if input.Shop == "" {
		return nil, nil, fmt.Errorf("shop is required")
	}
	if input.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}

	update := model.ProductUpdate{Shop: input.Shop, ProductID: input.ProductID}
	for _, v := range input.Variants {
		update.Variants = append(update.Variants, model.VariantInventory{
			VariantID: v.VariantID,
			Quantity:  v.InventoryQuantity,
		})
	}

	action, err := h.reconciler.Reconcile(ctx, update)
	if err != nil {
		var writeErr *reconcile.WriteError
		if errors.As(err, &writeErr) {
			return nil, nil, fmt.Errorf("RECONCILE_WRITE_FAILED: %s", describeWriteError(writeErr))
		}
		return nil, nil, h.mcpError(err)
	}

	return nil, &ReconcileInventoryOutput{
		Action:            string(action.Kind),
		Reason:            string(action.Reason),
		ObservedTotal:     action.ObservedTotal,
		AvailableQuantity: action.AvailableQuantity,
		IsAvailable:       action.IsAvailable,
	}, nil
}

func describeWriteError(err *reconcile.WriteError) string {
	switch {
	case err.Persist != nil && err.Publish != nil:
		return "store and remote flag updates failed"
	case err.Persist != nil:
		return "store update failed"
	default:
		return "remote flag update failed"
	}
}

// mcpError converts domain errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
