// Package shopify is a minimal Admin GraphQL client for the flags the app
// keeps on products.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cartpromo/internal/model"
)

const defaultTimeout = 10 * time.Second

// Config holds the Admin API coordinates for one shop.
type Config struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	Namespace   string // metafield namespace
	Timeout     time.Duration
}

// Client talks to the Shopify Admin GraphQL API.
type Client struct {
	config     Config
	httpClient *http.Client
	endpoint   string

	// retryDelay is overridden in tests.
	retryDelay func(attempt int) time.Duration
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type userError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

// New creates a Client. A nil httpClient gets a default one with
// Config.Timeout; pass a client built on the transport package to control
// TLS fingerprint and rate.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	domain := strings.TrimSpace(cfg.ShopDomain)
	if domain == "" {
		return nil, errors.New("shopify shop domain is empty")
	}
	if cfg.APIVersion == "" {
		return nil, errors.New("shopify api version is empty")
	}
	if cfg.Namespace == "" {
		return nil, errors.New("shopify metafield namespace is empty")
	}
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	domain = strings.TrimRight(domain, "/")

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		endpoint:   domain + "/admin/api/" + cfg.APIVersion + "/graphql.json",
		retryDelay: retryDelay,
	}, nil
}

// graphqlRequest posts one operation, retrying transient HTTP failures and
// throttled responses with backoff.
func (c *Client) graphqlRequest(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{
		Query:     strings.TrimSpace(query),
		Variables: variables,
	})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= graphqlRetryMax; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, c.retryDelay(attempt-1)); err != nil {
				return err
			}
		}

		raw, err := c.do(ctx, body)
		if err != nil {
			if isRetryableHTTPError(err) {
				lastErr = err
				continue
			}
			return model.NewUpstreamError("shopify", err)
		}

		var resp graphQLResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return model.NewUpstreamError("shopify", fmt.Errorf("decode response: %w", err))
		}
		if len(resp.Errors) > 0 {
			gqlErr := fmt.Errorf("shopify graphql errors: %s", formatGraphQLErrors(resp.Errors))
			if isThrottleGraphQLError(resp.Errors) {
				lastErr = gqlErr
				continue
			}
			return model.NewUpstreamError("shopify", gqlErr)
		}
		if out == nil {
			return nil
		}
		if len(resp.Data) == 0 {
			return model.NewUpstreamError("shopify", errors.New("graphql response missing data"))
		}
		return json.Unmarshal(resp.Data, out)
	}

	if isThrottled(lastErr) {
		return model.NewRateLimitError("shopify")
	}
	return model.NewUpstreamError("shopify", fmt.Errorf("retries exhausted: %w", lastErr))
}

func (c *Client) do(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.config.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPStatusError(resp.StatusCode, resp.Status, respBody)
	}
	return respBody, nil
}

func formatGraphQLErrors(errs []graphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if len(e.Path) > 0 {
			msg = fmt.Sprintf("%s (path: %v)", msg, e.Path)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return "unknown graphql error"
	}
	return strings.Join(parts, "; ")
}

func formatUserErrors(errs []userError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if len(e.Field) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(e.Field, "."), e.Message))
			continue
		}
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}
