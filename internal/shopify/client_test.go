package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cartpromo/internal/model"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		ShopDomain:  srv.URL,
		AccessToken: "shpat_test",
		APIVersion:  "2025-10",
		Namespace:   "my_app",
	}, srv.Client())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.retryDelay = func(int) time.Duration { return 0 }
	return c
}

func decodeRequest(t *testing.T, r *http.Request) graphQLRequest {
	t.Helper()
	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Errorf("decode request: %v", err)
	}
	return req
}

const okResponse = `{"data":{"metafieldsSet":{"metafields":[{"id":"gid://shopify/Metafield/1","namespace":"my_app","key":"k","value":"true"}],"userErrors":[]}}}`

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing domain", Config{APIVersion: "2025-10", Namespace: "my_app"}},
		{"missing version", Config{ShopDomain: "s1.myshopify.com", Namespace: "my_app"}},
		{"missing namespace", Config{ShopDomain: "s1.myshopify.com", APIVersion: "2025-10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_Endpoint(t *testing.T) {
	c, err := New(Config{ShopDomain: "s1.myshopify.com/", APIVersion: "2025-10", Namespace: "my_app"}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := "https://s1.myshopify.com/admin/api/2025-10/graphql.json"
	if c.endpoint != want {
		t.Errorf("endpoint = %q, want %q", c.endpoint, want)
	}
}

func TestPublishAvailability(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		wantValue string
	}{
		{"available", true, "true"},
		{"sold out", false, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/admin/api/2025-10/graphql.json" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if got := r.Header.Get("X-Shopify-Access-Token"); got != "shpat_test" {
					t.Errorf("access token = %q", got)
				}

				req := decodeRequest(t, r)
				mfs, ok := req.Variables["metafields"].([]any)
				if !ok || len(mfs) != 1 {
					t.Errorf("metafields = %#v", req.Variables["metafields"])
					return
				}
				mf := mfs[0].(map[string]any)
				if mf["ownerId"] != "gid://shopify/Product/1" {
					t.Errorf("ownerId = %v", mf["ownerId"])
				}
				if mf["namespace"] != "my_app" || mf["key"] != KeyIsSavedAvailable {
					t.Errorf("metafield = %s.%s", mf["namespace"], mf["key"])
				}
				if mf["type"] != "boolean" || mf["value"] != tt.wantValue {
					t.Errorf("value = %v (%v), want %s (boolean)", mf["value"], mf["type"], tt.wantValue)
				}
				w.Write([]byte(okResponse))
			})

			if err := c.PublishAvailability(context.Background(), "gid://shopify/Product/1", tt.available); err != nil {
				t.Fatalf("PublishAvailability() error = %v", err)
			}
		})
	}
}

func TestMarkSaved(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		mf := req.Variables["metafields"].([]any)[0].(map[string]any)
		if mf["key"] != KeyIsSaved || mf["value"] != "true" {
			t.Errorf("metafield = %v=%v, want is_saved=true", mf["key"], mf["value"])
		}
		w.Write([]byte(okResponse))
	})

	if err := c.MarkSaved(context.Background(), "gid://shopify/Product/1"); err != nil {
		t.Fatalf("MarkSaved() error = %v", err)
	}
}

func TestSetMetafield_EmptyProduct(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	err := c.MarkSaved(context.Background(), "  ")
	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestSetMetafield_UserErrors(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"metafieldsSet":{"metafields":[],"userErrors":[{"field":["metafields","0","ownerId"],"message":"Owner does not exist"}]}}}`))
	})

	err := c.PublishAvailability(context.Background(), "gid://shopify/Product/404", false)
	if !errors.Is(err, model.ErrUpstreamError) {
		t.Fatalf("error = %v, want ErrUpstreamError", err)
	}
}

func TestGraphQL_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(okResponse))
	})

	if err := c.MarkSaved(context.Background(), "gid://shopify/Product/1"); err != nil {
		t.Fatalf("MarkSaved() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGraphQL_RetriesThrottled(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`))
			return
		}
		w.Write([]byte(okResponse))
	})

	if err := c.MarkSaved(context.Background(), "gid://shopify/Product/1"); err != nil {
		t.Fatalf("MarkSaved() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestGraphQL_ThrottledExhausted(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := c.MarkSaved(context.Background(), "gid://shopify/Product/1")
	if !errors.Is(err, model.ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
	if got := calls.Load(); got != graphqlRetryMax+1 {
		t.Errorf("calls = %d, want %d", got, graphqlRetryMax+1)
	}
}

func TestGraphQL_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":"[API] Invalid API key or access token"}`))
	})

	err := c.MarkSaved(context.Background(), "gid://shopify/Product/1")
	if !errors.Is(err, model.ErrUpstreamError) {
		t.Fatalf("error = %v, want ErrUpstreamError", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestGraphQL_ContextCancelledDuringBackoff(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c.retryDelay = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.MarkSaved(ctx, "gid://shopify/Product/1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, 0},
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{3, 4 * time.Second},
		{10, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := retryDelay(tt.attempt); got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
