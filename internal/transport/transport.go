// Package transport builds the outbound http.Client used for the Shopify
// Admin API.
package transport

import (
	"fmt"
	"net/http"
	"time"
)

// Kind selects the TLS stack for outbound requests.
type Kind string

const (
	KindStandard Kind = "standard"
	KindChrome   Kind = "chrome"
)

// Options configures NewClient.
type Options struct {
	Kind      Kind
	Timeout   time.Duration
	PerSecond float64 // 0 disables rate limiting
	Burst     int
}

// NewClient returns an http.Client whose transport matches opts.
func NewClient(opts Options) (*http.Client, error) {
	var rt http.RoundTripper
	switch opts.Kind {
	case KindStandard, "":
		rt = http.DefaultTransport.(*http.Transport).Clone()
	case KindChrome:
		rt = NewChromeTransport(opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown transport kind %q", opts.Kind)
	}

	if opts.PerSecond > 0 {
		rt = RateLimited(rt, opts.PerSecond, opts.Burst)
	}

	return &http.Client{Transport: rt, Timeout: opts.Timeout}, nil
}
