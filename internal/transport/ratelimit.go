package transport

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimited wraps next so that at most perSecond requests start per second,
// with bursts up to burst. A request waits for a token or fails with its
// context's error.
func RateLimited(next http.RoundTripper, perSecond float64, burst int) http.RoundTripper {
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

type rateLimitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
