// Package geocode provides address geocoding via the Nominatim
// (OpenStreetMap) search API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "AlgaeFoundation-Dashboard/1.0"
	defaultCountry   = "USA"
)

// Client geocodes postal addresses one at a time.
type Client interface {
	// Geocode resolves a single address. A confirmed no-match is not an
	// error: it returns Matched=false with a nil error. A non-nil error
	// means the lookup itself failed (network, timeout).
	Geocode(ctx context.Context, addr AddressInput) (*Result, error)
}

// AddressInput is the address to geocode. Any field may be blank; the
// request is issued with whatever subset is non-empty.
type AddressInput struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string // defaults to USA
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Matched     bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithBaseURL overrides the Nominatim endpoint (tests, self-hosted mirrors).
func WithBaseURL(base string) Option {
	return func(g *geocoder) {
		g.baseURL = base
	}
}

// WithUserAgent sets the identifying client label sent on every request.
// Nominatim's usage policy requires one.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

// WithRateLimit overrides the requests-per-second limit. The public
// Nominatim instance allows at most 1 req/s; raise this only against a
// self-hosted mirror.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type geocoder struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient creates a Nominatim geocoding Client. The default rate limit of
// one request per second is the upstream usage policy, not a tuning knob;
// calls must never be issued in parallel or batched.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
