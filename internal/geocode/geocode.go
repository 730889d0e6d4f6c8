package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"photo-vault/internal/logging"
	"photo-vault/internal/metrics"
)

// DefaultBaseURL is the reverse-geocoding endpoint queried for address
// resolution.
const DefaultBaseURL = "https://apis.map.qq.com/ws/geocoder/v1/"

// requestTimeout bounds a single geocoder call. The upstream has no
// timeout of its own; a stuck call must not hang enrichment forever.
const requestTimeout = 10 * time.Second

// Resolver translates GPS coordinate strings into human-readable
// addresses via an external reverse-geocoding service. Every failure
// path resolves to nil: geocoding is best-effort enrichment and never
// propagates errors.
type Resolver struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a Resolver. An empty apiKey produces a disabled resolver
// whose lookups always return nil.
func New(apiKey, baseURL string) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Enabled reports whether the resolver has an API key to work with.
func (r *Resolver) Enabled() bool {
	return r.apiKey != ""
}

// geocodeResponse mirrors the service's JSON shape. Only the fields the
// address resolution chain consumes are typed.
type geocodeResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Result  *struct {
		Address            string `json:"address"`
		FormattedAddresses *struct {
			Recommend       string `json:"recommend"`
			Rough           string `json:"rough"`
			StandardAddress string `json:"standard_address"`
		} `json:"formatted_addresses"`
	} `json:"result"`
}

// ResolveAddress resolves a `"<lat>, <lng>"` coordinate string to a
// human-readable address. Invalid input, transport failures, and
// service errors all yield nil without raising.
func (r *Resolver) ResolveAddress(ctx context.Context, location string) *string {
	lat, lng, ok := ParseLocation(location)
	if !ok {
		logging.Debug("geocode: unparseable location %q", location)
		return nil
	}

	if !r.Enabled() {
		return nil
	}

	address, err := r.lookup(ctx, lat, lng)
	if err != nil {
		metrics.EnrichmentTotal.WithLabelValues("geocode", "error").Inc()
		logging.Warn("geocode: reverse lookup failed for %q: %v", location, err)
		return nil
	}
	if address == nil {
		metrics.EnrichmentTotal.WithLabelValues("geocode", "empty").Inc()
		logging.Debug("geocode: no address in response for %q", location)
		return nil
	}

	metrics.EnrichmentTotal.WithLabelValues("geocode", "success").Inc()
	return address
}

func (r *Resolver) lookup(ctx context.Context, lat, lng float64) (*string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("key", r.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Error("geocode: error closing response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Status != 0 {
		return nil, fmt.Errorf("service error %d: %s", body.Status, body.Message)
	}

	// Address resolution chain: recommended, then standard, then nothing.
	if body.Result != nil {
		if fa := body.Result.FormattedAddresses; fa != nil && fa.Recommend != "" {
			return &fa.Recommend, nil
		}
		if body.Result.Address != "" {
			return &body.Result.Address, nil
		}
	}
	return nil, nil
}

// ParseLocation parses a `"<lat>, <lng>"` string and validates the
// coordinate bounds. ok is false for anything unparseable or out of
// range.
func ParseLocation(location string) (lat, lng float64, ok bool) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}
