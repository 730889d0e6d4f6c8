package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input   string
		wantLat float64
		wantLng float64
		wantOK  bool
	}{
		{"37.865101, -119.538330", 37.865101, -119.538330, true},
		{"0,0", 0, 0, true},
		{"-90, 180", -90, 180, true},
		{"90.1, 0", 0, 0, false},
		{"-90.1, 0", 0, 0, false},
		{"0, 180.5", 0, 0, false},
		{"0, -181", 0, 0, false},
		{"not, numbers", 0, 0, false},
		{"37.8", 0, 0, false},
		{"1, 2, 3", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		lat, lng, ok := ParseLocation(tt.input)
		if ok != tt.wantOK {
			t.Errorf("ParseLocation(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			continue
		}
		if ok && (lat != tt.wantLat || lng != tt.wantLng) {
			t.Errorf("ParseLocation(%q) = %v, %v, want %v, %v", tt.input, lat, lng, tt.wantLat, tt.wantLng)
		}
	}
}

func TestResolveAddressPrefersRecommended(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Error("expected api key in request")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 0,
			"result": {
				"address": "Plain Street 1",
				"formatted_addresses": {"recommend": "Recommended Plaza"}
			}
		}`))
	}))
	defer server.Close()

	r := New("test-key", server.URL)
	got := r.ResolveAddress(context.Background(), "37.865101, -119.538330")
	if got == nil || *got != "Recommended Plaza" {
		t.Errorf("expected recommended address, got %v", got)
	}
}

func TestResolveAddressFallsBackToStandard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": 0, "result": {"address": "Plain Street 1"}}`))
	}))
	defer server.Close()

	r := New("test-key", server.URL)
	got := r.ResolveAddress(context.Background(), "10, 20")
	if got == nil || *got != "Plain Street 1" {
		t.Errorf("expected standard address fallback, got %v", got)
	}
}

func TestResolveAddressRecoversToNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "service-level error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status": 311, "message": "key invalid"}`))
			},
		},
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "empty result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status": 0, "result": {}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			r := New("test-key", server.URL)
			if got := r.ResolveAddress(context.Background(), "10, 20"); got != nil {
				t.Errorf("expected nil, got %q", *got)
			}
		})
	}
}

func TestResolveAddressTransportFailure(t *testing.T) {
	// Point at a server that is already closed.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	r := New("test-key", server.URL)
	if got := r.ResolveAddress(context.Background(), "10, 20"); got != nil {
		t.Errorf("expected nil on transport failure, got %q", *got)
	}
}

func TestResolveAddressInvalidInputSkipsNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	r := New("test-key", server.URL)
	if got := r.ResolveAddress(context.Background(), "91, 0"); got != nil {
		t.Errorf("expected nil for out-of-bounds input, got %q", *got)
	}
	if called {
		t.Error("invalid input must not reach the service")
	}
}

func TestResolverDisabledWithoutKey(t *testing.T) {
	r := New("", "")
	if r.Enabled() {
		t.Error("resolver without key must be disabled")
	}
	if got := r.ResolveAddress(context.Background(), "10, 20"); got != nil {
		t.Errorf("disabled resolver must return nil, got %q", *got)
	}
}
