package pstryk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angas/pstryk-go/types"
)

func newTestClient(srvURL string) *Client {
	return New(srvURL+"/", "test-key", "Europe/Warsaw", 5*time.Second)
}

func TestFetchPrices(t *testing.T) {
	var gotPath, gotAuth, gotAccept string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"frames": [
			{"start": "2025-01-01T00:00:00Z", "end": "2025-01-01T01:00:00Z", "price_gross": "1,00"},
			{"start": "2025-01-01T01:00:00Z", "end": "2025-01-01T02:00:00Z", "price_gross": 2.5}
		]}`))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).FetchPrices(context.Background(), types.DirectionBuy, "2025-01-01T00:00:00Z", "2025-01-03T00:00:00Z")
	if err != nil {
		t.Fatalf("FetchPrices() unexpected error: %v", err)
	}

	if gotPath != "/pricing/" {
		t.Errorf("expected path /pricing/, got %s", gotPath)
	}
	if gotAuth != "test-key" {
		t.Errorf("expected Authorization header test-key, got %q", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("expected Accept application/json, got %q", gotAccept)
	}
	if got := gotQuery["resolution"]; len(got) != 1 || got[0] != "hour" {
		t.Errorf("expected resolution=hour, got %v", got)
	}
	if got := gotQuery["window_start"]; len(got) != 1 || got[0] != "2025-01-01T00:00:00Z" {
		t.Errorf("expected window_start, got %v", got)
	}

	if len(data.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(data.Frames))
	}
	if data.Frames[0].PriceGross != "1,00" {
		t.Errorf("expected raw string price, got %v", data.Frames[0].PriceGross)
	}
	if data.Frames[1].PriceGross != 2.5 {
		t.Errorf("expected numeric price, got %v", data.Frames[1].PriceGross)
	}
}

func TestFetchPricesSellEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"frames": []}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).FetchPrices(context.Background(), types.DirectionSell, "s", "e"); err != nil {
		t.Fatalf("FetchPrices() unexpected error: %v", err)
	}
	if gotPath != "/prosumer-pricing/" {
		t.Errorf("expected path /prosumer-pricing/, got %s", gotPath)
	}
}

func TestFetchUsage(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"total_usage_kwh": 12.34, "usage_frames": [{"day": "2025-01-01", "usage": 12.34}]}`))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).FetchUsage(context.Background(), "2025-01-01T00:00:00Z", "2025-01-02T00:00:00Z")
	if err != nil {
		t.Fatalf("FetchUsage() unexpected error: %v", err)
	}
	if gotPath != "/meter-data/energy-usage/" {
		t.Errorf("expected usage path, got %s", gotPath)
	}
	if got := gotQuery["resolution"]; len(got) != 1 || got[0] != "day" {
		t.Errorf("expected resolution=day, got %v", got)
	}
	if got := gotQuery["for_tz"]; len(got) != 1 || got[0] != "Europe/Warsaw" {
		t.Errorf("expected for_tz=Europe/Warsaw, got %v", got)
	}
	if data.TotalUsageKwh != 12.34 {
		t.Errorf("expected total 12.34, got %v", data.TotalUsageKwh)
	}
	if len(data.UsageFrames) != 1 {
		t.Errorf("expected 1 usage frame, got %d", len(data.UsageFrames))
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrUnauthorized) {
					t.Errorf("expected ErrUnauthorized, got %v", err)
				}
			},
		},
		{
			name:   "403 forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrForbidden) {
					t.Errorf("expected ErrForbidden, got %v", err)
				}
			},
		},
		{
			name:   "404 not found includes URL",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var nfe *NotFoundError
				if !errors.As(err, &nfe) {
					t.Fatalf("expected *NotFoundError, got %v", err)
				}
				if !strings.Contains(nfe.URL, "/pricing/") {
					t.Errorf("expected URL in error, got %q", nfe.URL)
				}
			},
		},
		{
			name:   "429 rate limited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrRateLimited) {
					t.Errorf("expected ErrRateLimited, got %v", err)
				}
			},
		},
		{
			name:   "500 api error with excerpt",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var apiErr *ApiError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected *ApiError, got %v", err)
				}
				if apiErr.Status != http.StatusInternalServerError {
					t.Errorf("expected status 500, got %d", apiErr.Status)
				}
				if len(apiErr.Excerpt) > 100 {
					t.Errorf("excerpt longer than 100 chars: %d", len(apiErr.Excerpt))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(strings.Repeat("x", 500)))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).FetchPrices(context.Background(), types.DirectionBuy, "s", "e")
			if err == nil {
				t.Fatal("expected an error")
			}
			tt.check(t, err)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed server means a connect failure.

	_, err := newTestClient(srv.URL).FetchPrices(context.Background(), types.DirectionBuy, "s", "e")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %v", err)
	}
}

func TestTimeoutError(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := New(srv.URL+"/", "test-key", "Europe/Warsaw", 50*time.Millisecond)
	_, err := c.FetchPrices(context.Background(), types.DirectionBuy, "s", "e")
	var toErr *TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
}
