package pstryk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angas/pstryk-go/types"
)

const (
	DefaultBaseURL = "https://api.pstryk.pl/integrations/"
	DefaultTimeout = 30 * time.Second

	buyPricingPath  = "pricing/"
	sellPricingPath = "prosumer-pricing/"
	energyUsagePath = "meter-data/energy-usage/"
)

// PriceFrame is a raw pricing record as served by the API. Timestamps stay
// strings so one malformed frame can be skipped instead of failing the
// whole decode; price_gross arrives as either a string or a number.
type PriceFrame struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	PriceGross any    `json:"price_gross"`
}

type PriceData struct {
	Frames []PriceFrame `json:"frames"`
}

type UsageData struct {
	TotalUsageKwh any               `json:"total_usage_kwh"`
	UsageFrames   []json.RawMessage `json:"usage_frames"`
}

// Client is a thin protocol-mapping layer over the Pstryk integrations
// API. It maps HTTP statuses to typed errors and decodes JSON; retries are
// the caller's concern.
type Client struct {
	baseURL  string
	apiKey   string
	timezone string
	http     *http.Client
	logger   *slog.Logger
}

func New(baseURL, apiKey, timezone string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		timezone: timezone,
		http:     &http.Client{Timeout: timeout},
		logger:   slog.Default().With("module", "pstryk"),
	}
}

// FetchPrices gets hourly pricing frames for the given direction within
// the UTC window [startUTC, endUTC).
func (c *Client) FetchPrices(ctx context.Context, dir types.Direction, startUTC, endUTC string) (PriceData, error) {
	path := buyPricingPath
	if dir == types.DirectionSell {
		path = sellPricingPath
	}

	query := url.Values{}
	query.Set("resolution", "hour")
	query.Set("window_start", startUTC)
	query.Set("window_end", endUTC)

	var data PriceData
	if err := c.get(ctx, path, query, &data); err != nil {
		return PriceData{}, err
	}
	return data, nil
}

// FetchUsage gets daily energy-usage records within the UTC window.
func (c *Client) FetchUsage(ctx context.Context, startUTC, endUTC string) (UsageData, error) {
	query := url.Values{}
	query.Set("resolution", "day")
	query.Set("for_tz", c.timezone)
	query.Set("window_start", startUTC)
	query.Set("window_end", endUTC)

	var data UsageData
	if err := c.get(ctx, energyUsagePath, query, &data); err != nil {
		return UsageData{}, err
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return &TimeoutError{Cause: err}
		}
		return &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Decoded below.
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return &NotFoundError{URL: reqURL}
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &ApiError{Status: resp.StatusCode, Excerpt: bodyExcerpt(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func bodyExcerpt(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 100))
	if err != nil {
		return ""
	}
	return string(body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
