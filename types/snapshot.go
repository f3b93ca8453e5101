package types

import (
	"encoding/json"
	"time"

	"github.com/angas/pstryk-go/types/maybe"
)

// Direction selects which pricing endpoint a coordinator polls.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

func (d Direction) String() string {
	return string(d)
}

func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// PriceFrame is one normalized hourly price. Start is expressed in the
// coordinator's local zone as "2006-01-02T15:04:05" without a zone suffix.
// Frames keep the chronological order the upstream API returns them in.
type PriceFrame struct {
	Start string  `json:"start"`
	Price float64 `json:"price"`
}

type PriceSnapshot struct {
	// Price of the frame whose [start, end) interval contains the fetch
	// instant; absent when no frame matches.
	Current maybe.Maybe[float64] `json:"current"`
	// Up to 48 hours of frames from local midnight onwards.
	Prices []PriceFrame `json:"prices"`
	// Subsequence of Prices whose local start date is today.
	PricesToday []PriceFrame `json:"prices_today"`
}

type UsageSnapshot struct {
	TotalUsageKwh maybe.Maybe[float64] `json:"total_usage_kwh"`
	// Raw daily usage records passed through unmodified.
	UsageFrames []json.RawMessage `json:"usage_frames"`
}

// RefreshResult is the complete output of one refresh cycle. A nil side
// means that fetch failed after retries; the other side is still valid.
// Results are immutable once published, a new refresh replaces the whole
// value.
type RefreshResult struct {
	Price     *PriceSnapshot `json:"price,omitempty"`
	Usage     *UsageSnapshot `json:"usage,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}
