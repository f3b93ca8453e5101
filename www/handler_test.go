package www

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angas/pstryk-go/config"
	"github.com/angas/pstryk-go/types"
	"github.com/angas/pstryk-go/types/maybe"
)

type fakeSource struct {
	dir       types.Direction
	snap      *types.RefreshResult
	refreshed int
}

func (f *fakeSource) Direction() types.Direction          { return f.dir }
func (f *fakeSource) Snapshot() *types.RefreshResult      { return f.snap }
func (f *fakeSource) LastSuccess() bool                   { return f.snap != nil }
func (f *fakeSource) RequestRefresh()                     { f.refreshed++ }
func (f *fakeSource) LastSuccessTime() maybe.Maybe[time.Time] {
	if f.snap == nil {
		return maybe.None[time.Time]()
	}
	return maybe.Some(f.snap.FetchedAt)
}

func testSources(snap *types.RefreshResult) map[types.Direction]DataSource {
	return map[types.Direction]DataSource{
		types.DirectionBuy: &fakeSource{dir: types.DirectionBuy, snap: snap},
	}
}

func testSnapshot() *types.RefreshResult {
	return &types.RefreshResult{
		Price: &types.PriceSnapshot{
			Current: maybe.Some(0.55),
			Prices: []types.PriceFrame{
				{Start: "2024-03-10T00:00:00", Price: 0.55},
				{Start: "2024-03-10T01:00:00", Price: 0.30},
				{Start: "2024-03-10T02:00:00", Price: 0.80},
			},
			PricesToday: []types.PriceFrame{
				{Start: "2024-03-10T00:00:00", Price: 0.55},
				{Start: "2024-03-10T01:00:00", Price: 0.30},
				{Start: "2024-03-10T02:00:00", Price: 0.80},
			},
		},
		Usage: &types.UsageSnapshot{
			TotalUsageKwh: maybe.Some(12.3),
			UsageFrames:   []json.RawMessage{json.RawMessage(`{"usage":12.3}`)},
		},
		FetchedAt: time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
	}
}

func TestSnapshotHandler(t *testing.T) {
	logger := slog.Default()
	h := NewSnapshotHandler(logger, testSources(testSnapshot()))

	t.Run("returns snapshot for configured direction", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot?direction=buy", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp snapshotResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Direction != types.DirectionBuy {
			t.Errorf("direction = %q", resp.Direction)
		}
		if !resp.LastSuccess {
			t.Error("last_success should be true")
		}
		if resp.Result == nil || resp.Result.Price == nil {
			t.Fatal("result.price missing")
		}
		if got := resp.Result.Price.Current.Value(); got != 0.55 {
			t.Errorf("current = %v, want 0.55", got)
		}
	})

	t.Run("rejects unknown direction", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot?direction=sideways", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unconfigured direction is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot?direction=sell", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestPricesHandler(t *testing.T) {
	logger := slog.Default()
	h := NewPricesHandler(logger, config.AppConfigPstryk{}, testSources(testSnapshot()))

	t.Run("ranks cheapest hours first for buy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/api/prices?direction=buy&top=2", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp pricesResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if len(resp.BestPrices) != 2 {
			t.Fatalf("len(best_prices) = %d, want 2", len(resp.BestPrices))
		}
		if resp.BestPrices[0].Price != 0.30 || resp.BestPrices[1].Price != 0.55 {
			t.Errorf("best_prices = %v", resp.BestPrices)
		}
	})

	t.Run("no price data is 503", func(t *testing.T) {
		empty := NewPricesHandler(logger, config.AppConfigPstryk{}, testSources(nil))
		rec := httptest.NewRecorder()
		empty(rec, httptest.NewRequest(http.MethodGet, "/api/prices", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestRefreshHandler(t *testing.T) {
	src := &fakeSource{dir: types.DirectionBuy}
	sources := map[types.Direction]DataSource{types.DirectionBuy: src}
	h := NewRefreshHandler(slog.Default(), sources)

	t.Run("post queues refresh", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/api/refresh?direction=buy", nil))
		if rec.Code != http.StatusAccepted {
			t.Errorf("status = %d, want 202", rec.Code)
		}
		if src.refreshed != 1 {
			t.Errorf("refreshed = %d, want 1", src.refreshed)
		}
	})

	t.Run("get is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/api/refresh", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}
