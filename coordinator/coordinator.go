package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angas/pstryk-go/convert"
	"github.com/angas/pstryk-go/hours"
	"github.com/angas/pstryk-go/pstryk"
	"github.com/angas/pstryk-go/retry"
	"github.com/angas/pstryk-go/types"
	"github.com/angas/pstryk-go/types/maybe"
)

const refreshTimeout = 2 * time.Minute

// OnRefresh observes every successfully published snapshot, e.g. for
// websocket or MQTT fan-out. Called outside the coordinator's lock.
type OnRefresh func(dir types.Direction, res *types.RefreshResult)

type inflight struct {
	done chan struct{}
	res  *types.RefreshResult
	err  error
}

// Coordinator owns the refresh cycle for one price direction: it computes
// request windows, fetches price and usage data concurrently under the
// retry policy, normalizes frames and publishes immutable snapshots. It
// reschedules itself on an hourly and a midnight tick.
type Coordinator struct {
	logger    *slog.Logger
	client    *pstryk.Client
	direction types.Direction
	loc       *time.Location
	backoff   retry.Backoff
	now       func() time.Time

	OnRefresh OnRefresh

	snapshot        atomic.Pointer[types.RefreshResult]
	lastSuccess     atomic.Bool
	lastSuccessTime atomic.Pointer[time.Time]

	mu       sync.Mutex
	call     *inflight
	hourly   *Handle
	midnight *Handle
	down     bool
}

func New(client *pstryk.Client, direction types.Direction, loc *time.Location, backoff retry.Backoff) *Coordinator {
	logger := slog.Default().With("module", "coordinator", slog.String("direction", direction.String()))
	if backoff.Logger == nil {
		backoff.Logger = logger
	}
	return &Coordinator{
		logger:    logger,
		client:    client,
		direction: direction,
		loc:       loc,
		backoff:   backoff,
		now:       time.Now,
	}
}

func (c *Coordinator) Direction() types.Direction {
	return c.direction
}

// Snapshot returns the last published result, or nil when no refresh has
// ever succeeded. The returned value is read-only.
func (c *Coordinator) Snapshot() *types.RefreshResult {
	return c.snapshot.Load()
}

func (c *Coordinator) LastSuccess() bool {
	return c.lastSuccess.Load()
}

func (c *Coordinator) LastSuccessTime() maybe.Maybe[time.Time] {
	if t := c.lastSuccessTime.Load(); t != nil {
		return maybe.Some(*t)
	}
	return maybe.None[time.Time]()
}

// FirstRefresh runs one blocking refresh at startup. Callers wait for it
// so the coordinator is initialized (or has failed explicitly) before the
// rest of the application comes up.
func (c *Coordinator) FirstRefresh(ctx context.Context) error {
	_, err := c.Refresh(ctx)
	return err
}

// RequestRefresh triggers a refresh without waiting for it. A refresh
// already in flight absorbs the request.
func (c *Coordinator) RequestRefresh() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := c.Refresh(ctx); err != nil {
			c.logger.Error("requested refresh failed", slog.Any("error", err))
		}
	}()
}

// Refresh runs one refresh cycle. Concurrent calls collapse into a single
// fetch; latecomers wait for and share its outcome.
func (c *Coordinator) Refresh(ctx context.Context) (*types.RefreshResult, error) {
	c.mu.Lock()
	if call := c.call; call != nil {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.res, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflight{done: make(chan struct{})}
	c.call = call
	c.mu.Unlock()

	res, err := c.doRefresh(ctx)

	c.mu.Lock()
	c.call = nil
	torndown := c.down
	c.mu.Unlock()

	call.res, call.err = res, err
	close(call.done)

	if err == nil && !torndown && c.OnRefresh != nil {
		c.OnRefresh(c.direction, res)
	}
	return res, err
}

func (c *Coordinator) doRefresh(ctx context.Context) (*types.RefreshResult, error) {
	now := c.now()
	nowLocal := now.In(c.loc)
	c.logger.Debug("starting refresh", slog.Time("now", nowLocal))

	priceStart, priceEnd := hours.PriceWindow(nowLocal)
	usageStart, usageEnd := hours.UsageWindow(nowLocal)

	var (
		wg        sync.WaitGroup
		priceData pstryk.PriceData
		priceErr  error
		usageData pstryk.UsageData
		usageErr  error
	)

	// Both sides run to completion: exhausted retries on one must not
	// cancel the other.
	wg.Add(2)
	go func() {
		defer wg.Done()
		priceData, priceErr = retry.Do(ctx, c.backoff, func(ctx context.Context) (pstryk.PriceData, error) {
			return c.client.FetchPrices(ctx, c.direction, priceStart, priceEnd)
		})
	}()
	go func() {
		defer wg.Done()
		usageData, usageErr = retry.Do(ctx, c.backoff, func(ctx context.Context) (pstryk.UsageData, error) {
			return c.client.FetchUsage(ctx, usageStart, usageEnd)
		})
	}()
	wg.Wait()

	if priceErr != nil && usageErr != nil {
		c.lastSuccess.Store(false)
		return nil, fmt.Errorf("refresh failed for both price and usage: %w", errors.Join(priceErr, usageErr))
	}

	res := &types.RefreshResult{FetchedAt: now}
	if priceErr != nil {
		c.logger.Warn("price fetch failed, publishing partial snapshot", slog.Any("error", priceErr))
	} else {
		res.Price = c.buildPriceSnapshot(priceData.Frames, now)
	}
	if usageErr != nil {
		c.logger.Warn("usage fetch failed, publishing partial snapshot", slog.Any("error", usageErr))
	} else {
		res.Usage = buildUsageSnapshot(usageData)
	}

	c.mu.Lock()
	down := c.down
	c.mu.Unlock()
	if down {
		// Torn down while the fetch was in flight: discard the result.
		return res, nil
	}

	c.snapshot.Store(res)
	c.lastSuccess.Store(true)
	c.lastSuccessTime.Store(&now)

	c.logger.Info("refresh done",
		slog.Bool("priceOk", priceErr == nil),
		slog.Bool("usageOk", usageErr == nil))
	return res, nil
}

// buildPriceSnapshot normalizes raw frames: prices are converted (frames
// with unparseable prices or timestamps are skipped), starts are restated
// in local time, and current/prices_today are derived against a single
// consistent "now".
func (c *Coordinator) buildPriceSnapshot(frames []pstryk.PriceFrame, now time.Time) *types.PriceSnapshot {
	nowUTC := now.UTC()
	today := hours.LocalDate(now, c.loc)

	snap := &types.PriceSnapshot{
		Current:     maybe.None[float64](),
		Prices:      make([]types.PriceFrame, 0, len(frames)),
		PricesToday: make([]types.PriceFrame, 0, len(frames)),
	}

	for _, f := range frames {
		price := convert.Price(f.PriceGross)
		if !price.IsValid() {
			continue
		}
		start, err := time.Parse(time.RFC3339, f.Start)
		if err != nil {
			c.logger.Warn("skipping frame with malformed start", slog.String("start", f.Start))
			continue
		}
		end, err := time.Parse(time.RFC3339, f.End)
		if err != nil {
			c.logger.Warn("skipping frame with malformed end", slog.String("end", f.End))
			continue
		}

		frame := types.PriceFrame{
			Start: hours.FormatLocal(start, c.loc),
			Price: price.Value(),
		}
		snap.Prices = append(snap.Prices, frame)
		if hours.LocalDate(start, c.loc) == today {
			snap.PricesToday = append(snap.PricesToday, frame)
		}
		if !nowUTC.Before(start.UTC()) && nowUTC.Before(end.UTC()) {
			snap.Current = price
		}
	}

	return snap
}

func buildUsageSnapshot(data pstryk.UsageData) *types.UsageSnapshot {
	frames := data.UsageFrames
	if frames == nil {
		frames = []json.RawMessage{}
	}
	return &types.UsageSnapshot{
		TotalUsageKwh: convert.Number(data.TotalUsageKwh),
		UsageFrames:   frames,
	}
}

// Run arms both repeating ticks. Refreshing is left to the ticks (and to
// FirstRefresh, which callers run beforehand).
func (c *Coordinator) Run() {
	c.ScheduleHourlyTick()
	c.ScheduleMidnightTick()
}

// ScheduleHourlyTick arms the next refresh at one minute past the next
// full hour, local time. Any previously pending hourly handle is cancelled
// first so exactly one is ever in flight.
func (c *Coordinator) ScheduleHourlyTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return
	}
	c.hourly.Cancel()
	at := hours.NextHourlyTick(c.now().In(c.loc))
	c.logger.Debug("scheduling hourly tick", slog.Time("at", at))
	c.hourly = At(at, func() { c.tick(c.ScheduleHourlyTick) })
}

// ScheduleMidnightTick arms the next refresh at one minute past local
// midnight, replacing any pending midnight handle.
func (c *Coordinator) ScheduleMidnightTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return
	}
	c.midnight.Cancel()
	at := hours.NextMidnightTick(c.now().In(c.loc))
	c.logger.Debug("scheduling midnight tick", slog.Time("at", at))
	c.midnight = At(at, func() { c.tick(c.ScheduleMidnightTick) })
}

// tick refreshes and re-arms. A failed refresh still reschedules.
func (c *Coordinator) tick(reschedule func()) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if _, err := c.Refresh(ctx); err != nil {
		c.logger.Error("scheduled refresh failed", slog.Any("error", err))
	}
	reschedule()
}

// Shutdown cancels both pending ticks. Idempotent; an in-flight refresh is
// not aborted but its snapshot is no longer announced via OnRefresh.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = true
	c.hourly.Cancel()
	c.hourly = nil
	c.midnight.Cancel()
	c.midnight = nil
}
