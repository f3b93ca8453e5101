package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/angas/pstryk-go/types"
	"github.com/angas/pstryk-go/types/maybe"
)

// RefreshHistoryRow is one audit record per refresh cycle, kept for
// diagnostics (the www sys_info handler reads recent rows).
type RefreshHistoryRow struct {
	Direction     types.Direction      `json:"direction"`
	FetchedAt     time.Time            `json:"fetched_at"`
	Success       bool                 `json:"success"`
	CurrentPrice  maybe.Maybe[float64] `json:"current_price"`
	FrameCount    int                  `json:"frame_count"`
	TotalUsageKwh maybe.Maybe[float64] `json:"total_usage_kwh"`
}

func (d *Database) SaveRefreshHistory(ctx context.Context, r RefreshHistoryRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO refresh_history (direction, fetched_at, success, current_price, frame_count, total_usage_kwh)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Direction.String(),
		r.FetchedAt.UTC().Format(time.RFC3339),
		r.Success,
		sqlNullFloat(r.CurrentPrice),
		r.FrameCount,
		sqlNullFloat(r.TotalUsageKwh))
	if err != nil {
		return fmt.Errorf("saving refresh history: %w", err)
	}
	return nil
}

func (d *Database) GetRecentRefreshes(ctx context.Context, dir types.Direction, limit int) ([]RefreshHistoryRow, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT direction, fetched_at, success, current_price, frame_count, total_usage_kwh
		FROM refresh_history
		WHERE direction = ?
		ORDER BY id DESC
		LIMIT ?`,
		dir.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("fetching refresh history: %w", err)
	}
	defer rows.Close()

	var entries []RefreshHistoryRow
	for rows.Next() {
		var r RefreshHistoryRow
		var ts string
		var price, usage sql.NullFloat64
		if err := rows.Scan(&r.Direction, &ts, &r.Success, &price, &r.FrameCount, &usage); err != nil {
			return nil, err
		}
		r.FetchedAt, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing fetched_at: %w", err)
		}
		r.CurrentPrice = fromNullFloat(price)
		r.TotalUsageKwh = fromNullFloat(usage)
		entries = append(entries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading refresh history rows: %w", err)
	}

	return entries, nil
}

func (d *Database) PurgeRefreshHistory(ctx context.Context, retentionDays int) error {
	d.logger.Debug("purging refresh history")
	before := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339)
	_, err := d.write.ExecContext(ctx, `
		DELETE FROM refresh_history WHERE fetched_at < ?`, before)
	if err != nil {
		return fmt.Errorf("purging refresh history: %w", err)
	}
	return nil
}

func sqlNullFloat(m maybe.Maybe[float64]) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value(), Valid: m.IsValid()}
}

func fromNullFloat(f sql.NullFloat64) maybe.Maybe[float64] {
	if !f.Valid {
		return maybe.None[float64]()
	}
	return maybe.Some(f.Float64)
}
