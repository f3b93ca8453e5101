package www

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/angas/pstryk-go/database"
	"github.com/angas/pstryk-go/types"
	"github.com/angas/pstryk-go/types/maybe"
)

type directionInfo struct {
	LastSuccess     bool                          `json:"last_success"`
	LastSuccessTime maybe.Maybe[time.Time]        `json:"last_success_time"`
	RecentRefreshes []database.RefreshHistoryRow  `json:"recent_refreshes"`
}

type sysInfoResponse struct {
	StartedAt     time.Time                           `json:"started_at"`
	UptimeSeconds float64                             `json:"uptime_seconds"`
	GoVersion     string                              `json:"go_version"`
	NumGoroutine  int                                 `json:"num_goroutine"`
	Directions    map[types.Direction]directionInfo   `json:"directions"`
}

func NewSysInfoHandler(logger *slog.Logger, db *database.Database, sources map[types.Direction]DataSource, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		info := sysInfoResponse{
			StartedAt:     started,
			UptimeSeconds: time.Since(started).Seconds(),
			GoVersion:     runtime.Version(),
			NumGoroutine:  runtime.NumGoroutine(),
			Directions:    make(map[types.Direction]directionInfo),
		}

		for dir, src := range sources {
			recent, err := db.GetRecentRefreshes(r.Context(), dir, intOrDefault(r.URL, "history", 10))
			if err != nil {
				logger.Warn("fetching refresh history", slog.String("direction", dir.String()), slog.Any("error", err))
			}
			info.Directions[dir] = directionInfo{
				LastSuccess:     src.LastSuccess(),
				LastSuccessTime: src.LastSuccessTime(),
				RecentRefreshes: recent,
			}
		}

		writeJSON(logger, w, info)
	}
}
