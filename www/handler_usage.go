package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/pstryk-go/types"
)

func NewUsageHandler(logger *slog.Logger, sources map[types.Direction]DataSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		dir, ok := directionOrDefault(r.URL, types.DirectionBuy)
		if !ok {
			http.Error(w, "unknown direction", http.StatusBadRequest)
			return
		}

		src, ok := sources[dir]
		if !ok {
			http.Error(w, "direction not configured", http.StatusNotFound)
			return
		}

		snap := src.Snapshot()
		if snap == nil || snap.Usage == nil {
			http.Error(w, "no usage data available", http.StatusServiceUnavailable)
			return
		}

		writeJSON(logger, w, snap.Usage)
	}
}
