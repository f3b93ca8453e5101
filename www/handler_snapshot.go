package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/pstryk-go/types"
	"github.com/angas/pstryk-go/types/maybe"
)

type snapshotResponse struct {
	Direction       types.Direction        `json:"direction"`
	LastSuccess     bool                   `json:"last_success"`
	LastSuccessTime maybe.Maybe[time.Time] `json:"last_success_time"`
	Result          *types.RefreshResult   `json:"result"`
}

func NewSnapshotHandler(logger *slog.Logger, sources map[types.Direction]DataSource) http.HandlerFunc {
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

		writeJSON(logger, w, snapshotResponse{
			Direction:       dir,
			LastSuccess:     src.LastSuccess(),
			LastSuccessTime: src.LastSuccessTime(),
			Result:          src.Snapshot(),
		})
	}
}
