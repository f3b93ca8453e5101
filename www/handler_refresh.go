package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/pstryk-go/types"
)

// NewRefreshHandler queues an out-of-schedule refresh for one direction.
func NewRefreshHandler(logger *slog.Logger, sources map[types.Direction]DataSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
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

		src.RequestRefresh()
		logger.Info("manual refresh requested", slog.String("direction", dir.String()))
		w.WriteHeader(http.StatusAccepted)
	}
}
