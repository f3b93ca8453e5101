package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/pstryk-go/database"
	"github.com/angas/pstryk-go/logging"
)

func NewLogHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		page := intOrDefault(r.URL, "page", 1)
		pageSize := intOrDefault(r.URL, "pageSize", 25)
		level := r.URL.Query().Get("level")
		minLvl := logging.LevelFromString(&level)

		entries, err := db.GetLogEntries(r.Context(), minLvl, page, pageSize)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data := struct {
			Page     int                   `json:"page"`
			PageSize int                   `json:"page_size"`
			Entries  []database.LogEntryRow `json:"entries"`
		}{
			Page:     page,
			PageSize: pageSize,
			Entries:  entries,
		}

		writeJSON(logger, w, data)
	}
}
