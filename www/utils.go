package www

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/angas/pstryk-go/types"
)

func intOrDefault(u *url.URL, key string, defaultValue int) int {
	if v := u.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func directionOrDefault(u *url.URL, defaultValue types.Direction) (types.Direction, bool) {
	v := u.Query().Get("direction")
	if v == "" {
		return defaultValue, true
	}
	d := types.Direction(v)
	return d, d.Valid()
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("encoding json response", slog.Any("error", err))
	}
}
