package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/pstryk-go/calc"
	"github.com/angas/pstryk-go/config"
	"github.com/angas/pstryk-go/types"
	"github.com/angas/pstryk-go/types/maybe"
)

type pricesResponse struct {
	Direction   types.Direction      `json:"direction"`
	Current     maybe.Maybe[float64] `json:"current"`
	Prices      []types.PriceFrame   `json:"prices"`
	PricesToday []types.PriceFrame   `json:"prices_today"`
	BestPrices  []types.PriceFrame   `json:"best_prices"`
}

func NewPricesHandler(logger *slog.Logger, cnfg config.AppConfigPstryk, sources map[types.Direction]DataSource) http.HandlerFunc {
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

		top := cnfg.GetBuyTop()
		if dir == types.DirectionSell {
			top = cnfg.GetSellTop()
		}
		top = intOrDefault(r.URL, "top", top)

		snap := src.Snapshot()
		if snap == nil || snap.Price == nil {
			http.Error(w, "no price data available", http.StatusServiceUnavailable)
			return
		}

		writeJSON(logger, w, pricesResponse{
			Direction:   dir,
			Current:     snap.Price.Current,
			Prices:      snap.Price.Prices,
			PricesToday: snap.Price.PricesToday,
			BestPrices:  calc.BestPrices(snap.Price.PricesToday, dir, top),
		})
	}
}
