package calc

import (
	"slices"
	"strings"

	"github.com/angas/pstryk-go/types"
	"github.com/angas/pstryk-go/types/maybe"
)

// BestPrices ranks frames by attractiveness for the given direction: the
// cheapest hours first when buying, the most lucrative first when selling.
// Returns at most top frames; the input is left untouched.
func BestPrices(frames []types.PriceFrame, dir types.Direction, top int) []types.PriceFrame {
	if top < 1 || len(frames) == 0 {
		return []types.PriceFrame{}
	}

	sorted := slices.Clone(frames)
	slices.SortStableFunc(sorted, func(a, b types.PriceFrame) int {
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		default:
			return 0
		}
	})
	if dir == types.DirectionSell {
		slices.Reverse(sorted)
	}

	if top > len(sorted) {
		top = len(sorted)
	}
	return sorted[:top]
}

// NextHourPrice finds the price of the frame starting at the top of the
// hour after "now". Frame starts are local "2006-01-02T15:04:05" strings,
// so an hour-precision prefix match is enough.
func NextHourPrice(snap *types.PriceSnapshot, nextHourPrefix string) maybe.Maybe[float64] {
	if snap == nil {
		return maybe.None[float64]()
	}
	for _, f := range snap.PricesToday {
		if strings.HasPrefix(f.Start, nextHourPrefix) {
			return maybe.Some(f.Price)
		}
	}
	// Near midnight the next hour lives outside today's subsequence.
	for _, f := range snap.Prices {
		if strings.HasPrefix(f.Start, nextHourPrefix) {
			return maybe.Some(f.Price)
		}
	}
	return maybe.None[float64]()
}
