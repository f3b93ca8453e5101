package convert

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/angas/pstryk-go/types/maybe"
)

// Price parses an upstream price value into a float rounded to two
// decimals. The API serves price_gross either as a number or as a string
// that may use a comma decimal separator and surrounding whitespace.
// Malformed input yields None, never an error.
func Price(raw any) maybe.Maybe[float64] {
	n := Number(raw)
	if !n.IsValid() {
		return n
	}
	return maybe.Some(TwoDecimals(n.Value()))
}

// Number is the unrounded variant, used for fields like total_usage_kwh.
func Number(raw any) maybe.Maybe[float64] {
	switch v := raw.(type) {
	case nil:
		return maybe.None[float64]()
	case float64:
		return finite(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			slog.Default().Warn("price conversion error", slog.String("value", v.String()))
			return maybe.None[float64]()
		}
		return finite(f)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			slog.Default().Warn("price conversion error", slog.String("value", v))
			return maybe.None[float64]()
		}
		return finite(f)
	default:
		slog.Default().Warn("price conversion error, unsupported type", slog.String("value", fmt.Sprintf("%v", raw)))
		return maybe.None[float64]()
	}
}

func finite(f float64) maybe.Maybe[float64] {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return maybe.None[float64]()
	}
	return maybe.Some(f)
}
