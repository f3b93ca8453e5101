package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/angas/pstryk-go/config"
	"github.com/angas/pstryk-go/coordinator"
	"github.com/angas/pstryk-go/pstryk"
	"github.com/angas/pstryk-go/retry"
	"github.com/angas/pstryk-go/types"
	"github.com/lmittmann/tint"
)

// One-shot fetch for a single direction, prints the normalized result as
// JSON. Handy for checking an API key or inspecting upstream data.
func main() {
	w := os.Stderr
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339Nano,
		}),
	))

	configPath := flag.String("config", "", "path to config file")
	direction := flag.String("direction", "buy", "buy or sell")
	flag.Parse()

	dir := types.Direction(*direction)
	if !dir.Valid() {
		fmt.Fprintf(os.Stderr, "unknown direction: %s\n", *direction)
		os.Exit(1)
	}

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	loc, err := time.LoadLocation(cnfg.Pstryk.GetTimezone())
	if err != nil {
		panic(err)
	}

	client := pstryk.New(
		cnfg.Pstryk.GetBaseUrl(),
		cnfg.Pstryk.ApiKey,
		cnfg.Pstryk.GetTimezone(),
		cnfg.Pstryk.GetTimeout())

	c := coordinator.New(client, dir, loc, retry.DefaultBackoff(slog.Default()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := c.Refresh(ctx)
	if err != nil {
		panic(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		panic(err)
	}
}
