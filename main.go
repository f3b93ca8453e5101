package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angas/pstryk-go/config"
	"github.com/angas/pstryk-go/coordinator"
	"github.com/angas/pstryk-go/database"
	"github.com/angas/pstryk-go/logging"
	"github.com/angas/pstryk-go/mqtt"
	"github.com/angas/pstryk-go/pstryk"
	"github.com/angas/pstryk-go/retry"
	"github.com/angas/pstryk-go/task"
	"github.com/angas/pstryk-go/types"
	"github.com/angas/pstryk-go/www"
	"github.com/lmittmann/tint"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleLevel := new(slog.LevelVar)
	consoleLevel.Set(cnfg.Logging.GetConsoleLevel())
	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      consoleLevel,
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("pstryk is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	if *configPath != "" {
		stopWatch, err := config.Watch(logger.With("module", "config"), *configPath, func(updated *config.AppConfig) {
			consoleLevel.Set(updated.Logging.GetConsoleLevel())
		})
		if err != nil {
			logger.Warn("config watcher could not be started", slog.Any("error", err))
		} else {
			defer stopWatch()
		}
	}

	loc, err := time.LoadLocation(cnfg.Pstryk.GetTimezone())
	if err != nil {
		panic(fmt.Sprintf("failed to load timezone: %v", err))
	}

	client := pstryk.New(
		cnfg.Pstryk.GetBaseUrl(),
		cnfg.Pstryk.ApiKey,
		cnfg.Pstryk.GetTimezone(),
		cnfg.Pstryk.GetTimeout())

	backoff := retry.Backoff{
		MaxRetries: cnfg.Retry.GetMaxRetries(),
		BaseDelay:  cnfg.Retry.GetBaseDelay(),
	}

	buy := coordinator.New(client, types.DirectionBuy, loc, backoff)
	sell := coordinator.New(client, types.DirectionSell, loc, backoff)
	coordinators := []*coordinator.Coordinator{buy, sell}

	var mqttPub *mqtt.Publisher
	if cnfg.Mqtt.Enabled {
		mqttPub = mqtt.NewPublisher(cnfg.Mqtt)
		if err := mqttPub.Connect(); err != nil {
			panic(fmt.Sprintf("mqtt connection error: %v", err))
		}
		defer mqttPub.Disconnect()
	}

	server := www.StartServer(db, []www.DataSource{buy, sell}, cnfg)

	for _, c := range coordinators {
		c.OnRefresh = func(dir types.Direction, res *types.RefreshResult) {
			server.BroadcastRefresh(dir, res)
			if mqttPub != nil {
				mqttPub.PublishRefresh(dir, res)
			}
			saveRefreshHistory(logger, db, dir, res)
		}
	}

	for _, c := range coordinators {
		if err := c.FirstRefresh(ctx); err != nil {
			// Not fatal, the coordinator retries on its next tick.
			logger.Error("initial refresh failed",
				slog.String("direction", c.Direction().String()),
				slog.Any("error", err))
		}
		c.Run()
		defer c.Shutdown()
	}

	tasks := task.NewTasks(db, cnfg)
	tasks.Run()
	defer tasks.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server.Run(ctx)
}

func saveRefreshHistory(logger *slog.Logger, db *database.Database, dir types.Direction, res *types.RefreshResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row := database.RefreshHistoryRow{
		Direction: dir,
		FetchedAt: res.FetchedAt,
		Success:   res.Price != nil && res.Usage != nil,
	}
	if res.Price != nil {
		row.CurrentPrice = res.Price.Current
		row.FrameCount = len(res.Price.Prices)
	}
	if res.Usage != nil {
		row.TotalUsageKwh = res.Usage.TotalUsageKwh
	}

	if err := db.SaveRefreshHistory(ctx, row); err != nil {
		logger.Error("failed to save refresh history", slog.Any("error", err))
	}
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
