package www

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/pstryk-go/config"
	"github.com/angas/pstryk-go/database"
	"github.com/angas/pstryk-go/types"
	"github.com/angas/pstryk-go/types/maybe"
)

// DataSource is what a handler needs from a refresh coordinator.
type DataSource interface {
	Direction() types.Direction
	Snapshot() *types.RefreshResult
	LastSuccess() bool
	LastSuccessTime() maybe.Maybe[time.Time]
	RequestRefresh()
}

type Server struct {
	logger  *slog.Logger
	config  *config.AppConfig
	db      *database.Database
	sources map[types.Direction]DataSource
	hub     *Hub
	mux     *http.ServeMux
	started time.Time
}

func StartServer(db *database.Database, sources []DataSource, cnfg *config.AppConfig) *Server {
	logger := slog.Default().With("module", "www")

	s := &Server{
		logger:  logger,
		config:  cnfg,
		db:      db,
		sources: make(map[types.Direction]DataSource),
		hub:     NewHub(logger),
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	for _, src := range sources {
		s.sources[src.Direction()] = src
	}

	go s.hub.Run()

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	s.mux.Handle("/api/snapshot", logReqMW(NewSnapshotHandler(
		logger.With(slog.String("handler", "snapshot")),
		s.sources)))

	s.mux.Handle("/api/prices", logReqMW(NewPricesHandler(
		logger.With(slog.String("handler", "prices")),
		cnfg.Pstryk,
		s.sources)))

	s.mux.Handle("/api/usage", logReqMW(NewUsageHandler(
		logger.With(slog.String("handler", "usage")),
		s.sources)))

	s.mux.Handle("/api/refresh", logReqMW(NewRefreshHandler(
		logger.With(slog.String("handler", "refresh")),
		s.sources)))

	s.mux.Handle("/api/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		s.db)))

	s.mux.Handle("/api/sys_info", logReqMW(NewSysInfoHandler(
		logger.With(slog.String("handler", "sys_info")),
		s.db,
		s.sources,
		s.started)))

	s.mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.Register <- client
		go client.WritePump()
	})

	return s
}

// BroadcastRefresh pushes a refresh result to all connected websocket
// clients. Safe to call from any goroutine.
func (s *Server) BroadcastRefresh(dir types.Direction, res *types.RefreshResult) {
	msg := struct {
		Direction types.Direction      `json:"direction"`
		Result    *types.RefreshResult `json:"result"`
	}{Direction: dir, Result: res}

	buf, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshalling refresh broadcast", slog.Any("error", err))
		return
	}
	s.hub.Broadcast <- buf
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "address", s.config.Api.Address, "port", s.config.Api.Port)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Api.Address, s.config.Api.Port),
		Handler: s.mux,
	}

	srvErrors := make(chan error, 1)

	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	for {
		select {
		case err := <-srvErrors:
			if err != nil && err != http.ErrServerClosed {
				s.logger.Error("server error", slog.Any("error", err))
			}

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("server shutdown failed", slog.Any("error", err))
			}
			return
		}
	}
}
