// Command server runs the alert backend: the Telegram ingest pipeline, the
// WebSocket hub, and the HTTP API in one process.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/slotwatch/go-alert-backend/internal/config"
	"github.com/slotwatch/go-alert-backend/internal/filter"
	httpapi "github.com/slotwatch/go-alert-backend/internal/http"
	"github.com/slotwatch/go-alert-backend/internal/ingest"
	"github.com/slotwatch/go-alert-backend/internal/observability"
	"github.com/slotwatch/go-alert-backend/internal/repo"
	"github.com/slotwatch/go-alert-backend/internal/sysutil"
	"github.com/slotwatch/go-alert-backend/internal/telegram"
	"github.com/slotwatch/go-alert-backend/internal/ws"
)

var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	f := filter.New(cfg.Keywords, cfg.MonitoredUsers)
	hub := ws.NewHub(f, log.Logger)
	defer hub.Close()

	pipeline := ingest.New(db, f, hub, log.Logger)
	go pipeline.Run(ctx)

	if cfg.Telegram.Enabled {
		listener, err := telegram.NewListener(cfg.Telegram, pipeline, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram listener failed")
		}
		go listener.Run(ctx)
	} else {
		log.Info().Msg("telegram listener disabled, serving HTTP/WS only")
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, f, hub, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("stopped")
}
