// Command server runs the Vanish backend: an ephemeral, invite-only direct
// messaging service. Durable state is limited to user accounts (SQLite);
// messages, friend requests, and group memberships live in an in-memory
// engine and vanish with the process.
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

	"github.com/vanish-chat/vanish-backend/internal/config"
	"github.com/vanish-chat/vanish-backend/internal/domain"
	httpapi "github.com/vanish-chat/vanish-backend/internal/http"
	"github.com/vanish-chat/vanish-backend/internal/observability"
	"github.com/vanish-chat/vanish-backend/internal/repo"
	"github.com/vanish-chat/vanish-backend/internal/services"
	"github.com/vanish-chat/vanish-backend/internal/state"
	"github.com/vanish-chat/vanish-backend/internal/sysutil"
	"github.com/vanish-chat/vanish-backend/internal/ws"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}

	// In-memory engine; everything in it vanishes on restart by design.
	eng := state.NewEngine(cfg.MessageTTL)
	eng.Groups.Put(&domain.Group{ID: services.DefaultGroupID, Name: "General"})

	hub := ws.NewHub()

	r := gin.New()
	httpapi.RegisterRoutes(r, db, eng, hub, cfg)

	// Optional reclamation sweep. Correctness never depends on it; listings
	// filter expired messages lazily. The sweep only returns memory sooner.
	sweepDone := make(chan struct{})
	if cfg.SweepPeriod > 0 {
		go func() {
			ticker := time.NewTicker(cfg.SweepPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-sweepDone:
					return
				case <-ticker.C:
					if n := eng.Messages.Sweep(); n > 0 {
						log.Debug().Int("reclaimed", n).Msg("expired messages swept")
					}
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("version", version).Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	close(sweepDone)

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown error")
	}
	log.Info().Msg("bye")
}
