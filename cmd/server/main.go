package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finvue/vkyc/internal/adapters/auth"
	"github.com/finvue/vkyc/internal/adapters/events"
	router "github.com/finvue/vkyc/internal/adapters/http"
	"github.com/finvue/vkyc/internal/adapters/store"
	"github.com/finvue/vkyc/internal/adapters/ws"
	"github.com/finvue/vkyc/internal/app"
	"github.com/finvue/vkyc/internal/config"
	"github.com/finvue/vkyc/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var sessions core.SessionStore
	var closeStore func() error
	switch cfg.StoreBackend {
	case "redis":
		rs := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis connection failed")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
		}
		sessions = rs
		closeStore = rs.Close
	default:
		sessions = store.NewMemoryStore()
	}

	var sink core.EventSink = events.NopSink{}
	if len(cfg.KafkaBrokers) > 0 {
		sink = events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka event sink enabled")
	}

	resolver, err := auth.NewResolver(cfg.AuthMode, cfg.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build identity resolver")
	}

	rooms := app.NewRoomRegistry()
	lifecycle := app.NewRecordLifecycle(sessions, sink)
	relay := app.NewRelay(rooms, lifecycle, sink)
	ctl := ws.NewController(relay, resolver, cfg)

	api := &router.API{Cfg: cfg, Rooms: rooms, Store: sessions, Events: sink}
	r := router.SetupRouter(ctx, cfg, ctl, api)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("auth_mode", cfg.AuthMode).Msg("signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := sink.Close(); err != nil {
		log.Error().Err(err).Msg("event sink close")
	}
	if closeStore != nil {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}
	log.Info().Msg("Server exited gracefully")
}
