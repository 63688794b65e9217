package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/toolbridge/gateway/internal/authz"
	"github.com/toolbridge/gateway/internal/config"
	"github.com/toolbridge/gateway/internal/db"
	"github.com/toolbridge/gateway/internal/gatewayapi"
	"github.com/toolbridge/gateway/internal/httpproxy"
	"github.com/toolbridge/gateway/internal/jwtmanager"
	"github.com/toolbridge/gateway/internal/ratelimit"
	"github.com/toolbridge/gateway/internal/store"
	"github.com/toolbridge/gateway/internal/vault"
	"github.com/toolbridge/gateway/internal/wsproxy"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "toolbridge-gateway").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	s := store.New(pool)

	vaultClient := vault.NewClient(cfg.GRPCServerAddr, cfg.SystemCode, cfg.VaultSecretKey)
	defer vaultClient.Close()

	jwtMgr := jwtmanager.New(vaultClient, cfg.Algorithm, cfg.AccessTokenExpire, cfg.RefreshTokenExpire)

	authzEngine := authz.New(s)

	limiter := ratelimit.New(ratelimit.Config{
		Capacity: cfg.RequestsPerSecond,
		Window:   cfg.RequestInterval,
		Block:    cfg.BlockDuration,
	})
	defer limiter.Close()

	srv := &gatewayapi.Server{
		Store:      s,
		Authz:      authzEngine,
		JWTManager: jwtMgr,
		Limiter:    limiter,
		HTTPProxy:  httpproxy.New(s, s),
		WSProxy:    wsproxy.New(s),
		SystemCode: cfg.SystemCode,
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 600 * time.Second, // proxy upstream calls may run up to 600s
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("server stopped")
}
