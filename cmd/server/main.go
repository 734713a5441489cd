package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bbernstein/busschema/internal/config"
	"github.com/bbernstein/busschema/internal/handler"
	"github.com/bbernstein/busschema/internal/metrics"
	"github.com/bbernstein/busschema/internal/server"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	if !cfg.HasCredentials() {
		log.Warn().Msg("VASTTRAFIK_CLIENT_ID or VASTTRAFIK_CLIENT_SECRET not set, upstream calls will fail")
	}

	collector := metrics.NewCollector()
	proxy := handler.FromConfig(cfg, collector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, ":"+cfg.Port, server.New(proxy, collector.Handler()), 10*time.Second); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
