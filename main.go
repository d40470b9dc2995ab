package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"git.sr.ht/~aondrejcak/wellness-api/catalog"
	"git.sr.ht/~aondrejcak/wellness-api/endpoints"
	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("unrecoverable error, exiting")
			code = 1
		}
	}()

	cfg, err := kernel.LoadConfig()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}
	kernel.SetupLogger(cfg)

	if cfg.IsProduction() {
		log.Info().Msg(" === RUNNING IN PRODUCTION MODE ===")
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.PermissionsFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to load permission catalog")
		return 1
	}

	log.Info().
		Int("version", cat.Version).
		Strs("permissions", cat.Keys()).
		Msg("permission catalog loaded")

	art := kernel.NewAppRuntime(cfg, nil, cat)

	cleanupFunc, err := art.SetupOtel(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to set up telemetry")
		return 1
	}
	defer cleanupFunc()

	span, spanCtx := art.Diagnostic.BeginTracing(ctx, "main")
	defer span.End()

	art.Store, err = kernel.OpenStore(spanCtx, cfg)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("database connection failed")
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := art.Store.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	report := art.Seed(spanCtx)
	log.Info().
		Str("initial_admin", string(report.InitialAdmin)).
		Str("demo_admin", string(report.DemoAdmin)).
		Str("permissions", string(report.Permissions)).
		Int("permissions_created", report.PermissionsCreated).
		Msg("seeding finished")

	r, err := endpoints.NewRouter(art, endpoints.Mounts{})
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("failed to build router")
		return 1
	}

	if err = kernel.NewServer(art, r).Run(ctx); err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("server stopped")
		return 1
	}
	return 0
}
