package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Jinwoo290350/PaiLOCAL/internal/config"
	"github.com/Jinwoo290350/PaiLOCAL/internal/graceful"
	"github.com/Jinwoo290350/PaiLOCAL/internal/handler"
	"github.com/Jinwoo290350/PaiLOCAL/internal/logger"
	"github.com/Jinwoo290350/PaiLOCAL/internal/places"
	"github.com/Jinwoo290350/PaiLOCAL/internal/repository"
	"github.com/Jinwoo290350/PaiLOCAL/internal/service"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New("info", false)
		l.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api stopped")
	}
}

// run owns every resource so that deferred cleanup happens before main exits.
func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := graceful.Context(context.Background(), log)
	defer cancel()

	repo, closeStore, err := repository.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close location store")
		}
	}()

	var lookup service.PlaceLookup
	if cfg.Google.APIKey != "" {
		provider, err := places.NewGoogleProvider(cfg.Google.APIKey, cfg.Google.Timeout)
		if err != nil {
			return fmt.Errorf("create places client: %w", err)
		}
		lookup = provider
	} else {
		log.Info().Msg("GOOGLE_MAPS_API_KEY not set, location import disabled")
	}

	locations := service.NewLocationService(repo, lookup, log)
	h := handler.NewHandler(locations, service.NewHealthService(), log)

	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(h, handler.RouterOptions{
		RateLimit:   cfg.API.RateLimit,
		RateBurst:   cfg.API.RateBurst,
		CORSOrigins: cfg.API.CORSOrigins,
	}, log)

	return serve(ctx, cfg, router, log)
}

func serve(ctx context.Context, cfg *config.Config, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down server")
	return srv.Shutdown(shutdownCtx)
}
