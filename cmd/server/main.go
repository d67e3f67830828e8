// Package main - Entry point for the agent cost estimation server
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agent-cost/api"
	"agent-cost/core/catalog"
	"agent-cost/core/engine"
	"agent-cost/internal/config"
	"agent-cost/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfgPath := flag.String("config", "", "config file, JSON or YAML")
	addr := flag.String("addr", "", "server address (overrides server.address)")
	catalogPath := flag.String("catalog", "", "pricing catalog file (overrides catalog.path)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logging.Component("server")
	metrics := api.NewMetrics(nil)

	cache := catalog.NewCache(
		catalog.SourceFor(cfg.Catalog.Path),
		cfg.Catalog.CacheTTL(),
		catalog.WithReloadHook(metrics.CatalogReloadHook()),
	)
	// fail fast on a broken catalog
	cat, err := cache.Catalog(ctx)
	if err != nil {
		return err
	}
	log.Info("pricing catalog loaded",
		zap.String("source", cache.Stats().Source),
		zap.String("version", cat.Version),
		zap.String("hash", cat.Hash()),
	)

	handler := api.NewServer(engine.NewEstimator(cache), api.Options{
		Version:      version,
		Policy:       cfg.Recommendations,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Metrics:      metrics,
		Stats:        cache,
	})
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Catalog.Watch {
		w, err := catalog.NewWatcher(cfg.Catalog.Path, cache, cfg.Catalog.WatchDebounce())
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(ctx)
		})
		log.Info("watching pricing catalog", zap.String("path", cfg.Catalog.Path))
	}

	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
