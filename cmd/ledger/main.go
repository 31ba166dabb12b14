package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"manufacturing-ledger/internal/adapters/cli"
	"manufacturing-ledger/internal/adapters/repl"
	"manufacturing-ledger/internal/app"
	"manufacturing-ledger/internal/config"
	"manufacturing-ledger/internal/core"
	"manufacturing-ledger/internal/db"
	"manufacturing-ledger/internal/logger"
	"manufacturing-ledger/internal/memstore"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init("ledger", cfg.LogLevel, cfg.Development())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	reg := prometheus.NewRegistry()
	opts := []core.Option{
		core.WithLogger(log),
		core.WithMetrics(core.NewMetrics(reg)),
		core.WithWarehouseNames(cfg.DefaultWarehouseName, cfg.QuarantineWarehouseName),
	}

	var store core.Store
	if len(args) > 0 && args[0] == "demo" {
		args = args[1:]
		mem := memstore.New()
		demo := memstore.SeedDemo(mem, time.Now())
		store = mem
		if err := primeDemo(ctx, core.NewEngine(store, opts...), demo); err != nil {
			log.Fatal().Err(err).Msg("failed to cost the demo catalog")
		}
		log.Info().Interface("catalog", demo).Msg("running on the in-memory demo catalog")
	} else {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("unable to connect to database")
		}
		defer pool.Close()
		store = db.NewStore(pool, log)
	}

	svc := app.NewAppService(core.NewEngine(store, opts...))

	if len(args) > 0 {
		if err := cli.New(svc, os.Stdin, os.Stdout).Run(ctx, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", app.ErrorCode(err), err)
			os.Exit(app.ExitCode(err))
		}
		return
	}

	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr, reg, log)
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout)
}

// primeDemo computes the cached costs of the seeded variants.
func primeDemo(ctx context.Context, engine *core.Engine, demo memstore.Demo) error {
	for _, id := range demo.Variants() {
		if _, err := engine.RecomputeVariantCost(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
}
