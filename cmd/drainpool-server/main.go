package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/drainpool/internal/admin"
	"github.com/utkarsh5026/drainpool/internal/config"
	"github.com/utkarsh5026/drainpool/internal/server"
	"github.com/utkarsh5026/drainpool/pool"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, reading from environment")
	}

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	setupLogging(cfg.Log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	poolOpts := []pool.Option{
		pool.WithLogger(log.StandardLogger()),
		pool.WithMetrics(pool.NewMetrics("drainpool", registry)),
	}
	if cfg.Pool.IsolatePanics {
		poolOpts = append(poolOpts, pool.WithPanicIsolation())
	}
	if cfg.Pool.PinWorkers {
		poolOpts = append(poolOpts, pool.WithCPUAffinity())
	}

	p, err := pool.New(cfg.Pool.Size, poolOpts...)
	if err != nil {
		log.Fatalf("pool error: %v", err)
	}

	srv := server.New(cfg.Server, p, log.StandardLogger(),
		server.NewMetrics("drainpool", registry))
	adm := admin.New(cfg.Admin.Addr, registry, p, log.StandardLogger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return adm.Run(ctx) })

	runErr := g.Wait()
	if runErr != nil {
		log.Errorf("server error: %v", runErr)
	}

	// The listener is down; drain everything already accepted before exiting.
	log.Info("draining worker pool")
	if err := p.Shutdown(); err != nil {
		log.Errorf("pool shutdown error: %v", err)
	}

	stats := p.Stats()
	log.WithFields(log.Fields{
		"submitted": stats.Submitted,
		"executed":  stats.Executed,
		"rejected":  stats.Rejected,
		"crashed":   stats.Crashed,
	}).Info("shutdown complete")

	if runErr != nil {
		os.Exit(1)
	}
}

func setupLogging(cfg config.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}
