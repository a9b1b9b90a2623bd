package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"norifarm/config"
	"norifarm/native/common"
	"norifarm/observability/logging"
	"norifarm/observability/metrics"
	"norifarm/rpc"
)

func main() {
	var cfgPath string
	var listen string
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to node configuration")
	flag.StringVar(&listen, "listen", "", "override the configured listen address")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.Setup("norifarmd", "", logging.Options{}).Error("load config", "error", err)
		os.Exit(1)
	}
	if env := strings.TrimSpace(os.Getenv("NORIFARM_ENV")); env != "" {
		cfg.Environment = env
	}
	if listen != "" {
		cfg.ListenAddress = listen
	}

	logger := logging.Setup("norifarmd", cfg.Environment, logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	ledgerMetrics := metrics.Ledger()
	n, err := buildNode(cfg, ledgerMetrics.Sink())
	if err != nil {
		logger.Error("build node", "error", err)
		os.Exit(1)
	}
	ledgerMetrics.SetTotalStaked(n.engine.TotalStaked())
	logger.Info("ledger ready",
		"token", n.ledger.Symbol(),
		"rewards", n.rewards.Symbol(),
		"account", n.engine.Custody().Hex(),
		"tokenPaused", n.pauses.IsPaused(common.ModuleToken),
		"stakingPaused", n.pauses.IsPaused(common.ModuleStaking),
	)

	srv := rpc.NewServer(rpc.Config{
		Ledger:     n.ledger,
		Engine:     n.engine,
		Journal:    n.journal,
		Logger:     logger,
		AdminToken: cfg.RPC.AdminToken,
		Metrics:    promhttp.Handler(),
	})
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: time.Duration(cfg.RPC.ReadHeaderTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("listening", "address", listener.Addr().String())
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("serve", "error", serveErr)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
