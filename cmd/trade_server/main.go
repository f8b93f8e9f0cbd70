package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trade_server/internal/config"
	"trade_server/internal/exchange"
	"trade_server/internal/infrastructure/health"
	"trade_server/internal/infrastructure/metrics"
	"trade_server/internal/infrastructure/server"
	"trade_server/internal/trading"
	"trade_server/pkg/logging"
	"trade_server/pkg/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile    = flag.String("env", ".env", "Path to .env file with credentials")
)

func main() {
	flag.Parse()

	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		*configFile = envConfig
	}

	// Credentials land in the environment before the config is read
	if err := config.LoadEnvFile(*envFile); err != nil {
		panic(err)
	}

	cfg := config.DefaultConfig()
	if _, err := os.Stat(*configFile); err == nil {
		loadedCfg, err := config.LoadConfig(*configFile)
		if err != nil {
			panic(err)
		}
		cfg = loadedCfg
	}

	logger, err := logging.NewZapLogger(cfg.System.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting trade server",
		"exchange", cfg.Exchange.Name,
		"sandbox", cfg.Exchange.SandboxMode,
		"port", cfg.Server.Port)

	exch, err := exchange.NewExchange(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize exchange adapter", "error", err)
	}

	// Validate credentials and load market metadata before serving
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := exch.CheckHealth(initCtx); err != nil {
		logger.Fatal("Exchange connectivity check failed - please check your API keys", "error", err)
	}
	if err := exch.LoadMarkets(initCtx); err != nil {
		logger.Fatal("Failed to load market metadata", "error", err)
	}

	facade := trading.NewFacade(exch, logger)
	balances := trading.NewBalanceService(exch, logger)

	hm := health.NewHealthManager(logger)
	hm.RegisterExchange(exch)

	instruments := telemetry.New(prometheus.DefaultRegisterer)

	toolServer := server.NewServer(cfg.Server, exch, facade, balances, hm, instruments, logger)
	toolServer.Start()

	var metricsServer *metrics.Server
	if cfg.Telemetry.EnableMetrics {
		metricsServer = metrics.NewServer(cfg.Telemetry.MetricsPort, logger)
		metricsServer.Start()
	}

	logger.Info("Trade server ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		return toolServer.Stop(gctx)
	})
	if metricsServer != nil {
		g.Go(func() error {
			return metricsServer.Stop(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Shutdown incomplete", "error", err)
	}

	logger.Info("Trade server stopped")
}
