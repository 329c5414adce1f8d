// Polymarket quoter — an automated market-making bot for Polymarket binary
// prediction markets, quoting both sides of the book and capturing spread.
//
// Architecture:
//
//	main.go              — entry point: loads config, starts the engine, waits for SIGINT/SIGTERM
//	engine/engine.go     — cycle ticker lifecycle, shared venue client + store singletons
//	engine/cycle.go       — one pass of the pipeline: risk gate, selection, quote, reconcile/simulate
//	strategy/quoter.go    — dynamic spread, inventory skew, tick alignment
//	strategy/reconcile.go — keep/cancel/replace diff against resting orders
//	strategy/paper.go     — paper-mode fill simulator
//	market/catalog.go     — polls the Gamma API for the tradeable market catalog
//	market/enrich.go      — per-market book/sponsor-pool/category enrichment
//	selector/selector.go  — multi-signal scoring and candidate selection
//	exchange/client.go    — REST client for the Polymarket CLOB API
//	exchange/auth.go      — L1 (EIP-712) and L2 (HMAC) authentication
//	exchange/ws.go        — user WS feed for live fill notifications
//	risk/governor.go      — circuit breaker and per-cycle limit clamping
//	oracle/oracle.go      — advisory external spot-price lookup
//	store/store.go        — SQLite persistence for positions, daily PnL, trade log
//	api/server.go         — headless control API + health endpoints
//
// How it makes money:
//
//	The bot captures the bid-ask spread on binary prediction markets. It
//	posts a buy below mid price and a sell above mid price; when both sides
//	fill, it earns the spread. Inventory skew widens or tightens one side to
//	attract offsetting fills when a position accumulates.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"polymarket-quoter/internal/api"
	"polymarket-quoter/internal/config"
	"polymarket-quoter/internal/engine"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("POLY_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	eng, err := engine.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	var apiServer *api.Server
	if cfg.Server.Enabled {
		apiServer = api.NewServer(eng, cfg.Server.Port, cfg.Server.AllowedOrigins, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("control server failed", "error", err)
			}
		}()
		logger.Info("control server started", "port", cfg.Server.Port)
	}

	if err := eng.Start(); err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}

	if cfg.Paper {
		logger.Warn("PAPER MODE — no real orders will be placed")
	}

	logger.Info("polymarket quoter started",
		"max_markets", cfg.Strategy.MaxMarkets,
		"order_size", cfg.Strategy.OrderSize,
		"max_position", cfg.Risk.MaxPosition,
		"paper", cfg.Paper,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop control server", "error", err)
		}
	}

	eng.Stop()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
