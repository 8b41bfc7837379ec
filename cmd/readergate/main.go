// Package main wires together the readergate service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/api"
	"github.com/readergate/readergate/internal/cache"
	"github.com/readergate/readergate/internal/config"
	"github.com/readergate/readergate/internal/convert"
	"github.com/readergate/readergate/internal/logging"
	"github.com/readergate/readergate/internal/mcptool"
	"github.com/readergate/readergate/internal/metrics"
	"github.com/readergate/readergate/internal/orchestrate"
	"github.com/readergate/readergate/internal/reader"
	"github.com/readergate/readergate/internal/strategy"
	"github.com/readergate/readergate/internal/validate"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	mcpMode := flag.Bool("mcp", false, "Serve the MCP stdio transport instead of HTTP")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	clk := reader.SystemClock{}
	table := validate.Default()
	adapters := strategy.BuildAdapters(cfg.StrategyConfig(), table, logger)
	orchestrator := orchestrate.New(adapters, table, clk, logger)
	store := cache.New(cfg.CacheTTL(), cfg.Cache.MaxEntries, clk)
	converter := convert.New(orchestrator, store, clk, logger)

	if *mcpMode {
		logger.Info("serving MCP over stdio", zap.String("version", version))
		if err := mcptool.Serve(ctx, converter, version, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal("mcp serve failed", zap.Error(err))
		}
		return
	}

	server := api.NewServer(converter, time.Duration(cfg.Server.RequestTimeout)*time.Second, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("version", version),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http serve failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
