package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/catalogsync/indexer/internal/application/indexing"
	"github.com/catalogsync/indexer/internal/bootstrap"
	"github.com/catalogsync/indexer/internal/infrastructure/config"
	"github.com/catalogsync/indexer/internal/infrastructure/logger"
	"github.com/catalogsync/indexer/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (default: ./config.toml)")
	storeID := flag.Int64("store", -1, "index a single store view (default: all configured stores)")
	flag.Parse()

	if err := run(*configPath, *storeID); err != nil {
		fmt.Fprintln(os.Stderr, "indexer:", err)
		os.Exit(1)
	}
}

func run(configPath string, storeID int64) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Name:   "indexer",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}()

	out, closeOut, err := openOutput(cfg.Indexing.Output)
	if err != nil {
		return err
	}
	defer closeOut()

	metrics, err := telemetry.NewIndexingMetrics(app.Telemetry.Meter("catalog-indexer"))
	if err != nil {
		return fmt.Errorf("failed to create indexing metrics: %w", err)
	}

	pipeline := indexing.NewPipeline(
		app.Products,
		app.Tiers,
		app.Resolver,
		indexing.NewJSONLinesSink(out),
		metrics,
		indexing.Config{
			Workers:   cfg.Indexing.Workers,
			BatchSize: cfg.Indexing.BatchSize,
			FailFast:  cfg.Indexing.FailFast,
		},
		log,
	)

	storeIDs := app.Stores.StoreIDs()
	if storeID >= 0 {
		storeIDs = []int64{storeID}
	}

	var failed int64
	for _, id := range storeIDs {
		websiteID, err := app.Stores.WebsiteID(id)
		if err != nil {
			return err
		}
		summary, err := pipeline.Run(ctx, id, websiteID)
		if err != nil {
			return fmt.Errorf("store %d: %w", id, err)
		}
		failed += summary.Failed
		log.Info("Store indexed",
			zap.String("run_id", summary.RunID),
			zap.Int64("store_id", id),
			zap.Int64("indexed", summary.Indexed),
			zap.Int64("failed", summary.Failed),
			zap.Duration("duration", summary.Duration),
		)
	}
	if failed > 0 {
		return fmt.Errorf("%d products could not be priced", failed)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open output %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
