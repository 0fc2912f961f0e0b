// Package indexing prices a store's catalog page by page and writes one
// search record per product.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/infrastructure/logger"
	"github.com/catalogsync/indexer/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProductSource pages through the store's products
type ProductSource interface {
	FindPage(ctx context.Context, storeID, afterID int64, limit int) ([]*pricing.Product, error)
	FindChildren(ctx context.Context, storeID, parentID int64) ([]pricing.Product, error)
}

// TierLoader batch-loads tier prices for a page of products
type TierLoader interface {
	LoadForProducts(ctx context.Context, websiteID int64, entityIDs []int64) (map[int64][]pricing.TierPrice, error)
}

// PriceDataComputer merges a product's price payload into its record
type PriceDataComputer interface {
	ComputePriceData(ctx context.Context, product *pricing.Product, existing map[string]any, subProducts []pricing.Product) (map[string]any, error)
}

// Sink receives finished records. Implementations must be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, record map[string]any) error
}

// Config holds pipeline settings
type Config struct {
	Workers   int
	BatchSize int
	FailFast  bool
}

// DefaultConfig returns default pipeline settings
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		BatchSize: 500,
	}
}

// Summary describes a finished run
type Summary struct {
	RunID    string        `json:"run_id"`
	StoreID  int64         `json:"store_id"`
	Indexed  int64         `json:"indexed"`
	Failed   int64         `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Pipeline indexes the products of one store
type Pipeline struct {
	products ProductSource
	tiers    TierLoader
	resolver PriceDataComputer
	sink     Sink
	metrics  *telemetry.IndexingMetrics
	config   Config
	logger   *zap.Logger
}

// NewPipeline creates a pipeline. tiers and metrics may be nil.
func NewPipeline(
	products ProductSource,
	tiers TierLoader,
	resolver PriceDataComputer,
	sink Sink,
	metrics *telemetry.IndexingMetrics,
	config Config,
	log *zap.Logger,
) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		products: products,
		tiers:    tiers,
		resolver: resolver,
		sink:     sink,
		metrics:  metrics,
		config:   config,
		logger:   log,
	}
}

// Run prices every product of the store. A product that fails is logged,
// counted and skipped, unless FailFast is set, in which case the first
// failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, storeID, websiteID int64) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: uuid.NewString(), StoreID: storeID}

	ctx = logger.WithRunID(ctx, summary.RunID)
	ctx = logger.WithContext(ctx, p.logger)
	ctx, span := telemetry.StartSpan(ctx, "indexing.run",
		telemetry.AttrRunID.String(summary.RunID),
		telemetry.AttrStoreID.Int64(storeID),
	)
	defer span.End()

	log := logger.L(ctx)
	log.Info("indexing run started",
		zap.Int64("store_id", storeID),
		zap.Int("workers", p.config.Workers),
		zap.Int("batch_size", p.config.BatchSize),
	)

	var indexed, failed atomic.Int64
	var afterID int64
	var runErr error
	for {
		page, err := p.products.FindPage(ctx, storeID, afterID, p.config.BatchSize)
		if err != nil {
			runErr = fmt.Errorf("load products after %d: %w", afterID, err)
			break
		}
		if len(page) == 0 {
			break
		}
		afterID = page[len(page)-1].ID

		if err := p.attachTierPrices(ctx, websiteID, page); err != nil {
			runErr = err
			break
		}
		if err := p.indexPage(ctx, storeID, page, &indexed, &failed); err != nil {
			runErr = err
			break
		}
		if len(page) < p.config.BatchSize {
			break
		}
	}

	summary.Indexed = indexed.Load()
	summary.Failed = failed.Load()
	summary.Duration = time.Since(started)
	span.SetAttributes(
		telemetry.AttrIndexed.Int64(summary.Indexed),
		telemetry.AttrFailed.Int64(summary.Failed),
	)

	if runErr != nil {
		telemetry.RecordError(span, runErr)
		log.Error("indexing run aborted", zap.Error(runErr), zap.Int64("indexed", summary.Indexed))
		return summary, runErr
	}
	log.Info("indexing run finished",
		zap.Int64("indexed", summary.Indexed),
		zap.Int64("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// attachTierPrices loads the page's tier prices in one query. Products
// without records keep an empty list and fall back to the per-group lookup.
func (p *Pipeline) attachTierPrices(ctx context.Context, websiteID int64, page []*pricing.Product) error {
	if p.tiers == nil {
		return nil
	}
	ids := make([]int64, len(page))
	for i, product := range page {
		ids[i] = product.ID
	}
	byProduct, err := p.tiers.LoadForProducts(ctx, websiteID, ids)
	if err != nil {
		return fmt.Errorf("load tier prices: %w", err)
	}
	for _, product := range page {
		product.TierPrices = byProduct[product.ID]
	}
	return nil
}

func (p *Pipeline) indexPage(ctx context.Context, storeID int64, page []*pricing.Product, indexed, failed *atomic.Int64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)

	for _, product := range page {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := p.indexProduct(gctx, storeID, product)
			if err == nil {
				indexed.Add(1)
				return nil
			}
			if errors.Is(err, context.Canceled) || p.config.FailFast {
				return fmt.Errorf("product %s: %w", product.SKU, err)
			}
			// sink failures are not per-product problems
			var sinkErr *sinkError
			if errors.As(err, &sinkErr) {
				return err
			}

			failed.Add(1)
			if p.metrics != nil {
				p.metrics.RecordFailed(gctx, storeID, errorCode(err))
			}
			logger.L(gctx).Warn("product skipped",
				zap.Int64("product_id", product.ID),
				zap.String("sku", product.SKU),
				zap.String("error_code", errorCode(err)),
				zap.Error(err),
			)
			return nil
		})
	}
	return g.Wait()
}

type sinkError struct {
	err error
}

func (e *sinkError) Error() string { return "write record: " + e.err.Error() }

func (e *sinkError) Unwrap() error { return e.err }

func (p *Pipeline) indexProduct(ctx context.Context, storeID int64, product *pricing.Product) error {
	started := time.Now()

	children, err := p.products.FindChildren(ctx, storeID, product.ID)
	if err != nil {
		return shared.NewCollaboratorError("load sub-products", err)
	}

	record, err := p.resolver.ComputePriceData(ctx, product, baseRecord(product), children)
	if err != nil {
		return err
	}
	if err := p.sink.Write(ctx, record); err != nil {
		return &sinkError{err: err}
	}

	if p.metrics != nil {
		p.metrics.RecordIndexed(ctx, storeID, time.Since(started))
	}
	return nil
}

// baseRecord holds the identity attributes every search record carries
func baseRecord(product *pricing.Product) map[string]any {
	return map[string]any{
		"objectID": strconv.FormatInt(product.ID, 10),
		"sku":      product.SKU,
		"store_id": product.StoreID,
	}
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return shared.CodeCollaborator
}
