// Package bootstrap wires the price resolver and its collaborators from
// configuration. Both the API server and the batch indexer start here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	pricingapp "github.com/catalogsync/indexer/internal/application/pricing"
	"github.com/catalogsync/indexer/internal/infrastructure/cache"
	"github.com/catalogsync/indexer/internal/infrastructure/config"
	"github.com/catalogsync/indexer/internal/infrastructure/currency"
	"github.com/catalogsync/indexer/internal/infrastructure/persistence"
	"github.com/catalogsync/indexer/internal/infrastructure/store"
	"github.com/catalogsync/indexer/internal/infrastructure/strategy"
	"github.com/catalogsync/indexer/internal/infrastructure/tax"
	"github.com/catalogsync/indexer/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// App holds the long-lived components shared by the entry points
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *persistence.Database
	Telemetry *telemetry.Providers
	Stores    *store.ConfigProvider
	Products  *persistence.GormProductRepository
	Tiers     *persistence.GormTierPriceRepository
	Resolver  *pricingapp.PriceResolver

	rateCache cache.RateCache
}

// New builds the application graph. The returned App must be closed.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: log}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close(context.Background())
		}
	}()

	var err error
	app.Telemetry, err = telemetry.NewProviders(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		ExportInterval:    cfg.Telemetry.ExportInterval,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app.DB, err = persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	queries := telemetry.DefaultQueryTracing()
	queries.Enabled = cfg.Telemetry.Enabled
	queries.WithVars = cfg.App.Env == "development"
	if cfg.Database.Driver == "sqlite" {
		queries.System = "sqlite"
	}
	if err := queries.Instrument(app.DB.DB, log); err != nil {
		return nil, fmt.Errorf("failed to instrument catalog queries: %w", err)
	}

	app.Stores, err = store.NewConfigProvider(cfg.Stores, cfg.Pricing)
	if err != nil {
		return nil, err
	}
	calculator, err := tax.NewCalculator(cfg.Pricing, cfg.Stores)
	if err != nil {
		return nil, err
	}

	app.rateCache, err = cache.NewRateCache(cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	converter := currency.NewConverter(
		app.Stores,
		persistence.NewGormCurrencyRateRepository(app.DB.DB),
		app.rateCache,
		cfg.Indexing.RateTTL,
		log,
	)

	app.Products = persistence.NewGormProductRepository(app.DB.DB)
	app.Tiers = persistence.NewGormTierPriceRepository(app.DB.DB)
	rules := persistence.NewGormCatalogRuleRepository(app.DB.DB)

	registry, err := strategy.DefaultRegistry(rules, app.Tiers)
	if err != nil {
		return nil, err
	}
	engine, err := strategy.NewFinalPriceEngine(registry, time.Now, cfg.Pricing.Strategies...)
	if err != nil {
		return nil, err
	}

	app.Resolver, err = pricingapp.NewPriceResolver(pricingapp.Dependencies{
		Stores:   app.Stores,
		Groups:   persistence.NewGormCustomerGroupRepository(app.DB.DB),
		Tax:      calculator,
		Rules:    rules,
		Tiers:    app.Tiers,
		Currency: converter,
		Engine:   engine,
	},
		pricingapp.WithLogger(log),
		pricingapp.WithContributors(pricingapp.NewSubProductRangeContributor(calculator, converter)),
	)
	if err != nil {
		return nil, err
	}

	ok = true
	return app, nil
}

// Close releases every component in reverse order of construction
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.rateCache != nil {
		errs = append(errs, a.rateCache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Telemetry != nil {
		errs = append(errs, a.Telemetry.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
