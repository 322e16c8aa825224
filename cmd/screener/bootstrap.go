package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"b3-screener/internal/collector"
	"b3-screener/internal/dividend"
	"b3-screener/internal/fundamentus"
	"b3-screener/internal/interfaces"
	"b3-screener/internal/logger"
	"b3-screener/internal/normalize"
	"b3-screener/internal/pipeline"
	"b3-screener/internal/source"
	"b3-screener/internal/source/sourceobs"
	"b3-screener/internal/statusinvest"
	"b3-screener/internal/store"
	"b3-screener/internal/trace"
	"b3-screener/internal/universe"
	"b3-screener/internal/valuation"
)

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads the configuration, falling back to defaults when no
// config file exists at path.
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if os.IsNotExist(err) {
		logger.Warn(ctx, "Config file not found, using defaults", "path", path)
		return store.Default(), nil
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// buildNormalizer builds the shared numeric normalizer from config policy.
func buildNormalizer(cfg *store.Config) *normalize.Normalizer {
	return normalize.New(normalize.Options{
		CurrencyPrefixes: cfg.Normalize.CurrencyPrefixes,
		NATokens:         cfg.Normalize.NATokens,
	})
}

// buildSources wires the fundamentals and dividend sources, live or mock,
// wrapped with observability middleware.
func buildSources(ctx context.Context, cfg *store.Config, norm *normalize.Normalizer) (interfaces.FundamentalsSource, interfaces.DividendSource, error) {
	if cfg.DataSource == "MOCK" {
		logger.Warn(ctx, "Running with MOCK data sources - no network fetches")
		symbols := cfg.Universe.Static
		if len(symbols) == 0 {
			symbols = []string{"PETR4", "VALE3", "ITUB4", "BBAS3", "HGLG11"}
		}
		return sourceobs.WrapFundamentals(source.NewMockFundamentals(symbols, 1)),
			sourceobs.WrapDividends(source.NewMockDividends(symbols, 1)), nil
	}

	timeout := time.Duration(cfg.Sources.TimeoutSeconds) * time.Second

	symbols, err := resolveUniverse(ctx, cfg, timeout)
	if err != nil {
		return nil, nil, err
	}

	fundamentals := fundamentus.New(cfg.Sources.FundamentusURL, cfg.Sources.UserAgent, timeout, symbols)
	dividends := statusinvest.NewClient(
		cfg.Sources.StatusInvestURL,
		cfg.Sources.UserAgent,
		timeout,
		time.Duration(cfg.Sources.RateLimitMs)*time.Millisecond,
		norm,
	)
	return sourceobs.WrapFundamentals(fundamentals), sourceobs.WrapDividends(dividends), nil
}

// resolveUniverse returns the symbol filter for the fundamentals batch.
func resolveUniverse(ctx context.Context, cfg *store.Config, timeout time.Duration) ([]string, error) {
	src := universe.New(
		cfg.Universe.ListURL,
		cfg.Sources.UserAgent,
		timeout,
		cfg.Universe.SuffixDigits,
		universeStatic(cfg),
	)
	symbols, err := src.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve symbol universe: %w", err)
	}
	return symbols, nil
}

func universeStatic(cfg *store.Config) []string {
	if cfg.Universe.Mode == "STATIC" {
		return cfg.Universe.Static
	}
	return nil
}

// buildRunner assembles the full pipeline.
func buildRunner(cfg *store.Config, norm *normalize.Normalizer, fundamentals interfaces.FundamentalsSource, dividends interfaces.DividendSource) *pipeline.Runner {
	col := collector.New(norm)
	agg := dividend.NewAggregator(cfg.Dividends.Window, cfg.Dividends.RequireFull)
	eng := valuation.New(valuation.Params{
		GrahamPE:           cfg.Valuation.GrahamPE,
		GrahamPB:           cfg.Valuation.GrahamPB,
		BazinTargetYield:   cfg.Valuation.BazinTargetYield,
		GordonDiscountRate: cfg.Valuation.GordonDiscountRate,
	})
	return pipeline.New(cfg.Workers, fundamentals, dividends, col, agg, eng)
}
