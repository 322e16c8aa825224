// Package sourceobs wraps the external data sources with logging and
// tracing middleware.
package sourceobs

import (
	"context"

	"b3-screener/internal/dividend"
	"b3-screener/internal/interfaces"
	"b3-screener/internal/logger"
	"b3-screener/internal/trace"
	"b3-screener/internal/types"
)

// observableFundamentals wraps a FundamentalsSource with observability
type observableFundamentals struct {
	source interfaces.FundamentalsSource
}

// Compile-time interface check
var _ interfaces.FundamentalsSource = (*observableFundamentals)(nil)

// WrapFundamentals wraps a fundamentals source with observability middleware
func WrapFundamentals(source interfaces.FundamentalsSource) interfaces.FundamentalsSource {
	return &observableFundamentals{source: source}
}

func (of *observableFundamentals) FetchBatch(ctx context.Context) (types.RawBatch, error) {
	ctx, span := trace.StartSpan(ctx, "source.FetchBatch")
	defer span.End()

	logger.Debug(ctx, "Fetching fundamentals batch")

	batch, err := of.source.FetchBatch(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch fundamentals batch", err)
		return types.RawBatch{}, err
	}

	logger.Debug(ctx, "Fundamentals batch fetched", "entries", len(batch.Entries))
	return batch, nil
}

// observableDividends wraps a DividendSource with observability
type observableDividends struct {
	source interfaces.DividendSource
}

var _ interfaces.DividendSource = (*observableDividends)(nil)

// WrapDividends wraps a dividend source with observability middleware
func WrapDividends(source interfaces.DividendSource) interfaces.DividendSource {
	return &observableDividends{source: source}
}

func (od *observableDividends) YieldHistory(ctx context.Context, symbol string) (dividend.SampleStream, error) {
	ctx, span := trace.StartSpan(ctx, "source.YieldHistory")
	defer span.End()

	logger.Debug(ctx, "Fetching dividend history", "symbol", symbol)

	stream, err := od.source.YieldHistory(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch dividend history", err, "symbol", symbol)
		return nil, err
	}

	logger.Debug(ctx, "Dividend history stream opened", "symbol", symbol)
	return stream, nil
}
