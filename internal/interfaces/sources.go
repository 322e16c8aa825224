package interfaces

import (
	"context"

	"b3-screener/internal/dividend"
	"b3-screener/internal/types"
)

// FundamentalsSource supplies the full fundamentals batch, in discovery
// order, before processing begins. Single shot, no retry policy here.
type FundamentalsSource interface {
	FetchBatch(ctx context.Context) (types.RawBatch, error)
}

// DividendSource supplies a symbol's dividend-yield history on demand as a
// lazy, finite, most-recent-first stream.
type DividendSource interface {
	YieldHistory(ctx context.Context, symbol string) (dividend.SampleStream, error)
}

// UniverseSource supplies the set of tradeable symbols used to filter the
// fundamentals batch.
type UniverseSource interface {
	Symbols(ctx context.Context) ([]string, error)
}
