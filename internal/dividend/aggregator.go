// Package dividend turns a stream of historical dividend-yield samples into
// a single trailing average per symbol.
package dividend

import (
	"context"
	"fmt"

	"b3-screener/internal/logger"
	"b3-screener/internal/types"
)

// SampleStream lazily produces recency-ordered yield samples, most recent
// first. Next returns ok=false once the history is exhausted. Implementations
// may fetch on demand; callers must not read past the first error.
type SampleStream interface {
	Next() (types.DividendYieldSample, bool, error)
}

// Aggregator averages the most recent samples of a stream.
type Aggregator struct {
	window      int
	requireFull bool
}

// NewAggregator builds an aggregator over the given window (typically 12
// months). With requireFull set, a short history yields no data instead of a
// diluted average.
func NewAggregator(window int, requireFull bool) *Aggregator {
	if window <= 0 {
		window = 12
	}
	return &Aggregator{window: window, requireFull: requireFull}
}

// AverageYield consumes at most window samples from the stream and returns
// their arithmetic mean in percent units. It never reads further than it
// needs: consumption stops at window samples or stream exhaustion, whichever
// comes first.
//
// Zero usable samples is an explicit Absent result, not 0.0, so downstream
// valuation skips the dividend-based models instead of pricing them at zero.
// With fewer than window samples the mean covers what exists; that dilutes
// the trailing-window semantic and is accepted unless requireFull is set.
func (a *Aggregator) AverageYield(ctx context.Context, symbol string, stream SampleStream) (types.Metric, error) {
	var (
		sum      float64
		consumed int
		read     int
		negative int
	)

	for consumed < a.window {
		sample, ok, err := stream.Next()
		if err != nil {
			return types.Metric{}, &types.SourceUnavailableError{
				Source: "dividend history",
				Symbol: symbol,
				Err:    err,
			}
		}
		if !ok {
			break
		}
		consumed++
		if sample.YieldPct < 0 {
			// Negative yields are not meaningful; count and drop.
			negative++
			continue
		}
		sum += sample.YieldPct
		read++
	}

	if negative > 0 {
		logger.Warn(ctx, "Dropped negative dividend yield samples", "symbol", symbol, "dropped", negative)
	}

	if read == 0 {
		if negative > 0 {
			return types.Absent(fmt.Sprintf("no data (%d negative samples dropped)", negative)), nil
		}
		return types.Absent("no data"), nil
	}
	if a.requireFull && read < a.window {
		return types.Absent(fmt.Sprintf("insufficient history: %d of %d samples", read, a.window)), nil
	}

	avg := sum / float64(read)
	if read < a.window {
		logger.Debug(ctx, "Partial dividend history averaged", "symbol", symbol, "samples", read, "window", a.window)
	}
	return types.MetricOf(avg), nil
}

// Window returns the configured sample window.
func (a *Aggregator) Window() int { return a.window }
