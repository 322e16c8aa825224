// Package pipeline wires the sources, collector, aggregator and valuation
// engine into one run: batch in, ordered enriched records out.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"b3-screener/internal/collector"
	"b3-screener/internal/dividend"
	"b3-screener/internal/interfaces"
	"b3-screener/internal/logger"
	"b3-screener/internal/trace"
	"b3-screener/internal/types"
	"b3-screener/internal/valuation"
)

// Result is the single accumulation value of a run: created when the run
// starts, finalized when it ends, handed once to the report writer. Skipped
// lists every symbol excluded or degraded, with its cause.
type Result struct {
	Records []types.EnrichedRecord
	Skipped []collector.Failure
}

// Runner executes the screening pipeline.
type Runner struct {
	workers      int
	fundamentals interfaces.FundamentalsSource
	dividends    interfaces.DividendSource
	collector    *collector.Collector
	aggregator   *dividend.Aggregator
	engine       *valuation.Engine
}

func New(workers int, fundamentals interfaces.FundamentalsSource, dividends interfaces.DividendSource,
	col *collector.Collector, agg *dividend.Aggregator, eng *valuation.Engine) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		workers:      workers,
		fundamentals: fundamentals,
		dividends:    dividends,
		collector:    col,
		aggregator:   agg,
		engine:       eng,
	}
}

// Run fetches the batch, collects normalized records, aggregates dividend
// yields per symbol over a bounded worker pool, and values every record.
//
// Output order always equals the batch's discovery order: each worker writes
// to its record's own index, so completion order never matters. One symbol's
// dividend-source failure only leaves that record's dividend-based fields
// Absent; it never aborts the run. A DuplicateKeyError from the collector
// does abort, since the batch itself is invalid.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	op := logger.StartOperation(ctx, "pipeline.fetch_batch")
	batch, err := r.fundamentals.FetchBatch(op.GetContext())
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}
	op.End("entries", len(batch.Entries))

	records, failures, err := r.collector.Collect(ctx, batch)
	if err != nil {
		logger.ErrorWithErr(ctx, "Batch collection aborted", err)
		return nil, err
	}
	logger.Info(ctx, "Fundamental records collected", "records", len(records), "skipped", len(failures))

	result := &Result{
		Records: make([]types.EnrichedRecord, len(records)),
		Skipped: failures,
	}

	var (
		mu   sync.Mutex // guards result.Skipped
		wg   sync.WaitGroup
		jobs = make(chan int)
	)

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			rec := records[idx]
			yield := r.aggregateYield(ctx, rec.Symbol, &mu, result)

			enriched, err := r.engine.Value(rec, yield)
			if err != nil {
				// Invariant violations keep the record with its derived
				// fields Absent; the cause still goes on the ledger.
				var inv *types.InvariantViolationError
				if errors.As(err, &inv) {
					logger.Skipped(ctx, rec.Symbol, err, "stage", "valuation")
					mu.Lock()
					result.Skipped = append(result.Skipped, collector.Failure{Symbol: rec.Symbol, Err: err})
					mu.Unlock()
				} else {
					logger.ErrorWithErr(ctx, "Valuation failed", err, "symbol", rec.Symbol)
				}
			}
			result.Records[idx] = enriched
		}
	}

	wg.Add(r.workers)
	for i := 0; i < r.workers; i++ {
		go worker()
	}
	for idx := range records {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	logger.Info(ctx, "Pipeline run complete", "records", len(result.Records), "ledger", len(result.Skipped))
	return result, nil
}

// aggregateYield fetches and averages one symbol's dividend history. Source
// failures degrade to an Absent yield and a ledger entry; other symbols are
// unaffected.
func (r *Runner) aggregateYield(ctx context.Context, symbol string, mu *sync.Mutex, result *Result) types.Metric {
	ctx, span := trace.StartSpan(ctx, "pipeline.aggregate_yield")
	defer span.End()

	record := func(err error) types.Metric {
		logger.Skipped(ctx, symbol, err, "stage", "dividend")
		mu.Lock()
		result.Skipped = append(result.Skipped, collector.Failure{Symbol: symbol, Err: err})
		mu.Unlock()
		return types.Absent(err.Error())
	}

	stream, err := r.dividends.YieldHistory(ctx, symbol)
	if err != nil {
		var unavailable *types.SourceUnavailableError
		if !errors.As(err, &unavailable) {
			err = &types.SourceUnavailableError{Source: "dividend history", Symbol: symbol, Err: err}
		}
		return record(err)
	}

	yield, err := r.aggregator.AverageYield(ctx, symbol, stream)
	if err != nil {
		return record(err)
	}
	return yield
}
