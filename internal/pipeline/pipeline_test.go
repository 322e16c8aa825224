package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"b3-screener/internal/collector"
	"b3-screener/internal/dividend"
	"b3-screener/internal/normalize"
	"b3-screener/internal/source"
	"b3-screener/internal/types"
	"b3-screener/internal/valuation"
)

func newRunner(workers int, fundamentals *source.MockFundamentals, dividends *source.MockDividends) *Runner {
	norm := normalize.New(normalize.Options{})
	return New(
		workers,
		fundamentals,
		dividends,
		collector.New(norm),
		dividend.NewAggregator(12, false),
		valuation.New(valuation.DefaultParams()),
	)
}

func symbols(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("SYM%d4", i)
	}
	return out
}

func TestRunPreservesDiscoveryOrder(t *testing.T) {
	syms := symbols(25)
	fundamentals := source.NewMockFundamentals(syms, 7)
	dividends := source.NewMockDividends(syms, 7)

	// More workers than records to shake out ordering races.
	runner := newRunner(8, fundamentals, dividends)
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Records) != len(syms) {
		t.Fatalf("got %d records, want %d", len(result.Records), len(syms))
	}
	for i, rec := range result.Records {
		if rec.Symbol != syms[i] {
			t.Fatalf("record %d = %s, want %s: output order must match discovery order", i, rec.Symbol, syms[i])
		}
	}
}

func TestRunIsolatesDividendFailures(t *testing.T) {
	syms := []string{"AAAA3", "BBBB4", "CCCC3"}
	fundamentals := source.NewMockFundamentals(syms, 3)
	dividends := source.NewMockDividends(syms, 3)
	delete(dividends.Histories, "BBBB4")

	runner := newRunner(2, fundamentals, dividends)
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Records) != 3 {
		t.Fatalf("got %d records, want 3: one source failure must not drop the record", len(result.Records))
	}

	failed := result.Records[1]
	if failed.Symbol != "BBBB4" {
		t.Fatalf("unexpected record order")
	}
	if failed.AggregatedYieldPct.Valid {
		t.Errorf("yield should be absent for the failed symbol")
	}
	if failed.BazinFairValue.Valid {
		t.Errorf("Bazin should be absent for the failed symbol")
	}
	if !failed.GrahamIntrinsic.Valid {
		t.Errorf("Graham does not depend on dividends and should survive")
	}

	// The other symbols keep their dividend-based values.
	if !result.Records[0].BazinFairValue.Valid || !result.Records[2].BazinFairValue.Valid {
		t.Errorf("unrelated symbols lost their dividend valuation")
	}

	// And the failure is on the ledger, not swallowed.
	found := false
	for _, f := range result.Skipped {
		if f.Symbol == "BBBB4" {
			found = true
			var unavailable *types.SourceUnavailableError
			if !errors.As(f.Err, &unavailable) {
				t.Errorf("ledger error = %v, want SourceUnavailableError", f.Err)
			}
		}
	}
	if !found {
		t.Errorf("dividend failure missing from the ledger")
	}
}

func TestRunAbortsOnDuplicateSymbol(t *testing.T) {
	fundamentals := source.NewMockFundamentals([]string{"PETR4"}, 1)
	fundamentals.Batch.Entries = append(fundamentals.Batch.Entries, fundamentals.Batch.Entries[0])
	dividends := source.NewMockDividends([]string{"PETR4"}, 1)

	runner := newRunner(2, fundamentals, dividends)
	_, err := runner.Run(context.Background())

	var dup *types.DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want DuplicateKeyError", err)
	}
}

func TestRunPropagatesBatchFetchError(t *testing.T) {
	cause := errors.New("fetch failed")
	fundamentals := &source.MockFundamentals{Err: cause}
	dividends := source.NewMockDividends(nil, 1)

	runner := newRunner(1, fundamentals, dividends)
	_, err := runner.Run(context.Background())
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, want wrapped fetch failure", err)
	}
}

func TestRunCollectsFailureLedger(t *testing.T) {
	syms := []string{"AAAA3", "BBBB4"}
	fundamentals := source.NewMockFundamentals(syms, 5)
	// Corrupt one entry's price so collection excludes it.
	fundamentals.Batch.Entries[1].Values[collector.LabelPrice] = "garbage"
	dividends := source.NewMockDividends(syms, 5)

	runner := newRunner(2, fundamentals, dividends)
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Records) != 1 || result.Records[0].Symbol != "AAAA3" {
		t.Fatalf("excluded record leaked into output: %+v", result.Records)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Symbol != "BBBB4" {
		t.Fatalf("collection failure missing from ledger: %+v", result.Skipped)
	}
}
