package collector

import (
	"context"
	"errors"
	"math"
	"testing"

	"b3-screener/internal/normalize"
	"b3-screener/internal/types"
)

func entry(symbol string, values map[string]string) types.RawFundamentalEntry {
	labels := make([]string, 0, len(values))
	for label := range values {
		labels = append(labels, label)
	}
	return types.RawFundamentalEntry{Symbol: symbol, Labels: labels, Values: values}
}

func fullValues() map[string]string {
	return map[string]string{
		LabelPrice:  "20,00",
		LabelPE:     "10,0",
		LabelPB:     "2,0",
		LabelROE:    "15,5%",
		LabelDY:     "5,2%",
		LabelEVEBIT: "8,0",
	}
}

func newTestCollector() *Collector {
	return New(normalize.New(normalize.Options{}))
}

func TestCollectNormalizesFields(t *testing.T) {
	batch := types.RawBatch{Entries: []types.RawFundamentalEntry{entry("PETR4", fullValues())}}

	records, failures, err := newTestCollector().Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.Symbol != "PETR4" {
		t.Errorf("symbol = %q", rec.Symbol)
	}
	if rec.Price != 20.0 {
		t.Errorf("price = %v, want 20.0", rec.Price)
	}
	if !rec.ReturnOnEquityPct.Valid || rec.ReturnOnEquityPct.Value != 15.5 {
		t.Errorf("ROE = %+v, want 15.5 (percent units)", rec.ReturnOnEquityPct)
	}
	// EPS = price / P/L, BVPS = price / P/VP
	if !rec.EarningsPerShare.Valid || math.Abs(rec.EarningsPerShare.Value-2.0) > 1e-9 {
		t.Errorf("EPS = %+v, want 2.0", rec.EarningsPerShare)
	}
	if !rec.BookValuePerShare.Valid || math.Abs(rec.BookValuePerShare.Value-10.0) > 1e-9 {
		t.Errorf("BVPS = %+v, want 10.0", rec.BookValuePerShare)
	}
	if !rec.EVToEBIT.Valid || rec.EVToEBIT.Value != 8.0 {
		t.Errorf("EV/EBIT = %+v, want 8.0", rec.EVToEBIT)
	}
}

func TestCollectMissingFieldExcludesRecord(t *testing.T) {
	bad := fullValues()
	delete(bad, LabelROE)
	batch := types.RawBatch{Entries: []types.RawFundamentalEntry{
		entry("AAAA3", fullValues()),
		entry("BBBB4", bad),
		entry("CCCC3", fullValues()),
	}}

	records, failures, err := newTestCollector().Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Symbol != "AAAA3" || records[1].Symbol != "CCCC3" {
		t.Errorf("order not preserved: %s, %s", records[0].Symbol, records[1].Symbol)
	}

	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	if failures[0].Symbol != "BBBB4" {
		t.Errorf("failure symbol = %q, want BBBB4", failures[0].Symbol)
	}
	var missing *types.FieldMissingError
	if !errors.As(failures[0].Err, &missing) {
		t.Fatalf("failure error = %v, want FieldMissingError", failures[0].Err)
	}
	if missing.Field != LabelROE {
		t.Errorf("missing field = %q, want %q", missing.Field, LabelROE)
	}
}

func TestCollectFormatErrorExcludesRecord(t *testing.T) {
	bad := fullValues()
	bad[LabelPrice] = "not-a-number"
	batch := types.RawBatch{Entries: []types.RawFundamentalEntry{entry("DDDD4", bad)}}

	records, failures, err := newTestCollector().Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	var formatErr *types.FormatError
	if !errors.As(failures[0].Err, &formatErr) {
		t.Errorf("failure error = %v, want FormatError", failures[0].Err)
	}
}

func TestCollectDuplicateSymbolAbortsBatch(t *testing.T) {
	batch := types.RawBatch{Entries: []types.RawFundamentalEntry{
		entry("PETR4", fullValues()),
		entry("PETR4", fullValues()),
	}}

	records, failures, err := newTestCollector().Collect(context.Background(), batch)
	var dup *types.DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want DuplicateKeyError", err)
	}
	if dup.Symbol != "PETR4" {
		t.Errorf("duplicate symbol = %q, want PETR4", dup.Symbol)
	}
	if records != nil || failures != nil {
		t.Errorf("aborted batch must not return partial output")
	}
}

func TestCollectNegativeMultiplesLeaveAbsentPerShare(t *testing.T) {
	// "-" in P/L means no meaningful earnings multiple; the record survives
	// with EPS absent.
	values := fullValues()
	values[LabelPE] = "-"
	batch := types.RawBatch{Entries: []types.RawFundamentalEntry{entry("EEEE3", values)}}

	records, failures, err := newTestCollector().Collect(context.Background(), batch)
	if err != nil || len(failures) != 0 {
		t.Fatalf("Collect failed: %v %v", err, failures)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].EarningsPerShare.Valid {
		t.Errorf("EPS should be absent when P/L is unavailable")
	}
}

func TestCollectOptionalFieldsDegrade(t *testing.T) {
	values := fullValues()
	delete(values, LabelEVEBIT)
	batch := types.RawBatch{Entries: []types.RawFundamentalEntry{entry("FFFF4", values)}}

	records, _, err := newTestCollector().Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if records[0].EVToEBIT.Valid {
		t.Errorf("EV/EBIT should be absent when the column is missing")
	}
}
