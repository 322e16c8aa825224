// Package collector assembles normalized fundamental records from the raw
// scraped batch, one per symbol, preserving discovery order.
package collector

import (
	"context"

	"b3-screener/internal/logger"
	"b3-screener/internal/normalize"
	"b3-screener/internal/types"
)

// Column labels as they appear in the fundamentus result table.
const (
	LabelPrice     = "Cotação"
	LabelPE        = "P/L"
	LabelPB        = "P/VP"
	LabelROE       = "ROE"
	LabelDY        = "Div.Yield"
	LabelEVEBIT    = "EV/EBIT"
	LabelROIC      = "ROIC"
	LabelNetMargin = "Mrg. Líq."
	LabelLiquidity = "Liq.2meses"
)

// requiredLabels must be present and parseable for a record to be usable.
var requiredLabels = []string{LabelPrice, LabelPE, LabelPB, LabelROE, LabelDY}

// Failure records why a symbol was excluded from the output.
type Failure struct {
	Symbol string
	Err    error
}

// Collector maps raw entries to FundamentalRecords via the normalizer.
type Collector struct {
	norm *normalize.Normalizer
}

func New(norm *normalize.Normalizer) *Collector {
	return &Collector{norm: norm}
}

// Collect builds one record per entry, in input order. A record whose
// required fields are missing or unparseable is excluded and reported in the
// failure ledger, never dropped silently; processing continues with the next
// entry. A duplicate symbol aborts the whole batch: it means the source's
// uniqueness contract is broken and nothing downstream can be trusted.
func (c *Collector) Collect(ctx context.Context, batch types.RawBatch) ([]types.FundamentalRecord, []Failure, error) {
	records := make([]types.FundamentalRecord, 0, len(batch.Entries))
	var failures []Failure
	seen := make(map[string]struct{}, len(batch.Entries))

	for _, entry := range batch.Entries {
		if _, dup := seen[entry.Symbol]; dup {
			return nil, nil, &types.DuplicateKeyError{Symbol: entry.Symbol}
		}
		seen[entry.Symbol] = struct{}{}

		rec, err := c.collectOne(entry)
		if err != nil {
			logger.Skipped(ctx, entry.Symbol, err)
			failures = append(failures, Failure{Symbol: entry.Symbol, Err: err})
			continue
		}
		records = append(records, rec)
	}

	return records, failures, nil
}

func (c *Collector) collectOne(entry types.RawFundamentalEntry) (types.FundamentalRecord, error) {
	var zero types.FundamentalRecord

	required := make(map[string]types.Metric, len(requiredLabels))
	for _, label := range requiredLabels {
		raw, ok := entry.Values[label]
		if !ok {
			return zero, &types.FieldMissingError{Symbol: entry.Symbol, Field: label}
		}
		m, err := c.norm.Parse(raw)
		if err != nil {
			return zero, err
		}
		required[label] = m
	}
	price := required[LabelPrice]
	if !price.Valid {
		return zero, &types.FieldMissingError{Symbol: entry.Symbol, Field: LabelPrice}
	}

	rec := types.FundamentalRecord{
		Symbol:            entry.Symbol,
		Price:             price.Value,
		PriceToEarnings:   required[LabelPE],
		PriceToBook:       required[LabelPB],
		ReturnOnEquityPct: required[LabelROE],
		DividendYieldPct:  required[LabelDY],
		EVToEBIT:          c.optional(entry, LabelEVEBIT),
		ROICPct:           c.optional(entry, LabelROIC),
		NetMarginPct:      c.optional(entry, LabelNetMargin),
		AvgLiquidity:      c.optional(entry, LabelLiquidity),
	}

	// Fundamentus publishes price multiples, not per-share values; back the
	// per-share figures out of the multiples when the denominators allow.
	rec.EarningsPerShare = perShare(rec.Price, rec.PriceToEarnings, "P/L")
	rec.BookValuePerShare = perShare(rec.Price, rec.PriceToBook, "P/VP")

	return rec, nil
}

// optional parses a non-required label; absence or a bad value degrades to an
// Absent metric instead of failing the record.
func (c *Collector) optional(entry types.RawFundamentalEntry, label string) types.Metric {
	raw, ok := entry.Values[label]
	if !ok {
		return types.Absent("field not present")
	}
	m, err := c.norm.Parse(raw)
	if err != nil {
		return types.Absent("unparseable value")
	}
	return m
}

func perShare(price float64, multiple types.Metric, name string) types.Metric {
	if !multiple.Valid {
		return types.Absent(name + " unavailable")
	}
	if multiple.Value == 0 {
		return types.Absent(name + " is zero")
	}
	return types.MetricOf(price / multiple.Value)
}
