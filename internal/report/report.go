// Package report serializes the enriched record set to CSV files for human
// review: one full sheet, one skip ledger, and one filtered view per
// configured safety-margin threshold.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"

	"b3-screener/internal/collector"
	"b3-screener/internal/logger"
	"b3-screener/internal/types"
)

// Row is one spreadsheet line. Absent metrics render as empty cells; their
// reasons are aggregated into the notes column of the main sheet so nothing
// is dropped without trace.
type Row struct {
	Symbol            string  `csv:"symbol"`
	Price             float64 `csv:"price"`
	EarningsPerShare  string  `csv:"earnings_per_share"`
	BookValuePerShare string  `csv:"book_value_per_share"`
	ReturnOnEquity    string  `csv:"roe_pct"`
	DividendYield12M  string  `csv:"dividend_yield_12m_pct"`
	GrahamIntrinsic   string  `csv:"graham_intrinsic"`
	SafetyMargin      string  `csv:"safety_margin_pct"`
	BazinFairValue    string  `csv:"bazin_fair_value"`
	GordonValue       string  `csv:"gordon_value"`
	EarningsYield     string  `csv:"earnings_yield"`
	Notes             string  `csv:"notes"`
}

// SkippedRow is one skip-ledger line.
type SkippedRow struct {
	Symbol string `csv:"symbol"`
	Cause  string `csv:"cause"`
}

// Writer emits the report files into a directory.
type Writer struct {
	dir     string
	margins []float64
}

func NewWriter(dir string, margins []float64) *Writer {
	return &Writer{dir: dir, margins: margins}
}

// Write produces screening.csv (all records, input order), skipped.csv (the
// failure ledger) and valuations_<margin>.csv views filtered to records
// trading below both estimates by at least that margin. Returns the paths
// written.
func (w *Writer) Write(ctx context.Context, records []types.EnrichedRecord, skipped []collector.Failure) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, err
	}

	var paths []string

	rows := make([]*Row, 0, len(records))
	for i := range records {
		rows = append(rows, toRow(&records[i], true))
	}
	mainPath := filepath.Join(w.dir, "screening.csv")
	if err := writeCSV(mainPath, &rows); err != nil {
		return nil, err
	}
	paths = append(paths, mainPath)

	if len(skipped) > 0 {
		ledger := make([]*SkippedRow, 0, len(skipped))
		for _, f := range skipped {
			ledger = append(ledger, &SkippedRow{Symbol: f.Symbol, Cause: f.Err.Error()})
		}
		ledgerPath := filepath.Join(w.dir, "skipped.csv")
		if err := writeCSV(ledgerPath, &ledger); err != nil {
			return nil, err
		}
		paths = append(paths, ledgerPath)
	}

	for _, margin := range w.margins {
		view := filterByMargin(records, margin)
		viewRows := make([]*Row, 0, len(view))
		for i := range view {
			viewRows = append(viewRows, toRow(&view[i], false))
		}
		name := fmt.Sprintf("valuations_%s.csv", strconv.FormatFloat(margin, 'f', -1, 64))
		viewPath := filepath.Join(w.dir, name)
		if err := writeCSV(viewPath, &viewRows); err != nil {
			return nil, err
		}
		paths = append(paths, viewPath)
	}

	logger.Info(ctx, "Report written", "dir", w.dir, "files", len(paths), "records", len(records))
	return paths, nil
}

// filterByMargin keeps records trading below both estimates by more than the
// threshold: the Graham safety margin and the Bazin margin relative to price
// must each clear it. Sorted by safety margin descending.
func filterByMargin(records []types.EnrichedRecord, margin float64) []types.EnrichedRecord {
	var out []types.EnrichedRecord
	for _, rec := range records {
		if !rec.SafetyMarginPct.Valid || rec.SafetyMarginPct.Value <= margin {
			continue
		}
		if !rec.BazinFairValue.Valid {
			continue
		}
		bazinMargin := (rec.BazinFairValue.Value - rec.Price) / rec.Price * 100
		if bazinMargin <= margin {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SafetyMarginPct.Value > out[j].SafetyMarginPct.Value
	})
	return out
}

func toRow(rec *types.EnrichedRecord, withNotes bool) *Row {
	row := &Row{
		Symbol:            rec.Symbol,
		Price:             rec.Price,
		EarningsPerShare:  cell(rec.EarningsPerShare),
		BookValuePerShare: cell(rec.BookValuePerShare),
		ReturnOnEquity:    cell(rec.ReturnOnEquityPct),
		DividendYield12M:  cell(rec.AggregatedYieldPct),
		GrahamIntrinsic:   cell(rec.GrahamIntrinsic),
		SafetyMargin:      cell(rec.SafetyMarginPct),
		BazinFairValue:    cell(rec.BazinFairValue),
		GordonValue:       cell(rec.GordonValue),
		EarningsYield:     cell(rec.EarningsYield),
	}
	if withNotes {
		row.Notes = notes(rec)
	}
	return row
}

func cell(m types.Metric) string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', 4, 64)
}

// notes joins the absence reasons of the derived fields, field-tagged.
func notes(rec *types.EnrichedRecord) string {
	var out string
	add := func(field string, m types.Metric) {
		if m.Valid {
			return
		}
		if out != "" {
			out += "; "
		}
		out += field + ": " + m.Reason
	}
	add("dividend_yield_12m", rec.AggregatedYieldPct)
	add("graham", rec.GrahamIntrinsic)
	add("safety_margin", rec.SafetyMarginPct)
	add("bazin", rec.BazinFairValue)
	add("gordon", rec.GordonValue)
	return out
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
