package types

// Metric is a numeric value that may be absent. Absent metrics carry the
// reason instead of a silent zero, so "legitimately 0.0" and "could not be
// determined" stay distinguishable downstream.
type Metric struct {
	Value  float64 `json:"value"`
	Valid  bool    `json:"valid"`
	Reason string  `json:"reason,omitempty"`
}

func MetricOf(v float64) Metric   { return Metric{Value: v, Valid: true} }
func Absent(reason string) Metric { return Metric{Reason: reason} }

// RawFundamentalEntry is one row of the fundamentals result table: the
// source's own column labels mapped to their raw cell text, label order
// preserved. Produced by the fundamentus source and never mutated after.
type RawFundamentalEntry struct {
	Symbol string
	Labels []string
	Values map[string]string
}

// RawBatch is the full scrape result in discovery order.
type RawBatch struct {
	Entries []RawFundamentalEntry
}

// FundamentalRecord is the normalized per-symbol record. Percent-denominated
// fields (ReturnOnEquityPct, DividendYieldPct, ROICPct, NetMarginPct) keep
// percent units: 12.5 means 12.5%.
type FundamentalRecord struct {
	Symbol            string
	Price             float64
	PriceToEarnings   Metric
	PriceToBook       Metric
	EarningsPerShare  Metric
	BookValuePerShare Metric
	ReturnOnEquityPct Metric
	DividendYieldPct  Metric
	EVToEBIT          Metric
	ROICPct           Metric
	NetMarginPct      Metric
	AvgLiquidity      Metric
}

// DividendYieldSample is one period's dividend yield in percent units,
// most recent first as produced by the source.
type DividendYieldSample struct {
	Symbol   string
	YieldPct float64
}

// EnrichedRecord is a FundamentalRecord plus the derived valuation fields.
type EnrichedRecord struct {
	FundamentalRecord
	AggregatedYieldPct Metric
	GrahamIntrinsic    Metric
	SafetyMarginPct    Metric
	BazinFairValue     Metric
	GordonValue        Metric
	EarningsYield      Metric
}
