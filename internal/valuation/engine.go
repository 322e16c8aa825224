// Package valuation derives fair-value estimates from normalized fundamental
// records. Pure computation: no I/O, no retries, deterministic.
package valuation

import (
	"fmt"
	"math"

	"b3-screener/internal/types"
)

// Params are the valuation policy constants. All of them are configuration,
// not magic numbers baked into the formulas.
type Params struct {
	GrahamPE           float64 // acceptable price-to-earnings (classic: 15)
	GrahamPB           float64 // acceptable price-to-book (classic: 1.5)
	BazinTargetYield   float64 // percent, e.g. 6.0
	GordonDiscountRate float64 // percent, e.g. 10.0
}

// DefaultParams returns the classic parameter set: Graham's 22.5 product,
// Bazin's 6% target, a 10% Gordon discount rate.
func DefaultParams() Params {
	return Params{
		GrahamPE:           15,
		GrahamPB:           1.5,
		BazinTargetYield:   6.0,
		GordonDiscountRate: 10.0,
	}
}

// Engine computes the derived valuation fields of a record.
type Engine struct {
	params Params
}

func New(params Params) *Engine {
	return &Engine{params: params}
}

// Value enriches one record with Graham intrinsic value, safety margin,
// Bazin and Gordon fair values, and earnings yield. yield is the aggregated
// trailing dividend yield in percent units, Absent when the aggregator had
// no data.
//
// A non-positive price is an InvariantViolationError: the record is still
// returned, with every derived field Absent and carrying the reason, so the
// caller can keep it in the report without fabricated numbers.
func (e *Engine) Value(rec types.FundamentalRecord, yield types.Metric) (types.EnrichedRecord, error) {
	out := types.EnrichedRecord{FundamentalRecord: rec, AggregatedYieldPct: yield}

	if rec.Price <= 0 {
		err := &types.InvariantViolationError{
			Symbol: rec.Symbol,
			Msg:    fmt.Sprintf("non-positive price %.4f", rec.Price),
		}
		reason := err.Error()
		out.GrahamIntrinsic = types.Absent(reason)
		out.SafetyMarginPct = types.Absent(reason)
		out.BazinFairValue = types.Absent(reason)
		out.GordonValue = types.Absent(reason)
		out.EarningsYield = types.Absent(reason)
		return out, err
	}

	out.GrahamIntrinsic = e.graham(rec)
	out.SafetyMarginPct = safetyMargin(out.GrahamIntrinsic, rec.Price)
	out.BazinFairValue = e.dividendFair(rec.Price, yield, e.params.BazinTargetYield)
	out.GordonValue = e.dividendFair(rec.Price, yield, e.params.GordonDiscountRate)
	out.EarningsYield = earningsYield(rec.EVToEBIT)

	return out, nil
}

// graham computes sqrt(GrahamPE * GrahamPB * EPS * BVPS). The formula is
// only defined when both per-share factors are positive; otherwise the
// result is Absent with the failing precondition recorded.
func (e *Engine) graham(rec types.FundamentalRecord) types.Metric {
	eps := rec.EarningsPerShare
	bvps := rec.BookValuePerShare

	switch {
	case !eps.Valid:
		return types.Absent("earnings per share unavailable: " + eps.Reason)
	case !bvps.Valid:
		return types.Absent("book value per share unavailable: " + bvps.Reason)
	case eps.Value <= 0:
		return types.Absent("non-positive earnings per share")
	case bvps.Value <= 0:
		return types.Absent("non-positive book value per share")
	}

	v := math.Sqrt(e.params.GrahamPE * e.params.GrahamPB * eps.Value * bvps.Value)
	return types.MetricOf(v)
}

// safetyMargin is the percent gap between intrinsic value and price:
// (intrinsic - price) / price * 100. Positive means room to rise.
func safetyMargin(intrinsic types.Metric, price float64) types.Metric {
	if !intrinsic.Valid {
		return types.Absent("intrinsic value absent: " + intrinsic.Reason)
	}
	return types.MetricOf((intrinsic.Value - price) / price * 100)
}

// dividendFair prices the stock so its trailing dividend matches targetPct:
// (price * yieldPct/100) / (targetPct/100). Bazin and Gordon differ only in
// the target rate.
func (e *Engine) dividendFair(price float64, yield types.Metric, targetPct float64) types.Metric {
	if !yield.Valid {
		return types.Absent("dividend yield: " + yield.Reason)
	}
	annualDividend := price * yield.Value / 100
	return types.MetricOf(annualDividend / (targetPct / 100))
}

// earningsYield is EBIT over enterprise value, the inverse of EV/EBIT.
func earningsYield(evToEBIT types.Metric) types.Metric {
	if !evToEBIT.Valid {
		return types.Absent("EV/EBIT unavailable")
	}
	if evToEBIT.Value == 0 {
		return types.Absent("EV/EBIT is zero")
	}
	return types.MetricOf(1 / evToEBIT.Value)
}
