// Package source provides mock implementations of the external data sources
// for dry runs and tests, mirroring the shape of the live scrapers without
// touching the network.
package source

import (
	"context"
	"fmt"
	"math/rand"

	"b3-screener/internal/collector"
	"b3-screener/internal/dividend"
	"b3-screener/internal/types"
)

// MockFundamentals serves a fixed or generated batch.
type MockFundamentals struct {
	Batch types.RawBatch
	Err   error
}

func (m *MockFundamentals) FetchBatch(ctx context.Context) (types.RawBatch, error) {
	if m.Err != nil {
		return types.RawBatch{}, m.Err
	}
	return m.Batch, nil
}

// NewMockFundamentals generates a plausible batch for the given symbols with
// pt-BR formatted cell text, seeded for reproducibility.
func NewMockFundamentals(symbols []string, seed int64) *MockFundamentals {
	r := rand.New(rand.NewSource(seed))
	var batch types.RawBatch
	for _, sym := range symbols {
		price := 5 + r.Float64()*95
		pe := 2 + r.Float64()*30
		pb := 0.3 + r.Float64()*4
		batch.Entries = append(batch.Entries, types.RawFundamentalEntry{
			Symbol: sym,
			Labels: []string{
				collector.LabelPrice, collector.LabelPE, collector.LabelPB,
				collector.LabelROE, collector.LabelDY, collector.LabelEVEBIT,
			},
			Values: map[string]string{
				collector.LabelPrice:  ptBR(price),
				collector.LabelPE:     ptBR(pe),
				collector.LabelPB:     ptBR(pb),
				collector.LabelROE:    ptBR(2+r.Float64()*25) + "%",
				collector.LabelDY:     ptBR(r.Float64()*10) + "%",
				collector.LabelEVEBIT: ptBR(1 + r.Float64()*20),
			},
		})
	}
	return &MockFundamentals{Batch: batch}
}

// MockDividends serves canned yield histories per symbol. Symbols without an
// entry behave like an unavailable source.
type MockDividends struct {
	Histories map[string][]float64
	Err       error
}

func (m *MockDividends) YieldHistory(ctx context.Context, symbol string) (dividend.SampleStream, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	history, ok := m.Histories[symbol]
	if !ok {
		return nil, &types.SourceUnavailableError{
			Source: "mock dividends",
			Symbol: symbol,
			Err:    fmt.Errorf("no history configured"),
		}
	}
	return NewSliceStream(symbol, history), nil
}

// NewMockDividends generates a 12-period history per symbol.
func NewMockDividends(symbols []string, seed int64) *MockDividends {
	r := rand.New(rand.NewSource(seed))
	histories := make(map[string][]float64, len(symbols))
	for _, sym := range symbols {
		history := make([]float64, 12)
		for i := range history {
			history[i] = r.Float64() * 1.5
		}
		histories[sym] = history
	}
	return &MockDividends{Histories: histories}
}

// SliceStream is a SampleStream backed by an in-memory slice.
type SliceStream struct {
	symbol string
	yields []float64
	pos    int

	// Reads counts Next calls that produced a sample, for consumption
	// bound assertions in tests.
	Reads int
}

func NewSliceStream(symbol string, yields []float64) *SliceStream {
	return &SliceStream{symbol: symbol, yields: yields}
}

func (s *SliceStream) Next() (types.DividendYieldSample, bool, error) {
	if s.pos >= len(s.yields) {
		return types.DividendYieldSample{}, false, nil
	}
	sample := types.DividendYieldSample{Symbol: s.symbol, YieldPct: s.yields[s.pos]}
	s.pos++
	s.Reads++
	return sample, true, nil
}

// ptBR formats a float with the source locale's decimal comma.
func ptBR(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	out := []byte(s)
	for i := range out {
		if out[i] == '.' {
			out[i] = ','
		}
	}
	return string(out)
}
