// Package normalize converts the locale-formatted numeric strings scraped
// from Brazilian financial sites into float64 values. Cleaning is an ordered
// list of named steps so each locale edge case is testable on its own.
package normalize

import (
	"strconv"
	"strings"

	"b3-screener/internal/types"
)

// step is one named text transformation applied before parsing.
type step struct {
	name  string
	apply func(string) string
}

// Normalizer cleans and parses raw numeric text. Percent-suffixed values
// keep percent units: Parse("5%") yields 5.0, not 0.05. Safe for concurrent
// use; Parse has no side effects.
type Normalizer struct {
	steps    []step
	naTokens map[string]struct{}
}

// Options configures the stripped symbol set. Both lists are policy, not
// guesses: they come from configuration.
type Options struct {
	CurrencyPrefixes []string // e.g. "R$"
	NATokens         []string // e.g. "-", "N/A"
}

// Magnitude suffixes sometimes used by the dividend source.
var magnitudes = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

func New(opts Options) *Normalizer {
	if len(opts.CurrencyPrefixes) == 0 {
		opts.CurrencyPrefixes = []string{"R$"}
	}
	if len(opts.NATokens) == 0 {
		opts.NATokens = []string{"-", "N/A"}
	}

	na := make(map[string]struct{}, len(opts.NATokens))
	for _, tok := range opts.NATokens {
		na[tok] = struct{}{}
	}

	prefixes := opts.CurrencyPrefixes
	return &Normalizer{
		naTokens: na,
		steps: []step{
			{"trim", func(s string) string {
				return strings.TrimSpace(strings.ReplaceAll(s, "\n", ""))
			}},
			{"strip_currency", func(s string) string {
				for _, p := range prefixes {
					s = strings.TrimSpace(strings.TrimPrefix(s, p))
				}
				return s
			}},
			{"strip_percent", func(s string) string {
				return strings.TrimSpace(strings.TrimSuffix(s, "%"))
			}},
			{"separators", canonicalSeparators},
		},
	}
}

// Parse converts raw text into a Metric. "Not available" tokens and strings
// that are empty after cleaning yield an Absent metric, never a silent zero.
// Text that survives cleaning but is not a number is a FormatError.
func (n *Normalizer) Parse(raw string) (types.Metric, error) {
	text := strings.TrimSpace(raw)
	if _, ok := n.naTokens[text]; ok || text == "" {
		return types.Absent("not available"), nil
	}

	for _, st := range n.steps {
		text = st.apply(text)
	}
	if text == "" || text == "-" || text == "+" {
		return types.Absent("not available"), nil
	}

	mult := 1.0
	if last := text[len(text)-1]; last >= 'A' && last <= 'Z' {
		m, ok := magnitudes[last]
		if !ok {
			return types.Metric{}, &types.FormatError{Input: raw}
		}
		mult = m
		text = strings.TrimSpace(text[:len(text)-1])
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return types.Metric{}, &types.FormatError{Input: raw}
	}
	return types.MetricOf(v * mult), nil
}

// canonicalSeparators resolves mixed thousands/decimal separator styles to
// the canonical '.' decimal form. Handles both "1.234,56" and "1,234.56".
func canonicalSeparators(s string) string {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Both present: the rightmost separator is the decimal one.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			// Repeated commas can only be thousands grouping.
			s = strings.ReplaceAll(s, ",", "")
		} else {
			// Single comma is the pt-BR decimal separator.
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		} else if groupedThousands(s, lastDot) {
			// "1.234" in the source locale is one thousand, not 1.234.
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// groupedThousands reports whether a single '.' looks like pt-BR thousands
// grouping: exactly three digits after it and at least one digit before.
func groupedThousands(s string, dot int) bool {
	if len(s)-dot-1 != 3 {
		return false
	}
	for _, r := range s[dot+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return dot > 0 && s[dot-1] >= '0' && s[dot-1] <= '9'
}
