// Package universe discovers the set of B3 symbols currently negotiated,
// used to restrict the fundamentals batch.
package universe

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"b3-screener/internal/logger"
)

// Source lists tradeable symbols either from a static config list or by
// scraping the infomoney B3 company listing.
type Source struct {
	listURL   string
	userAgent string
	timeout   time.Duration
	digits    []string
	static    []string
}

func New(listURL, userAgent string, timeout time.Duration, digits, static []string) *Source {
	return &Source{
		listURL:   listURL,
		userAgent: userAgent,
		timeout:   timeout,
		digits:    digits,
		static:    static,
	}
}

// Symbols returns the universe in discovery order, deduplicated. A static
// list short-circuits the scrape entirely.
func (s *Source) Symbols(ctx context.Context) ([]string, error) {
	if len(s.static) > 0 {
		out := make([]string, 0, len(s.static))
		for _, sym := range s.static {
			out = append(out, strings.ToUpper(strings.TrimSpace(sym)))
		}
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var symbols []string
	seen := map[string]struct{}{}

	c := colly.NewCollector(
		colly.AllowedDomains(hostname(s.listURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", s.userAgent)
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if !strings.Contains(e.Attr("href"), "/cotacoes/b3/") {
			return
		}
		symbol := strings.ToUpper(strings.TrimSpace(e.Text))
		if symbol == "" || !s.tradeableClass(symbol) {
			return
		}
		if _, dup := seen[symbol]; dup {
			return
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Universe fetch error", err, "url", r.Request.URL.String())
	})

	if err := c.Visit(s.listURL); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.listURL, err)
	}
	c.Wait()

	logger.Info(ctx, "Symbol universe discovered", "symbols", len(symbols))
	return symbols, nil
}

// tradeableClass keeps symbols whose ticker carries one of the configured
// class digits (1 for units/FIIs, 3 for ON, 4 for PN).
func (s *Source) tradeableClass(symbol string) bool {
	for _, d := range s.digits {
		if strings.Contains(symbol, d) {
			return true
		}
	}
	return false
}

func hostname(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
