// Package statusinvest fetches per-symbol dividend-yield history from
// statusinvest.com.br. Like every scraper here it depends on external markup
// and may break when the site changes.
package statusinvest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"b3-screener/internal/dividend"
	"b3-screener/internal/logger"
	"b3-screener/internal/normalize"
	"b3-screener/internal/types"
)

// Client fetches the ticker page and exposes its dividend-yield history as a
// lazy stream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	limiter    *RateLimiter
	norm       *normalize.Normalizer
}

// NewClient creates a StatusInvest client. rateLimit spaces out page fetches
// so per-symbol fan-out does not hammer the site.
func NewClient(baseURL, userAgent string, timeout, rateLimit time.Duration, norm *normalize.Normalizer) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "text/html,application/json",
		},
		limiter: NewRateLimiter(2, rateLimit),
		norm:    norm,
	}
}

// tickerURL routes REIT symbols (ticker class digit 1, e.g. HGLG11) to the
// fundos-imobiliarios section and everything else to acoes.
func (c *Client) tickerURL(symbol string) string {
	slug := strings.ToLower(symbol)
	if strings.Contains(symbol, "1") {
		return fmt.Sprintf("%s/fundos-imobiliarios/%s", c.baseURL, slug)
	}
	return fmt.Sprintf("%s/acoes/%s", c.baseURL, slug)
}

// YieldHistory fetches the symbol's page and returns its dividend-yield
// percent strings as a most-recent-first stream. Fetch or parse failure is a
// SourceUnavailableError scoped to this symbol.
func (c *Client) YieldHistory(ctx context.Context, symbol string) (dividend.SampleStream, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pageURL := c.tickerURL(symbol)
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, &types.SourceUnavailableError{Source: "statusinvest", Symbol: symbol, Err: err}
	}

	raw := extractYieldHistory(doc)
	if len(raw) == 0 {
		return nil, &types.SourceUnavailableError{
			Source: "statusinvest",
			Symbol: symbol,
			Err:    fmt.Errorf("no dividend history section at %s", pageURL),
		}
	}

	logger.Debug(ctx, "Dividend history fetched", "symbol", symbol, "periods", len(raw))
	return &pageStream{symbol: symbol, raw: raw, norm: c.norm}, nil
}

func (c *Client) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("statusinvest returned status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// extractYieldHistory pulls the per-period yield percent strings out of the
// earnings section table, most recent row first as the site renders them.
func extractYieldHistory(doc *goquery.Document) []string {
	var out []string
	doc.Find("div#earning-section table tbody tr").Each(func(_ int, row *goquery.Selection) {
		text := strings.TrimSpace(row.Find("td").Last().Text())
		if text != "" {
			out = append(out, text)
		}
	})
	return out
}

// pageStream parses yield strings lazily, one Next call at a time.
// Unparseable or not-available periods are skipped; an all-bad history just
// exhausts into an empty stream.
type pageStream struct {
	symbol string
	raw    []string
	pos    int
	norm   *normalize.Normalizer
}

func (s *pageStream) Next() (types.DividendYieldSample, bool, error) {
	for s.pos < len(s.raw) {
		text := s.raw[s.pos]
		s.pos++

		m, err := s.norm.Parse(text)
		if err != nil || !m.Valid {
			continue
		}
		return types.DividendYieldSample{Symbol: s.symbol, YieldPct: m.Value}, true, nil
	}
	return types.DividendYieldSample{}, false, nil
}
