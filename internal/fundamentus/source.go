// Package fundamentus scrapes the fundamentals result table from
// fundamentus.com.br. The markup contract is external and brittle; this
// package only locates the table and hands raw cell text downstream.
package fundamentus

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"b3-screener/internal/logger"
	"b3-screener/internal/types"
)

// Source fetches the full result table in a single shot.
type Source struct {
	url       string
	userAgent string
	timeout   time.Duration
	allowed   map[string]struct{} // nil means no universe filter
}

// New builds a fundamentus source. A non-empty universe restricts the batch
// to those symbols; discovery order still follows the table's row order.
func New(resultURL, userAgent string, timeout time.Duration, universe []string) *Source {
	var allowed map[string]struct{}
	if len(universe) > 0 {
		allowed = make(map[string]struct{}, len(universe))
		for _, sym := range universe {
			allowed[strings.ToUpper(sym)] = struct{}{}
		}
	}
	return &Source{
		url:       resultURL,
		userAgent: userAgent,
		timeout:   timeout,
		allowed:   allowed,
	}
}

// FetchBatch downloads and parses the result table into a RawBatch. A width
// mismatch between a row and the header, or more than one result table, is a
// source-contract violation and fails the whole fetch.
func (s *Source) FetchBatch(ctx context.Context) (types.RawBatch, error) {
	if err := ctx.Err(); err != nil {
		return types.RawBatch{}, err
	}

	var (
		batch    types.RawBatch
		headers  []string
		tables   int
		parseErr error
		seen     = map[string]struct{}{}
	)

	c := colly.NewCollector(
		colly.AllowedDomains(domain(s.url)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", s.userAgent)
		r.Headers.Set("Accept", "text/html, text/plain, */*;q=0.01")
	})

	c.OnHTML("table#resultado", func(e *colly.HTMLElement) {
		tables++
		if tables > 1 {
			parseErr = errors.New("more than one result table found")
			return
		}

		e.ForEach("thead th", func(_ int, th *colly.HTMLElement) {
			headers = append(headers, strings.TrimSpace(th.Text))
		})
		if len(headers) == 0 {
			parseErr = errors.New("result table has no header row")
			return
		}

		e.ForEach("tbody tr", func(_ int, tr *colly.HTMLElement) {
			if parseErr != nil {
				return
			}
			var cells []string
			tr.ForEach("td", func(_ int, td *colly.HTMLElement) {
				cells = append(cells, strings.TrimSpace(td.Text))
			})
			if len(cells) != len(headers) {
				parseErr = fmt.Errorf("row width %d does not match header width %d", len(cells), len(headers))
				return
			}

			symbol := strings.ToUpper(cells[0])
			if symbol == "" {
				return
			}
			if s.allowed != nil {
				if _, ok := s.allowed[symbol]; !ok {
					return
				}
			}
			// The site occasionally repeats a row; keep the first.
			if _, dup := seen[symbol]; dup {
				return
			}
			seen[symbol] = struct{}{}

			entry := types.RawFundamentalEntry{
				Symbol: symbol,
				Labels: headers[1:],
				Values: make(map[string]string, len(headers)-1),
			}
			for i, label := range headers[1:] {
				entry.Values[label] = cells[i+1]
			}
			batch.Entries = append(batch.Entries, entry)
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Fundamentals fetch error", err, "url", r.Request.URL.String())
	})

	if err := c.Visit(s.url); err != nil {
		return types.RawBatch{}, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}
	c.Wait()

	if parseErr != nil {
		return types.RawBatch{}, parseErr
	}
	if tables == 0 {
		return types.RawBatch{}, errors.New("result table not found")
	}

	logger.Info(ctx, "Fundamentals batch fetched", "entries", len(batch.Entries))
	return batch, nil
}

func domain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
