// Package evidence finds corroborating links for a claim and gathers short excerpts
// used to ground remote classifier prompts.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/clients"
	"github.com/vaibhav1874/TrueVail/internal/config"
	"github.com/vaibhav1874/TrueVail/internal/extractor"
	"github.com/vaibhav1874/TrueVail/internal/logger"
)

const (
	maxQueryChars        = 120
	excerptChars         = 1500
	defaultMaxResults    = 3
	defaultSearchTimeout = 5 * time.Second
	retryDelay           = 200 * time.Millisecond
)

// Searcher runs the provider chain. It never fails the caller: every error
// degrades to fewer or no links.
type Searcher struct {
	providers  []Provider
	fetcher    extractor.ContentFetcher
	limiter    *rate.Limiter
	maxResults int
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewSearcher creates a searcher over explicit providers
func NewSearcher(providers []Provider, fetcher extractor.ContentFetcher, maxResults int, rps float64, timeout time.Duration) *Searcher {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &Searcher{
		providers:  providers,
		fetcher:    fetcher,
		limiter:    rate.NewLimiter(limit, burst),
		maxResults: maxResults,
		timeout:    timeout,
		logger:     logger.Log,
	}
}

// NewFromConfig wires Serper (when a key is set) then Google News RSS (when enabled).
// Excerpts are fetched with a single attempt each.
func NewFromConfig(cfg *config.Config) *Searcher {
	fetcher := extractor.New(cfg, extractor.WithMaxRetries(0))
	var providers []Provider
	if serper := clients.NewSerperClient(cfg); serper.Configured() {
		providers = append(providers, NewSerperProvider(serper))
	}
	if cfg.EvidenceRSSEnabled {
		providers = append(providers, NewRSSProvider(&http.Client{Timeout: cfg.SearchTimeout}))
	}
	return NewSearcher(providers, fetcher, cfg.EvidenceMaxResults, cfg.EvidenceRPS, cfg.SearchTimeout)
}

// Enabled reports whether any provider is configured
func (s *Searcher) Enabled() bool {
	return s != nil && len(s.providers) > 0
}

// Search returns up to maxResults links from the first provider that yields any
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) []analysis.EvidenceLink {
	query = strings.TrimSpace(query)
	if !s.Enabled() || query == "" {
		return nil
	}
	if maxResults <= 0 {
		maxResults = s.maxResults
	}
	correlationID := logger.CorrelationIDFromContext(ctx)

	for _, p := range s.providers {
		start := time.Now()
		links, err := s.searchProvider(ctx, p, query, maxResults)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"component":      "evidence",
				"provider":       p.Name(),
				"correlation_id": correlationID,
				"error":          err.Error(),
			}).Warn("Evidence provider failed")
			continue
		}
		if len(links) == 0 {
			continue
		}
		links = dedupe(links, maxResults)
		s.logger.WithFields(map[string]interface{}{
			"component":      "evidence",
			"provider":       p.Name(),
			"correlation_id": correlationID,
			"links":          len(links),
			"duration_ms":    time.Since(start).Milliseconds(),
		}).Info("Evidence links found")
		return links
	}
	return nil
}

// searchProvider rate-limits one provider call and retries a transient failure once
func (s *Searcher) searchProvider(ctx context.Context, p Provider, query string, maxResults int) ([]analysis.EvidenceLink, error) {
	var links []analysis.EvidenceLink
	operation := func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		result, err := p.Search(callCtx, query, maxResults)
		if err != nil {
			if !retryable(err) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		links = result
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(retryDelay), 1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return links, nil
}

// Gather derives a query from content, searches, and attaches best-effort excerpts.
// Excerpts are fetched concurrently and share one search-timeout budget; pages not
// done by then are kept without text.
func (s *Searcher) Gather(ctx context.Context, content string) []analysis.EvidenceLink {
	query := DeriveQuery(content)
	if query == "" {
		return nil
	}
	links := s.Search(ctx, query, s.maxResults)
	if s.fetcher == nil || len(links) == 0 {
		return links
	}

	budgetCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pages := make([]*analysis.ExtractedContent, len(links))
	var wg sync.WaitGroup
	for i := range links {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page, err := s.fetcher.FetchLimited(budgetCtx, links[i].URL, excerptChars)
			if err != nil {
				s.logger.WithFields(map[string]interface{}{
					"component":      "evidence",
					"correlation_id": logger.CorrelationIDFromContext(ctx),
					"url":            links[i].URL,
					"kind":           string(extractor.KindOf(err)),
				}).Debug("Evidence page fetch failed, keeping link without text")
				return
			}
			pages[i] = page
		}(i)
	}
	wg.Wait()

	for i, page := range pages {
		links[i].Content = page
	}
	return links
}

// DeriveQuery uses the first non-empty line, capped at 120 characters on a word boundary
func DeriveQuery(content string) string {
	var line string
	for _, l := range strings.Split(content, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	line = strings.Join(strings.Fields(line), " ")
	if utf8.RuneCountInString(line) <= maxQueryChars {
		return line
	}

	runes := []rune(line)[:maxQueryChars]
	cut := string(runes)
	if idx := strings.LastIndex(cut, " "); idx > maxQueryChars/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// FormatForPrompt renders links as numbered evidence blocks
func FormatForPrompt(links []analysis.EvidenceLink) string {
	if len(links) == 0 {
		return ""
	}
	var blocks []string
	for i, link := range links {
		var b strings.Builder
		fmt.Fprintf(&b, "Evidence %d:", i+1)
		if link.Title != "" {
			fmt.Fprintf(&b, " %s", link.Title)
		}
		fmt.Fprintf(&b, "\nURL: %s", link.URL)
		switch {
		case link.Content != nil && link.Content.Text != "":
			fmt.Fprintf(&b, "\nExcerpt: %s", link.Content.Text)
		case link.Snippet != "":
			fmt.Fprintf(&b, "\nSnippet: %s", link.Snippet)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// URLs lists the link targets
func URLs(links []analysis.EvidenceLink) []string {
	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	return urls
}

func dedupe(links []analysis.EvidenceLink, max int) []analysis.EvidenceLink {
	seen := make(map[string]bool, len(links))
	out := links[:0]
	for _, l := range links {
		if l.URL == "" || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		out = append(out, l)
		if len(out) == max {
			break
		}
	}
	return out
}

// retryable reports whether a provider failure is worth one more attempt
func retryable(err error) bool {
	if errors.Is(err, clients.ErrNotConfigured) || errors.Is(err, clients.ErrMalformedResponse) {
		return false
	}
	if apiErr, ok := clients.AsAPIError(err); ok {
		return apiErr.StatusCode >= 500
	}
	return true
}
