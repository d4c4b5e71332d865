// Package extractor fetches web pages and reduces them to readable article text.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/config"
	"github.com/vaibhav1874/TrueVail/internal/logger"
)

const (
	// browserUserAgent is sent because many news sites reject unknown agents
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	defaultMaxChars   = 12000
	defaultTimeout    = 10 * time.Second
	maxBodyBytes      = 5 << 20
	maxParagraphs     = 8
	minParagraphRunes = 40
	retryDelay        = 250 * time.Millisecond
)

// ContentFetcher is the interface the orchestrator and evidence search depend on
type ContentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*analysis.ExtractedContent, error)
	FetchLimited(ctx context.Context, rawURL string, maxChars int) (*analysis.ExtractedContent, error)
}

// Extractor downloads pages and extracts their main text
type Extractor struct {
	httpClient *http.Client
	maxChars   int
	maxRetries uint64
	logger     *logrus.Logger
}

// Option customizes an Extractor
type Option func(*Extractor)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) {
		e.httpClient = c
	}
}

// WithMaxRetries sets how many times a timed-out fetch is retried
func WithMaxRetries(n uint64) Option {
	return func(e *Extractor) {
		e.maxRetries = n
	}
}

// New creates an extractor from configuration
func New(cfg *config.Config, opts ...Option) *Extractor {
	timeout := defaultTimeout
	maxChars := defaultMaxChars
	if cfg != nil {
		if cfg.FetchTimeout > 0 {
			timeout = cfg.FetchTimeout
		}
		if cfg.MaxContentChars > 0 {
			maxChars = cfg.MaxContentChars
		}
	}

	e := &Extractor{
		httpClient: &http.Client{Timeout: timeout},
		maxChars:   maxChars,
		maxRetries: 1,
		logger:     logger.Log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fetch extracts up to the configured number of characters from rawURL
func (e *Extractor) Fetch(ctx context.Context, rawURL string) (*analysis.ExtractedContent, error) {
	return e.FetchLimited(ctx, rawURL, e.maxChars)
}

// FetchLimited extracts up to maxChars characters from rawURL
func (e *Extractor) FetchLimited(ctx context.Context, rawURL string, maxChars int) (*analysis.ExtractedContent, error) {
	start := time.Now()
	correlationID := logger.CorrelationIDFromContext(ctx)

	var content *analysis.ExtractedContent
	attempt := 0
	operation := func() error {
		attempt++
		c, err := e.fetchOnce(ctx, rawURL, maxChars)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && fe.Kind == KindTimeout && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		content = c
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(retryDelay), e.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		e.logger.WithFields(map[string]interface{}{
			"correlation_id": correlationID,
			"url":            rawURL,
			"attempts":       attempt,
			"error":          err.Error(),
		}).Warn("Content extraction failed")
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"url":            rawURL,
		"attempts":       attempt,
		"chars":          utf8.RuneCountInString(content.Text),
		"truncated":      content.Truncated,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Debug("Content extracted")

	return content, nil
}

func (e *Extractor) fetchOnce(ctx context.Context, rawURL string, maxChars int) (*analysis.ExtractedContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{Kind: KindParse, URL: rawURL, Err: fmt.Errorf("invalid URL: %w", err)}
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Kind: KindHTTP, URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{Kind: KindParse, URL: rawURL, Err: fmt.Errorf("decode charset: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		if isTimeout(err) {
			return nil, &FetchError{Kind: KindTimeout, URL: rawURL, Err: err}
		}
		return nil, &FetchError{Kind: KindParse, URL: rawURL, Err: fmt.Errorf("parse HTML: %w", err)}
	}

	text, truncated := Truncate(ExtractText(doc), maxChars)
	return &analysis.ExtractedContent{
		SourceURL: rawURL,
		Title:     collapseWhitespace(doc.Find("title").First().Text()),
		Text:      text,
		Truncated: truncated,
	}, nil
}

// ExtractText removes non-content elements and returns the article body when
// present, otherwise the longest paragraphs in document order.
func ExtractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template, iframe, svg").Remove()

	if article := doc.Find("article").First(); article.Length() > 0 {
		if text := blockText(article); text != "" {
			return text
		}
	}

	type block struct {
		index int
		text  string
	}
	var blocks []block
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		if text := collapseWhitespace(s.Text()); text != "" {
			blocks = append(blocks, block{index: i, text: text})
		}
	})

	if len(blocks) == 0 {
		return collapseLines(doc.Find("body").Text())
	}

	// prefer substantial paragraphs, then restore reading order
	sort.SliceStable(blocks, func(i, j int) bool {
		return utf8.RuneCountInString(blocks[i].text) > utf8.RuneCountInString(blocks[j].text)
	})
	if len(blocks) > maxParagraphs {
		blocks = blocks[:maxParagraphs]
	}
	if utf8.RuneCountInString(blocks[0].text) >= minParagraphRunes {
		kept := blocks[:0]
		for _, b := range blocks {
			if utf8.RuneCountInString(b.text) >= minParagraphRunes {
				kept = append(kept, b)
			}
		}
		blocks = kept
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].index < blocks[j].index })

	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.text
	}
	return strings.Join(parts, "\n")
}

const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote, pre"

// blockText renders outermost block elements one per line, or the whole selection when it has none
func blockText(sel *goquery.Selection) string {
	var lines []string
	sel.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		if text := collapseWhitespace(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		return collapseLines(sel.Text())
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts text to at most maxChars runes
func Truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxChars])), true
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseLines collapses whitespace within each line and drops blank lines
func collapseLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = collapseWhitespace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func classifyTransportError(err error) FetchErrorKind {
	if isTimeout(err) {
		return KindTimeout
	}
	return KindHTTP
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
