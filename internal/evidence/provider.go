package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/clients"
)

const googleNewsRSS = "https://news.google.com/rss/search"

// Provider returns candidate links for a query
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]analysis.EvidenceLink, error)
}

// SerperProvider searches the web through the Serper API
type SerperProvider struct {
	client clients.SerperClientInterface
}

// NewSerperProvider wraps a Serper client
func NewSerperProvider(client clients.SerperClientInterface) *SerperProvider {
	return &SerperProvider{client: client}
}

func (p *SerperProvider) Name() string { return "serper" }

func (p *SerperProvider) Search(ctx context.Context, query string, maxResults int) ([]analysis.EvidenceLink, error) {
	results, err := p.client.SearchLinks(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	links := make([]analysis.EvidenceLink, 0, len(results))
	for _, r := range results {
		links = append(links, analysis.EvidenceLink{URL: r.URL, Title: r.Title, Snippet: r.Snippet})
	}
	return links, nil
}

// RSSProvider searches the Google News RSS endpoint
type RSSProvider struct {
	baseURL    string
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string
}

// NewRSSProvider creates a Google News RSS provider
func NewRSSProvider(httpClient *http.Client) *RSSProvider {
	return &RSSProvider{
		baseURL:    googleNewsRSS,
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		userAgent:  "TrueVail/1.0 (+evidence search)",
	}
}

func (p *RSSProvider) Name() string { return "google_news_rss" }

func (p *RSSProvider) Search(ctx context.Context, query string, maxResults int) ([]analysis.EvidenceLink, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &clients.APIError{Provider: p.Name(), StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	feed, err := p.parser.Parse(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clients.ErrMalformedResponse, err)
	}

	var links []analysis.EvidenceLink
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		links = append(links, analysis.EvidenceLink{
			URL:     strings.TrimSpace(item.Link),
			Title:   strings.TrimSpace(item.Title),
			Snippet: strings.TrimSpace(item.Description),
		})
		if maxResults > 0 && len(links) >= maxResults {
			break
		}
	}
	return links, nil
}
