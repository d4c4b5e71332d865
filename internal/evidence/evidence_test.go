package evidence

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/clients"
	"github.com/vaibhav1874/TrueVail/internal/config"
	"github.com/vaibhav1874/TrueVail/internal/extractor"
)

type stubProvider struct {
	name  string
	calls int32
	fn    func(call int32) ([]analysis.EvidenceLink, error)
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Search(ctx context.Context, query string, maxResults int) ([]analysis.EvidenceLink, error) {
	return p.fn(atomic.AddInt32(&p.calls, 1))
}

type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	limit int
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) (*analysis.ExtractedContent, error) {
	return f.FetchLimited(ctx, rawURL, 0)
}

func (f *stubFetcher) FetchLimited(ctx context.Context, rawURL string, maxChars int) (*analysis.ExtractedContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = maxChars
	text, ok := f.pages[rawURL]
	if !ok {
		return nil, &extractor.FetchError{Kind: extractor.KindHTTP, URL: rawURL, StatusCode: 404}
	}
	return &analysis.ExtractedContent{SourceURL: rawURL, Text: text}, nil
}

func links(urls ...string) []analysis.EvidenceLink {
	out := make([]analysis.EvidenceLink, len(urls))
	for i, u := range urls {
		out[i] = analysis.EvidenceLink{URL: u, Title: "T" + u}
	}
	return out
}

func newTestSearcher(providers []Provider, fetcher extractor.ContentFetcher) (*Searcher, *test.Hook) {
	log, hook := test.NewNullLogger()
	s := NewSearcher(providers, fetcher, 3, 0, time.Second)
	s.logger = log
	return s, hook
}

func TestDeriveQuery(t *testing.T) {
	long := strings.Repeat("word ", 40)
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"first non-empty line", "\n\n  Breaking: the moon is cheese  \nsecond line", "Breaking: the moon is cheese"},
		{"collapses whitespace", "a   b\tc", "a b c"},
		{"empty", "   \n  ", ""},
		{"caps on word boundary", long, strings.TrimSpace(strings.Repeat("word ", 24))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveQuery(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.LessOrEqual(t, len([]rune(got)), maxQueryChars)
		})
	}
}

func TestSearcher_FirstProviderWithResultsWins(t *testing.T) {
	failing := &stubProvider{name: "broken", fn: func(int32) ([]analysis.EvidenceLink, error) {
		return nil, &clients.APIError{Provider: "broken", StatusCode: 401}
	}}
	empty := &stubProvider{name: "empty", fn: func(int32) ([]analysis.EvidenceLink, error) { return nil, nil }}
	good := &stubProvider{name: "good", fn: func(int32) ([]analysis.EvidenceLink, error) {
		return links("https://a", "https://a", "https://b", "https://c", "https://d"), nil
	}}
	never := &stubProvider{name: "never", fn: func(int32) ([]analysis.EvidenceLink, error) {
		t.Fatal("provider after a successful one must not be called")
		return nil, nil
	}}
	s, hook := newTestSearcher([]Provider{failing, empty, good, never}, nil)

	got := s.Search(context.Background(), "claim", 3)

	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, URLs(got))
	assert.Equal(t, int32(1), failing.calls, "4xx is not retried")
	assert.Equal(t, "Evidence links found", hook.LastEntry().Message)
}

func TestSearcher_RetriesTransientFailureOnce(t *testing.T) {
	flaky := &stubProvider{name: "flaky", fn: func(call int32) ([]analysis.EvidenceLink, error) {
		if call == 1 {
			return nil, errors.New("connection reset")
		}
		return links("https://ok"), nil
	}}
	s, _ := newTestSearcher([]Provider{flaky}, nil)

	got := s.Search(context.Background(), "claim", 0)

	assert.Equal(t, []string{"https://ok"}, URLs(got))
	assert.Equal(t, int32(2), flaky.calls)
}

func TestSearcher_GivesUpAfterOneRetry(t *testing.T) {
	down := &stubProvider{name: "down", fn: func(int32) ([]analysis.EvidenceLink, error) {
		return nil, &clients.APIError{Provider: "down", StatusCode: 503}
	}}
	s, hook := newTestSearcher([]Provider{down}, nil)

	got := s.Search(context.Background(), "claim", 3)

	assert.Empty(t, got)
	assert.Equal(t, int32(2), down.calls)
	assert.Equal(t, "Evidence provider failed", hook.LastEntry().Message)
}

func TestSearcher_DisabledOrEmptyQuery(t *testing.T) {
	s, _ := newTestSearcher(nil, nil)
	assert.False(t, s.Enabled())
	assert.Nil(t, s.Search(context.Background(), "claim", 3))

	var nilSearcher *Searcher
	assert.False(t, nilSearcher.Enabled())

	p := &stubProvider{name: "p", fn: func(int32) ([]analysis.EvidenceLink, error) { return links("https://x"), nil }}
	s, _ = newTestSearcher([]Provider{p}, nil)
	assert.Nil(t, s.Search(context.Background(), "   ", 3))
	assert.Equal(t, int32(0), p.calls)
}

func TestSearcher_GatherAttachesExcerpts(t *testing.T) {
	p := &stubProvider{name: "p", fn: func(int32) ([]analysis.EvidenceLink, error) {
		return links("https://found", "https://missing"), nil
	}}
	fetcher := &stubFetcher{pages: map[string]string{"https://found": "excerpt text"}}
	s, _ := newTestSearcher([]Provider{p}, fetcher)

	got := s.Gather(context.Background(), "Headline here\nbody")

	require.Len(t, got, 2)
	require.NotNil(t, got[0].Content)
	assert.Equal(t, "excerpt text", got[0].Content.Text)
	assert.Nil(t, got[1].Content, "failed fetch keeps the link without text")
	assert.Equal(t, excerptChars, fetcher.limit)

	assert.Nil(t, s.Gather(context.Background(), "  "))
}

func TestSearcher_GatherBoundedBySearchTimeout(t *testing.T) {
	var hits int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-time.After(2 * time.Second):
			_, _ = w.Write([]byte("<html><body><p>too late</p></body></html>"))
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	p := &stubProvider{name: "p", fn: func(int32) ([]analysis.EvidenceLink, error) {
		return links(slow.URL+"/a", slow.URL+"/b", slow.URL+"/c"), nil
	}}
	fetcher := extractor.New(&config.Config{FetchTimeout: 500 * time.Millisecond}, extractor.WithMaxRetries(0))
	log, _ := test.NewNullLogger()
	s := NewSearcher([]Provider{p}, fetcher, 3, 0, 200*time.Millisecond)
	s.logger = log

	start := time.Now()
	got := s.Gather(context.Background(), "Headline here")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second)
	require.Len(t, got, 3)
	for _, link := range got {
		assert.Nil(t, link.Content)
	}
	assert.NotZero(t, atomic.LoadInt32(&hits))
}

func TestFormatForPrompt(t *testing.T) {
	formatted := FormatForPrompt([]analysis.EvidenceLink{
		{URL: "https://a", Title: "A", Content: &analysis.ExtractedContent{Text: "page"}},
		{URL: "https://b", Snippet: "snip"},
	})

	assert.Equal(t, "Evidence 1: A\nURL: https://a\nExcerpt: page\n\nEvidence 2:\nURL: https://b\nSnippet: snip", formatted)
	assert.Equal(t, "", FormatForPrompt(nil))
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Search</title>
<item><title>Story one</title><link>https://news.example/1</link><description>first</description></item>
<item><title>No link</title></item>
<item><title>Story two</title><link>https://news.example/2</link></item>
<item><title>Story three</title><link>https://news.example/3</link></item>
</channel></rss>`

func TestRSSProvider_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "moon cheese", r.URL.Query().Get("q"))
		assert.Equal(t, "US:en", r.URL.Query().Get("ceid"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	p := NewRSSProvider(server.Client())
	p.baseURL = server.URL

	got, err := p.Search(context.Background(), "moon cheese", 2)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, analysis.EvidenceLink{URL: "https://news.example/1", Title: "Story one", Snippet: "first"}, got[0])
	assert.Equal(t, "https://news.example/2", got[1].URL)
}

func TestRSSProvider_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "down" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("not a feed"))
	}))
	defer server.Close()

	p := NewRSSProvider(server.Client())
	p.baseURL = server.URL

	_, err := p.Search(context.Background(), "down", 2)
	apiErr, ok := clients.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.True(t, retryable(err))

	_, err = p.Search(context.Background(), "garbage", 2)
	assert.ErrorIs(t, err, clients.ErrMalformedResponse)
	assert.False(t, retryable(err))
}

type stubSerper struct {
	links []clients.SearchLink
}

func (s stubSerper) SearchLinks(ctx context.Context, query string, num int) ([]clients.SearchLink, error) {
	return s.links, nil
}

func TestSerperProvider_Search(t *testing.T) {
	p := NewSerperProvider(stubSerper{links: []clients.SearchLink{{URL: "https://s", Title: "S", Snippet: "x"}}})

	got, err := p.Search(context.Background(), "q", 3)

	require.NoError(t, err)
	assert.Equal(t, []analysis.EvidenceLink{{URL: "https://s", Title: "S", Snippet: "x"}}, got)
	assert.Equal(t, "serper", p.Name())
}

func TestNewFromConfig_ProviderChain(t *testing.T) {
	s := NewFromConfig(&config.Config{SerperAPIKey: "k", EvidenceRSSEnabled: true, EvidenceMaxResults: 5})
	require.Len(t, s.providers, 2)
	assert.Equal(t, "serper", s.providers[0].Name())
	assert.Equal(t, "google_news_rss", s.providers[1].Name())
	assert.Equal(t, 5, s.maxResults)

	s = NewFromConfig(&config.Config{})
	assert.False(t, s.Enabled())
	assert.Equal(t, defaultMaxResults, s.maxResults)
}
