package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaibhav1874/TrueVail/internal/config"
	"github.com/vaibhav1874/TrueVail/internal/logger"
)

const serperMaxQueryWords = 16

// SerperClientInterface defines the interface for the Serper API client
type SerperClientInterface interface {
	SearchLinks(ctx context.Context, query string, num int) ([]SearchLink, error)
}

// SerperClient handles communication with the Serper API for web search
type SerperClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// SerperRequest represents a request to the Serper API
type SerperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

// SerperResponse represents a response from the Serper API
type SerperResponse struct {
	Organic        []SerperResult        `json:"organic"`
	AnswerBox      *SerperAnswerBox      `json:"answerBox,omitempty"`
	KnowledgeGraph *SerperKnowledgeGraph `json:"knowledgeGraph,omitempty"`
}

// SerperResult represents a single search result
type SerperResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SerperAnswerBox represents an answer box result
type SerperAnswerBox struct {
	Answer  string `json:"answer"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SerperKnowledgeGraph represents a knowledge graph result
type SerperKnowledgeGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

// SearchLink is one deduplicated result link
type SearchLink struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// serperErrorBody is the error payload returned by Serper
type serperErrorBody struct {
	Message string `json:"message"`
}

// NewSerperClient creates a new Serper API client
func NewSerperClient(cfg *config.Config) *SerperClient {
	timeout := cfg.SearchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SerperClient{
		apiKey:  cfg.SerperAPIKey,
		baseURL: "https://google.serper.dev/search",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Log,
	}
}

// Configured reports whether an API key is set
func (c *SerperClient) Configured() bool {
	return c.apiKey != ""
}

// Search performs a web search using the Serper API
func (c *SerperClient) Search(ctx context.Context, query string, numResults int) (*SerperResponse, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("serper: %w", ErrNotConfigured)
	}

	start := time.Now()
	correlationID := logger.CorrelationIDFromContext(ctx)

	c.logger.WithFields(map[string]interface{}{
		"component":      "evidence",
		"provider":       "serper",
		"correlation_id": correlationID,
		"query_length":   len(query),
		"num_results":    numResults,
	}).Debug("Performing Serper web search")

	requestBody, err := json.Marshal(SerperRequest{Query: query, Num: numResults})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Provider: "serper", StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var body serperErrorBody
		if json.Unmarshal(responseBody, &body) == nil && body.Message != "" {
			apiErr.Message = body.Message
		}
		return nil, apiErr
	}

	var serperResp SerperResponse
	if err := json.Unmarshal(responseBody, &serperResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"component":           "evidence",
		"provider":            "serper",
		"correlation_id":      correlationID,
		"duration_ms":         time.Since(start).Milliseconds(),
		"results_count":       len(serperResp.Organic),
		"has_answer_box":      serperResp.AnswerBox != nil,
		"has_knowledge_graph": serperResp.KnowledgeGraph != nil,
	}).Info("Serper search completed")

	return &serperResp, nil
}

// SearchLinks searches and returns up to num distinct result links
func (c *SerperClient) SearchLinks(ctx context.Context, query string, num int) ([]SearchLink, error) {
	results, err := c.Search(ctx, optimizeQuery(query), num)
	if err != nil {
		return nil, err
	}
	links := extractLinks(results)
	if num > 0 && len(links) > num {
		links = links[:num]
	}
	return links, nil
}

// extractLinks flattens answer box, knowledge graph and organic results, in that order
func extractLinks(results *SerperResponse) []SearchLink {
	var links []SearchLink
	seen := make(map[string]bool)
	add := func(link SearchLink) {
		if link.URL == "" || seen[link.URL] {
			return
		}
		seen[link.URL] = true
		links = append(links, link)
	}

	if results.AnswerBox != nil {
		snippet := results.AnswerBox.Snippet
		if snippet == "" {
			snippet = results.AnswerBox.Answer
		}
		add(SearchLink{URL: results.AnswerBox.Link, Title: results.AnswerBox.Title, Snippet: snippet})
	}

	if results.KnowledgeGraph != nil {
		add(SearchLink{
			URL:     results.KnowledgeGraph.Website,
			Title:   results.KnowledgeGraph.Title,
			Snippet: results.KnowledgeGraph.Description,
		})
	}

	for _, result := range results.Organic {
		add(SearchLink{URL: result.Link, Title: result.Title, Snippet: result.Snippet})
	}

	return links
}

// optimizeQuery drops restrictive quotes and caps the number of words
func optimizeQuery(query string) string {
	query = strings.ReplaceAll(strings.TrimSpace(query), "\"", "")
	words := strings.Fields(query)
	if len(words) > serperMaxQueryWords {
		words = words[:serperMaxQueryWords]
	}
	return strings.Join(words, " ")
}
