package clients

import (
	"bytes"
	"context"
	"encoding/base64"
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

// GeminiClientInterface defines the interface for the Gemini API client
type GeminiClientInterface interface {
	GenerateContent(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest is a provider-neutral single-turn prompt
type GenerateRequest struct {
	System    string
	Prompt    string
	Media     []byte
	MediaType string
}

// GeminiClient handles communication with the Gemini generateContent API
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// GeminiRequest represents a request to the Gemini API
type GeminiRequest struct {
	SystemInstruction *GeminiContent         `json:"system_instruction,omitempty"`
	Contents          []GeminiContent        `json:"contents"`
	GenerationConfig  GeminiGenerationConfig `json:"generationConfig"`
}

// GeminiContent is one turn of the conversation
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart is either text or inline binary data
type GeminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *GeminiInlineData `json:"inline_data,omitempty"`
}

// GeminiInlineData carries base64 media
type GeminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// GeminiGenerationConfig tunes sampling
type GeminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GeminiResponse represents a response from the Gemini API
type GeminiResponse struct {
	Candidates    []GeminiCandidate   `json:"candidates"`
	UsageMetadata GeminiUsageMetadata `json:"usageMetadata"`
}

// GeminiCandidate is one generated answer
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// GeminiUsageMetadata represents token usage information
type GeminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

// geminiErrorEnvelope is the Google API error body
type geminiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(cfg *config.Config) *GeminiClient {
	return &GeminiClient{
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.GeminiModel,
		baseURL:    strings.TrimRight(cfg.GeminiBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.BackendTimeout,
		},
		logger: logger.Log,
	}
}

// Configured reports whether the client has credentials
func (c *GeminiClient) Configured() bool {
	return c.apiKey != "" && c.model != ""
}

// GenerateContent sends one prompt (with optional inline media) and returns the text answer
func (c *GeminiClient) GenerateContent(ctx context.Context, req GenerateRequest) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	start := time.Now()
	correlationID := logger.CorrelationIDFromContext(ctx)
	c.logger.WithFields(map[string]interface{}{
		"backend":        "gemini",
		"correlation_id": correlationID,
		"model":          c.model,
		"prompt_length":  len(req.Prompt),
		"has_system":     req.System != "",
		"has_media":      len(req.Media) > 0,
	}).Info("Making Gemini API call")

	requestBody, err := json.Marshal(c.buildGeminiRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	response, err := c.makeRequest(ctx, requestBody)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	responseText, geminiResp, err := c.parseGeminiResponse(response)
	if err != nil {
		return "", err
	}

	c.logger.WithFields(map[string]interface{}{
		"backend":         "gemini",
		"correlation_id":  correlationID,
		"duration_ms":     time.Since(start).Milliseconds(),
		"response_length": len(responseText),
		"input_tokens":    geminiResp.UsageMetadata.PromptTokenCount,
		"output_tokens":   geminiResp.UsageMetadata.CandidatesTokenCount,
	}).Info("Gemini API response received")

	return responseText, nil
}

// makeRequest sends one attempt. Any 5xx is decoded into an APIError and returned as is.
func (c *GeminiClient) makeRequest(ctx context.Context, requestBody []byte) (*http.Response, error) {
	httpReq, err := c.prepareHTTPRequest(ctx, requestBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if response.StatusCode < 500 {
		return response, nil
	}

	body, _ := io.ReadAll(io.LimitReader(response.Body, 64<<10))
	response.Body.Close()
	return nil, decodeGeminiError(response.StatusCode, body)
}

// buildGeminiRequest constructs the request payload
func (c *GeminiClient) buildGeminiRequest(req GenerateRequest) GeminiRequest {
	parts := []GeminiPart{{Text: req.Prompt}}
	if len(req.Media) > 0 {
		parts = append(parts, GeminiPart{InlineData: &GeminiInlineData{
			MimeType: req.MediaType,
			Data:     base64.StdEncoding.EncodeToString(req.Media),
		}})
	}

	request := GeminiRequest{
		Contents: []GeminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: GeminiGenerationConfig{
			Temperature:     0.1,
			MaxOutputTokens: 1024,
		},
	}
	if req.System != "" {
		request.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: req.System}}}
	}
	return request
}

// prepareHTTPRequest creates and configures the HTTP request
func (c *GeminiClient) prepareHTTPRequest(ctx context.Context, requestBody []byte) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	return httpReq, nil
}

// parseGeminiResponse parses a Gemini response, concatenating the first candidate's text parts
func (c *GeminiClient) parseGeminiResponse(response *http.Response) (string, *GeminiResponse, error) {
	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return "", nil, decodeGeminiError(response.StatusCode, responseBody)
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(responseBody, &geminiResp); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(geminiResp.Candidates) == 0 {
		return "", nil, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	responseText := strings.TrimSpace(sb.String())
	if responseText == "" {
		return "", nil, ErrEmptyResponse
	}

	return responseText, &geminiResp, nil
}

func decodeGeminiError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{Provider: "gemini", StatusCode: statusCode}
	var envelope geminiErrorEnvelope
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Status = envelope.Error.Status
		apiErr.Message = envelope.Error.Message
		return apiErr
	}
	apiErr.Message = logger.TruncateForLog(strings.TrimSpace(string(body)), 200)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}
