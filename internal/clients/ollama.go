package clients

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/vaibhav1874/TrueVail/internal/config"
	"github.com/vaibhav1874/TrueVail/internal/logger"
)

// OllamaClientInterface defines the interface for the self-hosted chat client
type OllamaClientInterface interface {
	GenerateContent(ctx context.Context, req GenerateRequest) (string, error)
	SupportsVision() bool
}

// OllamaClient talks to a self-hosted model through the OpenAI-compatible chat API
type OllamaClient struct {
	client      *openai.Client
	baseURL     string
	model       string
	visionModel string
	logger      *logrus.Logger
}

// NewOllamaClient creates a new self-hosted LLM client
func NewOllamaClient(cfg *config.Config) *OllamaClient {
	baseURL := strings.TrimRight(cfg.OllamaBaseURL, "/")
	clientConfig := openai.DefaultConfig(cfg.OllamaAPIKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.BackendTimeout}

	return &OllamaClient{
		client:      openai.NewClientWithConfig(clientConfig),
		baseURL:     baseURL,
		model:       cfg.OllamaModel,
		visionModel: cfg.OllamaVisionModel,
		logger:      logger.Log,
	}
}

// Configured reports whether an endpoint and text model are set
func (c *OllamaClient) Configured() bool {
	return c.baseURL != "" && c.model != ""
}

// SupportsVision reports whether a vision model is configured
func (c *OllamaClient) SupportsVision() bool {
	return c.baseURL != "" && c.visionModel != ""
}

// GenerateContent runs one chat completion; media switches to the vision model
func (c *OllamaClient) GenerateContent(ctx context.Context, req GenerateRequest) (string, error) {
	model := c.model
	if len(req.Media) > 0 {
		if !c.SupportsVision() {
			return "", fmt.Errorf("ollama vision: %w", ErrNotConfigured)
		}
		model = c.visionModel
	} else if !c.Configured() {
		return "", fmt.Errorf("ollama: %w", ErrNotConfigured)
	}

	start := time.Now()
	correlationID := logger.CorrelationIDFromContext(ctx)
	c.logger.WithFields(map[string]interface{}{
		"backend":        "ollama",
		"correlation_id": correlationID,
		"model":          model,
		"prompt_length":  len(req.Prompt),
		"has_system":     req.System != "",
		"has_media":      len(req.Media) > 0,
	}).Info("Making self-hosted LLM call")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    buildChatMessages(req),
		Temperature: 0.1,
	})
	if err != nil {
		return "", translateOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	responseText := strings.TrimSpace(resp.Choices[0].Message.Content)
	if responseText == "" {
		return "", ErrEmptyResponse
	}

	c.logger.WithFields(map[string]interface{}{
		"backend":         "ollama",
		"correlation_id":  correlationID,
		"duration_ms":     time.Since(start).Milliseconds(),
		"response_length": len(responseText),
		"input_tokens":    resp.Usage.PromptTokens,
		"output_tokens":   resp.Usage.CompletionTokens,
	}).Info("Self-hosted LLM response received")

	return responseText, nil
}

func buildChatMessages(req GenerateRequest) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	if len(req.Media) == 0 {
		return append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		})
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", req.MediaType, base64.StdEncoding.EncodeToString(req.Media))
	return append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL,
				Detail: openai.ImageURLDetailAuto,
			}},
		},
	})
}

// translateOpenAIError maps go-openai error types onto APIError
func translateOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: "ollama", StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &APIError{Provider: "ollama", StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return fmt.Errorf("HTTP request failed: %w", err)
}
