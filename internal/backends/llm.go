package backends

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/clients"
	"github.com/vaibhav1874/TrueVail/internal/logger"
)

const (
	CloudName      = "gemini"
	SelfHostedName = "ollama"
)

// generator is what both LLM clients provide
type generator interface {
	GenerateContent(ctx context.Context, req clients.GenerateRequest) (string, error)
}

// LLMBackend adapts an LLM client to the Backend contract
type LLMBackend struct {
	name   string
	caps   Capability
	client generator
	logger *logrus.Logger
}

// NewLLMBackend wraps any generator with a fixed name and capability set
func NewLLMBackend(name string, caps Capability, client generator) *LLMBackend {
	return &LLMBackend{
		name:   name,
		caps:   caps,
		client: client,
		logger: logger.Log,
	}
}

// NewCloud returns the Gemini backend, or nil when it has no credentials
func NewCloud(client *clients.GeminiClient) *LLMBackend {
	if client == nil || !client.Configured() {
		return nil
	}
	return NewLLMBackend(CloudName, CapText|CapVision, client)
}

// NewSelfHosted returns the self-hosted backend, or nil when it has no endpoint
func NewSelfHosted(client *clients.OllamaClient) *LLMBackend {
	if client == nil || !client.Configured() {
		return nil
	}
	caps := CapText
	if client.SupportsVision() {
		caps |= CapVision
	}
	return NewLLMBackend(SelfHostedName, caps, client)
}

// Name returns the backend's name
func (b *LLMBackend) Name() string {
	return b.name
}

// Capabilities returns what the backend can classify
func (b *LLMBackend) Capabilities() Capability {
	return b.caps
}

// Call sends the prompt and optional media in a single attempt
func (b *LLMBackend) Call(ctx context.Context, prompt Prompt, media *analysis.MediaPayload) (string, error) {
	required := CapText
	if media != nil && len(media.Data) > 0 {
		required = CapVision
	}
	if !b.caps.Has(required) {
		return "", NewError(b.name, KindUnavailable, "missing capability "+required.String(), nil)
	}

	req := clients.GenerateRequest{System: prompt.System, Prompt: prompt.User}
	if required == CapVision {
		req.Media = media.Data
		req.MediaType = media.MimeType
	}

	start := time.Now()
	text, err := b.client.GenerateContent(ctx, req)
	if err != nil {
		classified := classify(b.name, err)
		b.logger.WithFields(map[string]interface{}{
			"backend":        b.name,
			"correlation_id": logger.CorrelationIDFromContext(ctx),
			"kind":           string(classified.Kind),
			"status_code":    classified.StatusCode,
			"duration_ms":    time.Since(start).Milliseconds(),
		}).Warn("Backend call failed")
		return "", classified
	}
	return text, nil
}
