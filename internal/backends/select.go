package backends

import (
	"github.com/vaibhav1874/TrueVail/internal/clients"
	"github.com/vaibhav1874/TrueVail/internal/config"
)

// Select builds the single backend for the configured platform.
// It returns nil when the platform is disabled or lacks credentials.
func Select(cfg *config.Config) Backend {
	switch cfg.Platform {
	case config.PlatformCloud:
		if b := NewCloud(clients.NewGeminiClient(cfg)); b != nil {
			return b
		}
	case config.PlatformSelfHosted:
		if b := NewSelfHosted(clients.NewOllamaClient(cfg)); b != nil {
			return b
		}
	}
	return nil
}
