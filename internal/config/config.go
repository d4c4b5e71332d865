package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Platform selects which remote classifier family is consulted
type Platform string

const (
	PlatformCloud      Platform = "cloud"
	PlatformSelfHosted Platform = "self-hosted"
	PlatformNone       Platform = "none"
)

// Config holds all configuration for the application
type Config struct {
	Platform Platform

	// Cloud LLM (Gemini) configuration
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Self-hosted LLM (Ollama, OpenAI-compatible) configuration
	OllamaBaseURL     string
	OllamaModel       string
	OllamaVisionModel string
	OllamaAPIKey      string

	// Evidence search configuration
	SerperAPIKey       string
	EvidenceMaxResults int
	EvidenceRSSEnabled bool
	EvidenceRPS        float64

	// Timeouts and content bounds
	FetchTimeout    time.Duration
	SearchTimeout   time.Duration
	BackendTimeout  time.Duration
	MaxContentChars int

	// Statistical classifier
	StatClassifierEnabled bool
	TrainingCorpusPath    string

	// History persistence and audit stream
	DatabaseURL  string
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Server configuration
	ServerPort  string
	LogLevel    string
	CORSOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Platform:              Platform(strings.ToLower(getEnvWithDefault("PLATFORM", string(PlatformCloud)))),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           getEnvWithDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:         getEnvWithDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OllamaBaseURL:         getEnvWithDefault("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		OllamaModel:           getEnvWithDefault("OLLAMA_MODEL", "llama3"),
		OllamaVisionModel:     getEnvWithDefault("OLLAMA_VISION_MODEL", "llava"),
		OllamaAPIKey:          getEnvWithDefault("OLLAMA_API_KEY", "ollama"),
		SerperAPIKey:          os.Getenv("SERPER_API_KEY"),
		TrainingCorpusPath:    os.Getenv("TRAINING_CORPUS_PATH"),
		DatabaseURL:           lookupEnvWithDefault("DATABASE_URL", "sqlite://truevail.db"),
		KafkaTopic:            getEnvWithDefault("KAFKA_TOPIC_AUDIT", "analysis-audit"),
		KafkaGroupID:          getEnvWithDefault("KAFKA_GROUP_ID", "audit-writers"),
		ServerPort:            getEnvWithDefault("SERVER_PORT", "5001"),
		LogLevel:              getEnvWithDefault("LOG_LEVEL", "INFO"),
		CORSOrigins:           splitList(getEnvWithDefault("CORS_ORIGINS", "http://localhost:3000")),
		KafkaBrokers:          splitList(os.Getenv("KAFKA_BROKERS")),
		EvidenceRSSEnabled:    true,
		StatClassifierEnabled: true,
	}

	var err error
	if cfg.EvidenceMaxResults, err = getEnvInt("EVIDENCE_MAX_RESULTS", 3); err != nil {
		return nil, err
	}
	if cfg.MaxContentChars, err = getEnvInt("MAX_CONTENT_CHARS", 12000); err != nil {
		return nil, err
	}
	if cfg.EvidenceRSSEnabled, err = getEnvBool("EVIDENCE_RSS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.StatClassifierEnabled, err = getEnvBool("STAT_CLASSIFIER_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.EvidenceRPS, err = getEnvFloat("EVIDENCE_RPS", 2); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getEnvDuration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SearchTimeout, err = getEnvDuration("SEARCH_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.BackendTimeout, err = getEnvDuration("BACKEND_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	switch cfg.Platform {
	case PlatformCloud, PlatformSelfHosted, PlatformNone:
	default:
		return nil, fmt.Errorf("PLATFORM must be one of cloud, self-hosted, none (got %q)", cfg.Platform)
	}
	if cfg.MaxContentChars <= 0 {
		return nil, fmt.Errorf("MAX_CONTENT_CHARS must be positive")
	}

	return cfg, nil
}

// HistoryEnabled reports whether analyses are persisted to a database
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

// KafkaEnabled reports whether audit records are streamed through Kafka
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnvWithDefault treats an explicitly empty variable as a value, not as unset
func lookupEnvWithDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// getEnvDuration accepts Go durations ("750ms") or bare seconds ("10")
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
