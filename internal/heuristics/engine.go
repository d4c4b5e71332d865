// Package heuristics is the rule-based fallback scorer used when no backend
// answers, and the final tier for privacy and deepfake-by-name analysis.
package heuristics

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"github.com/vaibhav1874/TrueVail/internal/logger"
)

// Engine scores text, identifiers and URLs without any network access
type Engine struct {
	logger *logrus.Logger
	jitter func() float64
}

// Option customizes an Engine
type Option func(*Engine)

// WithJitter replaces the random tie-breaking source; fn must return values in [-1, 1]
func WithJitter(fn func() float64) Option {
	return func(e *Engine) {
		e.jitter = fn
	}
}

// WithLogger overrides the process logger
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates a heuristic engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: logger.Log,
		jitter: func() float64 { return rand.Float64()*2 - 1 },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
