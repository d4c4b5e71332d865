// Package backends exposes remote classifiers behind one capability-tagged contract.
package backends

import (
	"context"
	"strings"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
)

// Capability is a bit set of what a backend can classify
type Capability uint8

const (
	CapText Capability = 1 << iota
	CapVision
)

// Has reports whether all bits of other are set
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	var names []string
	if c.Has(CapText) {
		names = append(names, "text")
	}
	if c.Has(CapVision) {
		names = append(names, "vision")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// Prompt is a system instruction plus the user turn
type Prompt struct {
	System string
	User   string
}

// Backend is a remote classifier. Call returns the model's raw text or an *Error.
type Backend interface {
	Name() string
	Capabilities() Capability
	Call(ctx context.Context, prompt Prompt, media *analysis.MediaPayload) (string, error)
}
