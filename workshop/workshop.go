// Package workshop registers the demo handler groups: a handful of tools
// exercising every dispatch path (plain execution, timed suspension, nested
// sampling and elicitation, deferred loading), two resources and two prompts.
package workshop

import (
	"math/rand"
	"sync"
	"time"

	"mcpstarter/server"
)

// Workshop holds the knobs shared by the demo handlers.
type Workshop struct {
	stepDelay time.Duration

	// randMu guards rand: transports run each request on its own goroutine,
	// and *rand.Rand is not safe for concurrent use.
	randMu sync.Mutex
	rand   *rand.Rand
}

// intn returns a random int in [0, n) under the rand lock.
func (w *Workshop) intn(n int) int {
	w.randMu.Lock()
	defer w.randMu.Unlock()
	return w.rand.Intn(n)
}

// Option configures a Workshop.
type Option func(*Workshop)

// WithStepDelay sets the per-step delay of the long-running task tool.
// Primarily useful to keep tests fast.
func WithStepDelay(d time.Duration) Option {
	return func(w *Workshop) {
		w.stepDelay = d
	}
}

// WithRandSource seeds the weather generator.
func WithRandSource(src rand.Source) Option {
	return func(w *Workshop) {
		w.rand = rand.New(src)
	}
}

// New creates a Workshop with a one-second step delay and a time-seeded
// random source.
func New(opts ...Option) *Workshop {
	w := &Workshop{
		stepDelay: time.Second,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Register adds every demo handler group to the server.
func (w *Workshop) Register(s *server.MCPServer) error {
	register := []func(*server.MCPServer) error{
		w.registerTools,
		w.registerInteractiveTools,
		w.registerLoaderTool,
		w.registerResources,
		w.registerPrompts,
	}
	for _, fn := range register {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAll registers the demo handler groups with default settings.
func RegisterAll(s *server.MCPServer) error {
	return New().Register(s)
}
