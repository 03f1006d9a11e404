// Package enrich runs the LLM-backed generation tasks: genre classification
// for new books, recommendation synthesis over a user's library, and search
// suggestion completion. Each task owns its prompt rendering, model tier
// selection, and output parsing; persistence goes through the library store.
package enrich

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/lectern/lectern/internal/library"
	"github.com/lectern/lectern/internal/providers"
)

// ErrUpstreamGeneration is returned when the text-generation call itself
// fails (transport, auth, model error). Callers decide whether it fails the
// surrounding operation or only the background task.
var ErrUpstreamGeneration = errors.New("text generation request failed")

// ErrMalformedOutput is returned when the model responded but the output is
// not parseable into the expected structure.
var ErrMalformedOutput = errors.New("text generation output malformed")

// DefaultGenre is stored when the classifier returns nothing usable.
// Enrichment must always produce some genre value.
const DefaultGenre = "Fiction"

// Config selects model tiers for the generation tasks.
type Config struct {
	// FastModel handles the cheap single-shot calls (genre, search).
	FastModel string
	// SmartModel handles recommendation synthesis over the whole library.
	SmartModel string
}

// Enricher executes the generation tasks.
type Enricher struct {
	llm     providers.LLMClient
	library *library.Store
	logger  *slog.Logger

	mu  sync.RWMutex
	cfg Config
}

// New creates an Enricher. The library store is only needed by the
// recommendation task; genre and search tasks never touch persistence.
func New(llm providers.LLMClient, lib *library.Store, cfg Config, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{llm: llm, library: lib, cfg: cfg, logger: logger}
}

// UpdateConfig swaps the model tiers. Called on config hot reload; tasks
// already in flight keep the models they started with.
func (e *Enricher) UpdateConfig(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

func (e *Enricher) config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}
