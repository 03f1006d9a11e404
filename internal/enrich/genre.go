package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lectern/lectern/internal/prompts"
	"github.com/lectern/lectern/internal/providers"
)

const genreTimeout = 15 * time.Second

// ClassifyGenre asks the model for a single-word genre for the given book.
// A transport or model failure propagates as ErrUpstreamGeneration; an empty
// response falls back to DefaultGenre instead of failing.
func (e *Enricher) ClassifyGenre(ctx context.Context, title, author string) (string, error) {
	prompt, err := prompts.Render(prompts.KeyGenre, map[string]string{
		"Title":  title,
		"Author": author,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render genre prompt: %w", err)
	}

	result, err := e.llm.Chat(ctx, &providers.ChatRequest{
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		Model:       e.config().FastModel,
		Temperature: 0.2,
		MaxTokens:   16,
		Timeout:     genreTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamGeneration, err)
	}

	genre := strings.TrimSpace(result.Content)
	if genre == "" {
		e.logger.Warn("genre classifier returned nothing, using default",
			"title", title, "default", DefaultGenre)
		return DefaultGenre, nil
	}

	e.logger.Debug("genre classified",
		"title", title, "genre", genre, "model", result.ModelUsed)
	return genre, nil
}
