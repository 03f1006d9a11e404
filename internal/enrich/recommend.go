package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lectern/lectern/internal/library"
	"github.com/lectern/lectern/internal/prompts"
	"github.com/lectern/lectern/internal/providers"
)

const recommendTimeout = 60 * time.Second

// maxRecommendations caps how many suggestions one run persists, matching
// what the prompt asks the model for.
const maxRecommendations = 3

// suggestionSchema constrains the recommendation output shape.
var suggestionSchema = json.RawMessage(`{
  "type": "object",
  "required": ["suggestions"],
  "properties": {
    "suggestions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "reason"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "reason": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`)

type suggestionList struct {
	Suggestions []struct {
		Title  string `json:"title"`
		Reason string `json:"reason"`
	} `json:"suggestions"`
}

// GenerateRecommendations reads the user's whole library, asks the model for
// up to three suggestions, and appends them as recommendation records. Every
// record from one run shares a single timestamp so the run sorts as a unit.
// An empty library is a no-op. Runs are never deduplicated: two concurrent
// runs for the same user both persist their output.
func (e *Enricher) GenerateRecommendations(ctx context.Context, ownerID string) error {
	books, err := e.library.ListBooks(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to read library: %w", err)
	}
	if len(books) == 0 {
		e.logger.Debug("empty library, skipping recommendations", "owner", ownerID)
		return nil
	}

	prompt, err := prompts.Render(prompts.KeyRecommend, map[string]string{
		"Library": formatLibrary(books),
	})
	if err != nil {
		return fmt.Errorf("failed to render recommend prompt: %w", err)
	}

	result, err := e.llm.Chat(ctx, &providers.ChatRequest{
		Messages:   []providers.Message{{Role: "user", Content: prompt}},
		Model:      e.config().SmartModel,
		MaxTokens:  512,
		Timeout:    recommendTimeout,
		JSONOutput: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamGeneration, err)
	}

	suggestions, err := parseSuggestions(result)
	if err != nil {
		return err
	}

	createdAt := time.Now().UnixMilli()
	stored := 0
	for _, s := range suggestions {
		if stored >= maxRecommendations {
			break
		}
		if _, err := e.library.AddRecommendation(ctx, ownerID, library.Recommendation{
			Title:     s.Title,
			Reason:    s.Reason,
			CreatedAt: createdAt,
		}); err != nil {
			return fmt.Errorf("failed to store recommendation: %w", err)
		}
		stored++
	}

	e.logger.Info("recommendations generated",
		"owner", ownerID, "count", stored, "model", result.ModelUsed)
	return nil
}

func parseSuggestions(result *providers.ChatResult) ([]struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}, error) {
	parsed := result.ParsedJSON
	if len(parsed) == 0 {
		var err error
		parsed, err = providers.ParseStructured(result.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	}

	if err := providers.ValidateStructured(suggestionSchema, parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	var list suggestionList
	if err := json.Unmarshal(parsed, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return list.Suggestions, nil
}

// formatLibrary renders one line per book for the recommendation prompt.
func formatLibrary(books []library.Book) string {
	lines := make([]string, 0, len(books))
	for _, b := range books {
		genre := b.Genre
		if genre == "" {
			genre = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("%q by %s (%s) - rated %d/5",
			b.Title, b.Author, genre, b.Rating))
	}
	return strings.Join(lines, "\n")
}
