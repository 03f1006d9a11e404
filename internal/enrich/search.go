package enrich

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/lectern/lectern/internal/prompts"
	"github.com/lectern/lectern/internal/providers"
)

const searchTimeout = 10 * time.Second

// minSearchQueryLen gates the LLM call while the user is still typing.
const minSearchQueryLen = 2

// SearchSuggestion is one title/author completion for a search fragment.
// There is no guarantee the book actually exists.
type SearchSuggestion struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

type searchSuggestionList struct {
	Suggestions []SearchSuggestion `json:"suggestions"`
}

// SuggestSearch returns up to three title/author completions for a query
// fragment. Queries shorter than two characters return an empty list without
// calling the model. The whole task is best-effort: any model or parse
// failure is logged and converted to an empty result so typing never breaks.
func (e *Enricher) SuggestSearch(ctx context.Context, query string) []SearchSuggestion {
	if utf8.RuneCountInString(query) < minSearchQueryLen {
		return []SearchSuggestion{}
	}

	prompt, err := prompts.Render(prompts.KeySearch, map[string]string{"Query": query})
	if err != nil {
		e.logger.Error("failed to render search prompt", "error", err)
		return []SearchSuggestion{}
	}

	result, err := e.llm.Chat(ctx, &providers.ChatRequest{
		Messages:   []providers.Message{{Role: "user", Content: prompt}},
		Model:      e.config().FastModel,
		MaxTokens:  256,
		Timeout:    searchTimeout,
		JSONOutput: true,
	})
	if err != nil {
		e.logger.Warn("search suggestion call failed", "query", query, "error", err)
		return []SearchSuggestion{}
	}

	parsed := result.ParsedJSON
	if len(parsed) == 0 {
		parsed, err = providers.ParseStructured(result.Content)
		if err != nil {
			e.logger.Warn("search suggestion output malformed", "query", query, "error", err)
			return []SearchSuggestion{}
		}
	}

	var list searchSuggestionList
	if err := json.Unmarshal(parsed, &list); err != nil {
		e.logger.Warn("search suggestion output malformed", "query", query, "error", err)
		return []SearchSuggestion{}
	}

	if len(list.Suggestions) > maxRecommendations {
		list.Suggestions = list.Suggestions[:maxRecommendations]
	}
	return list.Suggestions
}
