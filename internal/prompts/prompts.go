// Package prompts holds the embedded prompt templates for LLM calls.
// The .tmpl files are the source of truth; keys are the file base names.
package prompts

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Prompt keys.
const (
	KeyGenre     = "genre"
	KeyRecommend = "recommend"
	KeySearch    = "search"
)

var descriptions = map[string]string{
	KeyGenre:     "Single-word genre classification for a newly added book",
	KeyRecommend: "Reading recommendations synthesized from the user's library",
	KeySearch:    "Title/author completions while the user types a search query",
}

// Prompt represents a prompt template loaded from an embedded .tmpl file.
type Prompt struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"`
	Hash        string   `json:"hash"`
}

// All returns all embedded prompts, sorted by key.
func All() ([]Prompt, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}

	prompts := make([]Prompt, 0, len(entries))
	for _, entry := range entries {
		key := strings.TrimSuffix(entry.Name(), ".tmpl")
		p, err := Get(key)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, *p)
	}

	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Key < prompts[j].Key })
	return prompts, nil
}

// Get returns a single prompt by key.
func Get(key string) (*Prompt, error) {
	content, err := templateFS.ReadFile("templates/" + key + ".tmpl")
	if err != nil {
		return nil, fmt.Errorf("unknown prompt %q: %w", key, err)
	}
	text := string(content)
	return &Prompt{
		Key:         key,
		Text:        text,
		Description: descriptions[key],
		Variables:   ExtractVariables(text),
		Hash:        HashText(text),
	}, nil
}

// Render executes the named template with the given data.
func Render(key string, data any) (string, error) {
	p, err := Get(key)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(key).Parse(p.Text)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt %q: %w", key, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", key, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
