package prompts

import (
	"strings"
	"testing"
)

func TestAll(t *testing.T) {
	all, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 prompts, got %d", len(all))
	}

	keys := make(map[string]bool)
	for _, p := range all {
		keys[p.Key] = true
		if p.Text == "" {
			t.Errorf("prompt %s has empty text", p.Key)
		}
		if p.Hash == "" {
			t.Errorf("prompt %s has empty hash", p.Key)
		}
	}
	for _, want := range []string{KeyGenre, KeyRecommend, KeySearch} {
		if !keys[want] {
			t.Errorf("missing prompt %s", want)
		}
	}
}

func TestRender_Genre(t *testing.T) {
	out, err := Render(KeyGenre, map[string]string{
		"Title":  "Dune",
		"Author": "Frank Herbert",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, `"Dune" by Frank Herbert`) {
		t.Errorf("rendered prompt missing book reference: %s", out)
	}
	if !strings.Contains(out, "single word") {
		t.Errorf("genre prompt must ask for a single word: %s", out)
	}
}

func TestRender_UnknownKey(t *testing.T) {
	if _, err := Render("nope", nil); err == nil {
		t.Error("expected error for unknown prompt key")
	}
}

func TestExtractVariables(t *testing.T) {
	p, err := Get(KeySearch)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(p.Variables) != 1 || p.Variables[0] != "Query" {
		t.Errorf("unexpected variables: %v", p.Variables)
	}
}
