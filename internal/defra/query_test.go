package defra

import (
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid_docid", "bae-abc123-def456", false},
		{"valid_simple", "user_1", false},
		{"empty", "", true},
		{"injection", `bae-1") { _docID } } mutation {`, true},
		{"too_long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestQueryBuilder_Build(t *testing.T) {
	query, vars := NewQuery("Book").
		Filter("owner_id", "user-1").
		Fields("_docID", "title", "author", "rating", "genre").
		Build()

	if !strings.Contains(query, "query($v0: String)") {
		t.Errorf("missing variable definition: %s", query)
	}
	if !strings.Contains(query, "filter: {owner_id: {_eq: $v0}}") {
		t.Errorf("missing filter clause: %s", query)
	}
	if !strings.Contains(query, "_docID title author rating genre") {
		t.Errorf("missing fields: %s", query)
	}
	if vars["v0"] != "user-1" {
		t.Errorf("unexpected variables: %v", vars)
	}
}

func TestQueryBuilder_OrderAndLimit(t *testing.T) {
	query, _ := NewQuery("Recommendation").
		Filter("owner_id", "user-1").
		OrderBy("created_at", "DESC").
		Limit(3).
		Build()

	if !strings.Contains(query, "order: {created_at: DESC}") {
		t.Errorf("missing order clause: %s", query)
	}
	if !strings.Contains(query, "limit: 3") {
		t.Errorf("missing limit clause: %s", query)
	}
}

func TestQueryBuilder_NoFilters(t *testing.T) {
	query, vars := NewQuery("User").Build()

	if strings.Contains(query, "query(") {
		t.Errorf("unexpected variable definitions: %s", query)
	}
	if len(vars) != 0 {
		t.Errorf("expected no variables, got %v", vars)
	}
	if !strings.Contains(query, "{ User { _docID } }") {
		t.Errorf("unexpected query shape: %s", query)
	}
}

func TestInferGraphQLType(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"s", "String"},
		{int(1), "Int"},
		{int64(1), "Int"},
		{1.5, "Float"},
		{true, "Boolean"},
		{nil, "String"},
	}

	for _, tt := range tests {
		if got := inferGraphQLType(tt.value); got != tt.want {
			t.Errorf("inferGraphQLType(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}
