package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lectern/lectern/internal/defra"
)

func fakeDefra(t *testing.T, handle func(query string) defra.GQLResponse) *defra.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req defra.GQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(handle(req.Query))
	}))
	t.Cleanup(srv.Close)
	return defra.NewClient(srv.URL)
}

func userDoc(docID, email, hash string) map[string]any {
	return map[string]any{
		"_docID":        docID,
		"email":         email,
		"password_hash": hash,
		"created_at":    "2026-08-01T12:00:00Z",
	}
}

func TestCreate(t *testing.T) {
	client := fakeDefra(t, func(query string) defra.GQLResponse {
		if strings.Contains(query, "create_User") {
			return defra.GQLResponse{Data: map[string]any{
				"create_User": []any{map[string]any{"_docID": "bae-user-1"}},
			}}
		}
		// Email uniqueness pre-check finds nothing.
		return defra.GQLResponse{Data: map[string]any{"User": []any{}}}
	})
	store := NewStore(client, nil)

	user, err := store.Create(context.Background(), "reader@example.com", "hashed")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID != "bae-user-1" || user.Email != "reader@example.com" {
		t.Errorf("user = %+v", user)
	}
}

func TestCreateEmailTaken(t *testing.T) {
	createCalled := false
	client := fakeDefra(t, func(query string) defra.GQLResponse {
		if strings.Contains(query, "create_User") {
			createCalled = true
		}
		return defra.GQLResponse{Data: map[string]any{
			"User": []any{userDoc("bae-user-1", "reader@example.com", "hashed")},
		}}
	})
	store := NewStore(client, nil)

	_, err := store.Create(context.Background(), "reader@example.com", "other-hash")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("Create() error = %v, want ErrEmailTaken", err)
	}
	if createCalled {
		t.Error("create mutation issued despite existing email")
	}
}

func TestGetByEmail(t *testing.T) {
	client := fakeDefra(t, func(query string) defra.GQLResponse {
		return defra.GQLResponse{Data: map[string]any{
			"User": []any{userDoc("bae-user-1", "reader@example.com", "hashed")},
		}}
	})
	store := NewStore(client, nil)

	user, err := store.GetByEmail(context.Background(), "reader@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if user.PasswordHash != "hashed" {
		t.Errorf("PasswordHash = %q", user.PasswordHash)
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	client := fakeDefra(t, func(query string) defra.GQLResponse {
		return defra.GQLResponse{Data: map[string]any{"User": []any{}}}
	})
	store := NewStore(client, nil)

	if _, err := store.GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestGetInvalidID(t *testing.T) {
	client := fakeDefra(t, func(query string) defra.GQLResponse {
		t.Error("query issued for invalid id")
		return defra.GQLResponse{}
	})
	store := NewStore(client, nil)

	if _, err := store.Get(context.Background(), "ids have; no semicolons"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}
