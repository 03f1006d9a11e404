package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/auth"
	"github.com/lectern/lectern/internal/defra"
	"github.com/lectern/lectern/internal/enrich"
	"github.com/lectern/lectern/internal/library"
	"github.com/lectern/lectern/internal/providers"
	"github.com/lectern/lectern/internal/svcctx"
	"github.com/lectern/lectern/internal/tasks"
	"github.com/lectern/lectern/internal/users"
)

// fakeDefra serves scripted graphql responses and records queries.
func fakeDefra(t *testing.T, handle func(query string) defra.GQLResponse) (*defra.Client, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req defra.GQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		queries = append(queries, req.Query)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(handle(req.Query))
	}))
	t.Cleanup(srv.Close)
	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), queries...)
	}
	return defra.NewClient(srv.URL), snapshot
}

type testEnv struct {
	services *svcctx.Services
	llm      *providers.MockClient
	queries  func() []string
}

// newTestEnv builds the full service graph over a scripted defra. The task
// runner is only started when startRunner is true; unstarted, submitted work
// queues but never executes.
func newTestEnv(t *testing.T, handle func(query string) defra.GQLResponse, startRunner bool) *testEnv {
	t.Helper()
	client, snapshot := fakeDefra(t, handle)

	authSvc, err := auth.NewService(auth.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatal(err)
	}

	llm := providers.NewMockClient()
	lib := library.NewStore(client, nil)
	enricher := enrich.New(llm, lib, enrich.Config{FastModel: "fast", SmartModel: "smart"}, nil)
	manager := tasks.NewManager(client, nil)
	runner := tasks.NewRunner(manager, tasks.RunnerConfig{Workers: 1}, nil)

	if startRunner {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		runner.Start(ctx)
	}

	return &testEnv{
		services: &svcctx.Services{
			DefraClient: client,
			Library:     lib,
			Users:       users.NewStore(client, nil),
			Auth:        authSvc,
			LLM:         llm,
			Enricher:    enricher,
			TaskRunner:  runner,
			TaskManager: manager,
		},
		llm:     llm,
		queries: snapshot,
	}
}

// do routes a request through a mux so path values resolve, with services and
// an optional authenticated user attached.
func (env *testEnv) do(t *testing.T, ep api.Endpoint, method, target, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	m, path, handler := ep.Route()
	mux.HandleFunc(m+" "+path, handler)

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	ctx := svcctx.WithServices(req.Context(), env.services)
	if userID != "" {
		ctx = auth.WithUserID(ctx, userID)
	}
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func countMatching(queries []string, substr string) int {
	n := 0
	for _, q := range queries {
		if strings.Contains(q, substr) {
			n++
		}
	}
	return n
}

func bookDoc(docID, ownerID, title string) map[string]any {
	return map[string]any{
		"_docID": docID, "owner_id": ownerID, "title": title,
		"author": "Frank Herbert", "rating": float64(5), "genre": "Science Fiction",
		"created_at": "2026-08-01T12:00:00Z",
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, func(string) defra.GQLResponse { return defra.GQLResponse{} }, false)
	rec := env.do(t, &HealthEndpoint{}, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAddBookUnauthenticated(t *testing.T) {
	env := newTestEnv(t, func(string) defra.GQLResponse { return defra.GQLResponse{} }, false)

	rec := env.do(t, &AddBookEndpoint{}, "POST", "/api/books", "", AddBookRequest{
		Title: "Dune", Author: "Frank Herbert", Rating: 5,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(env.queries()) != 0 {
		t.Errorf("got %d defra queries, want 0 (no record inserted)", len(env.queries()))
	}
	if env.llm.RequestCount() != 0 {
		t.Errorf("model called %d times, want 0", env.llm.RequestCount())
	}
}

func TestAddBookValidation(t *testing.T) {
	env := newTestEnv(t, func(string) defra.GQLResponse { return defra.GQLResponse{} }, false)

	tests := []struct {
		name string
		req  AddBookRequest
	}{
		{"missing title", AddBookRequest{Author: "A", Rating: 3}},
		{"missing author", AddBookRequest{Title: "T", Rating: 3}},
		{"rating too low", AddBookRequest{Title: "T", Author: "A", Rating: 0}},
		{"rating too high", AddBookRequest{Title: "T", Author: "A", Rating: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, &AddBookEndpoint{}, "POST", "/api/books", "user-1", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAddBookClassifiesGenre(t *testing.T) {
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		switch {
		case strings.Contains(query, "create_Book"):
			return defra.GQLResponse{Data: map[string]any{
				"create_Book": []any{map[string]any{"_docID": "bae-book-1"}},
			}}
		case strings.Contains(query, "create_Task"):
			return defra.GQLResponse{Data: map[string]any{
				"create_Task": []any{map[string]any{"_docID": "bae-task-1"}},
			}}
		default:
			return defra.GQLResponse{Data: map[string]any{}}
		}
	}, false)
	env.llm.ResponseText = "Science Fiction"

	rec := env.do(t, &AddBookEndpoint{}, "POST", "/api/books", "user-1", AddBookRequest{
		Title: "Dune", Author: "Frank Herbert", Rating: 5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp BookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Book.Genre != "Science Fiction" {
		t.Errorf("genre = %q, want Science Fiction", resp.Book.Genre)
	}
	if resp.Book.ID != "bae-book-1" {
		t.Errorf("id = %q, want bae-book-1", resp.Book.ID)
	}
	// The insert committed and a recommendation task record was queued.
	if countMatching(env.queries(), "create_Book") != 1 {
		t.Error("book insert not issued")
	}
	if countMatching(env.queries(), "create_Task") != 1 {
		t.Error("recommendation task not scheduled")
	}
}

func TestAddBookExplicitGenreSkipsClassifier(t *testing.T) {
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		switch {
		case strings.Contains(query, "create_Book"):
			return defra.GQLResponse{Data: map[string]any{
				"create_Book": []any{map[string]any{"_docID": "bae-book-1"}},
			}}
		case strings.Contains(query, "create_Task"):
			return defra.GQLResponse{Data: map[string]any{
				"create_Task": []any{map[string]any{"_docID": "bae-task-1"}},
			}}
		default:
			return defra.GQLResponse{Data: map[string]any{}}
		}
	}, false)

	rec := env.do(t, &AddBookEndpoint{}, "POST", "/api/books", "user-1", AddBookRequest{
		Title: "Dune", Author: "Frank Herbert", Rating: 5, Genre: "Classic",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	// Runner is not started, so no LLM call can have happened at all.
	if env.llm.RequestCount() != 0 {
		t.Errorf("model called %d times, want 0", env.llm.RequestCount())
	}
}

func TestAddBookClassifierFailureMeansNoInsert(t *testing.T) {
	env := newTestEnv(t, func(string) defra.GQLResponse { return defra.GQLResponse{} }, false)
	env.llm.ShouldFail = true

	rec := env.do(t, &AddBookEndpoint{}, "POST", "/api/books", "user-1", AddBookRequest{
		Title: "Dune", Author: "Frank Herbert", Rating: 5,
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if countMatching(env.queries(), "create_Book") != 0 {
		t.Error("book inserted despite classifier failure")
	}
	if countMatching(env.queries(), "create_Task") != 0 {
		t.Error("recommendation task scheduled despite failed add")
	}
}

func TestAddBookPipeline(t *testing.T) {
	// End to end: add without genre, runner started, recommendation run
	// persists suggestions with the new book visible.
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		switch {
		case strings.Contains(query, "create_Book"):
			return defra.GQLResponse{Data: map[string]any{
				"create_Book": []any{map[string]any{"_docID": "bae-book-1"}},
			}}
		case strings.Contains(query, "create_Task"):
			return defra.GQLResponse{Data: map[string]any{
				"create_Task": []any{map[string]any{"_docID": "bae-task-1"}},
			}}
		case strings.Contains(query, "update_Task"):
			return defra.GQLResponse{Data: map[string]any{
				"update_Task": []any{map[string]any{"_docID": "bae-task-1"}},
			}}
		case strings.Contains(query, "create_Recommendation"):
			return defra.GQLResponse{Data: map[string]any{
				"create_Recommendation": []any{map[string]any{"_docID": "bae-rec-1"}},
			}}
		case strings.Contains(query, "Book"):
			return defra.GQLResponse{Data: map[string]any{
				"Book": []any{bookDoc("bae-book-1", "user-1", "Dune")},
			}}
		default:
			return defra.GQLResponse{Data: map[string]any{}}
		}
	}, true)
	env.llm.ResponseText = "Science Fiction"
	env.llm.ResponseJSON = json.RawMessage(`{"suggestions":[{"title":"Hyperion","reason":"More far-future scope."}]}`)

	rec := env.do(t, &AddBookEndpoint{}, "POST", "/api/books", "user-1", AddBookRequest{
		Title: "Dune", Author: "Frank Herbert", Rating: 5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if countMatching(env.queries(), "create_Recommendation") > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("recommendation never persisted")
}

func TestUpdateBookNotOwned(t *testing.T) {
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		return defra.GQLResponse{Data: map[string]any{
			"Book": []any{bookDoc("bae-1", "user-2", "Secret")},
		}}
	}, false)

	title := "New Title"
	rec := env.do(t, &UpdateBookEndpoint{}, "PATCH", "/api/books/bae-1", "user-1", UpdateBookRequest{Title: &title})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if countMatching(env.queries(), "update_Book") != 0 {
		t.Error("update issued for a book the caller does not own")
	}
}

func TestDeleteBook(t *testing.T) {
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		if strings.Contains(query, "delete_Book") {
			return defra.GQLResponse{Data: map[string]any{
				"delete_Book": []any{map[string]any{"_docID": "bae-1"}},
			}}
		}
		return defra.GQLResponse{Data: map[string]any{
			"Book": []any{bookDoc("bae-1", "user-1", "Dune")},
		}}
	}, false)

	rec := env.do(t, &DeleteBookEndpoint{}, "DELETE", "/api/books/bae-1", "user-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestListRecommendations(t *testing.T) {
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		if !strings.Contains(query, "limit: 3") {
			t.Errorf("query missing limit: %s", query)
		}
		return defra.GQLResponse{Data: map[string]any{
			"Recommendation": []any{
				map[string]any{"_docID": "bae-r2", "owner_id": "user-1", "title": "B", "reason": "newer", "created_at": float64(200)},
				map[string]any{"_docID": "bae-r1", "owner_id": "user-1", "title": "A", "reason": "older", "created_at": float64(100)},
			},
		}}
	}, false)

	rec := env.do(t, &ListRecommendationsEndpoint{}, "GET", "/api/recommendations", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp ListRecommendationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Recommendations) != 2 || resp.Recommendations[0].Title != "B" {
		t.Errorf("recommendations = %+v", resp.Recommendations)
	}
}

func TestGenerateRecommendations(t *testing.T) {
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		if strings.Contains(query, "create_Task") {
			return defra.GQLResponse{Data: map[string]any{
				"create_Task": []any{map[string]any{"_docID": "bae-task-1"}},
			}}
		}
		return defra.GQLResponse{Data: map[string]any{}}
	}, false)

	rec := env.do(t, &GenerateRecommendationsEndpoint{}, "POST", "/api/recommendations/generate", "user-1", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TaskID != "bae-task-1" || resp.Status != tasks.StatusQueued {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearchSuggestionsShortQuery(t *testing.T) {
	env := newTestEnv(t, func(string) defra.GQLResponse { return defra.GQLResponse{} }, false)

	rec := env.do(t, &SearchSuggestionsEndpoint{}, "GET", "/api/search/suggestions?q=d", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp SearchSuggestionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Suggestions) != 0 {
		t.Errorf("got %d suggestions, want 0", len(resp.Suggestions))
	}
	if env.llm.RequestCount() != 0 {
		t.Errorf("model called %d times, want 0", env.llm.RequestCount())
	}
}

func TestSearchSuggestions(t *testing.T) {
	env := newTestEnv(t, func(string) defra.GQLResponse { return defra.GQLResponse{} }, false)
	env.llm.ResponseJSON = json.RawMessage(`{"suggestions":[{"title":"Dune","author":"Frank Herbert"}]}`)

	rec := env.do(t, &SearchSuggestionsEndpoint{}, "GET", "/api/search/suggestions?q=dune", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp SearchSuggestionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].Title != "Dune" {
		t.Errorf("suggestions = %+v", resp.Suggestions)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	hash, err := auth.HashPassword("hunter2-long")
	if err != nil {
		t.Fatal(err)
	}

	var registered bool
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		switch {
		case strings.Contains(query, "create_User"):
			registered = true
			return defra.GQLResponse{Data: map[string]any{
				"create_User": []any{map[string]any{"_docID": "bae-user-1"}},
			}}
		case strings.Contains(query, "User"):
			if !registered {
				return defra.GQLResponse{Data: map[string]any{"User": []any{}}}
			}
			return defra.GQLResponse{Data: map[string]any{
				"User": []any{map[string]any{
					"_docID": "bae-user-1", "email": "reader@example.com",
					"password_hash": hash, "created_at": "2026-08-01T12:00:00Z",
				}},
			}}
		default:
			return defra.GQLResponse{Data: map[string]any{}}
		}
	}, false)

	rec := env.do(t, &RegisterEndpoint{}, "POST", "/api/auth/register", "", CredentialsRequest{
		Email: "reader@example.com", Password: "hunter2-long",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	var reg TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
		t.Fatal(err)
	}
	if reg.Token == "" || reg.UserID != "bae-user-1" {
		t.Errorf("register response = %+v", reg)
	}

	// The issued token verifies against the same service.
	userID, err := env.services.Auth.VerifyToken(reg.Token)
	if err != nil || userID != "bae-user-1" {
		t.Errorf("VerifyToken() = %q, %v", userID, err)
	}

	rec = env.do(t, &LoginEndpoint{}, "POST", "/api/auth/login", "", CredentialsRequest{
		Email: "reader@example.com", Password: "hunter2-long",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, &LoginEndpoint{}, "POST", "/api/auth/login", "", CredentialsRequest{
		Email: "reader@example.com", Password: "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", rec.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		return defra.GQLResponse{Data: map[string]any{
			"User": []any{map[string]any{
				"_docID": "bae-user-1", "email": "reader@example.com",
				"password_hash": "x", "created_at": "2026-08-01T12:00:00Z",
			}},
		}}
	}, false)

	rec := env.do(t, &RegisterEndpoint{}, "POST", "/api/auth/register", "", CredentialsRequest{
		Email: "reader@example.com", Password: "hunter2-long",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestListTasks(t *testing.T) {
	env := newTestEnv(t, func(query string) defra.GQLResponse {
		return defra.GQLResponse{Data: map[string]any{
			"Task": []any{map[string]any{
				"_docID": "bae-t1", "task_type": tasks.TypeRecommendation,
				"status": tasks.StatusCompleted, "owner_id": "user-1",
				"created_at": "2026-08-01T12:00:00Z",
			}},
		}}
	}, false)

	rec := env.do(t, &ListTasksEndpoint{}, "GET", "/api/tasks", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp ListTasksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].Status != tasks.StatusCompleted {
		t.Errorf("tasks = %+v", resp.Tasks)
	}
}

func TestListPrompts(t *testing.T) {
	env := newTestEnv(t, func(string) defra.GQLResponse { return defra.GQLResponse{} }, false)

	rec := env.do(t, &ListPromptsEndpoint{}, "GET", "/api/prompts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp ListPromptsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Prompts) != 3 {
		t.Errorf("got %d prompts, want 3", len(resp.Prompts))
	}
}
