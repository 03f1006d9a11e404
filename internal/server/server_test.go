package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/defra"
	"github.com/lectern/lectern/internal/providers"
	"github.com/lectern/lectern/internal/testutil"
)

// fakeDefraNode emulates the DefraDB HTTP surface well enough for the server
// lifecycle: health check, schema add, and generic graphql mutations.
func fakeDefraNode(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health-check":
			w.WriteHeader(http.StatusOK)
		case "/api/v0/schema":
			w.WriteHeader(http.StatusOK)
		case "/api/v0/graphql":
			var req defra.GQLRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			data := map[string]any{}
			for _, collection := range []string{"User", "Book", "Recommendation", "Task"} {
				if strings.Contains(req.Query, "create_"+collection) {
					data["create_"+collection] = []any{map[string]any{"_docID": "bae-" + strings.ToLower(collection)}}
				}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(defra.GQLResponse{Data: data})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func testConfigManager(t *testing.T, defraURL string) *config.Manager {
	t.Helper()
	path := t.TempDir() + "/config.yaml"
	content := fmt.Sprintf(`
auth:
  jwt_secret: test-secret
llm:
  api_key: test-key
defra:
  url: %s
`, defraURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cm, err := config.NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	return cm
}

func TestNewRequiresConfigManager(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() without config manager succeeded")
	}
}

func TestServerLifecycle(t *testing.T) {
	defraURL := fakeDefraNode(t)
	cm := testConfigManager(t, defraURL)

	port, err := testutil.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}

	mock := providers.NewMockClient()
	mock.ResponseText = "Science Fiction"
	mock.ResponseJSON = json.RawMessage(`{"suggestions":[]}`)

	srv, err := New(Config{
		Port:          port,
		ConfigManager: cm,
		LLM:           mock,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	baseURL := "http://127.0.0.1:" + port
	if err := testutil.WaitForServer(baseURL, 15*time.Second); err != nil {
		t.Fatalf("server never became ready: %v", err)
	}

	status, err := testutil.GetStatus(baseURL)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Server != "running" || status.Defra.Health != "healthy" {
		t.Errorf("status = %+v", status)
	}
	if status.LLM != providers.MockClientName {
		t.Errorf("status.LLM = %q, want %q", status.LLM, providers.MockClientName)
	}
	if status.Defra.Container != "external" {
		t.Errorf("status.Defra.Container = %q, want external", status.Defra.Container)
	}

	client := testutil.HTTPClient()

	// Protected endpoints reject anonymous callers.
	resp, err := client.Get(baseURL + "/api/books")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous list status = %d, want 401", resp.StatusCode)
	}

	// Register and use the issued token.
	body, _ := json.Marshal(map[string]string{
		"email":    "reader@example.com",
		"password": "hunter2-long",
	})
	resp, err = client.Post(baseURL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	var token struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || token.Token == "" {
		t.Fatalf("register status = %d, token = %q", resp.StatusCode, token.Token)
	}

	req, _ := http.NewRequest(http.MethodGet, baseURL+"/api/books", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated list status = %d, want 200", resp.StatusCode)
	}

	// Graceful shutdown.
	cancel()
	if err := testutil.WaitForShutdown(done, 15*time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.IsRunning() {
		t.Error("server still reports running after shutdown")
	}
}

func TestRequireInitBeforeStart(t *testing.T) {
	defraURL := fakeDefraNode(t)
	cm := testConfigManager(t, defraURL)

	port, err := testutil.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	srv, err := New(Config{Port: port, ConfigManager: cm, LLM: providers.NewMockClient()})
	if err != nil {
		t.Fatal(err)
	}

	// Never started: the init middleware returns 503 for protected routes.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	// Health never requires init.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
