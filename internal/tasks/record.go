// Package tasks runs detached background work. Each submission is persisted
// as a Task record in DefraDB so runs are inspectable after the fact, then
// executed by a small worker pool that outlives the triggering request.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lectern/lectern/internal/defra"
)

// Task types.
const (
	TypeRecommendation = "recommendation_generation"
)

// Task statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record is the persisted state of one task run.
type Record struct {
	ID          string `json:"id"`
	Type        string `json:"task_type"`
	Status      string `json:"status"`
	OwnerID     string `json:"-"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Manager persists Task records.
type Manager struct {
	defra  *defra.Client
	logger *slog.Logger
}

// NewManager creates a task record manager.
func NewManager(client *defra.Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{defra: client, logger: logger}
}

// CreateRecord inserts a queued Task record and returns its id.
func (m *Manager) CreateRecord(ctx context.Context, taskType, ownerID string) (string, error) {
	id, err := m.defra.Create(ctx, "Task", map[string]any{
		"task_type":  taskType,
		"status":     StatusQueued,
		"owner_id":   ownerID,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create task record: %w", err)
	}
	return id, nil
}

// MarkRunning transitions a record to running.
func (m *Manager) MarkRunning(ctx context.Context, taskID string) error {
	return m.defra.Update(ctx, "Task", taskID, map[string]any{
		"status": StatusRunning,
	})
}

// MarkCompleted transitions a record to completed.
func (m *Manager) MarkCompleted(ctx context.Context, taskID string) error {
	return m.defra.Update(ctx, "Task", taskID, map[string]any{
		"status":       StatusCompleted,
		"completed_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// MarkFailed transitions a record to failed with the error message.
func (m *Manager) MarkFailed(ctx context.Context, taskID string, taskErr error) error {
	msg := ""
	if taskErr != nil {
		msg = taskErr.Error()
	}
	return m.defra.Update(ctx, "Task", taskID, map[string]any{
		"status":       StatusFailed,
		"completed_at": time.Now().UTC().Format(time.RFC3339),
		"error":        msg,
	})
}

// ListByOwner returns a user's task records, newest first.
func (m *Manager) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	q := defra.NewQuery("Task").
		Filter("owner_id", ownerID).
		Fields("_docID", "task_type", "status", "owner_id", "created_at", "completed_at", "error").
		OrderBy("created_at", "DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	resp, err := q.Execute(ctx, m.defra)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("task query error: %s", errMsg)
	}

	docs := resp.Docs("Task")
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFromDoc(doc))
	}
	return records, nil
}

func recordFromDoc(doc map[string]any) Record {
	r := Record{}
	if v, ok := doc["_docID"].(string); ok {
		r.ID = v
	}
	if v, ok := doc["task_type"].(string); ok {
		r.Type = v
	}
	if v, ok := doc["status"].(string); ok {
		r.Status = v
	}
	if v, ok := doc["owner_id"].(string); ok {
		r.OwnerID = v
	}
	if v, ok := doc["created_at"].(string); ok {
		r.CreatedAt = v
	}
	if v, ok := doc["completed_at"].(string); ok {
		r.CompletedAt = v
	}
	if v, ok := doc["error"].(string); ok {
		r.Error = v
	}
	return r
}
