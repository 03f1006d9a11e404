// Package library persists a user's books and recommendations. Both
// collections are strictly owner-scoped: every read filters on owner_id and
// every mutation re-checks ownership before touching the document. That check
// is application-level - the store enforces it on each call rather than
// relying on any database constraint.
package library

import (
	"errors"
	"log/slog"

	"github.com/lectern/lectern/internal/defra"
)

// ErrNotFoundOrForbidden is returned when a target document does not exist or
// belongs to a different user. The two cases are deliberately
// indistinguishable to callers.
var ErrNotFoundOrForbidden = errors.New("not found or not owned by caller")

// Store handles Book and Recommendation records in DefraDB.
type Store struct {
	defra  *defra.Client
	logger *slog.Logger
}

// NewStore creates a new library store.
func NewStore(client *defra.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{defra: client, logger: logger}
}
