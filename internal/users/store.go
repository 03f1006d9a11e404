// Package users persists user accounts in the User collection.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lectern/lectern/internal/defra"
)

// Sentinel errors for the users package.
var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
)

// User represents a stored user account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store handles user records in DefraDB.
type Store struct {
	defra  *defra.Client
	logger *slog.Logger
}

// NewStore creates a new user store.
func NewStore(client *defra.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{defra: client, logger: logger}
}

// Create registers a new user. The email must not already be registered -
// uniqueness is an application-level check against the indexed email field.
func (s *Store) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	existing, err := s.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	now := time.Now().UTC()
	id, err := s.defra.Create(ctx, "User", map[string]any{
		"email":         email,
		"password_hash": passwordHash,
		"created_at":    now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", "id", id)
	return &User{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// GetByEmail returns the user registered under the given email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	resp, err := defra.NewQuery("User").
		Filter("email", email).
		Fields("_docID", "email", "password_hash", "created_at").
		Limit(1).
		Execute(ctx, s.defra)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("user query error: %s", errMsg)
	}

	docs := resp.Docs("User")
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return userFromDoc(docs[0]), nil
}

// Get returns a user by document id.
func (s *Store) Get(ctx context.Context, id string) (*User, error) {
	if err := defra.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	resp, err := defra.NewQuery("User").
		Filter("_docID", id).
		Fields("_docID", "email", "password_hash", "created_at").
		Execute(ctx, s.defra)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("user query error: %s", errMsg)
	}

	docs := resp.Docs("User")
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return userFromDoc(docs[0]), nil
}

func userFromDoc(doc map[string]any) *User {
	u := &User{}
	if v, ok := doc["_docID"].(string); ok {
		u.ID = v
	}
	if v, ok := doc["email"].(string); ok {
		u.Email = v
	}
	if v, ok := doc["password_hash"].(string); ok {
		u.PasswordHash = v
	}
	if v, ok := doc["created_at"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			u.CreatedAt = ts
		}
	}
	return u
}
