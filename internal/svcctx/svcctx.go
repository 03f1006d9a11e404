// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/lectern/lectern/internal/auth"
	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/defra"
	"github.com/lectern/lectern/internal/enrich"
	"github.com/lectern/lectern/internal/library"
	"github.com/lectern/lectern/internal/providers"
	"github.com/lectern/lectern/internal/tasks"
	"github.com/lectern/lectern/internal/users"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	DefraClient *defra.Client
	Library     *library.Store
	Users       *users.Store
	Auth        *auth.Service
	LLM         providers.LLMClient
	Enricher    *enrich.Enricher
	TaskRunner  *tasks.Runner
	TaskManager *tasks.Manager
	Config      *config.Manager
	Logger      *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// DefraClientFrom extracts the DefraDB client from context.
func DefraClientFrom(ctx context.Context) *defra.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.DefraClient
	}
	return nil
}

// LibraryFrom extracts the library store from context.
func LibraryFrom(ctx context.Context) *library.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Library
	}
	return nil
}

// UsersFrom extracts the user store from context.
func UsersFrom(ctx context.Context) *users.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Users
	}
	return nil
}

// AuthFrom extracts the auth service from context.
func AuthFrom(ctx context.Context) *auth.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.Auth
	}
	return nil
}

// LLMFrom extracts the LLM client from context.
func LLMFrom(ctx context.Context) providers.LLMClient {
	if s := ServicesFrom(ctx); s != nil {
		return s.LLM
	}
	return nil
}

// EnricherFrom extracts the enricher from context.
func EnricherFrom(ctx context.Context) *enrich.Enricher {
	if s := ServicesFrom(ctx); s != nil {
		return s.Enricher
	}
	return nil
}

// TaskRunnerFrom extracts the task runner from context.
func TaskRunnerFrom(ctx context.Context) *tasks.Runner {
	if s := ServicesFrom(ctx); s != nil {
		return s.TaskRunner
	}
	return nil
}

// TaskManagerFrom extracts the task record manager from context.
func TaskManagerFrom(ctx context.Context) *tasks.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.TaskManager
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
