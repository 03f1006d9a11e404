package endpoints

import (
	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/defra"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	DefraManager *defra.DockerManager
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{DefraManager: cfg.DefraManager},

		// Auth endpoints
		&RegisterEndpoint{},
		&LoginEndpoint{},

		// Book endpoints
		&AddBookEndpoint{},
		&ListBooksEndpoint{},
		&UpdateBookEndpoint{},
		&DeleteBookEndpoint{},

		// Recommendation endpoints
		&ListRecommendationsEndpoint{},
		&GenerateRecommendationsEndpoint{},

		// Search endpoint
		&SearchSuggestionsEndpoint{},

		// Task endpoint
		&ListTasksEndpoint{},

		// Prompt endpoint
		&ListPromptsEndpoint{},
	}
}
