package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Lectern server via HTTP.

These commands require a running server (lectern serve).
Use --server to specify a custom server URL. Authenticated commands
read the session token from the LECTERN_TOKEN environment variable;
'lectern api auth login' prints the export line to set it.

Examples:
  lectern api health                    # Check server health
  lectern api books list                # List your books
  lectern api recommendations           # Show recent recommendations
  lectern api search "dune"             # Ask for search suggestions`,
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Account registration and login",
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Manage your book library",
}

// getClient builds the API client at runtime (after flag parsing),
// picking up the session token from the environment.
func getClient() *api.Client {
	return api.NewClient(serverURL, os.Getenv("LECTERN_TOKEN"))
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getClient))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getClient))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getClient))

	// Auth as subcommand group
	authCmd.AddCommand((&endpoints.RegisterEndpoint{}).Command(getClient))
	authCmd.AddCommand((&endpoints.LoginEndpoint{}).Command(getClient))

	// Books as subcommand group
	booksCmd.AddCommand((&endpoints.AddBookEndpoint{}).Command(getClient))
	booksCmd.AddCommand((&endpoints.ListBooksEndpoint{}).Command(getClient))
	booksCmd.AddCommand((&endpoints.UpdateBookEndpoint{}).Command(getClient))
	booksCmd.AddCommand((&endpoints.DeleteBookEndpoint{}).Command(getClient))

	// Recommendations, search, tasks, and prompts at top level
	apiCmd.AddCommand((&endpoints.ListRecommendationsEndpoint{}).Command(getClient))
	apiCmd.AddCommand((&endpoints.GenerateRecommendationsEndpoint{}).Command(getClient))
	apiCmd.AddCommand((&endpoints.SearchSuggestionsEndpoint{}).Command(getClient))
	apiCmd.AddCommand((&endpoints.ListTasksEndpoint{}).Command(getClient))
	apiCmd.AddCommand((&endpoints.ListPromptsEndpoint{}).Command(getClient))

	apiCmd.AddCommand(authCmd)
	apiCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(apiCmd)
}
