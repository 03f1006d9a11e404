package endpoints

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/enrich"
	"github.com/lectern/lectern/internal/svcctx"
)

// SearchSuggestionsResponse holds title/author completions for a query.
type SearchSuggestionsResponse struct {
	Suggestions []enrich.SearchSuggestion `json:"suggestions"`
}

// SearchSuggestionsEndpoint handles GET /api/search/suggestions.
type SearchSuggestionsEndpoint struct{}

func (e *SearchSuggestionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/search/suggestions", e.handler
}

func (e *SearchSuggestionsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Search suggestions
//	@Description	Suggests up to 3 title/author pairs for a query fragment. Queries
//	@Description	under 2 characters return an empty list without a model call; any
//	@Description	model failure also degrades to an empty list.
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Query fragment"
//	@Success		200	{object}	SearchSuggestionsResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/api/search/suggestions [get]
func (e *SearchSuggestionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	query := r.URL.Query().Get("q")
	suggestions := svcctx.EnricherFrom(r.Context()).SuggestSearch(r.Context(), query)
	writeJSON(w, http.StatusOK, SearchSuggestionsResponse{Suggestions: suggestions})
}

func (e *SearchSuggestionsEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Suggest books matching a query fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp SearchSuggestionsResponse
			path := "/api/search/suggestions?q=" + url.QueryEscape(args[0])
			if err := getClient().Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
