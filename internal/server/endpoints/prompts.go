package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/prompts"
)

// ListPromptsResponse holds the embedded prompt templates.
type ListPromptsResponse struct {
	Prompts []prompts.Prompt `json:"prompts"`
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List prompt templates
//	@Description	Returns the embedded prompt templates with their variables and
//	@Description	content hashes.
//	@Tags			prompts
//	@Produce		json
//	@Success		200	{object}	ListPromptsResponse
//	@Router			/api/prompts [get]
func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	all, err := prompts.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListPromptsResponse{Prompts: all})
}

func (e *ListPromptsEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List prompt templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp ListPromptsResponse
			if err := getClient().Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
