package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/svcctx"
	"github.com/lectern/lectern/internal/tasks"
)

// ListTasksResponse holds a user's background task history.
type ListTasksResponse struct {
	Tasks []tasks.Record `json:"tasks"`
}

// ListTasksEndpoint handles GET /api/tasks.
type ListTasksEndpoint struct{}

func (e *ListTasksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/tasks", e.handler
}

func (e *ListTasksEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List your background tasks
//	@Tags			tasks
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum records (default 20)"
//	@Success		200		{object}	ListTasksResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/api/tasks [get]
func (e *ListTasksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := svcctx.TaskManagerFrom(r.Context()).ListByOwner(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ListTasksResponse{Tasks: records})
}

func (e *ListTasksEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List your background tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp ListTasksResponse
			path := "/api/tasks?limit=" + strconv.Itoa(limit)
			if err := getClient().Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to return")
	return cmd
}
