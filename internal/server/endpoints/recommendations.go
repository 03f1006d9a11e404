package endpoints

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/library"
	"github.com/lectern/lectern/internal/svcctx"
	"github.com/lectern/lectern/internal/tasks"
)

// ListRecommendationsResponse holds the newest recommendations.
type ListRecommendationsResponse struct {
	Recommendations []library.Recommendation `json:"recommendations"`
}

// ListRecommendationsEndpoint handles GET /api/recommendations.
type ListRecommendationsEndpoint struct{}

func (e *ListRecommendationsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/recommendations", e.handler
}

func (e *ListRecommendationsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List recent recommendations
//	@Description	Returns at most the 3 newest recommendations, timestamp descending.
//	@Tags			recommendations
//	@Produce		json
//	@Success		200	{object}	ListRecommendationsResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/api/recommendations [get]
func (e *ListRecommendationsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	recs, err := svcctx.LibraryFrom(r.Context()).RecentRecommendations(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ListRecommendationsResponse{Recommendations: recs})
}

func (e *ListRecommendationsEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "recommendations",
		Short: "Show your most recent recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp ListRecommendationsResponse
			if err := getClient().Get(cmd.Context(), "/api/recommendations", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GenerateResponse acknowledges a scheduled generation run.
type GenerateResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// GenerateRecommendationsEndpoint handles POST /api/recommendations/generate.
type GenerateRecommendationsEndpoint struct{}

func (e *GenerateRecommendationsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/recommendations/generate", e.handler
}

func (e *GenerateRecommendationsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Trigger recommendation generation
//	@Description	Schedules a background generation run and returns immediately.
//	@Description	Concurrent runs for the same user are allowed and both append.
//	@Tags			recommendations
//	@Produce		json
//	@Success		202	{object}	GenerateResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/api/recommendations/generate [post]
func (e *GenerateRecommendationsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	enricher := svcctx.EnricherFrom(r.Context())
	taskID, err := svcctx.TaskRunnerFrom(r.Context()).Submit(
		r.Context(), tasks.TypeRecommendation, userID,
		func(ctx context.Context) error {
			return enricher.GenerateRecommendations(ctx, userID)
		})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, GenerateResponse{TaskID: taskID, Status: tasks.StatusQueued})
}

func (e *GenerateRecommendationsEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Trigger recommendation generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp GenerateResponse
			if err := getClient().Post(cmd.Context(), "/api/recommendations/generate", nil, &resp); err != nil {
				return err
			}
			fmt.Printf("Scheduled task %s (%s)\n", resp.TaskID, resp.Status)
			return nil
		},
	}
}
