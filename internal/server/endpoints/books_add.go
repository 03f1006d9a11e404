package endpoints

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/enrich"
	"github.com/lectern/lectern/internal/library"
	"github.com/lectern/lectern/internal/svcctx"
	"github.com/lectern/lectern/internal/tasks"
)

// AddBookRequest is the payload for adding a book.
type AddBookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Genre  string `json:"genre,omitempty"`
}

// BookResponse wraps a single book.
type BookResponse struct {
	Book library.Book `json:"book"`
}

// AddBookEndpoint handles POST /api/books.
type AddBookEndpoint struct{}

func (e *AddBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books", e.handler
}

func (e *AddBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Add a book
//	@Description	Adds a book to the caller's library. When genre is omitted it is
//	@Description	classified before the insert; a classifier transport failure fails
//	@Description	the whole call with no record created. Recommendation generation is
//	@Description	scheduled after the insert commits.
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AddBookRequest	true	"Book to add"
//	@Success		201		{object}	BookResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/books [post]
func (e *AddBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddBookRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	enricher := svcctx.EnricherFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())

	genre := req.Genre
	if genre == "" {
		var err error
		genre, err = enricher.ClassifyGenre(r.Context(), req.Title, req.Author)
		if err != nil {
			// No partial insert: the book is not stored.
			if errors.Is(err, enrich.ErrUpstreamGeneration) {
				writeError(w, http.StatusBadGateway, "genre classification failed")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	lib := svcctx.LibraryFrom(r.Context())
	book := library.Book{
		Title:  req.Title,
		Author: req.Author,
		Rating: req.Rating,
		Genre:  genre,
	}
	id, err := lib.AddBook(r.Context(), userID, book)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	book.ID = id

	// The insert has committed; the recommendation run is guaranteed to see
	// this book. Submission failures never fail the add.
	runner := svcctx.TaskRunnerFrom(r.Context())
	if _, err := runner.Submit(r.Context(), tasks.TypeRecommendation, userID, func(ctx context.Context) error {
		return enricher.GenerateRecommendations(ctx, userID)
	}); err != nil && logger != nil {
		logger.Warn("failed to schedule recommendation task", "owner", userID, "error", err)
	}

	writeJSON(w, http.StatusCreated, BookResponse{Book: book})
}

func (e *AddBookEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	var rating int
	var genre string
	cmd := &cobra.Command{
		Use:   "add <title> <author>",
		Short: "Add a book to your library",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := AddBookRequest{
				Title:  args[0],
				Author: args[1],
				Rating: rating,
				Genre:  genre,
			}
			var resp BookResponse
			if err := getClient().Post(cmd.Context(), "/api/books", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 3, "Rating from 1 to 5")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre (classified automatically when omitted)")
	return cmd
}
