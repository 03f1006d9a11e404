package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/library"
	"github.com/lectern/lectern/internal/svcctx"
)

// UpdateBookRequest carries the editable book fields. Absent fields are left
// unchanged.
type UpdateBookRequest struct {
	Title  *string `json:"title,omitempty" validate:"omitempty,min=1"`
	Author *string `json:"author,omitempty" validate:"omitempty,min=1"`
	Rating *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Genre  *string `json:"genre,omitempty"`
}

// UpdateBookEndpoint handles PATCH /api/books/{id}.
type UpdateBookEndpoint struct{}

func (e *UpdateBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/books/{id}", e.handler
}

func (e *UpdateBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Edit a book
//	@Description	Edits a book you own. A missing book and someone else's book fail
//	@Description	identically.
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Book id"
//	@Param			request	body		UpdateBookRequest	true	"Fields to change"
//	@Success		200		{object}	BookResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/books/{id} [patch]
func (e *UpdateBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateBookRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := library.BookPatch{
		Title:  req.Title,
		Author: req.Author,
		Rating: req.Rating,
		Genre:  req.Genre,
	}
	book, err := svcctx.LibraryFrom(r.Context()).UpdateBook(r.Context(), userID, r.PathValue("id"), patch)
	if err != nil {
		if errors.Is(err, library.ErrNotFoundOrForbidden) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, BookResponse{Book: *book})
}

func (e *UpdateBookEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	var title, author, genre string
	var rating int
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a book you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := UpdateBookRequest{}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("author") {
				req.Author = &author
			}
			if cmd.Flags().Changed("rating") {
				req.Rating = &rating
			}
			if cmd.Flags().Changed("genre") {
				req.Genre = &genre
			}
			var resp BookResponse
			if err := getClient().Patch(cmd.Context(), "/api/books/"+args[0], req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&author, "author", "", "New author")
	cmd.Flags().IntVar(&rating, "rating", 0, "New rating from 1 to 5")
	cmd.Flags().StringVar(&genre, "genre", "", "New genre")
	return cmd
}
