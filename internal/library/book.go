package library

import (
	"context"
	"fmt"
	"time"

	"github.com/lectern/lectern/internal/defra"
)

// Book represents a book record.
type Book struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Genre     string    `json:"genre,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BookPatch holds the fields an owner may edit. Nil fields are left unchanged.
type BookPatch struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	Rating *int    `json:"rating,omitempty"`
	Genre  *string `json:"genre,omitempty"`
}

// AddBook inserts a book for the given owner and returns its id.
func (s *Store) AddBook(ctx context.Context, ownerID string, book Book) (string, error) {
	now := time.Now().UTC()
	id, err := s.defra.Create(ctx, "Book", map[string]any{
		"owner_id":   ownerID,
		"title":      book.Title,
		"author":     book.Author,
		"rating":     book.Rating,
		"genre":      book.Genre,
		"created_at": now.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create book: %w", err)
	}

	s.logger.Info("book added", "id", id, "owner", ownerID, "title", book.Title)
	return id, nil
}

// ListBooks returns all books owned by the given user, oldest first.
// The read is unbounded; a personal library is small by construction.
func (s *Store) ListBooks(ctx context.Context, ownerID string) ([]Book, error) {
	resp, err := defra.NewQuery("Book").
		Filter("owner_id", ownerID).
		Fields("_docID", "owner_id", "title", "author", "rating", "genre", "created_at").
		OrderBy("created_at", "ASC").
		Execute(ctx, s.defra)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("book query error: %s", errMsg)
	}

	docs := resp.Docs("Book")
	books := make([]Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, bookFromDoc(doc))
	}
	return books, nil
}

// GetBook returns a single book if it exists and is owned by the caller.
func (s *Store) GetBook(ctx context.Context, ownerID, bookID string) (*Book, error) {
	if err := defra.ValidateID(bookID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFoundOrForbidden, err)
	}

	resp, err := defra.NewQuery("Book").
		Filter("_docID", bookID).
		Fields("_docID", "owner_id", "title", "author", "rating", "genre", "created_at").
		Execute(ctx, s.defra)
	if err != nil {
		return nil, fmt.Errorf("failed to query book: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("book query error: %s", errMsg)
	}

	docs := resp.Docs("Book")
	if len(docs) == 0 {
		return nil, ErrNotFoundOrForbidden
	}

	book := bookFromDoc(docs[0])
	if book.OwnerID != ownerID {
		// Same error as absence: callers must not learn the book exists.
		return nil, ErrNotFoundOrForbidden
	}
	return &book, nil
}

// UpdateBook applies a patch to a book after verifying ownership.
func (s *Store) UpdateBook(ctx context.Context, ownerID, bookID string, patch BookPatch) (*Book, error) {
	book, err := s.GetBook(ctx, ownerID, bookID)
	if err != nil {
		return nil, err
	}

	input := map[string]any{}
	if patch.Title != nil {
		input["title"] = *patch.Title
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		input["author"] = *patch.Author
		book.Author = *patch.Author
	}
	if patch.Rating != nil {
		input["rating"] = *patch.Rating
		book.Rating = *patch.Rating
	}
	if patch.Genre != nil {
		input["genre"] = *patch.Genre
		book.Genre = *patch.Genre
	}
	if len(input) == 0 {
		return book, nil
	}

	if err := s.defra.Update(ctx, "Book", bookID, input); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	s.logger.Info("book updated", "id", bookID, "owner", ownerID)
	return book, nil
}

// DeleteBook removes a book after verifying ownership. Recommendations are
// untouched: they reference titles as free text, not book documents.
func (s *Store) DeleteBook(ctx context.Context, ownerID, bookID string) error {
	if _, err := s.GetBook(ctx, ownerID, bookID); err != nil {
		return err
	}

	if err := s.defra.Delete(ctx, "Book", bookID); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	s.logger.Info("book deleted", "id", bookID, "owner", ownerID)
	return nil
}

func bookFromDoc(doc map[string]any) Book {
	b := Book{}
	if v, ok := doc["_docID"].(string); ok {
		b.ID = v
	}
	if v, ok := doc["owner_id"].(string); ok {
		b.OwnerID = v
	}
	if v, ok := doc["title"].(string); ok {
		b.Title = v
	}
	if v, ok := doc["author"].(string); ok {
		b.Author = v
	}
	if v, ok := doc["rating"].(float64); ok {
		b.Rating = int(v)
	}
	if v, ok := doc["genre"].(string); ok {
		b.Genre = v
	}
	if v, ok := doc["created_at"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			b.CreatedAt = ts
		}
	}
	return b
}
