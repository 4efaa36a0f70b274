// Package books holds the domain flows on top of the storage facade:
// ISBN lookup-and-save, manual entry, and clip capture with the validation
// the storage layer deliberately omits.
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clipshelf/clipshelf/internal/entities"
	"github.com/clipshelf/clipshelf/internal/metadata"
	"github.com/clipshelf/clipshelf/internal/storage"
)

// Validation errors, surfaced before anything reaches the storage layer.
var (
	ErrEmptyTitle  = errors.New("books: title must not be empty")
	ErrEmptyText   = errors.New("books: clip text must not be empty")
	ErrInvalidPage = errors.New("books: page must be 1 or greater")
	ErrInvalidISBN = errors.New("books: invalid ISBN")
)

// MetadataClient is the ISBN lookup dependency.
type MetadataClient interface {
	SearchByISBN(ctx context.Context, isbn string) (*metadata.BookMetadata, error)
}

// SearchResult reports the outcome of an ISBN lookup-and-save.
type SearchResult struct {
	Book       *entities.Book `json:"book"`
	IsExisting bool           `json:"isExisting"`
}

// Service wires the metadata client and storage facade together.
type Service struct {
	store *storage.Service
	meta  MetadataClient
}

// NewService creates the books service.
func NewService(store *storage.Service, meta MetadataClient) *Service {
	return &Service{store: store, meta: meta}
}

// SearchAndSaveBook looks up the ISBN and saves the resulting book.
// IsExisting is true when the active backend already held an equivalent
// book (its dedup fired) and the stored record is returned unchanged.
func (s *Service) SearchAndSaveBook(ctx context.Context, isbn string) (*SearchResult, error) {
	normalized := metadata.NormalizeISBN(isbn)
	if normalized == "" {
		return nil, ErrInvalidISBN
	}

	meta, err := s.meta.SearchByISBN(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("look up ISBN %s: %w", normalized, err)
	}

	book := &entities.Book{
		ISBN:       normalized,
		Title:      meta.Title,
		Author:     meta.Author,
		CoverImage: meta.CoverURL,
	}
	saved, existed, err := s.store.SaveBook(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("save book for ISBN %s: %w", normalized, err)
	}
	return &SearchResult{Book: saved, IsExisting: existed}, nil
}

// AddManualBook saves a manually entered book with a synthetic placeholder
// ISBN so the remote backend's isbn dedup never collides with a real one.
func (s *Service) AddManualBook(ctx context.Context, title, author string) (*entities.Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	book := &entities.Book{
		ISBN:   entities.ManualISBNPrefix + uuid.NewString(),
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
	}
	saved, _, err := s.store.SaveBook(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("save manual book: %w", err)
	}
	return saved, nil
}

// EditBook patches fields of an existing book. A missing book is a
// user-facing failure here, unlike plain lookups.
func (s *Service) EditBook(ctx context.Context, id string, patch storage.BookPatch) (*entities.Book, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, ErrEmptyTitle
	}
	updated, err := s.store.UpdateBook(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update book %s: %w", id, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("book %s not found", id)
	}
	return updated, nil
}

// SaveClip validates and saves a captured passage. The backends record the
// clip's book as the last clipped one when it exists.
func (s *Service) SaveClip(ctx context.Context, clip *entities.Clip) (*entities.Clip, error) {
	if strings.TrimSpace(clip.Text) == "" {
		return nil, ErrEmptyText
	}
	if clip.Page < 1 {
		return nil, ErrInvalidPage
	}
	saved, err := s.store.SaveClip(ctx, clip)
	if err != nil {
		return nil, fmt.Errorf("save clip: %w", err)
	}
	return saved, nil
}

// UpdateClip validates and updates an existing clip in place.
func (s *Service) UpdateClip(ctx context.Context, clip *entities.Clip) error {
	if strings.TrimSpace(clip.Text) == "" {
		return ErrEmptyText
	}
	if clip.Page < 1 {
		return ErrInvalidPage
	}
	if err := s.store.UpdateClip(ctx, clip); err != nil {
		return fmt.Errorf("update clip %s: %w", clip.ID, err)
	}
	return nil
}
