// Package storage defines the storage contract shared by the local and
// remote backends and the facade that dispatches to the active one.
package storage

import (
	"context"
	"errors"

	"github.com/clipshelf/clipshelf/internal/entities"
)

// ErrNotAuthenticated is returned by the remote backend when an operation is
// attempted with no known user id. Callers treat it as fatal to that
// operation; it is never retried automatically.
var ErrNotAuthenticated = errors.New("storage: not authenticated")

// BookPatch describes a partial update to a book. Nil fields are left
// untouched.
type BookPatch struct {
	Title      *string
	Author     *string
	CoverImage *string
	ISBN       *string
}

// Backend is the storage contract implemented by both the local key-value
// backend and the remote table-API backend.
//
// Lookup reads (GetBookByID, GetClipByID, GetLastClipBook) return (nil, nil)
// when nothing matches; absence is not an error. Backends perform no
// validation of field contents.
//
// SaveBook reports whether an equivalent book already existed; the dedup key
// differs per backend (id for local, isbn for remote) and each is a
// documented contract in its own right.
type Backend interface {
	Name() string

	SaveBook(ctx context.Context, book *entities.Book) (*entities.Book, bool, error)
	GetAllBooks(ctx context.Context) ([]entities.Book, error)
	GetBookByID(ctx context.Context, id string) (*entities.Book, error)
	UpdateBook(ctx context.Context, id string, patch BookPatch) (*entities.Book, error)
	RemoveBook(ctx context.Context, id string) error
	SetLastClipBook(ctx context.Context, book *entities.Book) error
	GetLastClipBook(ctx context.Context) (*entities.Book, error)

	SaveClip(ctx context.Context, clip *entities.Clip) (*entities.Clip, error)
	GetAllClips(ctx context.Context) ([]entities.Clip, error)
	GetClipsByBookID(ctx context.Context, bookID string) ([]entities.Clip, error)
	GetClipByID(ctx context.Context, id string) (*entities.Clip, error)
	UpdateClip(ctx context.Context, clip *entities.Clip) error
	RemoveClip(ctx context.Context, id string) error
	DeleteClipsByBookID(ctx context.Context, bookID string) error
}
