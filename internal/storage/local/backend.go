// Package local implements the storage contract over the flat key-value
// store. Every mutating operation reads the whole collection, applies the
// change in memory and writes the collection back; acceptable while the
// single-user collections stay small.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clipshelf/clipshelf/internal/entities"
	"github.com/clipshelf/clipshelf/internal/kvstore"
	"github.com/clipshelf/clipshelf/internal/storage"
)

// Fixed keys for the three stored values.
const (
	keyBooks        = "books"
	keyClips        = "clips"
	keyLastClipBook = entities.SettingKeyLastClipBook
)

// Backend stores books and clips as JSON-encoded arrays under fixed keys.
// Books deduplicate by id (not isbn; the remote backend differs here and
// both are documented contracts).
type Backend struct {
	kv  *kvstore.Store
	now func() time.Time
}

var _ storage.Backend = (*Backend)(nil)

// New creates a local backend over the given key-value store.
func New(kv *kvstore.Store) *Backend {
	return &Backend{kv: kv, now: time.Now}
}

func (b *Backend) Name() string { return "local" }

func (b *Backend) loadBooks() ([]entities.Book, error) {
	raw, ok, err := b.kv.Get(keyBooks)
	if err != nil {
		return nil, fmt.Errorf("read books: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var books []entities.Book
	if err := json.Unmarshal([]byte(raw), &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

func (b *Backend) storeBooks(books []entities.Book) error {
	raw, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("encode books: %w", err)
	}
	return b.kv.Set(keyBooks, string(raw))
}

func (b *Backend) loadClips() ([]entities.Clip, error) {
	raw, ok, err := b.kv.Get(keyClips)
	if err != nil {
		return nil, fmt.Errorf("read clips: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var clips []entities.Clip
	if err := json.Unmarshal([]byte(raw), &clips); err != nil {
		return nil, fmt.Errorf("decode clips: %w", err)
	}
	return clips, nil
}

func (b *Backend) storeClips(clips []entities.Clip) error {
	raw, err := json.Marshal(clips)
	if err != nil {
		return fmt.Errorf("encode clips: %w", err)
	}
	return b.kv.Set(keyClips, string(raw))
}

// SaveBook stores the book, assigning an id and timestamps when absent. A
// second save with the same id is a no-op that returns the stored record.
func (b *Backend) SaveBook(ctx context.Context, book *entities.Book) (*entities.Book, bool, error) {
	books, err := b.loadBooks()
	if err != nil {
		return nil, false, err
	}

	if book.ID != "" {
		for i := range books {
			if books[i].ID == book.ID {
				existing := books[i]
				return &existing, true, nil
			}
		}
	}

	saved := *book
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	now := b.now()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = now
	}

	books = append(books, saved)
	if err := b.storeBooks(books); err != nil {
		return nil, false, err
	}
	return &saved, false, nil
}

// GetAllBooks returns all books ordered by creation time descending.
func (b *Backend) GetAllBooks(ctx context.Context) ([]entities.Book, error) {
	books, err := b.loadBooks()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})
	return books, nil
}

func (b *Backend) GetBookByID(ctx context.Context, id string) (*entities.Book, error) {
	books, err := b.loadBooks()
	if err != nil {
		return nil, err
	}
	for i := range books {
		if books[i].ID == id {
			book := books[i]
			return &book, nil
		}
	}
	return nil, nil
}

// UpdateBook patches the stored book in place. Returns (nil, nil) when the
// book does not exist.
func (b *Backend) UpdateBook(ctx context.Context, id string, patch storage.BookPatch) (*entities.Book, error) {
	books, err := b.loadBooks()
	if err != nil {
		return nil, err
	}
	for i := range books {
		if books[i].ID != id {
			continue
		}
		if patch.Title != nil {
			books[i].Title = *patch.Title
		}
		if patch.Author != nil {
			books[i].Author = *patch.Author
		}
		if patch.CoverImage != nil {
			books[i].CoverImage = *patch.CoverImage
		}
		if patch.ISBN != nil {
			books[i].ISBN = *patch.ISBN
		}
		books[i].UpdatedAt = b.now()
		if err := b.storeBooks(books); err != nil {
			return nil, err
		}
		updated := books[i]
		return &updated, nil
	}
	return nil, nil
}

// RemoveBook deletes the book and cascades deletion of its clips.
func (b *Backend) RemoveBook(ctx context.Context, id string) error {
	books, err := b.loadBooks()
	if err != nil {
		return err
	}
	filtered := books[:0]
	for _, book := range books {
		if book.ID != id {
			filtered = append(filtered, book)
		}
	}
	if err := b.storeBooks(filtered); err != nil {
		return err
	}
	return b.DeleteClipsByBookID(ctx, id)
}

func (b *Backend) SetLastClipBook(ctx context.Context, book *entities.Book) error {
	raw, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("encode last clip book: %w", err)
	}
	return b.kv.Set(keyLastClipBook, string(raw))
}

func (b *Backend) GetLastClipBook(ctx context.Context) (*entities.Book, error) {
	raw, ok, err := b.kv.Get(keyLastClipBook)
	if err != nil {
		return nil, fmt.Errorf("read last clip book: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var book entities.Book
	if err := json.Unmarshal([]byte(raw), &book); err != nil {
		return nil, fmt.Errorf("decode last clip book: %w", err)
	}
	return &book, nil
}

// SaveClip stores the clip, assigning an id and creation time when absent,
// then records its book as the last clipped one when that book exists.
// Saving a clip whose id already exists replaces the stored record.
func (b *Backend) SaveClip(ctx context.Context, clip *entities.Clip) (*entities.Clip, error) {
	clips, err := b.loadClips()
	if err != nil {
		return nil, err
	}

	saved := *clip
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = b.now()
	}

	replaced := false
	for i := range clips {
		if clips[i].ID == saved.ID {
			clips[i] = saved
			replaced = true
			break
		}
	}
	if !replaced {
		clips = append(clips, saved)
	}
	if err := b.storeClips(clips); err != nil {
		return nil, err
	}

	if book, err := b.GetBookByID(ctx, saved.BookID); err == nil && book != nil {
		if err := b.SetLastClipBook(ctx, book); err != nil {
			return nil, err
		}
	}

	return &saved, nil
}

// GetAllClips returns all clips ordered by creation time descending.
func (b *Backend) GetAllClips(ctx context.Context) ([]entities.Clip, error) {
	clips, err := b.loadClips()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].CreatedAt.After(clips[j].CreatedAt)
	})
	return clips, nil
}

func (b *Backend) GetClipsByBookID(ctx context.Context, bookID string) ([]entities.Clip, error) {
	clips, err := b.GetAllClips(ctx)
	if err != nil {
		return nil, err
	}
	var matched []entities.Clip
	for _, clip := range clips {
		if clip.BookID == bookID {
			matched = append(matched, clip)
		}
	}
	return matched, nil
}

func (b *Backend) GetClipByID(ctx context.Context, id string) (*entities.Clip, error) {
	clips, err := b.loadClips()
	if err != nil {
		return nil, err
	}
	for i := range clips {
		if clips[i].ID == id {
			clip := clips[i]
			return &clip, nil
		}
	}
	return nil, nil
}

// UpdateClip replaces the stored clip with the same id. Updating an absent
// clip is an error: the caller named a specific record.
func (b *Backend) UpdateClip(ctx context.Context, clip *entities.Clip) error {
	clips, err := b.loadClips()
	if err != nil {
		return err
	}
	for i := range clips {
		if clips[i].ID == clip.ID {
			clips[i] = *clip
			return b.storeClips(clips)
		}
	}
	return fmt.Errorf("clip %s not found", clip.ID)
}

func (b *Backend) RemoveClip(ctx context.Context, id string) error {
	clips, err := b.loadClips()
	if err != nil {
		return err
	}
	filtered := clips[:0]
	for _, clip := range clips {
		if clip.ID != id {
			filtered = append(filtered, clip)
		}
	}
	return b.storeClips(filtered)
}

func (b *Backend) DeleteClipsByBookID(ctx context.Context, bookID string) error {
	clips, err := b.loadClips()
	if err != nil {
		return err
	}
	filtered := clips[:0]
	for _, clip := range clips {
		if clip.BookID != bookID {
			filtered = append(filtered, clip)
		}
	}
	return b.storeClips(filtered)
}

// ClearAll removes the three stored keys in one batched delete.
func (b *Backend) ClearAll(ctx context.Context) error {
	return b.kv.RemoveMany([]string{keyBooks, keyClips, keyLastClipBook})
}
