package remote

import (
	"time"

	"github.com/clipshelf/clipshelf/internal/entities"
)

// bookRow is the remote schema for a book. Field names are snake_case on
// the wire.
type bookRow struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	ISBN       string    `json:"isbn"`
	Title      string    `json:"title"`
	Author     string    `json:"author,omitempty"`
	CoverImage string    `json:"cover_image,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

func (r bookRow) toBook() entities.Book {
	return entities.Book{
		ID:         r.ID,
		ISBN:       r.ISBN,
		Title:      r.Title,
		Author:     r.Author,
		CoverImage: r.CoverImage,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func bookToRow(book entities.Book, userID string) bookRow {
	return bookRow{
		ID:         book.ID,
		UserID:     userID,
		ISBN:       book.ISBN,
		Title:      book.Title,
		Author:     book.Author,
		CoverImage: book.CoverImage,
		CreatedAt:  book.CreatedAt,
		UpdatedAt:  book.UpdatedAt,
	}
}

// clipRow is the remote schema for a clip.
type clipRow struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Text      string    `json:"text"`
	Page      int       `json:"page"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (r clipRow) toClip() entities.Clip {
	return entities.Clip{
		ID:        r.ID,
		BookID:    r.BookID,
		Text:      r.Text,
		Page:      r.Page,
		CreatedAt: r.CreatedAt,
	}
}

func clipToRow(clip entities.Clip, userID string) clipRow {
	return clipRow{
		ID:        clip.ID,
		UserID:    userID,
		BookID:    clip.BookID,
		Text:      clip.Text,
		Page:      clip.Page,
		CreatedAt: clip.CreatedAt,
	}
}

// settingRow is one row of the generic per-user settings table.
type settingRow struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}
