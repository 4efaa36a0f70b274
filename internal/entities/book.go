package entities

import (
	"strings"
	"time"
)

// ManualISBNPrefix marks synthetic ISBNs assigned to manually entered books
// that have no real barcode.
const ManualISBNPrefix = "manual-"

// Book is a title in the user's personal library. IDs are client-generated
// (uuid) for local entries and server-assigned for remote rows.
type Book struct {
	ID         string    `json:"id"`
	ISBN       string    `json:"isbn"`
	Title      string    `json:"title"`
	Author     string    `json:"author,omitempty"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HasManualISBN reports whether the book carries a synthetic placeholder ISBN.
func (b Book) HasManualISBN() bool {
	return strings.HasPrefix(b.ISBN, ManualISBNPrefix)
}
