package entities

import "time"

// Clip is a captured passage from a book. Page is validated at the service
// boundary; the storage layer persists whatever it is given.
type Clip struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	Text      string    `json:"text"`
	Page      int       `json:"page"`
	CreatedAt time.Time `json:"createdAt"`
}
