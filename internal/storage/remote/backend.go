package remote

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"sort"

	"github.com/clipshelf/clipshelf/internal/entities"
	"github.com/clipshelf/clipshelf/internal/storage"
)

// UserIDFunc reports the currently signed-in user id, or "" when there is
// none. Injected by the auth provider.
type UserIDFunc func() string

// Backend translates the storage contract into per-user row operations.
// Every operation requires a user id and fails with ErrNotAuthenticated
// without one.
type Backend struct {
	client *Client
	userID UserIDFunc
}

var _ storage.Backend = (*Backend)(nil)

// New creates a remote backend using the given row-API client.
func New(client *Client, userID UserIDFunc) *Backend {
	return &Backend{client: client, userID: userID}
}

func (b *Backend) Name() string { return "remote" }

func (b *Backend) uid() (string, error) {
	id := b.userID()
	if id == "" {
		return "", storage.ErrNotAuthenticated
	}
	return id, nil
}

// SaveBook inserts the book unless a row with the same isbn already exists
// for the user. The existence check is not transactional; a 409 from the
// insert (servers enforcing uniqueness on (user_id, isbn)) is treated as the
// same dedup signal.
func (b *Backend) SaveBook(ctx context.Context, book *entities.Book) (*entities.Book, bool, error) {
	uid, err := b.uid()
	if err != nil {
		return nil, false, err
	}

	q := url.Values{}
	q.Set("isbn", book.ISBN)
	existing, err := b.client.listBooks(ctx, uid, q)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		found := existing[0].toBook()
		return &found, true, nil
	}

	row := bookToRow(*book, uid)
	row.ID = "" // server-assigned
	created, err := b.client.insertBook(ctx, row)
	if err == ErrConflict {
		log.Printf("Remote: book insert conflicted for isbn %s, re-reading existing row", book.ISBN)
		rows, rerr := b.client.listBooks(ctx, uid, q)
		if rerr != nil || len(rows) == 0 {
			return nil, false, err
		}
		found := rows[0].toBook()
		return &found, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	saved := created.toBook()
	return &saved, false, nil
}

// GetAllBooks returns the user's books ordered by creation time descending.
// No pagination.
func (b *Backend) GetAllBooks(ctx context.Context) ([]entities.Book, error) {
	uid, err := b.uid()
	if err != nil {
		return nil, err
	}
	rows, err := b.client.listBooks(ctx, uid, nil)
	if err != nil {
		return nil, err
	}
	books := make([]entities.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.toBook())
	}
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})
	return books, nil
}

func (b *Backend) GetBookByID(ctx context.Context, id string) (*entities.Book, error) {
	uid, err := b.uid()
	if err != nil {
		return nil, err
	}
	row, err := b.client.getBook(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	book := row.toBook()
	return &book, nil
}

// UpdateBook patches only the fields set in the patch; the row keeps its
// other fields. Returns (nil, nil) when the row does not exist.
func (b *Backend) UpdateBook(ctx context.Context, id string, patch storage.BookPatch) (*entities.Book, error) {
	uid, err := b.uid()
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Author != nil {
		fields["author"] = *patch.Author
	}
	if patch.CoverImage != nil {
		fields["cover_image"] = *patch.CoverImage
	}
	if patch.ISBN != nil {
		fields["isbn"] = *patch.ISBN
	}
	if len(fields) == 0 {
		return b.GetBookByID(ctx, id)
	}

	row, err := b.client.patchBook(ctx, uid, id, fields)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	book := row.toBook()
	return &book, nil
}

// RemoveBook deletes the book row, then cascades to the book's clips. The
// cascade is application-level: when the clip delete fails the book stays
// deleted and the error is reported without rollback.
func (b *Backend) RemoveBook(ctx context.Context, id string) error {
	uid, err := b.uid()
	if err != nil {
		return err
	}
	if err := b.client.deleteBook(ctx, uid, id); err != nil {
		return err
	}
	if err := b.DeleteClipsByBookID(ctx, id); err != nil {
		log.Printf("Remote: book %s deleted but clip cascade failed: %v", id, err)
		return err
	}
	return nil
}

func (b *Backend) SetLastClipBook(ctx context.Context, book *entities.Book) error {
	uid, err := b.uid()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return b.client.upsertSetting(ctx, uid, entities.SettingKeyLastClipBook, string(raw))
}

func (b *Backend) GetLastClipBook(ctx context.Context) (*entities.Book, error) {
	uid, err := b.uid()
	if err != nil {
		return nil, err
	}
	row, err := b.client.getSetting(ctx, uid, entities.SettingKeyLastClipBook)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	var book entities.Book
	if err := json.Unmarshal([]byte(row.Value), &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// SaveClip inserts the clip row, then re-reads the user's books and updates
// the last-clip-book setting when the referenced book exists. The setting
// update is read-modify-write with no locking; concurrent saves are
// last-writer-wins, which is acceptable for a single-user convenience
// feature. A failed setting update is logged and does not fail the save.
func (b *Backend) SaveClip(ctx context.Context, clip *entities.Clip) (*entities.Clip, error) {
	uid, err := b.uid()
	if err != nil {
		return nil, err
	}

	row := clipToRow(*clip, uid)
	row.ID = "" // server-assigned
	created, err := b.client.insertClip(ctx, row)
	if err != nil {
		return nil, err
	}
	saved := created.toClip()

	books, err := b.GetAllBooks(ctx)
	if err != nil {
		log.Printf("Remote: could not refresh last clip book after saving clip %s: %v", saved.ID, err)
		return &saved, nil
	}
	for i := range books {
		if books[i].ID == saved.BookID {
			if err := b.SetLastClipBook(ctx, &books[i]); err != nil {
				log.Printf("Remote: failed to update last clip book for %s: %v", saved.BookID, err)
			}
			break
		}
	}

	return &saved, nil
}

func (b *Backend) GetAllClips(ctx context.Context) ([]entities.Clip, error) {
	uid, err := b.uid()
	if err != nil {
		return nil, err
	}
	rows, err := b.client.listClips(ctx, uid, nil)
	if err != nil {
		return nil, err
	}
	clips := make([]entities.Clip, 0, len(rows))
	for _, row := range rows {
		clips = append(clips, row.toClip())
	}
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].CreatedAt.After(clips[j].CreatedAt)
	})
	return clips, nil
}

func (b *Backend) GetClipsByBookID(ctx context.Context, bookID string) ([]entities.Clip, error) {
	uid, err := b.uid()
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("book_id", bookID)
	rows, err := b.client.listClips(ctx, uid, q)
	if err != nil {
		return nil, err
	}
	clips := make([]entities.Clip, 0, len(rows))
	for _, row := range rows {
		clips = append(clips, row.toClip())
	}
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].CreatedAt.After(clips[j].CreatedAt)
	})
	return clips, nil
}

func (b *Backend) GetClipByID(ctx context.Context, id string) (*entities.Clip, error) {
	uid, err := b.uid()
	if err != nil {
		return nil, err
	}
	row, err := b.client.getClip(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	clip := row.toClip()
	return &clip, nil
}

func (b *Backend) UpdateClip(ctx context.Context, clip *entities.Clip) error {
	uid, err := b.uid()
	if err != nil {
		return err
	}
	return b.client.updateClip(ctx, uid, clip.ID, map[string]any{
		"text": clip.Text,
		"page": clip.Page,
	})
}

func (b *Backend) RemoveClip(ctx context.Context, id string) error {
	uid, err := b.uid()
	if err != nil {
		return err
	}
	return b.client.deleteClip(ctx, uid, id)
}

func (b *Backend) DeleteClipsByBookID(ctx context.Context, bookID string) error {
	uid, err := b.uid()
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("book_id", bookID)
	return b.client.deleteClips(ctx, uid, q)
}
