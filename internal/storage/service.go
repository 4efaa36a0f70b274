package storage

import (
	"context"
	"log"
	"sync"

	"github.com/clipshelf/clipshelf/internal/entities"
)

// Service is the facade in front of the two backends. Both backends are
// constructed up front and injected; switching swaps the active pointer
// under a lock, so an in-flight call completes against the backend it
// started with.
//
// Multi-item reads degrade to an empty collection when the active backend
// fails: list screens keep rendering at the cost of hiding the read failure,
// which is logged. Mutating operations propagate their errors.
type Service struct {
	mu     sync.RWMutex
	local  Backend
	remote Backend
	active Backend
}

// NewService creates a facade with the local backend active.
func NewService(local, remote Backend) *Service {
	return &Service{local: local, remote: remote, active: local}
}

// SwitchToRemote makes the remote backend active for subsequent calls.
func (s *Service) SwitchToRemote() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != s.remote {
		log.Printf("Storage: switching active backend to %s", s.remote.Name())
		s.active = s.remote
	}
}

// SwitchToLocal makes the local backend active for subsequent calls.
func (s *Service) SwitchToLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != s.local {
		log.Printf("Storage: switching active backend to %s", s.local.Name())
		s.active = s.local
	}
}

// UsingRemote reports whether the remote backend is currently active.
func (s *Service) UsingRemote() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active == s.remote
}

// Active returns the currently active backend.
func (s *Service) Active() Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Local returns the local backend regardless of which one is active. The
// migration coordinator reads from it while the remote backend is active.
func (s *Service) Local() Backend {
	return s.local
}

// Remote returns the remote backend regardless of which one is active.
func (s *Service) Remote() Backend {
	return s.remote
}

func (s *Service) SaveBook(ctx context.Context, book *entities.Book) (*entities.Book, bool, error) {
	return s.Active().SaveBook(ctx, book)
}

func (s *Service) GetAllBooks(ctx context.Context) ([]entities.Book, error) {
	books, err := s.Active().GetAllBooks(ctx)
	if err != nil {
		log.Printf("Storage: GetAllBooks failed, returning empty list: %v", err)
		return []entities.Book{}, nil
	}
	return books, nil
}

func (s *Service) GetBookByID(ctx context.Context, id string) (*entities.Book, error) {
	return s.Active().GetBookByID(ctx, id)
}

func (s *Service) UpdateBook(ctx context.Context, id string, patch BookPatch) (*entities.Book, error) {
	return s.Active().UpdateBook(ctx, id, patch)
}

func (s *Service) RemoveBook(ctx context.Context, id string) error {
	return s.Active().RemoveBook(ctx, id)
}

// DeleteBook is an alias for RemoveBook kept for callers that use delete
// terminology.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	return s.RemoveBook(ctx, id)
}

func (s *Service) SetLastClipBook(ctx context.Context, book *entities.Book) error {
	return s.Active().SetLastClipBook(ctx, book)
}

func (s *Service) GetLastClipBook(ctx context.Context) (*entities.Book, error) {
	return s.Active().GetLastClipBook(ctx)
}

func (s *Service) SaveClip(ctx context.Context, clip *entities.Clip) (*entities.Clip, error) {
	return s.Active().SaveClip(ctx, clip)
}

func (s *Service) GetAllClips(ctx context.Context) ([]entities.Clip, error) {
	clips, err := s.Active().GetAllClips(ctx)
	if err != nil {
		log.Printf("Storage: GetAllClips failed, returning empty list: %v", err)
		return []entities.Clip{}, nil
	}
	return clips, nil
}

func (s *Service) GetClipsByBookID(ctx context.Context, bookID string) ([]entities.Clip, error) {
	clips, err := s.Active().GetClipsByBookID(ctx, bookID)
	if err != nil {
		log.Printf("Storage: GetClipsByBookID failed for book %s, returning empty list: %v", bookID, err)
		return []entities.Clip{}, nil
	}
	return clips, nil
}

func (s *Service) GetClipByID(ctx context.Context, id string) (*entities.Clip, error) {
	return s.Active().GetClipByID(ctx, id)
}

func (s *Service) UpdateClip(ctx context.Context, clip *entities.Clip) error {
	return s.Active().UpdateClip(ctx, clip)
}

func (s *Service) RemoveClip(ctx context.Context, id string) error {
	return s.Active().RemoveClip(ctx, id)
}

func (s *Service) DeleteClipsByBookID(ctx context.Context, bookID string) error {
	return s.Active().DeleteClipsByBookID(ctx, bookID)
}
