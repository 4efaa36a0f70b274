// Package migration coordinates switching the active storage backend on
// auth transitions and copying data between backends.
package migration

import (
	"context"
	"fmt"
	"log"

	"github.com/clipshelf/clipshelf/internal/storage"
)

// Status of a migration run as reported through Progress.
type Status string

const (
	StatusMigrating Status = "migrating"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Progress is a point-in-time snapshot delivered to the progress callback.
// The shape is identical for every strategy so call sites never change when
// the strategy does.
type Progress struct {
	Total   int    `json:"total"`
	Current int    `json:"current"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Report summarizes a completed migration run.
type Report struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// ProgressFunc receives progress snapshots. May be nil.
type ProgressFunc func(Progress)

// Strategy performs the data copy between backends.
type Strategy interface {
	Name() string
	Migrate(ctx context.Context, onProgress ProgressFunc) (Report, error)
}

func report(onProgress ProgressFunc, p Progress) {
	if onProgress != nil {
		onProgress(p)
	}
}

// NoopStrategy is the shipped default: with anonymous-first accounts every
// device session is already backed by the remote store, so there is nothing
// to copy. It reports an immediately-completed empty run.
type NoopStrategy struct{}

func (NoopStrategy) Name() string { return "noop" }

func (NoopStrategy) Migrate(ctx context.Context, onProgress ProgressFunc) (Report, error) {
	report(onProgress, Progress{Status: StatusCompleted})
	return Report{}, nil
}

// CopyStrategy copies all local books and clips to the remote backend.
// Books deduplicate through the remote backend's isbn check, so re-running
// a partially failed migration converges.
type CopyStrategy struct {
	source storage.Backend
	target storage.Backend
}

// NewCopyStrategy creates a batched local-to-remote copy.
func NewCopyStrategy(source, target storage.Backend) *CopyStrategy {
	return &CopyStrategy{source: source, target: target}
}

func (s *CopyStrategy) Name() string { return "copy" }

func (s *CopyStrategy) Migrate(ctx context.Context, onProgress ProgressFunc) (Report, error) {
	books, err := s.source.GetAllBooks(ctx)
	if err != nil {
		report(onProgress, Progress{Status: StatusFailed, Error: err.Error()})
		return Report{}, fmt.Errorf("read source books: %w", err)
	}
	clips, err := s.source.GetAllClips(ctx)
	if err != nil {
		report(onProgress, Progress{Status: StatusFailed, Error: err.Error()})
		return Report{}, fmt.Errorf("read source clips: %w", err)
	}

	rep := Report{Total: len(books) + len(clips)}
	report(onProgress, Progress{Total: rep.Total, Status: StatusMigrating})

	// Local book ids are client-generated and differ from the server-assigned
	// ones, so clip foreign keys are remapped as books land.
	idMap := make(map[string]string, len(books))

	for i := range books {
		if err := ctx.Err(); err != nil {
			report(onProgress, Progress{Total: rep.Total, Current: rep.Processed, Status: StatusFailed, Error: err.Error()})
			return rep, err
		}
		saved, existed, err := s.target.SaveBook(ctx, &books[i])
		if err != nil {
			log.Printf("Migration: failed to copy book %s (%s): %v", books[i].ID, books[i].Title, err)
			rep.Failed++
		} else {
			idMap[books[i].ID] = saved.ID
			if existed {
				log.Printf("Migration: book %s already present remotely as %s", books[i].ID, saved.ID)
			}
		}
		rep.Processed++
		report(onProgress, Progress{Total: rep.Total, Current: rep.Processed, Status: StatusMigrating})
	}

	for i := range clips {
		if err := ctx.Err(); err != nil {
			report(onProgress, Progress{Total: rep.Total, Current: rep.Processed, Status: StatusFailed, Error: err.Error()})
			return rep, err
		}
		clip := clips[i]
		if mapped, ok := idMap[clip.BookID]; ok {
			clip.BookID = mapped
		}
		if _, err := s.target.SaveClip(ctx, &clip); err != nil {
			log.Printf("Migration: failed to copy clip %s: %v", clips[i].ID, err)
			rep.Failed++
		}
		rep.Processed++
		report(onProgress, Progress{Total: rep.Total, Current: rep.Processed, Status: StatusMigrating})
	}

	report(onProgress, Progress{Total: rep.Total, Current: rep.Processed, Status: StatusCompleted})
	return rep, nil
}
