// Package scheduler runs the periodic local-to-remote sync.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/clipshelf/clipshelf/internal/auth"
	"github.com/clipshelf/clipshelf/internal/config"
	"github.com/clipshelf/clipshelf/internal/migration"
)

// SyncScheduler periodically runs the migration strategy while a user is
// signed in, so clips captured during connectivity gaps still reach the
// remote store.
type SyncScheduler struct {
	cfg         config.Sync
	coordinator *migration.Coordinator
	provider    *auth.Provider

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	jobs       sync.WaitGroup
	isRunning  bool
	isSyncing  bool
	runCtx     context.Context
	cancelFunc context.CancelFunc
}

// NewSyncScheduler creates a new scheduler instance.
func NewSyncScheduler(cfg config.Sync, coordinator *migration.Coordinator, provider *auth.Provider) *SyncScheduler {
	return &SyncScheduler{
		cfg:         cfg,
		coordinator: coordinator,
		provider:    provider,
		cron:        cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if sync is enabled.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.cfg.Enabled {
		log.Printf("Sync scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	s.runCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true
	log.Printf("Sync scheduler: started with schedule %q", s.cfg.Schedule)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish. The mutex
// is held only for the state flip, never across the wait: a running job needs
// it for its own cleanup.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-s.cron.Stop().Done()
	s.jobs.Wait()
	log.Printf("Sync scheduler: stopped")
}

func (s *SyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Sync scheduler: previous run still in progress, skipping")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	s.jobs.Add(1)
	defer s.jobs.Done()
	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	if !s.provider.CurrentState().SignedIn() {
		log.Printf("Sync scheduler: not signed in, skipping run")
		return
	}

	s.mu.RLock()
	ctx := s.runCtx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	report, err := s.coordinator.MigrateLocalToRemote(ctx, nil)
	if err != nil {
		log.Printf("Sync scheduler: sync failed: %v", err)
		return
	}
	log.Printf("Sync scheduler: sync done, total=%d processed=%d failed=%d", report.Total, report.Processed, report.Failed)
}
