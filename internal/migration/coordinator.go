package migration

import (
	"context"
	"log"

	"github.com/clipshelf/clipshelf/internal/auth"
	"github.com/clipshelf/clipshelf/internal/storage"
	"github.com/clipshelf/clipshelf/internal/storage/local"
)

// Coordinator reacts to auth transitions: sign-in switches the facade to
// the remote backend and runs the configured strategy, sign-out switches
// back to local. The strategy is injected so the shipped noop and a real
// copy are interchangeable without touching call sites.
type Coordinator struct {
	store    *storage.Service
	localBE  *local.Backend
	strategy Strategy
}

// NewCoordinator wires the coordinator to the storage facade.
func NewCoordinator(store *storage.Service, localBE *local.Backend, strategy Strategy) *Coordinator {
	return &Coordinator{store: store, localBE: localBE, strategy: strategy}
}

// Attach subscribes to the auth provider and applies the current state
// immediately. Returns the unsubscribe func.
func (c *Coordinator) Attach(ctx context.Context, provider *auth.Provider) func() {
	c.HandleAuthChange(ctx, provider.CurrentState())
	return provider.Subscribe(func(st auth.State) {
		c.HandleAuthChange(ctx, st)
	})
}

// HandleAuthChange selects the backend for the new auth state and, on
// sign-in, runs the migration strategy.
func (c *Coordinator) HandleAuthChange(ctx context.Context, st auth.State) {
	if st.SignedIn() {
		c.store.SwitchToRemote()
		rep, err := c.strategy.Migrate(ctx, func(p Progress) {
			log.Printf("Migration (%s): %d/%d %s", c.strategy.Name(), p.Current, p.Total, p.Status)
		})
		if err != nil {
			log.Printf("Migration (%s) failed for user %s: %v", c.strategy.Name(), st.UserID, err)
			return
		}
		log.Printf("Migration (%s) done: total=%d processed=%d failed=%d", c.strategy.Name(), rep.Total, rep.Processed, rep.Failed)
		return
	}
	c.store.SwitchToLocal()
}

// MigrateLocalToRemote runs the configured strategy on demand.
func (c *Coordinator) MigrateLocalToRemote(ctx context.Context, onProgress ProgressFunc) (Report, error) {
	return c.strategy.Migrate(ctx, onProgress)
}

// ClearLocalData wipes the local backend's three keys. This is the one
// real side effect the shipped coordinator performs.
func (c *Coordinator) ClearLocalData(ctx context.Context) error {
	log.Printf("Migration: clearing local data")
	return c.localBE.ClearAll(ctx)
}
