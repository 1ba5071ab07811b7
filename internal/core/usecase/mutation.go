package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
)

// MutationRecorder counts mutation outcomes. Nil-safe by construction.
type MutationRecorder interface {
	MutationReconciled(kind string)
	MutationRolledBack(kind string)
}

// Mutation is one optimistic write against a single cache key.
//
// Predict derives the locally predicted value from the entry as it stands
// when the mutation's turn comes (not when it was enqueued). Returning
// ok=false skips the optimistic phase; the mutation is still serialized
// and its result still written. Apply performs the server call and
// returns the authoritative value for the key. A nil value on success
// means the server confirmed the change but nothing authoritative can
// be derived locally (the entry was never fetched); the key is dropped
// instead of written, so the next read loads the true state.
type Mutation struct {
	Key     cache.Key
	Predict func(prev cache.Entry) (predicted any, ok bool)
	Apply   func(ctx context.Context, prev cache.Entry) (any, error)
}

// MutationCoordinator serializes mutations per key in FIFO order and
// drives the predict/apply/reconcile-or-rollback cycle against the cache.
// Mutations on distinct keys proceed concurrently.
type MutationCoordinator struct {
	store    *cache.Store
	recorder MutationRecorder
	log      *slog.Logger

	mu    sync.Mutex
	tails map[cache.Key]chan struct{}
}

func NewMutationCoordinator(store *cache.Store, recorder MutationRecorder, log *slog.Logger) *MutationCoordinator {
	return &MutationCoordinator{
		store:    store,
		recorder: recorder,
		log:      log,
		tails:    make(map[cache.Key]chan struct{}),
	}
}

// Mutate runs m once its predecessors on the same key have finished.
// On success the applied value is written fresh and returned. On failure
// the entry is restored to its pre-mutation snapshot and the error is
// returned unwrapped, so callers can branch on its kind.
func (c *MutationCoordinator) Mutate(ctx context.Context, m Mutation) (any, error) {
	release, err := c.acquire(ctx, m.Key)
	if err != nil {
		return nil, err
	}
	defer release()

	// Snapshot after acquiring the slot so the prediction builds on the
	// previous mutation's reconciled value, not on what the caller saw
	// when it enqueued.
	prev := c.store.Get(m.Key)

	if m.Predict != nil {
		if predicted, ok := m.Predict(prev); ok {
			c.store.SetLoading(m.Key, predicted)
		}
	}

	value, err := m.Apply(ctx, prev)
	if err != nil {
		c.store.Restore(m.Key, prev, err)
		if c.recorder != nil {
			c.recorder.MutationRolledBack(string(m.Key.Kind))
		}
		c.log.Warn("mutation_rolled_back", "key", m.Key.String(), "error", err)
		return nil, err
	}

	if value == nil {
		c.store.Delete(m.Key)
	} else {
		c.store.Write(m.Key, value)
	}
	if c.recorder != nil {
		c.recorder.MutationReconciled(string(m.Key.Kind))
	}
	return value, nil
}

// acquire joins the per-key FIFO chain. Each mutation closes its own slot
// channel when done; the successor blocks on it. A caller whose context
// expires while queued leaves a goroutine behind to pass the baton, so
// the chain never wedges.
func (c *MutationCoordinator) acquire(ctx context.Context, key cache.Key) (release func(), err error) {
	slot := make(chan struct{})
	c.mu.Lock()
	prev := c.tails[key]
	c.tails[key] = slot
	c.mu.Unlock()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			go func() {
				<-prev
				c.release(key, slot)
			}()
			return nil, ctx.Err()
		}
	}
	return func() { c.release(key, slot) }, nil
}

func (c *MutationCoordinator) release(key cache.Key, slot chan struct{}) {
	c.mu.Lock()
	if c.tails[key] == slot {
		delete(c.tails, key)
	}
	c.mu.Unlock()
	close(slot)
}
