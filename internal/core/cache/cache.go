package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Kind identifies a class of server-owned resource.
type Kind string

const (
	KindCase      Kind = "case"
	KindCaseList  Kind = "case_list"
	KindMessages  Kind = "messages"
	KindDocuments Kind = "documents"
	KindDocument  Kind = "document"
	KindUser      Kind = "user"
	KindUserList  Kind = "user_list"
)

// Key addresses one cache entry. Parent scopes case-owned collections
// (messages and documents carry the case id) so invalidation can cascade
// without explicit dependency edges.
type Key struct {
	Kind   Kind
	ID     string
	Parent string
}

func (k Key) String() string {
	return string(k.Kind) + "/" + k.Parent + "/" + k.ID
}

type Freshness int

const (
	Fresh Freshness = iota
	Stale
	Loading
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Loading:
		return "loading"
	}
	return "unknown"
}

// Entry is a point-in-time snapshot of one cached resource. Value is only
// meaningful when Present is true. LastError records the most recent
// failed fetch or mutation without evicting the value.
type Entry struct {
	Key       Key
	Value     any
	Present   bool
	Freshness Freshness
	LastError error
	FetchedAt time.Time
}

type Loader func(ctx context.Context) (any, error)

// Subscriber receives a snapshot after every entry change. Callbacks run
// synchronously under no lock; they must not call back into the store's
// write paths.
type Subscriber func(Entry)

// Recorder receives cache traffic counters. Nil-safe by construction: the
// store checks before every call.
type Recorder interface {
	CacheHit(kind string)
	CacheMiss(kind string)
	CacheStaleServe(kind string)
}

type entry struct {
	value     any
	present   bool
	loading   bool
	lastError error
	fetchedAt time.Time
}

// Store is the single shared mutable structure of the client. All
// components read and write resources through it; views never mutate
// entries directly.
type Store struct {
	ttl      time.Duration
	recorder Recorder

	mu      sync.Mutex
	entries map[Key]*entry
	subs    map[int]Subscriber
	nextSub int

	group singleflight.Group
}

func New(ttl time.Duration, recorder Recorder) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Store{
		ttl:      ttl,
		recorder: recorder,
		entries:  make(map[Key]*entry),
		subs:     make(map[int]Subscriber),
	}
}

// Get returns a snapshot without triggering any fetch.
func (s *Store) Get(key Key) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(key)
}

// Fetch implements the read-through policy: a fresh or loading value is
// returned as-is, a stale value is returned immediately while a refetch
// runs in the background, and only an absent value blocks on the loader.
// Concurrent fetches for the same key share one underlying call.
func (s *Store) Fetch(ctx context.Context, key Key, loader Loader) (any, error) {
	s.mu.Lock()
	snap := s.snapshotLocked(key)
	s.mu.Unlock()

	if snap.Present {
		switch snap.Freshness {
		case Fresh, Loading:
			s.record(func(r Recorder) { r.CacheHit(string(key.Kind)) })
			return snap.Value, nil
		case Stale:
			s.record(func(r Recorder) { r.CacheStaleServe(string(key.Kind)) })
			go s.refetch(context.WithoutCancel(ctx), key, loader)
			return snap.Value, nil
		}
	}

	value, err, _ := s.group.Do(key.String(), func() (any, error) {
		// One miss per loader call; joiners share the flight.
		s.record(func(r Recorder) { r.CacheMiss(string(key.Kind)) })
		v, err := loader(ctx)
		if err != nil {
			s.markError(key, err)
			return nil, err
		}
		s.Write(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) refetch(ctx context.Context, key Key, loader Loader) {
	_, _, _ = s.group.Do(key.String(), func() (any, error) {
		// Re-check under the flight: a concurrent caller may have
		// refreshed the entry already.
		if snap := s.Get(key); snap.Present && snap.Freshness == Fresh {
			return snap.Value, nil
		}
		v, err := loader(ctx)
		if err != nil {
			s.markError(key, err)
			return nil, err
		}
		s.Write(key, v)
		return v, nil
	})
}

// Write stores an authoritative value: present, fresh, error cleared.
func (s *Store) Write(key Key, value any) {
	s.mu.Lock()
	s.entries[key] = &entry{
		value:     value,
		present:   true,
		fetchedAt: time.Now(),
	}
	snap := s.snapshotLocked(key)
	s.mu.Unlock()
	s.notify(snap)
}

// SetLoading installs a predicted value and marks the entry loading. Any
// reader between here and the next Write or Restore observes the
// prediction.
func (s *Store) SetLoading(key Key, predicted any) {
	s.mu.Lock()
	s.entries[key] = &entry{
		value:     predicted,
		present:   true,
		loading:   true,
		fetchedAt: time.Now(),
	}
	snap := s.snapshotLocked(key)
	s.mu.Unlock()
	s.notify(snap)
}

// Restore puts an entry back to a previously observed snapshot, recording
// why. Restoring to the same snapshot repeatedly is a no-op in effect,
// which is what makes rollback idempotent.
func (s *Store) Restore(key Key, prev Entry, cause error) {
	s.mu.Lock()
	if !prev.Present {
		s.entries[key] = &entry{lastError: cause}
	} else {
		s.entries[key] = &entry{
			value:     prev.Value,
			present:   true,
			lastError: cause,
			fetchedAt: prev.FetchedAt,
		}
	}
	snap := s.snapshotLocked(key)
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) markError(key Key, err error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	// A failed fetch keeps the previous value so the view can show
	// stale-but-valid data next to an error indicator.
	e.lastError = err
	e.loading = false
	snap := s.snapshotLocked(key)
	s.mu.Unlock()
	s.notify(snap)
}

// Delete removes an entry outright (confirmed server-side deletion).
func (s *Store) Delete(key Key) {
	s.mu.Lock()
	delete(s.entries, key)
	snap := Entry{Key: key}
	s.mu.Unlock()
	s.notify(snap)
}

// DeleteScoped removes every entry scoped to the parent, whatever its
// kind. The cascade counterpart of Delete for a confirmed parent
// deletion: collections and their per-item entries go together.
func (s *Store) DeleteScoped(parent string) {
	var removed []Key
	s.mu.Lock()
	for key := range s.entries {
		if key.Parent == parent {
			delete(s.entries, key)
			removed = append(removed, key)
		}
	}
	s.mu.Unlock()
	for _, key := range removed {
		s.notify(Entry{Key: key})
	}
}

// Invalidate marks every entry of the kind stale. A non-empty parent
// narrows the cascade to entries scoped to that parent (a key whose ID
// matches also qualifies, so invalidating a case touches the case entry
// itself plus its messages and documents when called per kind).
func (s *Store) Invalidate(kind Kind, parent string) {
	var touched []Entry
	s.mu.Lock()
	for key, e := range s.entries {
		if key.Kind != kind {
			continue
		}
		if parent != "" && key.Parent != parent && key.ID != parent {
			continue
		}
		e.fetchedAt = time.Time{}
		touched = append(touched, s.snapshotLocked(key))
	}
	s.mu.Unlock()
	for _, snap := range touched {
		s.notify(snap)
	}
}

// Purge empties the store. Called on session teardown so no data leaks
// across sessions.
func (s *Store) Purge() {
	s.mu.Lock()
	cleared := make([]Key, 0, len(s.entries))
	for key := range s.entries {
		cleared = append(cleared, key)
	}
	s.entries = make(map[Key]*entry)
	s.mu.Unlock()
	for _, key := range cleared {
		s.notify(Entry{Key: key})
	}
}

// Subscribe registers a change observer and returns its cancel func.
// A notification already in flight when cancel returns may still be
// delivered; no new ones start after that.
func (s *Store) Subscribe(fn Subscriber) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked(key Key) Entry {
	e, ok := s.entries[key]
	if !ok {
		return Entry{Key: key}
	}
	snap := Entry{
		Key:       key,
		Value:     e.value,
		Present:   e.present,
		LastError: e.lastError,
		FetchedAt: e.fetchedAt,
	}
	switch {
	case e.loading:
		snap.Freshness = Loading
	case time.Since(e.fetchedAt) < s.ttl:
		snap.Freshness = Fresh
	default:
		snap.Freshness = Stale
	}
	return snap
}

func (s *Store) notify(snap Entry) {
	s.mu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) record(fn func(Recorder)) {
	if s.recorder != nil {
		fn(s.recorder)
	}
}
