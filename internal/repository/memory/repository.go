package memory

import (
	"context"
	"sync"

	"github.com/mamadbah2/medimart-cart/internal/repository"
)

// Store is a process-local key-value store shared by any number of slots.
// Each slot carries its own origin, so a Store behaves like browser storage
// shared between tabs: a write is announced to every other origin watching
// the same key.
type Store struct {
	mu       sync.RWMutex
	records  map[string][]byte
	watchers map[string][]*watcher
	writeErr error
}

type watcher struct {
	origin string
	ch     chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records:  make(map[string][]byte),
		watchers: make(map[string][]*watcher),
	}
}

// FailWrites makes every following write return err. Pass nil to recover.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Put stores a raw value under key without announcing it, e.g. to seed a
// legacy or corrupt record.
func (s *Store) Put(key string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = append([]byte(nil), payload...)
}

// Slot returns a handle on key for the given execution context.
func (s *Store) Slot(key, origin string) *Slot {
	return &Slot{store: s, key: key, origin: origin}
}

// Slot is a view of a single key from one execution context.
type Slot struct {
	store  *Store
	key    string
	origin string
}

// Key returns the record key.
func (s *Slot) Key() string { return s.key }

// Read returns the stored payload or repository.ErrNotFound.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	payload, ok := s.store.records[s.key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

// Write replaces the stored payload and wakes watchers of other origins.
func (s *Slot) Write(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.store.mu.Lock()
	if s.store.writeErr != nil {
		err := s.store.writeErr
		s.store.mu.Unlock()
		return err
	}
	s.store.records[s.key] = append([]byte(nil), payload...)
	targets := make([]*watcher, 0, len(s.store.watchers[s.key]))
	for _, w := range s.store.watchers[s.key] {
		if w.origin != s.origin {
			targets = append(targets, w)
		}
	}
	s.store.mu.Unlock()

	for _, w := range targets {
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Watch reports writes to this key made from any other origin.
func (s *Slot) Watch(ctx context.Context, onChange func()) error {
	w := &watcher{origin: s.origin, ch: make(chan struct{}, 1)}

	s.store.mu.Lock()
	s.store.watchers[s.key] = append(s.store.watchers[s.key], w)
	s.store.mu.Unlock()

	defer func() {
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		list := s.store.watchers[s.key]
		for i, candidate := range list {
			if candidate == w {
				s.store.watchers[s.key] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.ch:
			onChange()
		}
	}
}

var (
	_ repository.Slot    = (*Slot)(nil)
	_ repository.Watcher = (*Slot)(nil)
)
