package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/domain/models"
	"github.com/mamadbah2/medimart-cart/internal/metrics"
	"github.com/mamadbah2/medimart-cart/internal/repository"
)

const (
	loadTimeout    = 5 * time.Second
	watcherTimeout = 5 * time.Second
)

// Poller runs a reconciliation job at a fixed interval until stopped.
type Poller interface {
	Start(job func()) error
	Stop()
}

// Synchronizer is the per-context service observers mount on. The first mount
// starts the cross-context watcher and the poller; the last unmount stops
// them again.
type Synchronizer struct {
	store   *Store
	watcher repository.Watcher
	poller  Poller
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu          sync.Mutex
	live        map[*Mount]struct{}
	stopWatch   context.CancelFunc
	watchDone   chan struct{}
	untrack     func()
	lastMu      sync.Mutex
	last        models.Cart
	initialized bool
}

// NewSynchronizer wires the lifecycle. watcher may be nil when the backend
// cannot report writes from other contexts; polling then carries them alone.
func NewSynchronizer(store *Store, watcher repository.Watcher, poller Poller, m *metrics.Metrics, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		store:   store,
		watcher: watcher,
		poller:  poller,
		metrics: m,
		logger:  logger,
		live:    make(map[*Mount]struct{}),
		last:    models.EmptyCart(),
	}
}

// Store returns the store observers read from.
func (s *Synchronizer) Store() *Store {
	return s.store
}

// Mounted returns the number of live mounts.
func (s *Synchronizer) Mounted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Mount attaches obs: it subscribes to changes, then loads the cart and
// refreshes obs once. The returned Mount must be unmounted on teardown.
func (s *Synchronizer) Mount(obs Observer) (*Mount, error) {
	m := &Mount{owner: s, observer: obs, done: make(chan struct{})}

	s.mu.Lock()
	if len(s.live) == 0 {
		if err := s.init(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	m.dispose = s.store.Notifier().Subscribe(func(Change) { m.refresh() })
	s.live[m] = struct{}{}
	s.metrics.ObserverMounted(1)
	s.mu.Unlock()

	m.refresh()
	return m, nil
}

// Reconcile reloads the record and broadcasts a poll change if it differs from
// the last cart this context saw. It reports whether a change was found.
func (s *Synchronizer) Reconcile(ctx context.Context) bool {
	current := s.store.Load(ctx)

	s.lastMu.Lock()
	changed := !current.Equal(s.last)
	if changed {
		s.last = current
	}
	s.lastMu.Unlock()

	if changed {
		s.logger.Debug("poll found cart change", zap.Int("units", current.TotalCount()))
		s.store.Notifier().Notify(Change{Source: SourcePoll})
	}
	return changed
}

// Close detaches every outstanding mount and tears everything down. Each
// detached mount's Done channel is closed.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for m := range s.live {
		m.detach()
	}
	s.live = make(map[*Mount]struct{})
	if s.initialized {
		s.teardown()
	}
}

// init must be called with s.mu held.
func (s *Synchronizer) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	current := s.store.Load(ctx)
	cancel()

	s.lastMu.Lock()
	s.last = current
	s.lastMu.Unlock()

	s.untrack = s.store.Notifier().Subscribe(s.track)

	if s.watcher != nil {
		watchCtx, stop := context.WithCancel(context.Background())
		s.stopWatch = stop
		s.watchDone = make(chan struct{})
		go s.watch(watchCtx, s.watchDone)
	}

	if s.poller != nil {
		err := s.poller.Start(func() {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			s.Reconcile(ctx)
		})
		if err != nil {
			s.teardown()
			return fmt.Errorf("start cart poller: %w", err)
		}
	}

	s.initialized = true
	s.logger.Info("cart synchronization started")
	return nil
}

// teardown must be called with s.mu held.
func (s *Synchronizer) teardown() {
	if s.poller != nil {
		s.poller.Stop()
	}

	if s.stopWatch != nil {
		s.stopWatch()
		select {
		case <-s.watchDone:
		case <-time.After(watcherTimeout):
			s.logger.Warn("timeout waiting for cart watcher to stop")
		}
		s.stopWatch = nil
		s.watchDone = nil
	}

	if s.untrack != nil {
		s.untrack()
		s.untrack = nil
	}

	s.initialized = false
	s.logger.Info("cart synchronization stopped")
}

func (s *Synchronizer) watch(ctx context.Context, done chan struct{}) {
	defer close(done)

	err := s.watcher.Watch(ctx, func() {
		s.store.Notifier().Notify(Change{Source: SourceRemote})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("cross-context watcher stopped, relying on polling", zap.Error(err))
	}
}

// track keeps the poll baseline in step with pushed changes so the poller
// does not re-announce them.
func (s *Synchronizer) track(ch Change) {
	if ch.Source == SourcePoll {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	current := s.store.Load(ctx)
	s.lastMu.Lock()
	s.last = current
	s.lastMu.Unlock()
}

func (s *Synchronizer) release(m *Mount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[m]; !ok {
		return
	}
	delete(s.live, m)
	if len(s.live) == 0 && s.initialized {
		s.teardown()
	}
}

// Mount is one observer attached to a Synchronizer.
type Mount struct {
	owner     *Synchronizer
	observer  Observer
	dispose   func()
	done      chan struct{}
	refreshMu sync.Mutex
	closed    atomic.Bool
	once      sync.Once
}

// Observer returns the mounted observer.
func (m *Mount) Observer() Observer {
	return m.observer
}

// Done is closed once the mount is detached, by Unmount or by the
// synchronizer closing.
func (m *Mount) Done() <-chan struct{} {
	return m.done
}

// Unmount disposes the subscription and, for the last mount, stops the
// watcher and poller. It is safe to call more than once.
func (m *Mount) Unmount() {
	m.once.Do(func() {
		m.detach()
		m.owner.release(m)
	})
}

// detach runs at most once per mount. It returns only after any refresh
// already in flight has finished, so the observer is never called afterwards.
func (m *Mount) detach() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.dispose()
	m.refreshMu.Lock()
	close(m.done)
	m.refreshMu.Unlock()
	m.owner.metrics.ObserverMounted(-1)
}

// refresh reloads the record and hands it to the observer. Refreshes of one
// mount never overlap, so a slow load cannot overwrite a newer one.
func (m *Mount) refresh() {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	if m.closed.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	current := m.owner.store.Load(ctx)

	if m.closed.Load() {
		return
	}
	m.observer.Refresh(current)
}
