package cart

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/metrics"
)

// Source says how a change was detected.
type Source string

const (
	// SourceLocal is a successful write made by this execution context.
	SourceLocal Source = "local"
	// SourceRemote is a write reported by the backend from another context.
	SourceRemote Source = "remote"
	// SourcePoll is a difference found by the polling fallback.
	SourcePoll Source = "poll"
)

// Change is delivered to listeners whenever the cart may have changed.
type Change struct {
	Source Source
	At     time.Time
}

// Listener reacts to a change. Listeners re-read the cart themselves.
type Listener func(Change)

type subscription struct {
	id     uint64
	fn     Listener
	active atomic.Bool
}

// Notifier fans change signals out to every listener in this execution context.
type Notifier struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    []*subscription
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewNotifier creates a notifier with no listeners.
func NewNotifier(m *metrics.Metrics, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{metrics: m, logger: logger}
}

// Subscribe registers fn and returns its disposer. Calling the disposer more
// than once is harmless; once it returns, fn is never invoked again by a
// Notify that starts afterwards.
func (n *Notifier) Subscribe(fn Listener) (dispose func()) {
	n.mu.Lock()
	n.nextID++
	sub := &subscription{id: n.nextID, fn: fn}
	sub.active.Store(true)
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == sub.id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Len returns the number of registered listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Notify delivers ch synchronously, in subscription order. A panicking
// listener is logged and does not stop delivery to the others.
func (n *Notifier) Notify(ch Change) {
	if ch.At.IsZero() {
		ch.At = time.Now()
	}

	n.mu.RLock()
	subs := make([]*subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	n.metrics.Change(string(ch.Source))

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		n.deliver(sub, ch)
	}
}

func (n *Notifier) deliver(sub *subscription, ch Change) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("cart listener panicked",
				zap.String("source", string(ch.Source)),
				zap.Any("panic", r))
		}
	}()
	sub.fn(ch)
}
