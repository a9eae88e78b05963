package workspace

import (
	"sync"

	"github.com/google/uuid"
)

// Update pairs a repository path with its freshly applied snapshot.
type Update struct {
	Path     string
	Snapshot Snapshot
}

// Subscription is a consumer's handle on the registry's update stream.
type Subscription struct {
	id string
	ch chan Update

	// cancel detaches the subscription from the registry.
	cancel func(id string)

	// mu guards closed so a concurrent deliver never hits a closed channel.
	mu     sync.Mutex
	closed bool
}

// newSubscription creates a subscription with a buffered update channel.
func newSubscription(buffer int, cancel func(id string)) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	return &Subscription{
		id:     uuid.NewString(),
		ch:     make(chan Update, buffer),
		cancel: cancel,
	}
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Updates returns the stream of snapshot updates.
// The channel is closed when the subscription is cancelled or the registry
// closes.
func (s *Subscription) Updates() <-chan Update {
	return s.ch
}

// Cancel detaches the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.cancel(s.id)
}

// deliver sends an update without blocking. A consumer that stops reading
// loses updates rather than stalling the engine; the next update carries a
// complete snapshot, so nothing is left inconsistent.
func (s *Subscription) deliver(u Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- u:
		return true
	default:
		return false
	}
}

// closeStream closes the update channel exactly once.
func (s *Subscription) closeStream() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
