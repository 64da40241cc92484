// ABOUTME: Broadcast shutdown coordinator with fan-out to subscribers
// ABOUTME: Each subscription buffers at most one pending, not-yet-observed signal
package shutdown

import "sync"

// Coordinator broadcasts a payload-free shutdown signal to every live
// subscription. Signal never blocks: a subscription that already holds a
// pending signal is skipped, so repeated signals collapse into one
// observation per subscriber.
type Coordinator struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{subs: make(map[int]chan struct{})}
}

// Subscription is one receiver's handle on the coordinator. Only signals
// sent after Subscribe are observable through it.
type Subscription struct {
	coord *Coordinator
	id    int
	ch    chan struct{}
}

// Subscribe registers a new receiver.
func (c *Coordinator) Subscribe() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	ch := make(chan struct{}, 1)
	c.subs[id] = ch
	return &Subscription{coord: c, id: id, ch: ch}
}

// Signal broadcasts to every live subscription. Safe to call concurrently
// and repeatedly; with no subscribers it is a no-op.
func (c *Coordinator) Signal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (c *Coordinator) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Done returns the channel a shutdown signal arrives on.
func (s *Subscription) Done() <-chan struct{} {
	return s.ch
}

// Derive creates an independent subscription on the same coordinator, so a
// single broadcast reaches both the parent and the derived handle.
func (s *Subscription) Derive() *Subscription {
	return s.coord.Subscribe()
}

// Cancel removes the subscription from the coordinator. Signals already
// pending remain readable; Cancel is idempotent.
func (s *Subscription) Cancel() {
	s.coord.mu.Lock()
	defer s.coord.mu.Unlock()
	delete(s.coord.subs, s.id)
}
