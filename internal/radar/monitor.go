package radar

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/mmwave/internal/protocol"
)

// Monitor runs the driver's poll loop and fans a snapshot out to every
// subscriber after each batch of accepted frames. It is the link's single
// reader while running; other goroutines still send commands through the
// driver, which serialises them on its I/O mutex.
type Monitor struct {
	driver       *Driver
	subscribers  map[string]chan Snapshot
	subscriberMu sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// NewMonitor creates a Monitor for d.
func NewMonitor(d *Driver) *Monitor {
	return &Monitor{
		driver:      d,
		subscribers: make(map[string]chan Snapshot),
	}
}

// Driver returns the monitored driver.
func (m *Monitor) Driver() *Driver { return m.driver }

// Subscribe returns an id and a channel that receives snapshots. A
// subscriber that is not ready when a snapshot is published misses it.
// After Close the channel is returned already closed.
func (m *Monitor) Subscribe() (string, chan Snapshot) {
	id := uuid.NewString()
	ch := make(chan Snapshot, 1)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if m.isClosing() {
		close(ch)
		return id, ch
	}
	m.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes the subscriber's channel.
func (m *Monitor) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// Subscribers returns the number of active subscribers.
func (m *Monitor) Subscribers() int {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	return len(m.subscribers)
}

// Run polls the link until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	err := m.driver.Run(ctx, func([]protocol.Frame) {
		m.publish(m.driver.Snapshot())
	})
	if m.isClosing() {
		return nil
	}
	return err
}

func (m *Monitor) isClosing() bool {
	m.closingMu.Lock()
	defer m.closingMu.Unlock()
	return m.closing
}

func (m *Monitor) publish(s Snapshot) {
	if m.isClosing() {
		return
	}
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- s:
		default:
			// skip slow subscribers so the poll loop never blocks
		}
	}
}

// Close closes every subscriber channel. Run keeps polling until its
// context is cancelled but publishes nothing more.
func (m *Monitor) Close() error {
	m.closingMu.Lock()
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	return nil
}
