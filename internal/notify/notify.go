// Package notify announces configuration changes to interested listeners.
//
// The config store calls Notify after a successful write, reset, migration or
// refresh. Delivery is fire-and-forget: Notify never blocks the caller and a
// missing or slow listener never affects the write that triggered it.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"confkeeper/pkg/logging"
)

// Kind identifies what changed the configuration.
type Kind string

const (
	KindWrite   Kind = "write"
	KindReset   Kind = "reset"
	KindMigrate Kind = "migrate"
	KindRefresh Kind = "refresh"
)

// Event is a "config updated" announcement.
type Event struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	// Name is the registry name of the configuration.
	Name string `json:"name"`
	// Path is the active configuration file.
	Path string    `json:"path"`
	Time time.Time `json:"time"`
}

// NewEvent creates an event with a fresh ID.
func NewEvent(kind Kind, name, path string) Event {
	return Event{
		ID:   uuid.NewString(),
		Kind: kind,
		Name: name,
		Path: path,
		Time: time.Now(),
	}
}

// Notifier receives change events. Implementations must not block.
type Notifier interface {
	Notify(event Event)
}

// Nop discards every event.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(Event) {}

// Observer is called for each delivered event.
type Observer func(event Event)

// Subscription represents an active observer.
type Subscription struct {
	id  uint64
	bus *Bus
}

// Unsubscribe removes the observer.
func (s *Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.unsubscribe(s.id)
	}
}

const defaultBufferSize = 64

// Bus delivers events to observers from a single background goroutine, in
// the order they were published.
type Bus struct {
	mu        sync.RWMutex
	observers map[uint64]Observer
	nextID    uint64
	closed    bool

	buffer chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewBus starts a Bus with room for bufferSize undelivered events.
// Events published while the buffer is full are dropped.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	b := &Bus{
		observers: make(map[uint64]Observer),
		buffer:    make(chan Event, bufferSize),
		done:      make(chan struct{}),
	}

	b.wg.Add(1)
	go b.run()
	return b
}

// Subscribe registers observer for all events.
func (b *Bus) Subscribe(observer Observer) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.observers[id] = observer

	return &Subscription{id: id, bus: b}
}

// Notify queues event for delivery without waiting for observers.
func (b *Bus) Notify(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.buffer <- event:
	default:
		logging.Warn("Notify", "Event buffer full, dropping %s event for %s", event.Kind, event.Name)
	}
}

// Close stops delivery after draining queued events. It is safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.observers, id)
}

func (b *Bus) run() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.buffer:
			b.deliver(event)
		case <-b.done:
			for {
				select {
				case event := <-b.buffer:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(event Event) {
	b.mu.RLock()
	observers := make([]Observer, 0, len(b.observers))
	for _, o := range b.observers {
		observers = append(observers, o)
	}
	b.mu.RUnlock()

	for _, o := range observers {
		b.safeCall(o, event)
	}
}

func (b *Bus) safeCall(o Observer, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("Notify", "Observer panicked handling %s event: %v", event.Kind, r)
		}
	}()
	o(event)
}
