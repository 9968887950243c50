package collection

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/menagerie/internal/game/monster"
)

// EventKind labels a ledger notification.
type EventKind string

const (
	// EventMinted announces a freshly created monster.
	EventMinted EventKind = "monster.minted"
	// EventTransferred announces an ownership change.
	EventTransferred EventKind = "monster.transferred"
)

// Event is one ledger notification.
type Event struct {
	ID        string
	Kind      EventKind
	TokenID   uint64
	Owner     string
	PrevOwner string // set on transfers
	Name      string
	Rarity    monster.Rarity
	At        time.Time
}

// defaultBuffer is the per-subscriber channel depth used when Subscribe is
// called with a non-positive buffer.
const defaultBuffer = 64

// newEventID allocates a unique event identifier.
func newEventID() string {
	return uuid.NewString()
}

// Bus fans ledger events out to subscribers over buffered channels.
//
// Publish never blocks: a subscriber whose buffer is full misses that event.
// Subscribers are expected to drain promptly; the ledger's correctness never
// depends on delivery.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]chan Event
	closed bool
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id together with the
// receive channel. The id is passed to Unsubscribe.
//
// Postcondition: the channel stays open until Unsubscribe(id) or Close.
func (b *Bus) Subscribe(buffer int) (string, <-chan Event) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	ch := make(chan Event, buffer)
	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers e to every subscriber with room in its buffer.
//
// Postcondition: Returns the number of subscribers that received the event.
func (b *Bus) Publish(e Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- e:
			delivered++
		default:
		}
	}
	return delivered
}

// Close shuts the bus down: all subscriber channels are closed and further
// Publish calls deliver to no one.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
