package bus

import (
	"strings"
	"sync"
	"time"
)

// Event is a domain event delivered to subscribers.
type Event struct {
	Topic string
	At    time.Time
	Data  any
}

// Bus is an in-process publish/subscribe bus with topic-prefix filtering.
// Delivery is non-blocking: events for a full subscriber are dropped.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	prefix string
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Publish stamps the event with the current time and fans it out to every
// subscriber whose prefix matches the topic.
func (b *Bus) Publish(topic string, data any) {
	evt := Event{Topic: topic, At: time.Now(), Data: data}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if strings.HasPrefix(topic, s.prefix) {
			select {
			case s.ch <- evt:
			default:
				// Subscriber is full; drop rather than block the publisher.
			}
		}
	}
}

// Subscribe registers a subscriber for all topics starting with prefix.
// bufSize controls the channel buffer. The returned func removes the
// subscription; the channel is never closed.
func (b *Bus) Subscribe(prefix string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = &subscriber{prefix: prefix, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
