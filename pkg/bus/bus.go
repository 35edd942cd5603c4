package bus

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Subscriber is a callback invoked for every event published to its topic.
type Subscriber func(Event)

// maxPublishDepth bounds recursive publish (a subscriber publishing from
// inside its own callback). Bounded recursion keeps the bus a synchronous
// fan-out primitive; a deferred queue would change the delivery ordering
// subscribers observe.
const maxPublishDepth = 8

// Bus is a single-threaded, best-effort publish/subscribe dispatcher.
// Publish invokes subscribers synchronously, in registration order, on the
// caller's goroutine. There is no queue, no persistence and no ordering
// guarantee across topics.
type Bus struct {
	mu    sync.Mutex
	subs  map[string][]Subscriber
	depth int
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]Subscriber)}
}

// Subscribe registers callback for topic. Order of registration determines
// fan-out order within a single Publish call.
func (b *Bus) Subscribe(topic string, callback Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], callback)
}

// Publish fans event out to every subscriber of event.Topic(), in
// registration order. A subscriber that panics is logged and skipped; it
// does not abort the rest of the fan-out.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	if b.depth >= maxPublishDepth {
		b.mu.Unlock()
		log.Warn().Str("topic", event.Topic()).Int("depth", b.depth).
			Msg("bus: publish recursion depth exceeded, dropping event")
		return
	}
	b.depth++
	subs := append([]Subscriber(nil), b.subs[event.Topic()]...)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.depth--
		b.mu.Unlock()
	}()

	for _, sub := range subs {
		b.dispatch(sub, event)
	}
}

func (b *Bus) dispatch(sub Subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("topic", event.Topic()).
				Msg("bus: subscriber panicked, skipping")
		}
	}()
	sub(event)
}

// Deinit drops all subscriptions.
func (b *Bus) Deinit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]Subscriber)
}
