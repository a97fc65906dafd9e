package events

import "sync"

// Topics published on the bus. These are signals, not data: subscribers are
// expected to re-read whatever state they care about.
const (
	// TopicExpensesChanged fires after a batch is committed to the ledger.
	TopicExpensesChanged = "expenses-changed"

	// TopicCategoriesChanged fires after the tracker's taxonomy changed,
	// e.g. a quick-add created a missing category.
	TopicCategoriesChanged = "categories-changed"
)

// Handler receives the topic that fired.
type Handler func(topic string)

// Bus is a minimal in-process publish/subscribe signal bus. It is safe for
// concurrent use. Handlers run synchronously on the publishing goroutine.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns a function that
// removes the subscription.
func (b *Bus) Subscribe(topic string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.next
	b.next++
	b.subs[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish invokes every handler subscribed to the topic.
func (b *Bus) Publish(topic string) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(topic)
	}
}
