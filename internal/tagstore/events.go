package tagstore

import "sync"

// Listener receives store change events. Listeners are called
// synchronously after the change has been committed; they must not
// block for long.
type Listener func(Event)

type eventBus struct {
	mu        sync.RWMutex
	listeners []Listener
}

func (b *eventBus) subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *eventBus) publish(e Event) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		l(e)
	}
}
