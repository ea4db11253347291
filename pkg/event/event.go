// Package event provides a small in-process event dispatcher.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Handler receives an event payload. A returned error is reported to the
// caller of Fire; it does not stop the remaining handlers.
type Handler func(ctx context.Context, payload any) error

// Bus routes named events to their listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus returns a Bus with no listeners.
func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *Bus) listeners(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	return hs
}

// Fire dispatches an event synchronously to all registered listeners in
// registration order and joins their errors.
func (b *Bus) Fire(ctx context.Context, event string, payload any) error {
	var errs []error
	for _, h := range b.listeners(event) {
		if err := h(ctx, payload); err != nil {
			errs = append(errs, fmt.Errorf("event: %s: %w", event, err))
		}
	}
	return errors.Join(errs...)
}

// Has reports whether any listener is registered for event.
func (b *Bus) Has(event string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event]) > 0
}
