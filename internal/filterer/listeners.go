package filterer

import "github.com/bnema/ublock-webkit-cosmetics/internal/models"

// Listener is told about filterset changes.
// Listeners are compared by identity, so implementations must be comparable
// (pointer types are).
type Listener interface {
	OnFilteringChanged(change models.Change)
}

// AddListener registers l once. Registration order is notification order.
func (f *Filterer) AddListener(l Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.listeners {
		if existing == l {
			return
		}
	}
	f.listeners = append(f.listeners, l)
}

// RemoveListener unregisters l
func (f *Filterer) RemoveListener(l Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.listeners {
		if existing == l {
			f.listeners = append(f.listeners[:i:i], f.listeners[i+1:]...)
			return
		}
	}
}

// HasListeners reports whether any listener is registered
func (f *Filterer) HasListeners() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners) != 0
}

// TriggerListeners delivers change to every listener, synchronously and in
// registration order. A panicking listener is not recovered.
func (f *Filterer) TriggerListeners(change models.Change) {
	f.mu.Lock()
	listeners := f.listenersLocked()
	f.mu.Unlock()
	notify(listeners, change)
}

func (f *Filterer) listenersLocked() []Listener {
	if len(f.listeners) == 0 {
		return nil
	}
	return append([]Listener(nil), f.listeners...)
}

func notify(listeners []Listener, change models.Change) {
	for _, l := range listeners {
		l.OnFilteringChanged(change)
	}
}
