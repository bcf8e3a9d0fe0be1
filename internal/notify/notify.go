// Package notify is a minimal synchronous observer list.
package notify

import "sync"

// Listeners fans a value out to subscribed callbacks. The zero value is
// ready to use.
type Listeners[T any] struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(T)
}

// Subscribe registers fn and returns a function that removes it again.
func (l *Listeners[T]) Subscribe(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// Notify calls every subscriber with v, in no particular order. Callers must
// not hold locks the subscribers might take.
func (l *Listeners[T]) Notify(v T) {
	l.mu.RLock()
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (l *Listeners[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fns)
}
