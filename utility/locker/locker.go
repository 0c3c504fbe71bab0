package locker

import (
	"sync"
)

type lock struct {
	ch   chan struct{}
	refs int
}

// Keyed ... in-process named critical sections. Webhook processing acquires one
// per custody transaction id, scheduled jobs acquire one per job name.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*lock
}

func New() *Keyed {
	return &Keyed{locks: make(map[string]*lock)}
}

func (keyed *Keyed) get(identifier string) *lock {
	keyed.mu.Lock()
	defer keyed.mu.Unlock()
	l, ok := keyed.locks[identifier]
	if !ok {
		l = &lock{ch: make(chan struct{}, 1)}
		keyed.locks[identifier] = l
	}
	l.refs++
	return l
}

func (keyed *Keyed) put(identifier string, l *lock) {
	keyed.mu.Lock()
	defer keyed.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(keyed.locks, identifier)
	}
}

// Acquire blocks until the critical section for identifier is held, and returns
// the release function.
func (keyed *Keyed) Acquire(identifier string) func() {
	l := keyed.get(identifier)
	l.ch <- struct{}{}
	return func() {
		<-l.ch
		keyed.put(identifier, l)
	}
}

// TryAcquire is the single-flight form: it fails instead of blocking when the
// critical section is already held.
func (keyed *Keyed) TryAcquire(identifier string) (func(), bool) {
	l := keyed.get(identifier)
	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			keyed.put(identifier, l)
		}, true
	default:
		keyed.put(identifier, l)
		return nil, false
	}
}
