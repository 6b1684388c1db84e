package server

import (
	"sync"
	"time"

	"github.com/brensch/greedysnek/engine"
)

// entry owns one engine session. Its mutex serializes rounds: a Session has a
// single writer.
type entry struct {
	mu       sync.Mutex
	id       string
	session  *engine.Session
	lastUsed time.Time
}

type registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	create  func() (*engine.Session, error)
}

func newRegistry(create func() (*engine.Session, error), now func() time.Time) *registry {
	if now == nil {
		now = time.Now
	}
	return &registry{
		entries: make(map[string]*entry),
		now:     now,
		create:  create,
	}
}

// getOrCreate returns the entry for id, creating a fresh session if needed.
func (r *registry) getOrCreate(id string) (*entry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.lastUsed = r.now()
		return e, false, nil
	}
	sess, err := r.create()
	if err != nil {
		return nil, false, err
	}
	e := &entry{id: id, session: sess, lastUsed: r.now()}
	r.entries[id] = e
	return e, true, nil
}

// reset replaces any session under id with a fresh one.
func (r *registry) reset(id string) error {
	sess, err := r.create()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{id: id, session: sess, lastUsed: r.now()}
	return nil
}

func (r *registry) drop(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok
}

func (r *registry) touch(e *entry) {
	r.mu.Lock()
	e.lastUsed = r.now()
	r.mu.Unlock()
}

// sweep drops sessions idle for longer than ttl and returns their ids.
func (r *registry) sweep(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	var dropped []string
	for id, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
