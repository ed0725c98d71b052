package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// handle is one live registration: a pending one-shot timer or a cron entry.
// cancel is idempotent.
type handle interface {
	cancel()
	next() time.Time
}

// timerHandle wraps a one-shot timer. The timer is armed after the handle is
// registered, so cancel may run first; arm stops the timer immediately in
// that case.
type timerHandle struct {
	mu        sync.Mutex
	cancelled bool
	timer     *time.Timer
	due       time.Time
}

func (h *timerHandle) arm(t *time.Timer, due time.Time) {
	h.mu.Lock()
	h.timer = t
	h.due = due
	stop := h.cancelled
	h.mu.Unlock()
	if stop {
		t.Stop()
	}
}

func (h *timerHandle) cancel() {
	h.mu.Lock()
	h.cancelled = true
	t := h.timer
	h.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

func (h *timerHandle) next() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.due
}

// entryHandle wraps a cron entry on a specific engine. Same arm-after-register
// discipline as timerHandle.
type entryHandle struct {
	mu        sync.Mutex
	cancelled bool
	armed     bool
	engine    *cron.Cron
	id        cron.EntryID
}

func (h *entryHandle) arm(id cron.EntryID) {
	h.mu.Lock()
	h.id = id
	h.armed = true
	stop := h.cancelled
	h.mu.Unlock()
	if stop {
		h.engine.Remove(id)
	}
}

func (h *entryHandle) cancel() {
	h.mu.Lock()
	h.cancelled = true
	armed := h.armed
	id := h.id
	h.mu.Unlock()
	if armed {
		h.engine.Remove(id)
	}
}

func (h *entryHandle) next() time.Time {
	h.mu.Lock()
	armed := h.armed
	id := h.id
	h.mu.Unlock()
	if !armed {
		return time.Time{}
	}
	return h.engine.Entry(id).Next
}

// registry maps job keys to their single live handle. Registering under an
// occupied key cancels the prior handle first, so a key never has two live
// timers.
type registry struct {
	mu      sync.Mutex
	handles map[string]handle
}

func newRegistry() *registry {
	return &registry{handles: map[string]handle{}}
}

func (r *registry) register(key string, h handle) {
	r.mu.Lock()
	prev := r.handles[key]
	r.handles[key] = h
	r.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}
}

// remove cancels and forgets key. Absent keys are a no-op.
func (r *registry) remove(key string) bool {
	r.mu.Lock()
	h, ok := r.handles[key]
	delete(r.handles, key)
	r.mu.Unlock()
	if ok {
		h.cancel()
	}
	return ok
}

// removeIf removes key only while it still maps to h. Fire callbacks use it
// for self-removal so they can't tear down a registration that replaced them
// mid-fire.
func (r *registry) removeIf(key string, h handle) bool {
	r.mu.Lock()
	cur, ok := r.handles[key]
	if !ok || cur != h {
		r.mu.Unlock()
		return false
	}
	delete(r.handles, key)
	r.mu.Unlock()
	h.cancel()
	return true
}

func (r *registry) stopAll() {
	r.mu.Lock()
	hs := r.handles
	r.handles = map[string]handle{}
	r.mu.Unlock()
	for _, h := range hs {
		h.cancel()
	}
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

func (r *registry) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[key]
	return ok
}

type regEntry struct {
	key string
	h   handle
}

// entries returns the live registrations sorted by key.
func (r *registry) entries() []regEntry {
	r.mu.Lock()
	out := make([]regEntry, 0, len(r.handles))
	for k, h := range r.handles {
		out = append(out, regEntry{k, h})
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}
