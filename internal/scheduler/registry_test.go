package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeHandle struct {
	mu      sync.Mutex
	cancels int
}

func (f *fakeHandle) cancel() {
	f.mu.Lock()
	f.cancels++
	f.mu.Unlock()
}

func (f *fakeHandle) next() time.Time { return time.Time{} }

func (f *fakeHandle) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

func TestRegistryReplaceCancelsPrior(t *testing.T) {
	t.Parallel()
	r := newRegistry()
	a, b := &fakeHandle{}, &fakeHandle{}

	r.register("k", a)
	r.register("k", b)

	if a.cancelCount() != 1 {
		t.Fatalf("prior handle cancels = %d, want 1", a.cancelCount())
	}
	if b.cancelCount() != 0 {
		t.Fatalf("new handle cancels = %d, want 0", b.cancelCount())
	}
	if r.size() != 1 {
		t.Fatalf("size = %d, want 1", r.size())
	}
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()
	r := newRegistry()
	h := &fakeHandle{}
	r.register("k", h)

	if !r.remove("k") {
		t.Fatal("remove existing = false")
	}
	if h.cancelCount() != 1 {
		t.Fatalf("cancels = %d, want 1", h.cancelCount())
	}
	if r.remove("k") {
		t.Fatal("second remove = true, want no-op false")
	}
	if r.remove("never-registered") {
		t.Fatal("remove of absent key = true")
	}
}

func TestRegistryRemoveIf(t *testing.T) {
	t.Parallel()
	r := newRegistry()
	old, cur := &fakeHandle{}, &fakeHandle{}
	r.register("k", cur)

	if r.removeIf("k", old) {
		t.Fatal("removeIf with stale handle removed the live one")
	}
	if !r.has("k") {
		t.Fatal("key vanished after stale removeIf")
	}
	if !r.removeIf("k", cur) {
		t.Fatal("removeIf with live handle = false")
	}
	if cur.cancelCount() != 1 {
		t.Fatalf("cancels = %d, want 1", cur.cancelCount())
	}
}

func TestRegistryStopAll(t *testing.T) {
	t.Parallel()
	r := newRegistry()
	hs := []*fakeHandle{{}, {}, {}}
	for i, h := range hs {
		r.register(string(rune('a'+i)), h)
	}

	r.stopAll()

	if r.size() != 0 {
		t.Fatalf("size after stopAll = %d", r.size())
	}
	for i, h := range hs {
		if h.cancelCount() != 1 {
			t.Fatalf("handle %d cancels = %d, want 1", i, h.cancelCount())
		}
	}
}

func TestTimerHandleCancelBeforeArm(t *testing.T) {
	t.Parallel()
	var fired atomic.Bool
	h := &timerHandle{}
	h.cancel()
	h.arm(time.AfterFunc(20*time.Millisecond, func() { fired.Store(true) }), time.Now())

	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Fatal("timer fired despite cancel before arm")
	}
}

func TestTimerHandleCancelIdempotent(t *testing.T) {
	t.Parallel()
	h := &timerHandle{}
	h.arm(time.AfterFunc(time.Hour, func() {}), time.Now().Add(time.Hour))
	h.cancel()
	h.cancel()
}
