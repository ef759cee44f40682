package poller

import (
	"context"
	"testing"
	"time"
)

func idleHandle(jobID string) *Handle {
	return NewHandle(Config{
		JobID:    jobID,
		Interval: time.Hour,
		Check:    func(ctx context.Context) bool { return true },
		Logger:   testLogger(),
	})
}

func TestRegistry_RegisterRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	first := idleHandle("p1")
	second := idleHandle("p1")

	if !r.Register("p1", first) {
		t.Fatal("Register(first) = false, want true")
	}
	if r.Register("p1", second) {
		t.Error("Register(second) = true, want false for duplicate id")
	}
	if got := r.Lookup("p1"); got != first {
		t.Error("Lookup() returned the duplicate handle, want the original")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("p1", idleHandle("p1"))

	r.Unregister("p1")
	r.Unregister("p1")
	r.Unregister("never-registered")

	if r.Has("p1") {
		t.Error("Has(p1) = true after Unregister")
	}
	if r.Lookup("p1") != nil {
		t.Error("Lookup(p1) != nil after Unregister")
	}
}

func TestRegistry_ReRegisterAfterUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("p1", idleHandle("p1"))
	r.Unregister("p1")

	fresh := idleHandle("p1")
	if !r.Register("p1", fresh) {
		t.Fatal("Register() after Unregister = false, want true")
	}
	if r.Lookup("p1") != fresh {
		t.Error("Lookup() did not return the fresh handle")
	}
}

func TestRegistry_DrainAll(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"p3", "p1", "p2"} {
		r.Register(id, idleHandle(id))
	}

	drained := r.DrainAll()
	if len(drained) != 3 {
		t.Fatalf("DrainAll() = %d handles, want 3", len(drained))
	}
	for i, want := range []string{"p1", "p2", "p3"} {
		if drained[i].JobID() != want {
			t.Errorf("drained[%d].JobID() = %q, want %q", i, drained[i].JobID(), want)
		}
	}
	if r.Len() != 0 {
		t.Errorf("Len() after DrainAll = %d, want 0", r.Len())
	}

	if again := r.DrainAll(); len(again) != 0 {
		t.Errorf("second DrainAll() = %d handles, want 0", len(again))
	}
}
