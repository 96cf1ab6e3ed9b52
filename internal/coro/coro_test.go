package coro

import "testing"

func TestResumeYieldRoundTrip(t *testing.T) {
	var trace []string
	c := New(func(y Yielder) {
		trace = append(trace, "a")
		y.Yield()
		trace = append(trace, "b")
		y.Yield()
		trace = append(trace, "c")
	}, 0)

	if err := c.Resume(); err != nil {
		t.Fatalf("first resume: %v", err)
	}
	if got := trace; len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected [a], got %v", got)
	}
	if c.Done() {
		t.Fatalf("expected suspended, not done")
	}

	if err := c.Resume(); err != nil {
		t.Fatalf("second resume: %v", err)
	}
	if len(trace) != 2 || trace[1] != "b" {
		t.Fatalf("expected second step b, got %v", trace)
	}

	if err := c.Resume(); err != nil {
		t.Fatalf("third resume: %v", err)
	}
	if !c.Done() {
		t.Fatalf("expected done after body returns")
	}
	if len(trace) != 3 || trace[2] != "c" {
		t.Fatalf("expected third step c, got %v", trace)
	}
}

func TestResumeAfterDoneErrors(t *testing.T) {
	c := New(func(y Yielder) {}, 0)
	if err := c.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := c.Resume(); err == nil {
		t.Fatalf("expected error resuming a terminated coroutine")
	}
}

func TestPanicInBodySurfacesAsFailed(t *testing.T) {
	c := New(func(y Yielder) { panic("boom") }, 0)
	if err := c.Resume(); err == nil {
		t.Fatalf("expected error from panicking body")
	}
	if c.State() != StateFailed {
		t.Fatalf("expected StateFailed, got %v", c.State())
	}
}
