package resilience

import (
	"errors"
	"testing"
	"time"
)

var errFail = errors.New("fail")

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Cooldown: time.Second})
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("closed breaker should allow: %v", err)
	}
}

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Cooldown: time.Second})
	for i := 0; i < 3; i++ {
		b.Record(errFail)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerResetsOnSuccess(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Cooldown: time.Second})
	b.Record(errFail)
	b.Record(errFail)
	b.Record(nil)
	b.Record(errFail)
	b.Record(errFail)
	if b.State() != StateClosed {
		t.Fatalf("expected still closed, got %v", b.State())
	}
}

func TestBreakerHalfOpen(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Cooldown: 5 * time.Second, HalfOpenMax: 1})
	b.now = func() time.Time { return now }

	b.Record(errFail)
	b.Record(errFail)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	now = now.Add(6 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", b.State())
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("first probe should be allowed: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second probe should be rejected, got %v", err)
	}

	b.Record(nil)
	if b.State() != StateClosed {
		t.Fatalf("expected closed after successful probe, got %v", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }

	b.Record(errFail)
	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("probe should be allowed: %v", err)
	}
	b.Record(errFail)
	if b.State() != StateOpen {
		t.Fatalf("expected open after failed probe, got %v", b.State())
	}
}

func TestBreakerDefaults(t *testing.T) {
	b := NewBreaker(BreakerOpts{})
	if b.opts != DefaultBreakerOpts {
		t.Fatalf("expected defaults, got %+v", b.opts)
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(42):     "unknown",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Fatalf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}

func TestSetReusesBreakers(t *testing.T) {
	s := NewSet(BreakerOpts{FailThreshold: 1, Cooldown: time.Minute})
	a := s.Get("ebay")
	if s.Get("ebay") != a {
		t.Fatal("expected the same breaker for the same key")
	}
	if s.Get("walmart") == a {
		t.Fatal("expected distinct breakers for distinct keys")
	}
	a.Record(errFail)
	states := s.States()
	if states["ebay"] != StateOpen || states["walmart"] != StateClosed {
		t.Fatalf("unexpected states: %v", states)
	}
}
