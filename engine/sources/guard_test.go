package sources

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/pkg/metrics"
	"github.com/WessleyAI/wessley-parts/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGuardOK(t *testing.T) {
	a := stub("shop")
	a.results = []domain.NormalizedResult{{ID: "1", Name: "Rotor", Price: domain.Ptr(30.0)}}
	reg := metrics.New()

	out := Guard(a, GuardOpts{Metrics: reg, Logger: quietLogger()}).Run(context.Background(), "rotor", nil)
	if !out.Status.OK || out.Status.Count != 1 || out.Status.Slug != "shop" {
		t.Fatalf("unexpected status: %+v", out.Status)
	}
	if out.Results[0].SourceSlug != "shop" {
		t.Fatal("source identity not stamped")
	}
	if got := testutil.ToFloat64(reg.SourceRequests.WithLabelValues("shop", OutcomeOK)); got != 1 {
		t.Fatalf("expected ok metric, got %v", got)
	}
}

func TestGuardErrorBecomesEmpty(t *testing.T) {
	a := stub("shop")
	a.err = errors.New("connection refused")
	reg := metrics.New()

	out := Guard(a, GuardOpts{Metrics: reg, Logger: quietLogger()}).Run(context.Background(), "rotor", nil)
	if out.Status.OK || len(out.Results) != 0 || !strings.Contains(out.Status.Error, "connection refused") {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if got := testutil.ToFloat64(reg.SourceRequests.WithLabelValues("shop", OutcomeError)); got != 1 {
		t.Fatalf("expected error metric, got %v", got)
	}
}

func TestGuardEmptyIsOK(t *testing.T) {
	out := Guard(stub("shop"), GuardOpts{Logger: quietLogger()}).Run(context.Background(), "rotor", nil)
	if !out.Status.OK || out.Status.Count != 0 {
		t.Fatalf("empty result is not a failure: %+v", out.Status)
	}
}

func TestGuardTimeoutIsBounded(t *testing.T) {
	a := stub("slow")
	release := make(chan struct{})
	defer close(release)
	a.fetch = func(ctx context.Context) ([]domain.NormalizedResult, error) {
		<-release // ignores ctx on purpose
		return nil, nil
	}
	reg := metrics.New()

	start := time.Now()
	out := Guard(a, GuardOpts{Timeout: 30 * time.Millisecond, Metrics: reg, Logger: quietLogger()}).
		Run(context.Background(), "rotor", nil)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("guard did not enforce deadline, took %v", elapsed)
	}
	if out.Status.OK || len(out.Results) != 0 {
		t.Fatalf("timeout should settle empty: %+v", out)
	}
	if got := testutil.ToFloat64(reg.SourceRequests.WithLabelValues("slow", OutcomeTimeout)); got != 1 {
		t.Fatalf("expected timeout metric, got %v", got)
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	a := stub("broken")
	a.fetch = func(context.Context) ([]domain.NormalizedResult, error) { panic("nil map") }
	reg := metrics.New()

	out := Guard(a, GuardOpts{Metrics: reg, Logger: quietLogger()}).Run(context.Background(), "rotor", nil)
	if out.Status.OK || len(out.Results) != 0 {
		t.Fatalf("panic should settle empty: %+v", out)
	}
	if got := testutil.ToFloat64(reg.SourceRequests.WithLabelValues("broken", OutcomePanic)); got != 1 {
		t.Fatalf("expected panic metric, got %v", got)
	}
}

func TestGuardBreakerSkipsDeadSource(t *testing.T) {
	calls := 0
	a := stub("dead")
	a.fetch = func(context.Context) ([]domain.NormalizedResult, error) {
		calls++
		return nil, errors.New("503")
	}
	breakers := resilience.NewSet(resilience.BreakerOpts{FailThreshold: 2, Cooldown: time.Hour})
	g := Guard(a, GuardOpts{Breakers: breakers, Logger: quietLogger()})

	for i := 0; i < 4; i++ {
		g.Run(context.Background(), "rotor", nil)
	}
	if calls != 2 {
		t.Fatalf("expected breaker to stop calls after 2 failures, got %d calls", calls)
	}
	out := g.Run(context.Background(), "rotor", nil)
	if !strings.Contains(out.Status.Error, resilience.ErrCircuitOpen.Error()) {
		t.Fatalf("expected breaker error, got %q", out.Status.Error)
	}
	if breakers.States()["dead"] != resilience.StateOpen {
		t.Fatal("breaker should be open")
	}
}

// failingLink is a link-only adapter whose Fetch fails.
type failingLink struct{ *SearchLink }

func (f failingLink) Fetch(context.Context, string, *domain.VehicleContext) ([]domain.NormalizedResult, error) {
	return nil, errors.New("unexpected")
}

func TestGuardLinkOnlyFallsBackToPlaceholder(t *testing.T) {
	a := failingLink{NewRockAuto()}
	breakers := resilience.NewSet(resilience.BreakerOpts{FailThreshold: 1, Cooldown: time.Hour})
	g := Guard(a, GuardOpts{Breakers: breakers, Logger: quietLogger()})

	for i := 0; i < 3; i++ {
		out := g.Run(context.Background(), "oil filter", nil)
		if len(out.Results) != 1 || !out.Results[0].IsPlaceholder {
			t.Fatalf("run %d: expected placeholder fallback, got %+v", i, out.Results)
		}
	}
	if _, ok := breakers.States()["rockauto"]; ok {
		t.Fatal("link-only adapters must not be breaker-gated")
	}
}
