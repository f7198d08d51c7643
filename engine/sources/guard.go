package sources

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/pkg/fn"
	"github.com/WessleyAI/wessley-parts/pkg/metrics"
	"github.com/WessleyAI/wessley-parts/pkg/resilience"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout is the per-adapter deadline.
const DefaultTimeout = 8 * time.Second

// Outcome labels reported to metrics and logs.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomePanic       = "panic"
	OutcomeBreakerOpen = "breaker_open"
)

// GuardOpts configures Guard. Every field is optional.
type GuardOpts struct {
	Timeout  time.Duration
	Breakers *resilience.Set
	Metrics  *metrics.Registry
	Logger   *slog.Logger
}

// Outcome is what one guarded adapter contributed to an aggregation.
type Outcome struct {
	Results []domain.NormalizedResult
	Status  domain.SourceStatus
}

// Guarded runs an Adapter so that it always settles within its deadline
// and never returns an error or panics past this boundary.
type Guarded struct {
	adapter Adapter
	info    domain.SourceInfo
	timeout time.Duration
	breaker *resilience.Breaker
	metrics *metrics.Registry
	log     *slog.Logger
	tracer  trace.Tracer
}

// Guard wraps a. Link-only adapters are never breaker-gated.
func Guard(a Adapter, opts GuardOpts) *Guarded {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	info := a.Info()
	g := &Guarded{
		adapter: a,
		info:    info,
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		log:     opts.Logger.With("source", info.Slug),
		tracer:  otel.Tracer("engine/sources"),
	}
	if _, linkOnly := a.(LinkOnly); !linkOnly && opts.Breakers != nil {
		g.breaker = opts.Breakers.Get(info.Slug)
	}
	return g
}

// GuardAll wraps every adapter with the same options.
func GuardAll(adapters []Adapter, opts GuardOpts) []*Guarded {
	return fn.Map(adapters, func(a Adapter) *Guarded { return Guard(a, opts) })
}

// Info returns the wrapped adapter's identity.
func (g *Guarded) Info() domain.SourceInfo { return g.info }

// Run fetches from the adapter. On timeout, error, panic or an open breaker
// the results fall back to empty, or to the placeholder for link-only
// adapters, and the failure is reported in Status.
func (g *Guarded) Run(ctx context.Context, query string, vehicle *domain.VehicleContext) Outcome {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "sources."+g.info.Slug+".fetch",
		trace.WithAttributes(
			attribute.String("source", g.info.Slug),
			attribute.String("query", query),
		))
	defer span.End()

	results, outcome, err := g.call(ctx, query, vehicle)
	if err != nil {
		results = g.fallback(query)
	}
	results = sanitize(g.info, results)
	elapsed := time.Since(start)

	g.metrics.ObserveSource(g.info.Slug, outcome, elapsed, len(results))
	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("results", len(results)),
	)

	status := domain.SourceStatus{
		Slug:       g.info.Slug,
		Name:       g.info.Name,
		OK:         err == nil,
		Count:      len(results),
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		status.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.Warn("source fetch failed", "outcome", outcome, "err", err, "duration", elapsed)
	} else {
		g.log.Debug("source fetched", "outcome", outcome, "results", len(results), "duration", elapsed)
	}
	return Outcome{Results: results, Status: status}
}

func (g *Guarded) call(ctx context.Context, query string, vehicle *domain.VehicleContext) ([]domain.NormalizedResult, string, error) {
	if g.breaker != nil {
		if err := g.breaker.Allow(); err != nil {
			return nil, OutcomeBreakerOpen, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results, err := fn.Await(ctx, func(ctx context.Context) fn.Result[[]domain.NormalizedResult] {
		return fn.FromPair(g.adapter.Fetch(ctx, query, vehicle))
	}).Unwrap()

	if g.breaker != nil {
		g.breaker.Record(err)
	}

	var pe *fn.PanicError
	switch {
	case errors.As(err, &pe):
		return nil, OutcomePanic, err
	case errors.Is(err, context.DeadlineExceeded):
		return nil, OutcomeTimeout, err
	case err != nil:
		return nil, OutcomeError, err
	case len(results) == 0:
		return nil, OutcomeEmpty, nil
	}
	return results, OutcomeOK, nil
}

func (g *Guarded) fallback(query string) []domain.NormalizedResult {
	if lo, ok := g.adapter.(LinkOnly); ok {
		return []domain.NormalizedResult{lo.Placeholder(query)}
	}
	return nil
}
