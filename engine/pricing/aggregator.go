package pricing

import (
	"context"
	"log/slog"
	"time"

	"github.com/WessleyAI/wessley-parts/engine/directory"
	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options configures an Aggregator. Every field is optional.
type Options struct {
	// Directory defaults to directory.Retailers minus the live source slugs.
	Directory *directory.Directory
	Metrics   *metrics.Registry
	Logger    *slog.Logger
	// Now is the clock used for GeneratedAt.
	Now func() time.Time
	// OnComplete runs after every successful aggregation.
	OnComplete func(ctx context.Context, res *domain.AggregateSearchResult)
}

// Aggregator answers one search end to end.
type Aggregator struct {
	orch       *Orchestrator
	dir        *directory.Directory
	metrics    *metrics.Registry
	log        *slog.Logger
	now        func() time.Time
	onComplete func(context.Context, *domain.AggregateSearchResult)
	tracer     trace.Tracer
}

// NewAggregator builds an Aggregator over orch.
func NewAggregator(orch *Orchestrator, opts Options) *Aggregator {
	if opts.Directory == nil {
		opts.Directory = directory.New(directory.Retailers, orch.Slugs()...)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Aggregator{
		orch:       orch,
		dir:        opts.Directory,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		now:        opts.Now,
		onComplete: opts.OnComplete,
		tracer:     otel.Tracer("engine/pricing"),
	}
}

// Aggregate validates the input, composes the query, fetches from every
// source and ranks the results. The only error it returns is a
// *domain.ValidationError; source failures show up in Sources and Meta.
func (a *Aggregator) Aggregate(ctx context.Context, query string, vehicle *domain.VehicleContext) (*domain.AggregateSearchResult, error) {
	start := time.Now()
	query = domain.NormalizeQuery(query)
	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}
	vehicle = domain.NormalizeVehicle(vehicle)
	if err := domain.ValidateVehicle(vehicle); err != nil {
		return nil, err
	}
	composed := ComposeQuery(query, vehicle)

	ctx, span := a.tracer.Start(ctx, "pricing.aggregate", trace.WithAttributes(
		attribute.String("query", query),
		attribute.String("composed_query", composed),
	))
	defer span.End()

	fetched, statuses := a.orch.Fetch(ctx, composed, vehicle)
	ranked := Rank(fetched)

	meta := domain.SearchMeta{SourcesQueried: len(statuses)}
	for _, s := range statuses {
		if s.OK {
			meta.SourcesSucceeded++
		} else {
			meta.SourcesFailed++
		}
	}
	for _, r := range ranked {
		if r.HasPrice() {
			meta.PricedCount++
		}
	}
	elapsed := time.Since(start)
	meta.DurationMS = elapsed.Milliseconds()

	res := &domain.AggregateSearchResult{
		Query:               query,
		ComposedQuery:       composed,
		VehicleContext:      vehicle,
		Results:             ranked,
		StaticRetailerLinks: a.dir.Links(composed),
		Sources:             statuses,
		Meta:                meta,
		GeneratedAt:         a.now().UTC(),
	}

	a.metrics.ObserveAggregate(elapsed, len(ranked))
	span.SetAttributes(
		attribute.Int("results", len(ranked)),
		attribute.Int("priced", meta.PricedCount),
		attribute.Int("sources_failed", meta.SourcesFailed),
	)
	if meta.SourcesQueried > 0 && meta.SourcesFailed == meta.SourcesQueried {
		span.SetStatus(codes.Error, "all sources failed")
	}
	a.log.Info("aggregation complete",
		"query", query,
		"composed_query", composed,
		"results", len(ranked),
		"priced", meta.PricedCount,
		"sources_failed", meta.SourcesFailed,
		"duration", elapsed,
	)

	if a.onComplete != nil {
		a.onComplete(ctx, res)
	}
	return res, nil
}
