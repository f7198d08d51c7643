package pricing

import (
	"context"
	"fmt"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/engine/sources"
	"github.com/WessleyAI/wessley-parts/pkg/fn"
)

// Source is one registered retailer as seen by the orchestrator.
// *sources.Guarded is the production implementation.
type Source interface {
	Info() domain.SourceInfo
	Run(ctx context.Context, query string, vehicle *domain.VehicleContext) sources.Outcome
}

// Orchestrator runs every registered source concurrently and joins them.
type Orchestrator struct {
	sources []Source
}

// NewOrchestrator registers srcs in order.
func NewOrchestrator(srcs ...Source) *Orchestrator {
	return &Orchestrator{sources: srcs}
}

// Guarded registers each guarded adapter.
func Guarded(gs []*sources.Guarded) []Source {
	return fn.Map(gs, func(g *sources.Guarded) Source { return g })
}

// Slugs lists registered source slugs in registration order.
func (o *Orchestrator) Slugs() []string {
	return fn.Map(o.sources, func(s Source) string { return s.Info().Slug })
}

// Fetch waits for every source to settle and returns their results
// concatenated in registration order, with one status per source. There is
// no deadline beyond each source's own.
func (o *Orchestrator) Fetch(ctx context.Context, query string, vehicle *domain.VehicleContext) ([]domain.NormalizedResult, []domain.SourceStatus) {
	tasks := fn.Map(o.sources, func(s Source) func(context.Context) fn.Result[sources.Outcome] {
		return func(ctx context.Context) fn.Result[sources.Outcome] {
			return fn.Ok(s.Run(ctx, query, vehicle))
		}
	})
	settled := fn.Settle(ctx, tasks...)

	outcomes := make([]sources.Outcome, len(settled))
	for i, r := range settled {
		out, err := r.Unwrap()
		if err != nil {
			info := o.sources[i].Info()
			out = sources.Outcome{Status: domain.SourceStatus{
				Slug:  info.Slug,
				Name:  info.Name,
				Error: fmt.Sprintf("source settled with error: %v", err),
			}}
		}
		outcomes[i] = out
	}

	results := fn.FlatMap(outcomes, func(o sources.Outcome) []domain.NormalizedResult { return o.Results })
	statuses := fn.Map(outcomes, func(o sources.Outcome) domain.SourceStatus { return o.Status })
	return results, statuses
}
