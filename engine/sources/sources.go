// Package sources contains the retailer adapters and the guard that runs
// each one under its own deadline, circuit breaker and instrumentation.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/pkg/fn"
)

// Adapter fetches offers for a composed query from one retailer. vehicle is
// the raw context for sources that accept structured fitment parameters;
// it may be nil.
type Adapter interface {
	Info() domain.SourceInfo
	Fetch(ctx context.Context, query string, vehicle *domain.VehicleContext) ([]domain.NormalizedResult, error)
}

// LinkOnly is implemented by adapters that never do I/O and always answer
// with a single placeholder pointing at the retailer's search page.
type LinkOnly interface {
	Adapter
	Placeholder(query string) domain.NormalizedResult
}

// ErrNotConfigured is returned by adapters missing required credentials.
var ErrNotConfigured = errors.New("source not configured")

// Slugs returns the slug of every adapter, in order.
func Slugs(adapters []Adapter) []string {
	return fn.Map(adapters, func(a Adapter) string { return a.Info().Slug })
}

// Select keeps the adapters named in slugs, preserving registration order.
// An empty selection keeps everything.
func Select(all []Adapter, slugs []string) ([]Adapter, error) {
	want := map[string]bool{}
	for _, s := range slugs {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			want[s] = true
		}
	}
	if len(want) == 0 {
		return all, nil
	}
	var out []Adapter
	for _, a := range all {
		slug := a.Info().Slug
		if want[slug] {
			out = append(out, a)
			delete(want, slug)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for s := range want {
			unknown = append(unknown, s)
		}
		return nil, fmt.Errorf("unknown sources: %s", strings.Join(unknown, ","))
	}
	return out, nil
}

// sanitize enforces the shared result contract on whatever an adapter
// returned: source identity stamped, names capped, non-positive prices
// cleared, outbound URL defaulted and IDs unique within the source.
func sanitize(info domain.SourceInfo, results []domain.NormalizedResult) []domain.NormalizedResult {
	out := fn.FilterMap(results, func(r domain.NormalizedResult) (domain.NormalizedResult, bool) {
		r.SetSource(info)
		r.Name = domain.TruncateName(r.Name)
		if r.Name == "" {
			return r, false
		}
		var price, original float64
		if r.Price != nil {
			price = *r.Price
		}
		if r.OriginalPrice != nil {
			original = *r.OriginalPrice
		}
		r.SetPrices(price, original)
		if r.OutboundURL == "" {
			r.OutboundURL = r.ProductURL
			r.IsAffiliateTracked = false
		}
		return r, true
	})
	return fn.UniqueBy(out, func(r domain.NormalizedResult) string { return r.ID })
}
