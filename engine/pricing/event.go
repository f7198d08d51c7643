package pricing

import (
	"time"

	"github.com/WessleyAI/wessley-parts/engine/domain"
)

// SearchCompleted is the summary published after each aggregation.
type SearchCompleted struct {
	Query         string    `json:"query"`
	ComposedQuery string    `json:"composedQuery"`
	ResultCount   int       `json:"resultCount"`
	PricedCount   int       `json:"pricedCount"`
	LowestPrice   *float64  `json:"lowestPrice,omitempty"`
	LowestSource  string    `json:"lowestSource,omitempty"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// Summarize builds the event for res. Results are ranked, so the first
// priced entry is the lowest.
func Summarize(res *domain.AggregateSearchResult) SearchCompleted {
	ev := SearchCompleted{
		Query:         res.Query,
		ComposedQuery: res.ComposedQuery,
		ResultCount:   len(res.Results),
		PricedCount:   res.Meta.PricedCount,
		GeneratedAt:   res.GeneratedAt,
	}
	if len(res.Results) > 0 && res.Results[0].HasPrice() {
		ev.LowestPrice = domain.Ptr(*res.Results[0].Price)
		ev.LowestSource = res.Results[0].SourceSlug
	}
	return ev
}
