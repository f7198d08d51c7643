package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/WessleyAI/wessley-parts/engine/affiliate"
	"github.com/WessleyAI/wessley-parts/engine/domain"
)

// SearchLink is a retailer without a public API or parseable markup. It
// answers every query with one unpriced placeholder linking to the
// retailer's own search page.
type SearchLink struct {
	info     domain.SourceInfo
	template string
	track    affiliate.Rule
}

// NewSearchLink builds a link-only adapter. template must contain {q},
// which is replaced by the URL-encoded query. track may be nil.
func NewSearchLink(info domain.SourceInfo, template string, track affiliate.Rule) *SearchLink {
	return &SearchLink{info: info, template: template, track: track}
}

// NewAmazon returns the Amazon adapter, tracked with the Associates tag.
func NewAmazon() *SearchLink {
	return NewSearchLink(
		domain.SourceInfo{Name: "Amazon", Slug: "amazon", Color: "#FF9900"},
		"https://www.amazon.com/s?k={q}&i=automotive",
		affiliate.Amazon,
	)
}

// NewRockAuto returns the RockAuto adapter. RockAuto has no commission
// program, so its links are untracked.
func NewRockAuto() *SearchLink {
	return NewSearchLink(
		domain.SourceInfo{Name: "RockAuto", Slug: "rockauto", Color: "#1F4E9C"},
		"https://www.rockauto.com/en/partsearch/?partnum={q}",
		nil,
	)
}

func (s *SearchLink) Info() domain.SourceInfo { return s.info }

// SearchURL returns the retailer search page for query.
func (s *SearchLink) SearchURL(query string) string {
	return strings.ReplaceAll(s.template, "{q}", url.QueryEscape(query))
}

// Placeholder builds the single browse-here result for query.
func (s *SearchLink) Placeholder(query string) domain.NormalizedResult {
	searchURL := s.SearchURL(query)
	outbound, tracked := affiliate.Apply(s.track, searchURL, "")
	r := domain.NormalizedResult{
		ID:                 s.info.Slug + "-search",
		Name:               fmt.Sprintf("Search %s for %q", s.info.Name, query),
		ProductURL:         searchURL,
		OutboundURL:        outbound,
		IsAffiliateTracked: tracked,
		IsPlaceholder:      true,
	}
	r.SetSource(s.info)
	return r
}

// Fetch performs no I/O.
func (s *SearchLink) Fetch(_ context.Context, query string, _ *domain.VehicleContext) ([]domain.NormalizedResult, error) {
	return []domain.NormalizedResult{s.Placeholder(query)}, nil
}
