// Package directory holds the fixed table of retailers that have no live
// adapter and turns it into deep-search links for a composed query.
package directory

import (
	"net/url"
	"strings"

	"github.com/WessleyAI/wessley-parts/engine/affiliate"
	"github.com/WessleyAI/wessley-parts/engine/domain"
)

// queryToken is replaced by the URL-encoded composed query.
const queryToken = "{q}"

// Retailer is one row of the directory.
type Retailer struct {
	Name     string
	Slug     string
	Color    string
	Template string
	// Track, when set, applies the retailer's commission program.
	Track affiliate.Rule
}

// SearchURL fills the template with query.
func (r Retailer) SearchURL(query string) string {
	return strings.ReplaceAll(r.Template, queryToken, url.QueryEscape(query))
}

// Retailers is the version-controlled directory table.
var Retailers = []Retailer{
	{Name: "AutoZone", Slug: "autozone", Color: "#D52B1E", Template: "https://www.autozone.com/searchresult?searchText={q}"},
	{Name: "O'Reilly Auto Parts", Slug: "oreilly", Color: "#00A651", Template: "https://www.oreillyauto.com/search?q={q}"},
	{Name: "Advance Auto Parts", Slug: "advanceauto", Color: "#E31837", Template: "https://shop.advanceautoparts.com/web/SearchResults?searchTerm={q}", Track: affiliate.AdvanceAuto},
	{Name: "NAPA Auto Parts", Slug: "napa", Color: "#0A2D82", Template: "https://www.napaonline.com/search?text={q}"},
	{Name: "PartsGeek", Slug: "partsgeek", Color: "#F7941D", Template: "https://www.partsgeek.com/ss/?ssq={q}"},
	{Name: "1A Auto", Slug: "1aauto", Color: "#C8102E", Template: "https://www.1aauto.com/search?q={q}"},
	{Name: "FCP Euro", Slug: "fcpeuro", Color: "#1B365D", Template: "https://www.fcpeuro.com/Parts/?keywords={q}"},
	{Name: "Summit Racing", Slug: "summit", Color: "#D71920", Template: "https://www.summitracing.com/search?keyword={q}", Track: affiliate.Summit},
	{Name: "LKQ Online", Slug: "lkq", Color: "#005DAA", Template: "https://www.lkqonline.com/search?q={q}"},
	{Name: "CarID", Slug: "carid", Color: "#2B2B2B", Template: "https://www.carid.com/search/?q={q}"},
}

// Directory produces static links, excluding retailers served by a live adapter.
type Directory struct {
	retailers []Retailer
}

// New builds a directory from retailers, dropping any whose slug matches a
// live adapter or an earlier row.
func New(retailers []Retailer, liveSlugs ...string) *Directory {
	seen := make(map[string]bool, len(retailers)+len(liveSlugs))
	for _, s := range liveSlugs {
		seen[s] = true
	}
	kept := make([]Retailer, 0, len(retailers))
	for _, r := range retailers {
		if seen[r.Slug] {
			continue
		}
		seen[r.Slug] = true
		kept = append(kept, r)
	}
	return &Directory{retailers: kept}
}

// Links returns one link per retailer, in table order, for the composed query.
// Tracked rows wrap the retailer URL in the network's click URL under its
// "url" parameter, so the query is encoded once more there; the landing URL
// the network redirects to is exactly SearchURL(query).
func (d *Directory) Links(query string) []domain.StaticRetailerLink {
	links := make([]domain.StaticRetailerLink, 0, len(d.retailers))
	for _, r := range d.retailers {
		searchURL, tracked := affiliate.Apply(r.Track, "", r.SearchURL(query))
		links = append(links, domain.StaticRetailerLink{
			Name:               r.Name,
			Slug:               r.Slug,
			SearchURL:          searchURL,
			Color:              r.Color,
			IsAffiliateTracked: tracked,
		})
	}
	return links
}
