// Package domain defines the shared result schema for the parts price
// aggregation engine and the validation gate applied to inbound searches.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength caps NormalizedResult.Name so downstream rendering stays bounded.
const MaxNameLength = 120

// VehicleContext is the optional year/make/model a search is scoped to.
// Empty fields are treated as absent.
type VehicleContext struct {
	Year  string `json:"year,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

// IsZero reports whether no vehicle attribute is set.
func (v *VehicleContext) IsZero() bool {
	return v == nil || (v.Year == "" && v.Make == "" && v.Model == "")
}

// SourceInfo is the display identity of a retailer.
type SourceInfo struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// NormalizedResult is one offer from one source.
//
// Optional numeric and boolean fields are pointers: nil means unknown, which
// is distinct from zero or false.
type NormalizedResult struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Price              *float64 `json:"price"`
	OriginalPrice      *float64 `json:"originalPrice,omitempty"`
	ImageURL           string   `json:"imageUrl,omitempty"`
	ProductURL         string   `json:"productUrl,omitempty"`
	SourceName         string   `json:"sourceName"`
	SourceSlug         string   `json:"sourceSlug"`
	SourceColor        string   `json:"sourceColor"`
	InStock            *bool    `json:"inStock,omitempty"`
	ShippingNote       string   `json:"shippingNote,omitempty"`
	Rating             *float64 `json:"rating,omitempty"`
	ReviewCount        *int     `json:"reviewCount,omitempty"`
	PartNumberHint     string   `json:"partNumberHint,omitempty"`
	IsAffiliateTracked bool     `json:"isAffiliateTracked"`
	OutboundURL        string   `json:"outboundUrl"`
	IsPlaceholder      bool     `json:"isPlaceholder"`
}

// HasPrice reports whether the result carries a usable positive price.
func (r NormalizedResult) HasPrice() bool {
	return r.Price != nil && *r.Price > 0
}

// SetSource stamps the retailer identity onto the result.
func (r *NormalizedResult) SetSource(info SourceInfo) {
	r.SourceName = info.Name
	r.SourceSlug = info.Slug
	r.SourceColor = info.Color
}

// SetPrices assigns price and original price. A non-positive price leaves
// both unset; an original price that is not strictly greater than price is dropped.
func (r *NormalizedResult) SetPrices(price, original float64) {
	r.Price, r.OriginalPrice = nil, nil
	if price <= 0 {
		return
	}
	r.Price = Ptr(price)
	if original > price {
		r.OriginalPrice = Ptr(original)
	}
}

// StaticRetailerLink is a precomputed deep-search link for a retailer
// without a live adapter.
type StaticRetailerLink struct {
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	SearchURL          string `json:"searchUrl"`
	Color              string `json:"color"`
	IsAffiliateTracked bool   `json:"isAffiliateTracked"`
}

// SourceStatus reports how one live adapter settled during an aggregation.
type SourceStatus struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// SearchMeta summarizes an aggregation run.
type SearchMeta struct {
	SourcesQueried   int   `json:"providersQueried"`
	SourcesSucceeded int   `json:"providersSucceeded"`
	SourcesFailed    int   `json:"providersFailed"`
	PricedCount      int   `json:"pricedCount"`
	DurationMS       int64 `json:"durationMs"`
}

// AggregateSearchResult is the full response for one query. Results is
// ordered priced-ascending first, then unpriced, and is not modified once
// the aggregator returns it.
type AggregateSearchResult struct {
	Query               string               `json:"query"`
	ComposedQuery       string               `json:"composedQuery"`
	VehicleContext      *VehicleContext      `json:"vehicleContext,omitempty"`
	Results             []NormalizedResult   `json:"results"`
	StaticRetailerLinks []StaticRetailerLink `json:"staticRetailerLinks"`
	Sources             []SourceStatus       `json:"sources"`
	Meta                SearchMeta           `json:"meta"`
	GeneratedAt         time.Time            `json:"generatedAt"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// TruncateName collapses whitespace and caps s at MaxNameLength runes.
func TruncateName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= MaxNameLength {
		return s
	}
	return string([]rune(s)[:MaxNameLength])
}
