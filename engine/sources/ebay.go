package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/WessleyAI/wessley-parts/engine/affiliate"
	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/pkg/fn"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	ebayAPIBase       = "https://api.ebay.com"
	ebayTokenPath     = "/identity/v1/oauth2/token"
	ebaySearchPath    = "/buy/browse/v1/item_summary/search"
	ebaySiteSearch    = "https://www.ebay.com/sch/i.html"
	ebayScope         = "https://api.ebay.com/oauth/api_scope"
	ebayPartsCategory = "6030" // Car & Truck Parts & Accessories
	ebayDefaultLimit  = 20
)

var ebayInfo = domain.SourceInfo{Name: "eBay Motors", Slug: "ebay", Color: "#E53238"}

// EbayConfig configures the eBay Browse API adapter.
type EbayConfig struct {
	ClientID     string
	ClientSecret string
	// Marketplace is sent as X-EBAY-C-MARKETPLACE-ID (default EBAY_US).
	Marketplace string
	// BaseURL overrides the API host, mainly for tests.
	BaseURL string
	Limit   int
	// HTTPClient is the transport underneath OAuth2.
	HTTPClient *http.Client
}

// Ebay searches the eBay Browse API.
type Ebay struct {
	cfg EbayConfig
	cc  *clientcredentials.Config

	mu  sync.Mutex
	tok *oauth2.Token
}

// NewEbay builds the adapter. Tokens are fetched with the client-credentials
// grant on the calling request's context and cached until they expire.
func NewEbay(cfg EbayConfig) *Ebay {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ebayAPIBase
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Marketplace == "" {
		cfg.Marketplace = "EBAY_US"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = ebayDefaultLimit
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = NewHTTPClient()
	}
	e := &Ebay{cfg: cfg}
	if cfg.ClientID != "" {
		e.cc = &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.BaseURL + ebayTokenPath,
			Scopes:       []string{ebayScope},
		}
	}
	return e
}

func (e *Ebay) Info() domain.SourceInfo { return ebayInfo }

// Configured reports whether API credentials were supplied.
func (e *Ebay) Configured() bool { return e.cc != nil }

// token returns the cached token or requests a new one bound to ctx. The
// lock is not held across the request.
func (e *Ebay) token(ctx context.Context) (*oauth2.Token, error) {
	e.mu.Lock()
	tok := e.tok
	e.mu.Unlock()
	if tok.Valid() {
		return tok, nil
	}
	tok, err := e.cc.Token(context.WithValue(ctx, oauth2.HTTPClient, e.cfg.HTTPClient))
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.tok = tok
	e.mu.Unlock()
	return tok, nil
}

type ebayAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ebayItem struct {
	ItemID         string      `json:"itemId"`
	Title          string      `json:"title"`
	Price          *ebayAmount `json:"price"`
	MarketingPrice *struct {
		OriginalPrice *ebayAmount `json:"originalPrice"`
	} `json:"marketingPrice"`
	Image *struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
	ItemWebURL      string `json:"itemWebUrl"`
	Condition       string `json:"condition"`
	ShippingOptions []struct {
		ShippingCostType string      `json:"shippingCostType"`
		ShippingCost     *ebayAmount `json:"shippingCost"`
	} `json:"shippingOptions"`
	EstimatedAvailabilities []struct {
		Status string `json:"estimatedAvailabilityStatus"`
	} `json:"estimatedAvailabilities"`
	Seller *struct {
		FeedbackPercentage string `json:"feedbackPercentage"`
		FeedbackScore      int    `json:"feedbackScore"`
	} `json:"seller"`
}

type ebaySearchResponse struct {
	Total         int        `json:"total"`
	ItemSummaries []ebayItem `json:"itemSummaries"`
}

// searchURL is the public site search used when an item has no web URL.
func (e *Ebay) searchURL(query string) string {
	return ebaySiteSearch + "?" + url.Values{"_nkw": {query}}.Encode()
}

func (e *Ebay) requestURL(query string, vehicle *domain.VehicleContext) string {
	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(e.cfg.Limit)},
	}
	if f := compatibilityFilter(vehicle); f != "" {
		params.Set("compatibility_filter", f)
		params.Set("category_ids", ebayPartsCategory)
	}
	return e.cfg.BaseURL + ebaySearchPath + "?" + params.Encode()
}

// compatibilityFilter builds eBay's fitment filter. It needs at least make
// and model; the year is added when present.
func compatibilityFilter(v *domain.VehicleContext) string {
	if v == nil || v.Make == "" || v.Model == "" {
		return ""
	}
	var parts []string
	if v.Year != "" {
		parts = append(parts, "Year:"+v.Year)
	}
	parts = append(parts, "Make:"+v.Make, "Model:"+v.Model)
	return strings.Join(parts, ";")
}

func (e *Ebay) Fetch(ctx context.Context, query string, vehicle *domain.VehicleContext) ([]domain.NormalizedResult, error) {
	if e.cc == nil {
		return nil, fmt.Errorf("ebay: %w", ErrNotConfigured)
	}
	tok, err := e.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("ebay token: %w", err)
	}
	body, err := get(ctx, e.cfg.HTTPClient, e.requestURL(query, vehicle), kindJSON, http.Header{
		"Authorization":           {tok.Type() + " " + tok.AccessToken},
		"X-EBAY-C-MARKETPLACE-ID": {e.cfg.Marketplace},
	}).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("ebay search: %w", err)
	}
	var sr ebaySearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("ebay decode: %w", err)
	}
	fallbackURL := e.searchURL(query)
	return fn.FilterMap(sr.ItemSummaries, func(it ebayItem) (domain.NormalizedResult, bool) {
		return e.normalize(it, fallbackURL)
	}), nil
}

func (e *Ebay) normalize(it ebayItem, fallbackURL string) (domain.NormalizedResult, bool) {
	if it.ItemID == "" || strings.TrimSpace(it.Title) == "" {
		return domain.NormalizedResult{}, false
	}
	r := domain.NormalizedResult{
		ID:         "ebay-" + it.ItemID,
		Name:       it.Title,
		ProductURL: it.ItemWebURL,
	}
	var price, original float64
	if it.Price != nil && (it.Price.Currency == "" || it.Price.Currency == "USD") {
		price = parseAmount(it.Price.Value)
	}
	if it.MarketingPrice != nil && it.MarketingPrice.OriginalPrice != nil {
		original = parseAmount(it.MarketingPrice.OriginalPrice.Value)
	}
	r.SetPrices(price, original)

	if it.Image != nil {
		r.ImageURL = ownedImage(it.Image.ImageURL, "ebayimg.com", "ebay.com")
	}
	if len(it.ShippingOptions) > 0 {
		r.ShippingNote = ebayShippingNote(it.ShippingOptions[0].ShippingCostType, it.ShippingOptions[0].ShippingCost)
	}
	if len(it.EstimatedAvailabilities) > 0 {
		switch it.EstimatedAvailabilities[0].Status {
		case "IN_STOCK", "LIMITED_STOCK":
			r.InStock = domain.Ptr(true)
		case "OUT_OF_STOCK":
			r.InStock = domain.Ptr(false)
		}
	}
	if it.Seller != nil && it.Seller.FeedbackScore > 0 {
		if pct, err := strconv.ParseFloat(it.Seller.FeedbackPercentage, 64); err == nil && pct > 0 {
			r.Rating = domain.Ptr(pct / 20)
			r.ReviewCount = domain.Ptr(it.Seller.FeedbackScore)
		}
	}
	r.OutboundURL, r.IsAffiliateTracked = affiliate.Apply(affiliate.Ebay, r.ProductURL, fallbackURL)
	if r.ProductURL == "" {
		r.ProductURL = fallbackURL
	}
	return r, true
}

func ebayShippingNote(costType string, cost *ebayAmount) string {
	if cost == nil {
		return ""
	}
	raw, err := strconv.ParseFloat(strings.TrimSpace(cost.Value), 64)
	if err != nil {
		return ""
	}
	v := parseAmount(cost.Value)
	switch {
	case raw == 0:
		return "Free shipping"
	case v > 0 && costType == "FIXED":
		return fmt.Sprintf("+$%.2f shipping", v)
	case v > 0:
		return fmt.Sprintf("Shipping from $%.2f", v)
	}
	return ""
}
