package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/WessleyAI/wessley-parts/engine/affiliate"
	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/pkg/fn"
	"golang.org/x/net/html"
)

const walmartSite = "https://www.walmart.com"

var walmartInfo = domain.SourceInfo{Name: "Walmart", Slug: "walmart", Color: "#0071CE"}

// errNoPageData means the page carried no embedded listing payload.
var errNoPageData = errors.New("no __NEXT_DATA__ payload")

// Walmart extracts listings from the JSON payload embedded in Walmart's
// search page.
type Walmart struct {
	baseURL string
	client  *http.Client
}

// NewWalmart builds the adapter. An empty baseURL targets walmart.com.
func NewWalmart(baseURL string, client *http.Client) *Walmart {
	if baseURL == "" {
		baseURL = walmartSite
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &Walmart{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (w *Walmart) Info() domain.SourceInfo { return walmartInfo }

func (w *Walmart) searchURL(query string) string {
	return w.baseURL + "/search?" + url.Values{"q": {query}}.Encode()
}

type walmartPrice struct {
	Price       float64 `json:"price"`
	PriceString string  `json:"priceString"`
}

type walmartItem struct {
	Typename     string `json:"__typename"`
	USItemID     string `json:"usItemId"`
	Name         string `json:"name"`
	CanonicalURL string `json:"canonicalUrl"`
	ImageInfo    *struct {
		ThumbnailURL string `json:"thumbnailUrl"`
	} `json:"imageInfo"`
	PriceInfo *struct {
		CurrentPrice *walmartPrice `json:"currentPrice"`
		WasPrice     *walmartPrice `json:"wasPrice"`
	} `json:"priceInfo"`
	Availability *struct {
		Value string `json:"value"`
	} `json:"availabilityStatusV2"`
	AverageRating    float64 `json:"averageRating"`
	NumberOfReviews  int     `json:"numberOfReviews"`
	FulfillmentBadge string  `json:"fulfillmentBadge"`
	ModelNumber      string  `json:"modelNumber"`
}

type walmartStack struct {
	Items []walmartItem `json:"items"`
}

type walmartPage struct {
	Props struct {
		PageProps struct {
			InitialData struct {
				SearchResult struct {
					ItemStacks []walmartStack `json:"itemStacks"`
				} `json:"searchResult"`
			} `json:"initialData"`
		} `json:"pageProps"`
	} `json:"props"`
}

func (w *Walmart) Fetch(ctx context.Context, query string, _ *domain.VehicleContext) ([]domain.NormalizedResult, error) {
	searchURL := w.searchURL(query)
	body, err := get(ctx, w.client, searchURL, kindHTML, nil).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("walmart search: %w", err)
	}
	payload, err := nextData(body)
	if err != nil {
		return nil, fmt.Errorf("walmart: %w", err)
	}
	var page walmartPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, fmt.Errorf("walmart decode: %w", err)
	}
	items := fn.FlatMap(page.Props.PageProps.InitialData.SearchResult.ItemStacks, func(s walmartStack) []walmartItem {
		return s.Items
	})
	return fn.FilterMap(items, func(it walmartItem) (domain.NormalizedResult, bool) {
		return w.normalize(it, searchURL)
	}), nil
}

// nextData returns the contents of <script id="__NEXT_DATA__">.
func nextData(page []byte) ([]byte, error) {
	z := html.NewTokenizer(bytes.NewReader(page))
	inData := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return nil, errNoPageData
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "script" || !hasAttr {
				continue
			}
			for {
				k, v, more := z.TagAttr()
				if string(k) == "id" && string(v) == "__NEXT_DATA__" {
					inData = true
				}
				if !more {
					break
				}
			}
		case html.TextToken:
			if inData {
				return bytes.Clone(z.Text()), nil
			}
		case html.EndTagToken:
			inData = false
		}
	}
}

func (w *Walmart) normalize(it walmartItem, searchURL string) (domain.NormalizedResult, bool) {
	// sponsored tiles and "shop on site" banners are not products
	if it.Typename != "Product" || it.USItemID == "" || strings.TrimSpace(it.Name) == "" {
		return domain.NormalizedResult{}, false
	}
	r := domain.NormalizedResult{
		ID:             "walmart-" + it.USItemID,
		Name:           it.Name,
		ProductURL:     resolve(w.baseURL, it.CanonicalURL),
		ShippingNote:   strings.TrimSpace(it.FulfillmentBadge),
		PartNumberHint: strings.TrimSpace(it.ModelNumber),
	}
	if pi := it.PriceInfo; pi != nil {
		r.SetPrices(walmartAmount(pi.CurrentPrice), walmartAmount(pi.WasPrice))
	}
	if it.ImageInfo != nil {
		r.ImageURL = ownedImage(it.ImageInfo.ThumbnailURL, "walmartimages.com", "walmart.com")
	}
	if it.Availability != nil {
		switch it.Availability.Value {
		case "IN_STOCK":
			r.InStock = domain.Ptr(true)
		case "OUT_OF_STOCK":
			r.InStock = domain.Ptr(false)
		}
	}
	if it.AverageRating > 0 {
		r.Rating = domain.Ptr(it.AverageRating)
		r.ReviewCount = domain.Ptr(it.NumberOfReviews)
	}
	r.OutboundURL, r.IsAffiliateTracked = affiliate.Apply(affiliate.Walmart, r.ProductURL, searchURL)
	if r.ProductURL == "" {
		r.ProductURL = searchURL
	}
	return r, true
}

func walmartAmount(p *walmartPrice) float64 {
	if p == nil {
		return 0
	}
	if p.Price > 0 {
		return p.Price
	}
	v, _ := ParsePrice(p.PriceString)
	return v
}
