package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"golang.org/x/net/html"
)

const carPartsSite = "https://www.carparts.com"

var carPartsInfo = domain.SourceInfo{Name: "CarParts.com", Slug: "carparts", Color: "#E4002B"}

// CarParts scrapes product cards from the CarParts.com search page. It has
// no commission program, so outbound links are the plain product URLs.
type CarParts struct {
	baseURL string
	client  *http.Client
}

// NewCarParts builds the adapter. An empty baseURL targets carparts.com.
func NewCarParts(baseURL string, client *http.Client) *CarParts {
	if baseURL == "" {
		baseURL = carPartsSite
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &CarParts{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *CarParts) Info() domain.SourceInfo { return carPartsInfo }

func (c *CarParts) searchURL(query string) string {
	return c.baseURL + "/search?" + url.Values{"q": {query}}.Encode()
}

func (c *CarParts) Fetch(ctx context.Context, query string, _ *domain.VehicleContext) ([]domain.NormalizedResult, error) {
	searchURL := c.searchURL(query)
	body, err := get(ctx, c.client, searchURL, kindHTML, nil).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("carparts search: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("carparts parse: %w", err)
	}
	var out []domain.NormalizedResult
	for i, card := range findAll(doc, byClass("product-card")) {
		if r, ok := c.parseCard(card, i, searchURL); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// parseCard extracts one listing. Cards without a title, "Shop on site"
// tiles, and cards without a strict price token are skipped. Cards with no
// SKU, part number or link are identified by their position on the page.
func (c *CarParts) parseCard(card *html.Node, pos int, searchURL string) (domain.NormalizedResult, bool) {
	title := text(findFirst(card, byClass("product-card__title")))
	if title == "" || strings.Contains(strings.ToLower(title), "shop on site") {
		return domain.NormalizedResult{}, false
	}
	price, ok := ParsePrice(text(findFirst(card, byClass("product-card__price"))))
	if !ok {
		return domain.NormalizedResult{}, false
	}
	was, _ := ParsePrice(text(findFirst(card, byClass("product-card__price--was"))))

	r := domain.NormalizedResult{Name: title}
	r.SetPrices(price, was)

	if link := findFirst(card, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "a" }); link != nil {
		r.ProductURL = resolve(c.baseURL, attr(link, "href"))
	}
	if img := findFirst(card, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "img" }); img != nil {
		src := attr(img, "data-src")
		if src == "" {
			src = attr(img, "src")
		}
		r.ImageURL = ownedImage(src, "carparts.com")
	}
	if stock := strings.ToLower(text(findFirst(card, byClass("product-card__stock")))); stock != "" {
		switch {
		case strings.Contains(stock, "out of stock"):
			r.InStock = domain.Ptr(false)
		case strings.Contains(stock, "in stock"):
			r.InStock = domain.Ptr(true)
		}
	}
	if rating := findFirst(card, byClass("product-card__rating")); rating != nil {
		if v, err := strconv.ParseFloat(attr(rating, "data-rating"), 64); err == nil && v > 0 && v <= 5 {
			r.Rating = domain.Ptr(v)
			if n, err := strconv.Atoi(attr(rating, "data-count")); err == nil && n >= 0 {
				r.ReviewCount = domain.Ptr(n)
			}
		}
	}
	r.ShippingNote = text(findFirst(card, byClass("product-card__shipping")))
	r.PartNumberHint = strings.TrimSpace(strings.TrimPrefix(text(findFirst(card, byClass("product-card__part"))), "Part #"))

	sku := attr(card, "data-sku")
	if sku == "" {
		sku = r.PartNumberHint
	}
	if sku == "" {
		sku = r.ProductURL
	}
	if sku == "" {
		sku = "card-" + strconv.Itoa(pos)
	}
	r.ID = "carparts-" + sku

	if r.ProductURL == "" {
		r.ProductURL = searchURL
	}
	r.OutboundURL = r.ProductURL
	return r, true
}
