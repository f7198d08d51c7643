package sources

import "net/http"

// DefaultsConfig configures the production adapter set.
type DefaultsConfig struct {
	Ebay EbayConfig
	// HTTPClient is shared by the scraping adapters. Nil builds a traced client.
	HTTPClient *http.Client
}

// Defaults returns the live adapters in registration order. eBay is left
// out when no API credentials are configured; skipped lists what was left out.
func Defaults(cfg DefaultsConfig) (adapters []Adapter, skipped []string) {
	client := cfg.HTTPClient
	if client == nil {
		client = NewHTTPClient()
	}
	if cfg.Ebay.HTTPClient == nil {
		cfg.Ebay.HTTPClient = client
	}
	if ebay := NewEbay(cfg.Ebay); ebay.Configured() {
		adapters = append(adapters, ebay)
	} else {
		skipped = append(skipped, ebayInfo.Slug)
	}
	adapters = append(adapters,
		NewWalmart("", client),
		NewCarParts("", client),
		NewAmazon(),
		NewRockAuto(),
	)
	return adapters, skipped
}
