// Package affiliate rewrites outbound retailer URLs with commission
// tracking parameters.
//
// Partner identifiers are read from the environment on every call so they
// can be rotated without a restart. When a variable is unset the program's
// fallback constant is used.
package affiliate

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Environment variables consulted at call time.
const (
	EnvEbayCampaignID    = "EBAY_CAMPAIGN_ID"
	EnvEbayCustomID      = "EBAY_CUSTOM_ID"
	EnvAmazonTag         = "AMAZON_ASSOCIATE_TAG"
	EnvWalmartImpactID   = "WALMART_IMPACT_ID"
	EnvAdvanceAutoCJPID  = "ADVANCE_AUTO_CJ_PID"
	EnvSummitAvantLinkID = "SUMMIT_AVANTLINK_ID"
)

// Fallback identifiers used when the environment carries none.
const (
	DefaultEbayCampaignID    = "5339012345"
	DefaultEbayCustomID      = "wessley-parts"
	DefaultAmazonTag         = "wessley-20"
	DefaultWalmartImpactID   = "2412857"
	DefaultAdvanceAutoCJPID  = "100357191"
	DefaultSummitAvantLinkID = "281379"
)

// eBay Partner Network rover constants.
const (
	ebayMkcid  = "1"
	ebayMkrid  = "711-53200-19255-0"
	ebaySiteID = "0"
	ebayToolID = "10001"
	ebayMkevt  = "1"
)

const (
	walmartImpactBase = "https://goto.walmart.com/c/%s/568844/9383"
	advanceCJBase     = "https://www.anrdoezrs.net/click-%s-13409547"
	summitAvantBase   = "https://www.avantlink.com/click.php"
	summitMerchantID  = "10309"
)

// Rule rewrites a plain URL into its tracked form. ok is false when the
// URL could not be tracked, in which case the returned string is the
// input unchanged.
type Rule func(raw string) (tracked string, ok bool)

// Apply computes the outbound URL for a result. productURL is preferred;
// searchURL is the composed-query fallback when no item URL was resolved.
// A nil rule means the source has no commission program.
func Apply(rule Rule, productURL, searchURL string) (outbound string, tracked bool) {
	target := productURL
	if target == "" {
		target = searchURL
	}
	if rule == nil || target == "" {
		return target, false
	}
	return rule(target)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// withParams merges params into raw's query string.
func withParams(raw string, params map[string]string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw, false
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}

// wrap builds a redirect URL that carries raw as an encoded parameter.
func wrap(base, param, raw string, extra map[string]string) (string, bool) {
	if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
		return raw, false
	}
	q := url.Values{}
	for k, v := range extra {
		q.Set(k, v)
	}
	q.Set(param, raw)
	return base + "?" + q.Encode(), true
}

// Ebay appends eBay Partner Network parameters.
func Ebay(raw string) (string, bool) {
	return withParams(raw, map[string]string{
		"mkcid":    ebayMkcid,
		"mkrid":    ebayMkrid,
		"siteid":   ebaySiteID,
		"campid":   envOr(EnvEbayCampaignID, DefaultEbayCampaignID),
		"customid": envOr(EnvEbayCustomID, DefaultEbayCustomID),
		"toolid":   ebayToolID,
		"mkevt":    ebayMkevt,
	})
}

// Amazon appends the Associates tag.
func Amazon(raw string) (string, bool) {
	return withParams(raw, map[string]string{
		"tag": envOr(EnvAmazonTag, DefaultAmazonTag),
	})
}

// Walmart wraps the URL in an Impact redirect.
func Walmart(raw string) (string, bool) {
	base := fmt.Sprintf(walmartImpactBase, url.PathEscape(envOr(EnvWalmartImpactID, DefaultWalmartImpactID)))
	return wrap(base, "u", raw, map[string]string{"veh": "aff"})
}

// AdvanceAuto wraps the URL in a CJ deep link.
func AdvanceAuto(raw string) (string, bool) {
	base := fmt.Sprintf(advanceCJBase, url.PathEscape(envOr(EnvAdvanceAutoCJPID, DefaultAdvanceAutoCJPID)))
	return wrap(base, "url", raw, nil)
}

// Summit wraps the URL in an AvantLink click-through.
func Summit(raw string) (string, bool) {
	return wrap(summitAvantBase, "url", raw, map[string]string{
		"tt": "cl",
		"mi": summitMerchantID,
		"pw": envOr(EnvSummitAvantLinkID, DefaultSummitAvantLinkID),
	})
}
