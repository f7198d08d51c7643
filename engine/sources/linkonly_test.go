package sources

import (
	"context"
	"net/url"
	"strings"
	"testing"
)

func TestRockAutoPlaceholderUntracked(t *testing.T) {
	res, err := NewRockAuto().Fetch(context.Background(), "2018 Honda Civic brake pads", nil)
	if err != nil || len(res) != 1 {
		t.Fatalf("expected one placeholder, got %v %v", res, err)
	}
	p := res[0]
	if p.Price != nil || !p.IsPlaceholder {
		t.Fatalf("placeholder must be unpriced: %+v", p)
	}
	if p.IsAffiliateTracked || p.OutboundURL != p.ProductURL {
		t.Fatalf("untracked source must link plainly: %+v", p)
	}
	if !strings.Contains(p.OutboundURL, url.QueryEscape("2018 Honda Civic brake pads")) {
		t.Fatalf("search url missing composed query: %s", p.OutboundURL)
	}
}

func TestAmazonPlaceholderTracked(t *testing.T) {
	t.Setenv("AMAZON_ASSOCIATE_TAG", "parts-20")
	p := NewAmazon().Placeholder("oil filter")

	if !p.IsAffiliateTracked || p.OutboundURL == p.ProductURL {
		t.Fatalf("tracked source must rewrite outbound: %+v", p)
	}
	if !strings.Contains(p.OutboundURL, "tag=parts-20") {
		t.Fatalf("associate tag missing: %s", p.OutboundURL)
	}
	if p.SourceSlug != "amazon" || p.ID != "amazon-search" {
		t.Fatalf("unexpected identity: %+v", p)
	}
}
