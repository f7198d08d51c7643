// Package pricing composes the canonical search string, fans the search out
// to every registered source, and ranks what comes back.
package pricing

import (
	"strings"

	"github.com/WessleyAI/wessley-parts/engine/domain"
)

// ComposeQuery prefixes query with vehicle context when it is specific
// enough: year, make and model together, or make and model. Any other
// combination leaves query unchanged so partial context is never injected.
func ComposeQuery(query string, v *domain.VehicleContext) string {
	query = strings.TrimSpace(query)
	if v == nil {
		return query
	}
	year, mk, model := strings.TrimSpace(v.Year), strings.TrimSpace(v.Make), strings.TrimSpace(v.Model)
	switch {
	case year != "" && mk != "" && model != "":
		return year + " " + mk + " " + model + " " + query
	case mk != "" && model != "":
		return mk + " " + model + " " + query
	default:
		return query
	}
}
