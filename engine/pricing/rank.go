package pricing

import (
	"slices"

	"github.com/WessleyAI/wessley-parts/engine/domain"
	"github.com/WessleyAI/wessley-parts/pkg/fn"
)

// Rank returns a new slice with priced results first, ascending by price,
// followed by unpriced results in their original order. Equal prices keep
// their relative order. The input is not modified.
func Rank(results []domain.NormalizedResult) []domain.NormalizedResult {
	priced, unpriced := fn.Partition(results, domain.NormalizedResult.HasPrice)
	slices.SortStableFunc(priced, func(a, b domain.NormalizedResult) int {
		switch {
		case *a.Price < *b.Price:
			return -1
		case *a.Price > *b.Price:
			return 1
		}
		return 0
	})
	out := make([]domain.NormalizedResult, 0, len(results))
	out = append(out, priced...)
	return append(out, unpriced...)
}
