// internal/costs/source.go
package costs

import (
	"context"

	"github.com/liduanken/bakery-quotation-agent/internal/models"
)

// Source answers material cost lookups. Names are matched
// case-insensitively; bulk lookups omit materials with no stored cost
// instead of failing, so callers can report missing materials themselves.
type Source interface {
	// LookupBulk returns costs keyed by lowercased material name.
	// Unknown names are simply absent from the result.
	LookupBulk(ctx context.Context, names []string) (map[string]models.MaterialCost, error)

	// Get returns the cost for one material, or nil when unknown.
	Get(ctx context.Context, name string) (*models.MaterialCost, error)

	// List returns every stored material cost ordered by name.
	List(ctx context.Context) ([]models.MaterialCost, error)

	// Search returns materials whose name contains the pattern.
	Search(ctx context.Context, pattern string) ([]models.MaterialCost, error)
}
