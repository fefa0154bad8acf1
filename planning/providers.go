/*
providers.go - Typed data-provider interfaces

PURPOSE:
  The engine consumes catalog, stock, workforce and capacity data from
  external collaborators through these interfaces instead of reaching into
  ambient globals. A provider with no data returns ErrNotAvailable
  explicitly; the engine never substitutes fallback sample data.

SEE ALSO:
  - store/memory.go: In-memory implementations for tests and dev
  - ../store/sqlite: SQLite-backed implementation
*/
package planning

import "context"

// CatalogProvider supplies the item catalog and BOM edge set.
type CatalogProvider interface {
	Items(ctx context.Context) ([]Item, error)
	Edges(ctx context.Context) ([]BOMEdge, error)
}

// StockProvider supplies the current on-hand stock snapshot.
type StockProvider interface {
	Stock(ctx context.Context) (StockSnapshot, error)
}

// WorkforceProvider supplies workforce days available per month for a year.
type WorkforceProvider interface {
	Workforce(ctx context.Context, year int) (WorkforceSnapshot, error)
}

// CapacityProvider supplies per-line per-day capacity for a year.
type CapacityProvider interface {
	Capacity(ctx context.Context, year int) (CapacitySnapshot, error)
}

// Providers bundles the four data sources a session needs.
type Providers struct {
	Catalog   CatalogProvider
	Stock     StockProvider
	Workforce WorkforceProvider
	Capacity  CapacityProvider
}

// LoadGraph builds and validates a BOM graph from the catalog provider.
func LoadGraph(ctx context.Context, catalog CatalogProvider) (*Graph, error) {
	items, err := catalog.Items(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := catalog.Edges(ctx)
	if err != nil {
		return nil, err
	}
	g := NewGraph(items, edges)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
