// Package store provides in-memory planning data providers for tests/dev.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/planning-engine/planning"
)

// =============================================================================
// MEMORY PROVIDERS - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements every planning provider interface from explicitly
// loaded data. An empty Memory answers ErrNotAvailable rather than
// inventing sample data.
type Memory struct {
	mu        sync.RWMutex
	items     []planning.Item
	edges     []planning.BOMEdge
	stock     *planning.StockSnapshot
	workforce map[int]planning.WorkforceSnapshot
	capacity  map[int]planning.CapacitySnapshot
}

func NewMemory() *Memory {
	return &Memory{
		workforce: make(map[int]planning.WorkforceSnapshot),
		capacity:  make(map[int]planning.CapacitySnapshot),
	}
}

// LoadCatalog replaces the item catalog and BOM edges.
func (m *Memory) LoadCatalog(items []planning.Item, edges []planning.BOMEdge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]planning.Item{}, items...)
	m.edges = append([]planning.BOMEdge{}, edges...)
}

// LoadStock replaces the stock snapshot.
func (m *Memory) LoadStock(levels map[planning.ItemID]decimal.Decimal, takenAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make(map[planning.ItemID]decimal.Decimal, len(levels))
	for id, v := range levels {
		copied[id] = v
	}
	m.stock = &planning.StockSnapshot{TakenAt: takenAt, Levels: copied}
}

// LoadWorkforce replaces the workforce snapshot for a year.
func (m *Memory) LoadWorkforce(year int, snap planning.WorkforceSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workforce[year] = snap
}

// LoadCapacity replaces the capacity snapshot for a year.
func (m *Memory) LoadCapacity(year int, snap planning.CapacitySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.capacity[year] = snap
}

func (m *Memory) Items(_ context.Context) ([]planning.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.items == nil {
		return nil, planning.ErrNotAvailable
	}
	return append([]planning.Item{}, m.items...), nil
}

func (m *Memory) Edges(_ context.Context) ([]planning.BOMEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]planning.BOMEdge{}, m.edges...), nil
}

func (m *Memory) Stock(_ context.Context) (planning.StockSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stock == nil {
		return planning.StockSnapshot{}, planning.ErrNotAvailable
	}
	return *m.stock, nil
}

func (m *Memory) Workforce(_ context.Context, year int) (planning.WorkforceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.workforce[year]
	if !ok {
		return planning.WorkforceSnapshot{}, planning.ErrNotAvailable
	}
	return snap, nil
}

func (m *Memory) Capacity(_ context.Context, year int) (planning.CapacitySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.capacity[year]
	if !ok {
		return planning.CapacitySnapshot{}, planning.ErrNotAvailable
	}
	return snap, nil
}

// Providers bundles this Memory as all four provider roles.
func (m *Memory) Providers() planning.Providers {
	return planning.Providers{Catalog: m, Stock: m, Workforce: m, Capacity: m}
}
