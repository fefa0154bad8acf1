/*
Package sqlite provides a SQLite-backed implementation of the planning
data-provider interfaces plus plan-snapshot persistence.

PURPOSE:
  Persists the item catalog, BOM edges, per-day plan values and committed
  line capacity. Implements planning.CatalogProvider, StockProvider,
  WorkforceProvider and CapacityProvider so a server session can be wired
  directly to this store.

KEY TABLES:
  items:           Catalog entries including stock snapshot columns
  bom_edges:       Parent→child consumption edges
  plan_values:     One row per (item, row type, date) day value
  workforce_days:  Days available per (year, month)
  line_capacity:   Available/consumed hours per (line, date)

SNAPSHOT SEMANTICS:
  Plan values are saved wholesale per (item, row): delete-then-insert
  inside one transaction. This is simple key-value snapshot storage;
  stronger transactional guarantees are out of scope.

DECIMALS:
  Quantities are stored as TEXT via decimal.String() to avoid float
  round-tripping.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety alongside SQLite WAL mode.

USAGE:
  store, err := sqlite.New("./planner.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  session, err := planning.NewSession(ctx, planning.SessionConfig{
      Year:      2024,
      Providers: store.Providers(),
  })

SEE ALSO:
  - planning/providers.go: Interface definitions
  - planning/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/planning-engine/planning"
)

// Store implements the planning provider interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Item catalog (stock columns are snapshot values, refreshed externally)
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		category TEXT NOT NULL,
		current_stock TEXT NOT NULL,
		safety_stock TEXT NOT NULL,
		max_stock TEXT NOT NULL
	);

	-- BOM edges (parent consumes child)
	CREATE TABLE IF NOT EXISTS bom_edges (
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		quantity_per_unit TEXT NOT NULL,
		yield_percentage TEXT NOT NULL,
		production_time_hours REAL NOT NULL,
		edge_type TEXT NOT NULL,
		PRIMARY KEY (parent_id, child_id)
	);

	CREATE INDEX IF NOT EXISTS idx_bom_edges_parent ON bom_edges(parent_id);

	-- Plan day values, one row per (item, row type, date)
	CREATE TABLE IF NOT EXISTS plan_values (
		item_id TEXT NOT NULL,
		row_type TEXT NOT NULL,
		date TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (item_id, row_type, date)
	);

	CREATE INDEX IF NOT EXISTS idx_plan_values_item_row
		ON plan_values(item_id, row_type);

	-- Workforce days available per month
	CREATE TABLE IF NOT EXISTS workforce_days (
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		days TEXT NOT NULL,
		PRIMARY KEY (year, month)
	);

	-- Line capacity per day
	CREATE TABLE IF NOT EXISTS line_capacity (
		line_id TEXT NOT NULL,
		date TEXT NOT NULL,
		available_hours TEXT NOT NULL,
		consumed_hours TEXT NOT NULL,
		PRIMARY KEY (line_id, date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all tables. Used by demo scenario loaders; never called in
// normal operation.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"items", "bom_edges", "plan_values", "workforce_days", "line_capacity"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// CATALOG
// =============================================================================

// SaveCatalog replaces the item catalog and BOM edges in one transaction.
func (s *Store) SaveCatalog(ctx context.Context, items []planning.Item, edges []planning.BOMEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bom_edges`); err != nil {
		return err
	}

	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, code, name, unit, category, current_stock, safety_stock, max_stock)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(it.ID), it.Code, it.Name, it.Unit, string(it.Category),
			it.CurrentStock.String(), it.SafetyStock.String(), it.MaxStock.String())
		if err != nil {
			return err
		}
	}
	for _, e := range edges {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bom_edges (parent_id, child_id, quantity_per_unit, yield_percentage, production_time_hours, edge_type)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(e.ParentID), string(e.ChildID), e.QuantityPerUnit.String(),
			e.YieldPercentage.String(), e.ProductionTimeHours, string(e.Type))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Items implements planning.CatalogProvider.
func (s *Store) Items(ctx context.Context) ([]planning.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, unit, category, current_stock, safety_stock, max_stock
		FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []planning.Item
	for rows.Next() {
		var it planning.Item
		var id, category, current, safety, max string
		if err := rows.Scan(&id, &it.Code, &it.Name, &it.Unit, &category, &current, &safety, &max); err != nil {
			return nil, err
		}
		it.ID = planning.ItemID(id)
		it.Category = planning.Category(category)
		if it.CurrentStock, err = decimal.NewFromString(current); err != nil {
			return nil, err
		}
		if it.SafetyStock, err = decimal.NewFromString(safety); err != nil {
			return nil, err
		}
		if it.MaxStock, err = decimal.NewFromString(max); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, planning.ErrNotAvailable
	}
	return items, nil
}

// Edges implements planning.CatalogProvider.
func (s *Store) Edges(ctx context.Context) ([]planning.BOMEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT parent_id, child_id, quantity_per_unit, yield_percentage, production_time_hours, edge_type
		FROM bom_edges ORDER BY parent_id, child_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []planning.BOMEdge
	for rows.Next() {
		var e planning.BOMEdge
		var parent, child, qty, yield, edgeType string
		if err := rows.Scan(&parent, &child, &qty, &yield, &e.ProductionTimeHours, &edgeType); err != nil {
			return nil, err
		}
		e.ParentID = planning.ItemID(parent)
		e.ChildID = planning.ItemID(child)
		e.Type = planning.EdgeType(edgeType)
		if e.QuantityPerUnit, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if e.YieldPercentage, err = decimal.NewFromString(yield); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// =============================================================================
// STOCK
// =============================================================================

// UpdateStock overwrites the stock snapshot columns for the given items.
func (s *Store) UpdateStock(ctx context.Context, levels map[planning.ItemID]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, level := range levels {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET current_stock = ? WHERE id = ?`,
			level.String(), string(id)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Stock implements planning.StockProvider, reading the catalog's stock
// snapshot columns.
func (s *Store) Stock(ctx context.Context) (planning.StockSnapshot, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return planning.StockSnapshot{}, err
	}
	snap := planning.StockSnapshot{
		TakenAt: time.Now(),
		Levels:  make(map[planning.ItemID]decimal.Decimal, len(items)),
	}
	for _, it := range items {
		snap.Levels[it.ID] = it.CurrentStock
	}
	return snap, nil
}

// =============================================================================
// WORKFORCE
// =============================================================================

// SaveWorkforce replaces the workforce days for one year.
func (s *Store) SaveWorkforce(ctx context.Context, year int, days map[time.Month]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workforce_days WHERE year = ?`, year); err != nil {
		return err
	}
	for month, d := range days {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workforce_days (year, month, days) VALUES (?, ?, ?)`,
			year, int(month), d.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Workforce implements planning.WorkforceProvider.
func (s *Store) Workforce(ctx context.Context, year int) (planning.WorkforceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT month, days FROM workforce_days WHERE year = ?`, year)
	if err != nil {
		return planning.WorkforceSnapshot{}, err
	}
	defer rows.Close()

	snap := planning.WorkforceSnapshot{
		TakenAt:       time.Now(),
		DaysAvailable: make(map[time.Month]decimal.Decimal, 12),
	}
	for rows.Next() {
		var month int
		var days string
		if err := rows.Scan(&month, &days); err != nil {
			return planning.WorkforceSnapshot{}, err
		}
		d, err := decimal.NewFromString(days)
		if err != nil {
			return planning.WorkforceSnapshot{}, err
		}
		snap.DaysAvailable[time.Month(month)] = d
	}
	if err := rows.Err(); err != nil {
		return planning.WorkforceSnapshot{}, err
	}
	if len(snap.DaysAvailable) == 0 {
		return planning.WorkforceSnapshot{}, planning.ErrNotAvailable
	}
	return snap, nil
}

// =============================================================================
// LINE CAPACITY
// =============================================================================

// SaveCapacity persists a capacity snapshot (availability plus committed
// hours) wholesale.
func (s *Store) SaveCapacity(ctx context.Context, snap planning.CapacitySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM line_capacity`); err != nil {
		return err
	}
	for line, days := range snap.Lines {
		for date, rec := range days {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO line_capacity (line_id, date, available_hours, consumed_hours)
				VALUES (?, ?, ?, ?)`,
				string(line), date.String(), rec.AvailableHours.String(), rec.ConsumedHours.String()); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Capacity implements planning.CapacityProvider.
func (s *Store) Capacity(ctx context.Context, year int) (planning.CapacitySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT line_id, date, available_hours, consumed_hours
		FROM line_capacity WHERE date LIKE ?`, fmt.Sprintf("%04d-%%", year))
	if err != nil {
		return planning.CapacitySnapshot{}, err
	}
	defer rows.Close()

	snap := planning.CapacitySnapshot{
		TakenAt: time.Now(),
		Lines:   make(map[planning.LineID]map[planning.Date]planning.CapacityDay),
	}
	for rows.Next() {
		var line, dateStr, avail, consumed string
		if err := rows.Scan(&line, &dateStr, &avail, &consumed); err != nil {
			return planning.CapacitySnapshot{}, err
		}
		date, err := planning.ParseDate(dateStr)
		if err != nil {
			return planning.CapacitySnapshot{}, err
		}
		var rec planning.CapacityDay
		if rec.AvailableHours, err = decimal.NewFromString(avail); err != nil {
			return planning.CapacitySnapshot{}, err
		}
		if rec.ConsumedHours, err = decimal.NewFromString(consumed); err != nil {
			return planning.CapacitySnapshot{}, err
		}
		lineID := planning.LineID(line)
		if snap.Lines[lineID] == nil {
			snap.Lines[lineID] = make(map[planning.Date]planning.CapacityDay)
		}
		snap.Lines[lineID][date] = rec
	}
	if err := rows.Err(); err != nil {
		return planning.CapacitySnapshot{}, err
	}
	if len(snap.Lines) == 0 {
		return planning.CapacitySnapshot{}, planning.ErrNotAvailable
	}
	return snap, nil
}

// =============================================================================
// PLAN VALUES
// =============================================================================

// SavePlanRow snapshots one bucket tree's day values: delete-then-insert
// for the (item, row) pair inside a single transaction.
func (s *Store) SavePlanRow(ctx context.Context, itemID planning.ItemID, row planning.RowType, tree *planning.BucketTree) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM plan_values WHERE item_id = ? AND row_type = ?`,
		string(itemID), string(row)); err != nil {
		return err
	}

	var insertErr error
	tree.ForEachDay(func(d *planning.DayBucket) {
		if insertErr != nil || d.Value.IsZero() {
			return
		}
		_, insertErr = tx.ExecContext(ctx, `
			INSERT INTO plan_values (item_id, row_type, date, value)
			VALUES (?, ?, ?, ?)`,
			string(itemID), string(row), d.Date.String(), d.Value.String())
	})
	if insertErr != nil {
		return insertErr
	}
	return tx.Commit()
}

// PlanRow loads the saved day values for one (item, row) pair in a year.
func (s *Store) PlanRow(ctx context.Context, itemID planning.ItemID, row planning.RowType, year int) (map[planning.Date]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, value FROM plan_values
		WHERE item_id = ? AND row_type = ? AND date LIKE ?`,
		string(itemID), string(row), fmt.Sprintf("%04d-%%", year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[planning.Date]decimal.Decimal)
	for rows.Next() {
		var dateStr, valueStr string
		if err := rows.Scan(&dateStr, &valueStr); err != nil {
			return nil, err
		}
		date, err := planning.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		v, err := decimal.NewFromString(valueStr)
		if err != nil {
			return nil, err
		}
		values[date] = v
	}
	return values, rows.Err()
}

// Seed adapts saved plan values into a planning.SessionConfig seed
// function; days with no saved value generate zero.
func (s *Store) Seed(ctx context.Context, year int) (func(planning.ItemID, planning.RowType) planning.ValueGenerator, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}

	saved := make(map[planning.ItemID]map[planning.RowType]map[planning.Date]decimal.Decimal, len(items))
	for _, it := range items {
		rowsByType := make(map[planning.RowType]map[planning.Date]decimal.Decimal, len(planning.PlanRows))
		for _, row := range planning.PlanRows {
			values, err := s.PlanRow(ctx, it.ID, row, year)
			if err != nil {
				return nil, err
			}
			rowsByType[row] = values
		}
		saved[it.ID] = rowsByType
	}

	return func(itemID planning.ItemID, row planning.RowType) planning.ValueGenerator {
		values := saved[itemID][row]
		return func(d planning.Date) decimal.Decimal {
			if v, ok := values[d]; ok {
				return v
			}
			return decimal.Zero
		}
	}, nil
}

// Providers bundles this store as all four provider roles.
func (s *Store) Providers() planning.Providers {
	return planning.Providers{Catalog: s, Stock: s, Workforce: s, Capacity: s}
}
