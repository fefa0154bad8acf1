/*
errors.go - Centralized error types for the planning engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Edit errors - Local to a single bucket-tree edit; the tree is left
     unchanged (no partial mutation) when these are returned
  2. Graph errors - Corrupt BOM data; these abort the whole explosion or
     evaluation call, never a partial result
  3. Snapshot errors - Advisory freshness failures, recoverable by
     re-fetching

SEE ALSO:
  - bucket.go: Returns edit errors
  - explosion.go: Returns graph errors
  - feasibility.go: Returns snapshot errors
*/
package planning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidValue is returned when an edit supplies a negative quantity.
	ErrInvalidValue = errors.New("invalid value: quantity must be >= 0")

	// ErrNoEditableDays is returned when an aggregate edit targets a scope
	// whose editable leaf days are all locked (fully in the past).
	ErrNoEditableDays = errors.New("no editable days in scope")

	// ErrNotEditable is returned when a leaf edit targets a locked day.
	ErrNotEditable = errors.New("day is not editable")

	// ErrCycleDetected is returned when the BOM graph has a cycle reachable
	// from the demand item. Fatal to that explosion.
	ErrCycleDetected = errors.New("cycle detected in BOM graph")

	// ErrMissingItem is returned on referential integrity failure: a BOM
	// edge or demand references an item absent from the catalog.
	ErrMissingItem = errors.New("item not found in catalog")

	// ErrMissingEdge is returned when an operation references a BOM edge
	// that does not exist.
	ErrMissingEdge = errors.New("BOM edge not found")

	// ErrStaleSnapshot is returned when evaluation is called with a stock or
	// capacity snapshot older than the configured freshness window.
	// Recoverable by re-fetching; not fatal to the session.
	ErrStaleSnapshot = errors.New("snapshot is stale")

	// ErrNotAvailable is returned by data providers that have no data,
	// instead of silently substituting sample data.
	ErrNotAvailable = errors.New("provider has no data")

	// ErrUnknownPeriod is returned when a PeriodKey does not resolve to a
	// node of the target tree (wrong month/week/day for the year).
	ErrUnknownPeriod = errors.New("period key does not exist in tree")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// CycleError reports the offending path when a BOM cycle is reachable from
// the demand item. The path ends with the item that closed the cycle.
type CycleError struct {
	Path []ItemID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = string(id)
	}
	return fmt.Sprintf("cycle detected in BOM graph: %s", strings.Join(parts, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// MissingItemError reports which item id failed catalog lookup.
type MissingItemError struct {
	ItemID ItemID
}

func (e *MissingItemError) Error() string {
	return fmt.Sprintf("item %q not found in catalog", e.ItemID)
}

func (e *MissingItemError) Unwrap() error { return ErrMissingItem }

// InvalidValueError reports the rejected quantity of a failed edit.
type InvalidValueError struct {
	Key   PeriodKey
	Value decimal.Decimal
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %s for %s: quantity must be >= 0", e.Value, e.Key)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

// NoEditableDaysError reports the scope of a failed aggregate edit.
type NoEditableDaysError struct {
	Key PeriodKey
}

func (e *NoEditableDaysError) Error() string {
	return fmt.Sprintf("no editable days in scope %s", e.Key)
}

func (e *NoEditableDaysError) Unwrap() error { return ErrNoEditableDays }

// StaleSnapshotError reports which snapshot aged out and by how much.
type StaleSnapshotError struct {
	Kind string // "stock", "workforce", "capacity"
	Age  string
}

func (e *StaleSnapshotError) Error() string {
	return fmt.Sprintf("%s snapshot is stale (age %s)", e.Kind, e.Age)
}

func (e *StaleSnapshotError) Unwrap() error { return ErrStaleSnapshot }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsEditError returns true if the error is local to a single edit operation
// and left the tree unchanged.
func IsEditError(err error) bool {
	return errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrNoEditableDays) ||
		errors.Is(err, ErrNotEditable) ||
		errors.Is(err, ErrUnknownPeriod)
}

// IsGraphError returns true if the error indicates corrupt BOM data that
// aborted the whole call.
func IsGraphError(err error) bool {
	return errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrMissingItem) ||
		errors.Is(err, ErrMissingEdge)
}

// IsRecoverable returns true if the error might succeed after re-fetching
// inputs.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrStaleSnapshot) || errors.Is(err, ErrNotAvailable)
}
