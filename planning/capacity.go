/*
capacity.go - Capacity consumption ledger

PURPOSE:
  The one piece of genuinely shared, mutable state in the engine: the
  consumed-hours bookkeeping per (production line, date). Hours are only
  consumed when a production order is COMMITTED - evaluation never touches
  this ledger, so repeated evaluations stay side-effect-free.

CONCURRENCY:
  Commits against the same (line, date) are serialized by a mutex to avoid
  lost updates. Snapshot reads copy each day record as a whole, never
  field-by-field, so an evaluation always sees a consistent day.

SEE ALSO:
  - feasibility.go: Consumes snapshots of this ledger
  - session.go: Commits orders through it
*/
package planning

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// CapacityLedger tracks available and consumed hours per (line, date).
type CapacityLedger struct {
	mu   sync.RWMutex
	days map[capacityKey]CapacityDay
}

type capacityKey struct {
	Line LineID
	Date Date
}

func NewCapacityLedger() *CapacityLedger {
	return &CapacityLedger{days: make(map[capacityKey]CapacityDay)}
}

// SetAvailable records externally-supplied availability for a (line, date).
func (l *CapacityLedger) SetAvailable(line LineID, date Date, hours decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := capacityKey{Line: line, Date: date}
	rec := l.days[k]
	rec.AvailableHours = hours
	l.days[k] = rec
}

// Commit consumes hours on a (line, date). Fails when the commit would
// exceed available hours; the ledger is unchanged on failure.
func (l *CapacityLedger) Commit(line LineID, date Date, hours decimal.Decimal) error {
	if hours.IsNegative() {
		return &InvalidValueError{Key: DayKey(date.Month(), date.Day()), Value: hours}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	k := capacityKey{Line: line, Date: date}
	rec := l.days[k]
	consumed := rec.ConsumedHours.Add(hours)
	if consumed.GreaterThan(rec.AvailableHours) {
		return fmt.Errorf("line %s has %s hours free on %s, cannot commit %s",
			line, clampZero(rec.AvailableHours.Sub(rec.ConsumedHours)), date, hours)
	}
	rec.ConsumedHours = consumed
	l.days[k] = rec
	return nil
}

// Day returns the full record for one (line, date) atomically.
func (l *CapacityLedger) Day(line LineID, date Date) CapacityDay {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.days[capacityKey{Line: line, Date: date}]
}

// Snapshot copies the whole ledger into an immutable CapacitySnapshot for
// evaluation.
func (l *CapacityLedger) Snapshot(takenAt time.Time) CapacitySnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := CapacitySnapshot{TakenAt: takenAt, Lines: make(map[LineID]map[Date]CapacityDay)}
	for k, rec := range l.days {
		line, ok := snap.Lines[k.Line]
		if !ok {
			line = make(map[Date]CapacityDay)
			snap.Lines[k.Line] = line
		}
		line[k.Date] = rec
	}
	return snap
}

// Load replaces the ledger contents from a snapshot (session restore).
func (l *CapacityLedger) Load(snap CapacitySnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.days = make(map[capacityKey]CapacityDay)
	for line, days := range snap.Lines {
		for date, rec := range days {
			l.days[capacityKey{Line: line, Date: date}] = rec
		}
	}
}
