/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data for testing and demos. Each scenario loads a catalog plus BOM,
  workforce availability, and line capacity for the requested year.

AVAILABLE SCENARIOS:
  charcuterie:  Cured-meat plant; salami with multi-level recipe,
                intermediate curing stage, packaging items
  bakery:       Industrial bakery; two finished goods sharing flour,
                tight stock levels to surface shortages

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Convert the catalog JSON via the factory (validates the BOM)
 3. Save catalog, workforce days, and line capacity
 4. Drop cached sessions so the next evaluate rebuilds from scratch

USAGE VIA API:
  POST /api/scenarios/load
  {"name": "charcuterie", "year": 2026}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/catalog.go: Catalog JSON schema and validation
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/planning-engine/factory"
	"github.com/warp/planning-engine/planning"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		Name:        "charcuterie",
		Description: "Cured-meat plant: salami through a curing intermediate, pork and spice raws, packaging",
	},
	{
		Name:        "bakery",
		Description: "Industrial bakery: bread and brioche sharing flour, low stock to surface shortages",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	year := req.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.dropSessions()

	var err error
	switch req.Name {
	case "charcuterie":
		err = h.loadCharcuterieScenario(ctx, year)
	case "bakery":
		err = h.loadBakeryScenario(ctx, year)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown scenario %q", req.Name))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("loading scenario %q: %w", req.Name, err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "loaded",
		"scenario": req.Name,
		"year":     year,
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadCharcuterieScenario(ctx context.Context, year int) error {
	catalog := factory.CatalogJSON{
		Items: []factory.ItemJSON{
			{ID: "salami", Code: "FIN-001", Name: "Premium Salami", Unit: "kg",
				Category: "finished", CurrentStock: 120, SafetyStock: 50, MaxStock: 2000},
			{ID: "cured-mix", Code: "INT-001", Name: "Cured Meat Mix", Unit: "kg",
				Category: "intermediate", CurrentStock: 40, SafetyStock: 20, MaxStock: 800},
			{ID: "pork-shoulder", Code: "RAW-001", Name: "Pork Shoulder", Unit: "kg",
				Category: "raw_material", CurrentStock: 300, SafetyStock: 100, MaxStock: 5000},
			{ID: "spice-blend", Code: "RAW-002", Name: "Spice Blend", Unit: "kg",
				Category: "raw_material", CurrentStock: 25, SafetyStock: 10, MaxStock: 200},
			{ID: "casing", Code: "PKG-001", Name: "Natural Casing", Unit: "m",
				Category: "packaging", CurrentStock: 500, SafetyStock: 200, MaxStock: 10000},
			{ID: "vacuum-bag", Code: "PKG-002", Name: "Vacuum Bag", Unit: "pcs",
				Category: "packaging", CurrentStock: 1500, SafetyStock: 500, MaxStock: 20000},
		},
		Edges: []factory.EdgeJSON{
			// Salami is stuffed from cured mix; 95% yield through drying loss.
			{ParentID: "salami", ChildID: "cured-mix", QuantityPerUnit: 1.05,
				YieldPercentage: 95, ProductionTimeHours: 48, Type: "main_ingredient"},
			{ParentID: "salami", ChildID: "casing", QuantityPerUnit: 1.2,
				YieldPercentage: 100, ProductionTimeHours: 0, Type: "packaging"},
			{ParentID: "salami", ChildID: "vacuum-bag", QuantityPerUnit: 2,
				YieldPercentage: 100, ProductionTimeHours: 0, Type: "packaging"},
			// The mix itself: 0.8 kg pork per kg at 80% grinding yield.
			{ParentID: "cured-mix", ChildID: "pork-shoulder", QuantityPerUnit: 0.8,
				YieldPercentage: 80, ProductionTimeHours: 2, Type: "main_ingredient"},
			{ParentID: "cured-mix", ChildID: "spice-blend", QuantityPerUnit: 0.03,
				YieldPercentage: 100, ProductionTimeHours: 0, Type: "support_ingredient"},
		},
	}
	if err := h.saveCatalog(ctx, catalog); err != nil {
		return err
	}
	if err := h.saveUniformWorkforce(ctx, year, 20); err != nil {
		return err
	}
	return h.saveWorkdayCapacity(ctx, year, map[planning.LineID]float64{
		"stuffing-line": 16,
		"curing-room":   24,
	})
}

func (h *Handler) loadBakeryScenario(ctx context.Context, year int) error {
	catalog := factory.CatalogJSON{
		Items: []factory.ItemJSON{
			{ID: "bread", Code: "FIN-101", Name: "Sourdough Bread", Unit: "pcs",
				Category: "finished", CurrentStock: 0, SafetyStock: 0, MaxStock: 5000},
			{ID: "brioche", Code: "FIN-102", Name: "Butter Brioche", Unit: "pcs",
				Category: "finished", CurrentStock: 50, SafetyStock: 20, MaxStock: 3000},
			{ID: "dough", Code: "INT-101", Name: "Sourdough Base", Unit: "kg",
				Category: "intermediate", CurrentStock: 10, SafetyStock: 5, MaxStock: 500},
			{ID: "flour", Code: "RAW-101", Name: "Wheat Flour T65", Unit: "kg",
				Category: "raw_material", CurrentStock: 80, SafetyStock: 100, MaxStock: 4000},
			{ID: "butter", Code: "RAW-102", Name: "Butter 82%", Unit: "kg",
				Category: "raw_material", CurrentStock: 15, SafetyStock: 10, MaxStock: 300},
			{ID: "paper-bag", Code: "PKG-101", Name: "Paper Bag", Unit: "pcs",
				Category: "packaging", CurrentStock: 2000, SafetyStock: 500, MaxStock: 50000},
		},
		Edges: []factory.EdgeJSON{
			{ParentID: "bread", ChildID: "dough", QuantityPerUnit: 0.6,
				YieldPercentage: 90, ProductionTimeHours: 6, Type: "main_ingredient"},
			{ParentID: "bread", ChildID: "paper-bag", QuantityPerUnit: 1,
				YieldPercentage: 100, ProductionTimeHours: 0, Type: "packaging"},
			{ParentID: "brioche", ChildID: "flour", QuantityPerUnit: 0.25,
				YieldPercentage: 95, ProductionTimeHours: 4, Type: "main_ingredient"},
			{ParentID: "brioche", ChildID: "butter", QuantityPerUnit: 0.12,
				YieldPercentage: 100, ProductionTimeHours: 0, Type: "support_ingredient"},
			{ParentID: "brioche", ChildID: "paper-bag", QuantityPerUnit: 1,
				YieldPercentage: 100, ProductionTimeHours: 0, Type: "packaging"},
			{ParentID: "dough", ChildID: "flour", QuantityPerUnit: 0.7,
				YieldPercentage: 100, ProductionTimeHours: 12, Type: "main_ingredient"},
		},
	}
	if err := h.saveCatalog(ctx, catalog); err != nil {
		return err
	}
	if err := h.saveUniformWorkforce(ctx, year, 22); err != nil {
		return err
	}
	return h.saveWorkdayCapacity(ctx, year, map[planning.LineID]float64{
		"oven-line": 20,
	})
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func (h *Handler) saveCatalog(ctx context.Context, catalog factory.CatalogJSON) error {
	items, edges, err := h.Factory.Convert(catalog)
	if err != nil {
		return err
	}
	return h.Store.SaveCatalog(ctx, items, edges)
}

// saveUniformWorkforce sets the same days-available figure for all twelve
// months of the year.
func (h *Handler) saveUniformWorkforce(ctx context.Context, year int, daysPerMonth float64) error {
	days := make(map[time.Month]decimal.Decimal, 12)
	for m := time.January; m <= time.December; m++ {
		days[m] = decimal.NewFromFloat(daysPerMonth)
	}
	return h.Store.SaveWorkforce(ctx, year, days)
}

// saveWorkdayCapacity gives each line the stated hours on every weekday of
// the year and zero on weekends.
func (h *Handler) saveWorkdayCapacity(ctx context.Context, year int, lines map[planning.LineID]float64) error {
	snap := planning.CapacitySnapshot{
		TakenAt: time.Now(),
		Lines:   make(map[planning.LineID]map[planning.Date]planning.CapacityDay, len(lines)),
	}
	for line, hours := range lines {
		days := make(map[planning.Date]planning.CapacityDay)
		for m := time.January; m <= time.December; m++ {
			for _, d := range planning.MonthDays(year, m) {
				if d.IsWeekend() {
					continue
				}
				days[d] = planning.CapacityDay{AvailableHours: decimal.NewFromFloat(hours)}
			}
		}
		snap.Lines[line] = days
	}
	return h.Store.SaveCapacity(ctx, snap)
}
