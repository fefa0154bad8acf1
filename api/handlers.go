/*
handlers.go - HTTP API handlers for the planning engine

PURPOSE:
  Exposes the production-planning engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Catalog:
    POST   /api/catalog                 Load catalog + BOM (factory JSON)
    GET    /api/items                   List catalog items
    GET    /api/bom/edges               List BOM edges

  Snapshots:
    POST   /api/stock                   Update stock snapshot levels
    POST   /api/workforce/{year}        Update workforce days per month

  Engine:
    POST   /api/explode                 One-off demand explosion
    POST   /api/evaluate/{year}         Refresh session, return report

  Plans:
    GET    /api/plans/{year}/{item}/{row}            Plan row tree
    PUT    /api/plans/{year}/{item}/{row}/day        Day edit
    PUT    /api/plans/{year}/{item}/{row}/aggregate  Month/week edit
    POST   /api/plans/{year}/save                    Persist all rows

  Orders:
    POST   /api/orders/commit           Book a computed order on a line

  Export:
    GET    /api/requirements/export     Last explosion as CSV or JSON

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid value, no editable days, malformed input
  - 404: Missing item / no data loaded
  - 409: Stale snapshot (re-fetch and retry)
  - 422: BOM cycle detected
  - 500: Internal errors

ARCHITECTURE:
  Handler holds the SQLite store and one planning session per year,
  created lazily from the store's providers. Sessions are independent;
  dropping one never touches persisted data.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/planning-engine/factory"
	"github.com/warp/planning-engine/planning"
	"github.com/warp/planning-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options tune the engine behavior of every session the handler opens.
type Options struct {
	Tiers     planning.TierConfig
	Params    planning.WorkforceParams
	Freshness time.Duration
	Today     planning.Date // Zero means wall-clock today.
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.CatalogFactory
	opts    Options

	mu       sync.Mutex
	sessions map[int]*planning.Session
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, opts Options) *Handler {
	if opts.Tiers == (planning.TierConfig{}) {
		opts.Tiers = planning.DefaultTierConfig()
	}
	if opts.Params == (planning.WorkforceParams{}) {
		opts.Params = planning.DefaultWorkforceParams()
	}
	return &Handler{
		Store:    store,
		Factory:  factory.NewCatalogFactory(),
		opts:     opts,
		sessions: make(map[int]*planning.Session),
	}
}

// session returns the cached planning session for a year, opening one from
// the store's providers (and saved plan values) on first use.
func (h *Handler) session(r *http.Request, year int) (*planning.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[year]; ok {
		return s, nil
	}

	seed, err := h.Store.Seed(r.Context(), year)
	if err != nil {
		return nil, err
	}
	s, err := planning.NewSession(r.Context(), planning.SessionConfig{
		Year:      year,
		Today:     h.opts.Today,
		Providers: h.Store.Providers(),
		Params:    h.opts.Params,
		Tiers:     h.opts.Tiers,
		Freshness: h.opts.Freshness,
		Seed:      seed,
	})
	if err != nil {
		return nil, err
	}
	h.sessions[year] = s
	return s, nil
}

// dropSession forces the next request to rebuild a year's session, used
// after catalog or scenario reloads invalidate the BOM graph.
func (h *Handler) dropSessions() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = make(map[int]*planning.Session)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

func (h *Handler) LoadCatalog(w http.ResponseWriter, r *http.Request) {
	var doc factory.CatalogJSON
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	items, edges, err := h.Factory.Convert(doc)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.SaveCatalog(r.Context(), items, edges); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.dropSessions()
	writeJSON(w, http.StatusCreated, map[string]int{
		"items": len(items),
		"edges": len(edges),
	})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.Items(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]ItemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, toItemDTO(it))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListEdges(w http.ResponseWriter, r *http.Request) {
	edges, err := h.Store.Edges(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]EdgeDTO, 0, len(edges))
	for _, e := range edges {
		dtos = append(dtos, toEdgeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SNAPSHOT HANDLERS
// =============================================================================

func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var body map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	levels := make(map[planning.ItemID]decimal.Decimal, len(body))
	for id, v := range body {
		if v < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("stock for %q must be >= 0", id))
			return
		}
		levels[planning.ItemID(id)] = decimal.NewFromFloat(v)
	}
	if err := h.Store.UpdateStock(r.Context(), levels); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(levels)})
}

func (h *Handler) UpdateWorkforce(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body map[int]float64 // month (1-12) → days available
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	days := make(map[time.Month]decimal.Decimal, len(body))
	for m, v := range body {
		if m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid month %d", m))
			return
		}
		days[time.Month(m)] = decimal.NewFromFloat(v)
	}
	if err := h.Store.SaveWorkforce(r.Context(), year, days); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"months": len(days)})
}

// =============================================================================
// ENGINE HANDLERS
// =============================================================================

func (h *Handler) Explode(w http.ResponseWriter, r *http.Request) {
	var req ExplodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	due, err := planning.ParseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid due_date: %w", err))
		return
	}
	if req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("quantity must be >= 0"))
		return
	}

	graph, err := planning.LoadGraph(r.Context(), h.Store)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := graph.Explode(planning.Demand{
		ItemID:   planning.ItemID(req.ItemID),
		Quantity: decimal.NewFromFloat(req.Quantity),
		DueDate:  due,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExplodeResponse(result))
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	session, err := h.session(r, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := session.Refresh(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(session.Report()))
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

func (h *Handler) GetPlanRow(w http.ResponseWriter, r *http.Request) {
	session, itemID, row, ok := h.planScope(w, r)
	if !ok {
		return
	}
	tree, err := session.Tree(itemID, row)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanRowDTO(itemID, row, tree))
}

func (h *Handler) EditDay(w http.ResponseWriter, r *http.Request) {
	session, itemID, row, ok := h.planScope(w, r)
	if !ok {
		return
	}
	var req EditDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := planning.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid date: %w", err))
		return
	}
	ack, err := session.EditDay(r.Context(), itemID, row, date, decimal.NewFromFloat(req.Value))
	writeEditAck(w, ack, err)
}

func (h *Handler) EditAggregate(w http.ResponseWriter, r *http.Request) {
	session, itemID, row, ok := h.planScope(w, r)
	if !ok {
		return
	}
	var req EditAggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid month %d", req.Month))
		return
	}
	key := planning.MonthKey(time.Month(req.Month))
	if req.Week > 0 {
		key = planning.WeekKey(time.Month(req.Month), req.Week)
	}
	ack, err := session.EditAggregate(r.Context(), itemID, row, key, decimal.NewFromFloat(req.Value))
	writeEditAck(w, ack, err)
}

// writeEditAck reports an applied edit. A recoverable refresh failure
// (missing or stale snapshot) still acknowledges the edit, which has
// already landed in the tree; the warning tells the client evaluation is
// pending fresh data.
func writeEditAck(w http.ResponseWriter, ack planning.EditAck, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toEditAckDTO(ack))
	case planning.IsRecoverable(err):
		dto := toEditAckDTO(ack)
		dto.Warning = err.Error()
		writeJSON(w, http.StatusOK, dto)
	default:
		writeDomainError(w, err)
	}
}

func (h *Handler) SavePlans(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	session, err := h.session(r, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	saved := 0
	for _, item := range session.Graph().Items() {
		if item.Category != planning.CategoryFinished {
			continue
		}
		for _, row := range planning.PlanRows {
			tree, err := session.Tree(item.ID, row)
			if err != nil {
				continue
			}
			if err := h.Store.SavePlanRow(r.Context(), item.ID, row, tree); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			saved++
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"rows_saved": saved})
}

// planScope resolves the common {year}/{itemID}/{row} path parameters.
func (h *Handler) planScope(w http.ResponseWriter, r *http.Request) (*planning.Session, planning.ItemID, planning.RowType, bool) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, "", "", false
	}
	row := planning.RowType(chi.URLParam(r, "row"))
	switch row {
	case planning.RowSalesPlan, planning.RowProductionPlan, planning.RowStock, planning.RowActualProduction:
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown row type %q", row))
		return nil, "", "", false
	}
	session, err := h.session(r, year)
	if err != nil {
		writeDomainError(w, err)
		return nil, "", "", false
	}
	return session, planning.ItemID(chi.URLParam(r, "itemID")), row, true
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

func (h *Handler) CommitOrder(w http.ResponseWriter, r *http.Request) {
	var req CommitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.OrderID == "" || req.LineID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("order_id and line_id are required"))
		return
	}

	h.mu.Lock()
	sessions := make([]*planning.Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, session := range sessions {
		result := session.LastExplosion()
		if result == nil {
			continue
		}
		for _, order := range result.Orders {
			if order.ID == planning.OrderID(req.OrderID) {
				if err := session.CommitOrder(order, planning.LineID(req.LineID)); err != nil {
					writeError(w, http.StatusConflict, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"committed": req.OrderID})
				return
			}
		}
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("order %q not found in any session's last explosion", req.OrderID))
}

// =============================================================================
// EXPORT
// =============================================================================

func (h *Handler) ExportRequirements(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("year query parameter is required"))
		return
	}

	h.mu.Lock()
	session := h.sessions[year]
	h.mu.Unlock()
	if session == nil || session.LastExplosion() == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no explosion results for %d; run evaluate first", year))
		return
	}
	resp := toExplodeResponse(session.LastExplosion())

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, resp)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=requirements-%d.csv", year))
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"item_id", "due_date", "required", "available", "safety_stock", "net_shortage", "severity"})
		for _, req := range resp.Requirements {
			_ = cw.Write([]string{
				req.ItemID,
				req.DueDate,
				strconv.FormatFloat(req.Required, 'f', -1, 64),
				strconv.FormatFloat(req.Available, 'f', -1, 64),
				strconv.FormatFloat(req.SafetyStock, 'f', -1, 64),
				strconv.FormatFloat(req.NetShortage, 'f', -1, 64),
				req.Severity,
			})
		}
		cw.Flush()
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown format %q", r.URL.Query().Get("format")))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func yearParam(r *http.Request) (int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1970 || year > 9999 {
		return 0, fmt.Errorf("invalid year %q", chi.URLParam(r, "year"))
	}
	return year, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// writeDomainError maps planning error kinds to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planning.ErrCycleDetected):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: "cycle_detected"})
	case errors.Is(err, planning.ErrMissingItem), errors.Is(err, planning.ErrMissingEdge):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "missing_item"})
	case errors.Is(err, planning.ErrNotAvailable):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "not_available"})
	case errors.Is(err, planning.ErrStaleSnapshot):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "stale_snapshot"})
	case planning.IsEditError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "invalid_edit"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
