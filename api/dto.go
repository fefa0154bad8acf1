/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Quantities
  cross the wire as JSON numbers; decimal precision is an internal concern.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - factory/catalog.go: CatalogJSON is reused as the catalog request body
*/
package api

import (
	"github.com/warp/planning-engine/planning"
)

// =============================================================================
// CATALOG
// =============================================================================

// ItemDTO represents a catalog item in API responses.
type ItemDTO struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	Category     string  `json:"category"`
	CurrentStock float64 `json:"current_stock"`
	SafetyStock  float64 `json:"safety_stock"`
	MaxStock     float64 `json:"max_stock"`
}

func toItemDTO(it planning.Item) ItemDTO {
	return ItemDTO{
		ID:           string(it.ID),
		Code:         it.Code,
		Name:         it.Name,
		Unit:         it.Unit,
		Category:     string(it.Category),
		CurrentStock: it.CurrentStock.InexactFloat64(),
		SafetyStock:  it.SafetyStock.InexactFloat64(),
		MaxStock:     it.MaxStock.InexactFloat64(),
	}
}

// EdgeDTO represents a BOM edge in API responses.
type EdgeDTO struct {
	ParentID            string  `json:"parent_id"`
	ChildID             string  `json:"child_id"`
	QuantityPerUnit     float64 `json:"quantity_per_unit"`
	YieldPercentage     float64 `json:"yield_percentage"`
	ProductionTimeHours float64 `json:"production_time_hours"`
	Type                string  `json:"type"`
}

func toEdgeDTO(e planning.BOMEdge) EdgeDTO {
	return EdgeDTO{
		ParentID:            string(e.ParentID),
		ChildID:             string(e.ChildID),
		QuantityPerUnit:     e.QuantityPerUnit.InexactFloat64(),
		YieldPercentage:     e.YieldPercentage.InexactFloat64(),
		ProductionTimeHours: e.ProductionTimeHours,
		Type:                string(e.Type),
	}
}

// =============================================================================
// EXPLOSION
// =============================================================================

// ExplodeRequest asks for one demand explosion.
type ExplodeRequest struct {
	ItemID   string  `json:"item_id"`
	Quantity float64 `json:"quantity"`
	DueDate  string  `json:"due_date"` // YYYY-MM-DD
}

// RequirementDTO is one leaf-level requirement row.
type RequirementDTO struct {
	ItemID      string  `json:"item_id"`
	DueDate     string  `json:"due_date"`
	Required    float64 `json:"required_quantity"`
	Available   float64 `json:"available_quantity"`
	SafetyStock float64 `json:"safety_stock"`
	NetShortage float64 `json:"net_shortage"`
	Severity    string  `json:"severity"`
	Level       int     `json:"level"`
}

// ProductionOrderDTO is one computed production order.
type ProductionOrderDTO struct {
	ID              string  `json:"id"`
	ParentItemID    string  `json:"parent_item_id"`
	ChildItemID     string  `json:"child_item_id"`
	Quantity        float64 `json:"quantity"`
	StartDate       string  `json:"start_date"`
	CompletionDate  string  `json:"completion_date"`
	ProductionHours float64 `json:"production_time_hours"`
	YieldPercentage float64 `json:"yield_percentage"`
	Level           int     `json:"level"`
}

// ExplodeResponse carries the full breakdown of one explosion run.
type ExplodeResponse struct {
	Requirements []RequirementDTO     `json:"requirements"`
	Orders       []ProductionOrderDTO `json:"production_orders"`
}

func toExplodeResponse(result *planning.ExplosionResult) ExplodeResponse {
	resp := ExplodeResponse{
		Requirements: make([]RequirementDTO, 0, len(result.Requirements)),
		Orders:       make([]ProductionOrderDTO, 0, len(result.Orders)),
	}
	for _, r := range result.Requirements {
		resp.Requirements = append(resp.Requirements, RequirementDTO{
			ItemID:      string(r.ItemID),
			DueDate:     r.DueDate.String(),
			Required:    r.RequiredQuantity.InexactFloat64(),
			Available:   r.AvailableQuantity.InexactFloat64(),
			SafetyStock: r.SafetyStock.InexactFloat64(),
			NetShortage: r.NetShortage.InexactFloat64(),
			Severity:    string(r.Severity),
			Level:       r.Level,
		})
	}
	for _, o := range result.Orders {
		resp.Orders = append(resp.Orders, ProductionOrderDTO{
			ID:              string(o.ID),
			ParentItemID:    string(o.ParentItemID),
			ChildItemID:     string(o.ChildItemID),
			Quantity:        o.Quantity.InexactFloat64(),
			StartDate:       o.StartDate.String(),
			CompletionDate:  o.CompletionDate.String(),
			ProductionHours: o.ProductionTimeHours,
			YieldPercentage: o.YieldPercentage.InexactFloat64(),
			Level:           o.Level,
		})
	}
	return resp
}

// =============================================================================
// FEASIBILITY
// =============================================================================

// AssessmentDTO is one node of the per-period status hierarchy.
type AssessmentDTO struct {
	Period    string          `json:"period"`
	Status    string          `json:"status"`
	Required  float64         `json:"required"`
	Available float64         `json:"available"`
	Children  []AssessmentDTO `json:"children,omitempty"`
}

func toAssessmentDTO(a *planning.Assessment) AssessmentDTO {
	dto := AssessmentDTO{
		Period:    a.Key.String(),
		Status:    string(a.Status),
		Required:  a.Required.InexactFloat64(),
		Available: a.Available.InexactFloat64(),
	}
	for _, c := range a.Children {
		dto.Children = append(dto.Children, toAssessmentDTO(c))
	}
	return dto
}

// ItemFeasibilityDTO groups one item's assessments by aspect.
type ItemFeasibilityDTO struct {
	ItemID    string          `json:"item_id"`
	Materials []AssessmentDTO `json:"materials"`
	Workforce []AssessmentDTO `json:"workforce"`
}

// CriticalIssueDTO is one entry of the flat alerts list.
type CriticalIssueDTO struct {
	ItemID   string  `json:"item_id,omitempty"`
	LineID   string  `json:"line_id,omitempty"`
	Period   string  `json:"period"`
	Kind     string  `json:"kind"`
	Shortage float64 `json:"shortage"`
}

// FeasibilityReportDTO is the full evaluation output.
type FeasibilityReportDTO struct {
	Year     int                        `json:"year"`
	Items    []ItemFeasibilityDTO       `json:"items"`
	Capacity map[string][]AssessmentDTO `json:"capacity,omitempty"`
	Critical []CriticalIssueDTO         `json:"critical_issues"`
}

func toReportDTO(report *planning.FeasibilityReport) FeasibilityReportDTO {
	dto := FeasibilityReportDTO{
		Year:     report.Year,
		Critical: make([]CriticalIssueDTO, 0, len(report.Critical)),
	}
	for id, feas := range report.Items {
		item := ItemFeasibilityDTO{ItemID: string(id)}
		for _, a := range feas.Materials {
			item.Materials = append(item.Materials, toAssessmentDTO(a))
		}
		for _, a := range feas.Workforce {
			item.Workforce = append(item.Workforce, toAssessmentDTO(a))
		}
		dto.Items = append(dto.Items, item)
	}
	if len(report.Capacity) > 0 {
		dto.Capacity = make(map[string][]AssessmentDTO, len(report.Capacity))
		for line, months := range report.Capacity {
			var assessments []AssessmentDTO
			for _, a := range months {
				assessments = append(assessments, toAssessmentDTO(a))
			}
			dto.Capacity[string(line)] = assessments
		}
	}
	for _, issue := range report.Critical {
		dto.Critical = append(dto.Critical, CriticalIssueDTO{
			ItemID:   string(issue.ItemID),
			LineID:   string(issue.LineID),
			Period:   issue.Key.String(),
			Kind:     issue.Kind,
			Shortage: issue.Shortage.InexactFloat64(),
		})
	}
	return dto
}

// =============================================================================
// PLAN EDITS
// =============================================================================

// EditDayRequest sets one day value on a plan row.
type EditDayRequest struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Value float64 `json:"value"`
}

// EditAggregateRequest redistributes a collapsed month or week cell edit.
type EditAggregateRequest struct {
	Month int     `json:"month"`          // 1-12
	Week  int     `json:"week,omitempty"` // ISO week; 0 targets the month
	Value float64 `json:"value"`
}

// EditAckDTO returns the updated totals for the affected scope. Warning is
// set when the edit applied but the follow-up evaluation could not run;
// the plan value stands either way.
type EditAckDTO struct {
	Period  string  `json:"period"`
	Year    float64 `json:"year_total"`
	Month   float64 `json:"month_total"`
	Week    float64 `json:"week_total,omitempty"`
	Day     float64 `json:"day_value,omitempty"`
	Warning string  `json:"warning,omitempty"`
}

func toEditAckDTO(ack planning.EditAck) EditAckDTO {
	return EditAckDTO{
		Period: ack.Key.String(),
		Year:   ack.Year.InexactFloat64(),
		Month:  ack.Month.InexactFloat64(),
		Week:   ack.Week.InexactFloat64(),
		Day:    ack.Day.InexactFloat64(),
	}
}

// PlanRowDTO carries the month totals of one plan row for rendering.
type PlanRowDTO struct {
	ItemID string         `json:"item_id"`
	Row    string         `json:"row"`
	Year   int            `json:"year"`
	Total  float64        `json:"total"`
	Months []PlanMonthDTO `json:"months"`
	Status string         `json:"status"`
}

type PlanMonthDTO struct {
	Month  int           `json:"month"`
	Total  float64       `json:"total"`
	Status string        `json:"status"`
	Weeks  []PlanWeekDTO `json:"weeks"`
}

type PlanWeekDTO struct {
	Week   int          `json:"week"`
	Total  float64      `json:"total"`
	Status string       `json:"status"`
	Days   []PlanDayDTO `json:"days"`
}

type PlanDayDTO struct {
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
	Editable bool    `json:"editable"`
	Status   string  `json:"status"`
}

func toPlanRowDTO(itemID planning.ItemID, row planning.RowType, tree *planning.BucketTree) PlanRowDTO {
	dto := PlanRowDTO{
		ItemID: string(itemID),
		Row:    string(row),
		Year:   tree.Year,
		Total:  tree.Total.InexactFloat64(),
		Status: string(tree.Status),
	}
	for _, m := range tree.Months {
		month := PlanMonthDTO{
			Month:  int(m.Month),
			Total:  m.Total.InexactFloat64(),
			Status: string(m.Status),
		}
		for _, w := range m.Weeks {
			week := PlanWeekDTO{
				Week:   w.Week,
				Total:  w.Total.InexactFloat64(),
				Status: string(w.Status),
			}
			for _, d := range w.Days {
				week.Days = append(week.Days, PlanDayDTO{
					Date:     d.Date.String(),
					Value:    d.Value.InexactFloat64(),
					Editable: d.Editable,
					Status:   string(d.Status),
				})
			}
			month.Weeks = append(month.Weeks, week)
		}
		dto.Months = append(dto.Months, month)
	}
	return dto
}

// =============================================================================
// ORDERS & SCENARIOS
// =============================================================================

// CommitOrderRequest books a computed order onto a production line.
type CommitOrderRequest struct {
	OrderID string `json:"order_id"`
	LineID  string `json:"line_id"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo scenario by name.
type LoadScenarioRequest struct {
	Name string `json:"name"`
	Year int    `json:"year,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
