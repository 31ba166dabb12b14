package app

import (
	"fmt"
	"strings"

	"manufacturing-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// Amounts and quantities travel as decimal strings so that payloads never pass through float64.

// ReceivePORequest is the input for receiving a purchase order.
type ReceivePORequest struct {
	PurchaseOrderID   int  `json:"purchase_order_id" jsonschema_description:"Internal id of the APPROVED or DRAFT purchase order to receive"`
	TargetWarehouseID *int `json:"target_warehouse_id,omitempty" jsonschema_description:"Optional RAW_MATERIALS warehouse for non-inspected lines. Defaults to the main warehouse."`
}

// ResolveInspectionRequest is the input for resolving an incoming inspection.
type ResolveInspectionRequest struct {
	InspectionID      int    `json:"inspection_id" jsonschema_description:"Internal id of the PENDIENTE inspection"`
	Result            string `json:"result" jsonschema:"enum=APROBADO,enum=RECHAZADO,enum=CONDICIONAL" jsonschema_description:"Disposition of the lot"`
	QuantityAccepted  string `json:"quantity_accepted,omitempty" jsonschema_description:"Units released to usable stock (APROBADO only)"`
	QuantityRejected  string `json:"quantity_rejected,omitempty" jsonschema_description:"Units scrapped. Accepted plus rejected must equal the received quantity."`
	UnitCost          string `json:"unit_cost,omitempty" jsonschema_description:"Optional accepted unit cost. Defaults to the landed cost captured at receipt."`
	SupplierLotCode   string `json:"supplier_lot_code,omitempty" jsonschema_description:"Supplier lot code, required when units are accepted"`
	InspectedBy       string `json:"inspected_by" jsonschema_description:"User who inspected the lot"`
	ManagerApprovedBy string `json:"manager_approved_by,omitempty" jsonschema_description:"Manager countersigning a rejection or hold"`
	Notes             string `json:"notes,omitempty" jsonschema_description:"Justification, at least 10 characters for rejections and holds"`
}

// Resolution converts the payload into the typed disposition the Engine accepts. A quantity
// that is not meaningful for the result must be absent or zero.
func (r ResolveInspectionRequest) Resolution() (core.Resolution, error) {
	approvers := core.Approvers{InspectedBy: r.InspectedBy, ManagerApprovedBy: r.ManagerApprovedBy}
	accepted, err := parseOptional("quantity_accepted", r.QuantityAccepted)
	if err != nil {
		return nil, err
	}
	rejected, err := parseOptional("quantity_rejected", r.QuantityRejected)
	if err != nil {
		return nil, err
	}

	switch core.InspectionResult(strings.ToUpper(strings.TrimSpace(r.Result))) {
	case core.ResultApproved:
		a := core.Approval{
			Accepted:        accepted,
			Rejected:        rejected,
			SupplierLotCode: r.SupplierLotCode,
			Approvers:       approvers,
			Notes:           r.Notes,
		}
		if r.UnitCost != "" {
			cost, err := parseDecimal("unit_cost", r.UnitCost)
			if err != nil {
				return nil, err
			}
			a.UnitCost = &cost
		}
		return a, nil
	case core.ResultRejected:
		if !accepted.IsZero() {
			return nil, invalid("quantity_accepted", "must be empty for RECHAZADO")
		}
		return core.Rejection{Rejected: rejected, Approvers: approvers, Notes: r.Notes}, nil
	case core.ResultConditional:
		if !accepted.IsZero() || !rejected.IsZero() {
			return nil, invalid("result", "CONDICIONAL carries no quantities")
		}
		return core.ConditionalHold{Approvers: approvers, Notes: r.Notes}, nil
	default:
		return nil, invalid("result", "must be APROBADO, RECHAZADO or CONDICIONAL, got %q", r.Result)
	}
}

// CorrectCostRequest is the input for a retroactive accepted-cost correction.
type CorrectCostRequest struct {
	InspectionID int    `json:"inspection_id" jsonschema_description:"Internal id of the LIBERADO inspection"`
	NewUnitCost  string `json:"new_unit_cost" jsonschema_description:"Corrected accepted unit cost, strictly positive"`
	Reason       string `json:"reason" jsonschema_description:"Why the cost changed, e.g. a supplier credit note number"`
	Actor        string `json:"actor" jsonschema_description:"User applying the correction"`
}

// AddStockRequest is the input for a manual stock addition.
type AddStockRequest struct {
	MaterialID  int    `json:"material_id" jsonschema_description:"Internal id of the raw material"`
	WarehouseID int    `json:"warehouse_id" jsonschema_description:"Warehouse receiving the stock"`
	Quantity    string `json:"quantity" jsonschema_description:"Units added, strictly positive"`
	UnitCost    string `json:"unit_cost,omitempty" jsonschema_description:"Optional unit cost. A positive cost into a RAW_MATERIALS warehouse updates the average cost."`
	Notes       string `json:"notes,omitempty" jsonschema_description:"Free text recorded on the stock movement"`
}

// BOMLineRequest adds a material line to a variant's bill of materials.
type BOMLineRequest struct {
	VariantID  int    `json:"variant_id" jsonschema_description:"Internal id of the product variant"`
	MaterialID int    `json:"material_id" jsonschema_description:"Internal id of the raw material"`
	Quantity   string `json:"quantity" jsonschema_description:"Material consumed per unit of the variant"`
}

// UpdateBOMLineRequest changes the quantity of an existing BOM line.
type UpdateBOMLineRequest struct {
	LineID   int    `json:"line_id" jsonschema_description:"Internal id of the BOM line"`
	Quantity string `json:"quantity" jsonschema_description:"New material quantity per unit of the variant"`
}

// VariantCostingRequest sets the manual cost inputs of a variant.
type VariantCostingRequest struct {
	VariantID         int    `json:"variant_id" jsonschema_description:"Internal id of the product variant"`
	LaborCost         string `json:"labor_cost,omitempty" jsonschema_description:"Manual labor cost per unit, ignored when production minutes are set"`
	IndirectCost      string `json:"indirect_cost,omitempty" jsonschema_description:"Manual indirect cost per unit, ignored when production minutes are set"`
	ProductionMinutes string `json:"production_minutes,omitempty" jsonschema_description:"Minutes of operation per unit, costed at the active cost per minute"`
}

// Costing converts the payload into core.VariantCosting.
func (r VariantCostingRequest) Costing() (core.VariantCosting, error) {
	var (
		c   core.VariantCosting
		err error
	)
	if c.LaborCost, err = parseOptional("labor_cost", r.LaborCost); err != nil {
		return c, err
	}
	if c.IndirectCost, err = parseOptional("indirect_cost", r.IndirectCost); err != nil {
		return c, err
	}
	if r.ProductionMinutes != "" {
		minutes, err := parseDecimal("production_minutes", r.ProductionMinutes)
		if err != nil {
			return c, err
		}
		c.ProductionMinutes = &minutes
	}
	return c, nil
}

// StandardCostRequest edits the catalog standard cost of a material.
type StandardCostRequest struct {
	MaterialID   int    `json:"material_id" jsonschema_description:"Internal id of the raw material"`
	StandardCost string `json:"standard_cost" jsonschema_description:"New standard cost, zero or positive"`
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", core.ErrValidation, field, fmt.Sprintf(format, args...))
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, invalid(field, "not a decimal: %q", s)
	}
	return v, nil
}

func parseOptional(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return parseDecimal(field, s)
}
