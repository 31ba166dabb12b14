package app

import "manufacturing-ledger/internal/core"

// ReceiptResult is returned by ReceivePurchaseOrder.
type ReceiptResult struct {
	Receipt *core.Receipt
}

// InspectionResult is returned by ResolveInspection and GetInspection.
type InspectionResult struct {
	Inspection *core.IncomingInspection
	Outcome    *core.ResolutionOutcome // nil for plain reads
}

// InspectionListResult is returned by ListPendingInspections.
type InspectionListResult struct {
	Inspections []core.IncomingInspection
}

// CostCorrectionResult is returned by CorrectAcceptedCost.
type CostCorrectionResult struct {
	Correction *core.CostCorrection
}

// CostResult is returned by every operation that re-rolls one variant.
type CostResult struct {
	Breakdown core.CostBreakdown
	Line      *core.BOMLine // set by BOM line additions and edits
}

// CascadeResult is returned by operations that re-roll every variant using a material.
type CascadeResult struct {
	MaterialID      int
	Material        *core.RawMaterial // set by UpdateStandardCost
	VariantsUpdated []int
}

// RequirementsResult is returned by CalculateRequirements.
type RequirementsResult struct {
	ProductionOrderID int
	Requirements      []core.MaterialRequirement
}

// ProductionResult is returned by CompleteProductionOrder.
type ProductionResult struct {
	Completion *core.ProductionCompletion
}

// StockResult is returned by GetStockLevels and AddStock.
type StockResult struct {
	Kind     core.ItemKind
	ItemID   int
	Levels   []core.StockLevel
	Material *core.RawMaterial // set by AddStock
}
