package app

import (
	"context"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI) call.
// It decouples presentation from the ledger engine. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ReceivePurchaseOrder receives every line of a purchase order. Lines of materials that
	// require inspection go to quarantine with a new pending inspection.
	ReceivePurchaseOrder(ctx context.Context, req ReceivePORequest) (*ReceiptResult, error)

	// ListPendingInspections returns the lots waiting in quarantine.
	ListPendingInspections(ctx context.Context) (*InspectionListResult, error)

	// GetInspection returns a single inspection by id.
	GetInspection(ctx context.Context, inspectionID int) (*InspectionResult, error)

	// ResolveInspection approves, rejects or holds a quarantined lot.
	ResolveInspection(ctx context.Context, req ResolveInspectionRequest) (*InspectionResult, error)

	// CorrectAcceptedCost re-averages a material after the accepted cost of a released lot changed.
	CorrectAcceptedCost(ctx context.Context, req CorrectCostRequest) (*CostCorrectionResult, error)

	// RecomputeVariantCost re-rolls the cost and reference cost of one variant.
	RecomputeVariantCost(ctx context.Context, variantID int) (*CostResult, error)

	// RecalculateVariantsByMaterial re-rolls every variant whose BOM uses the material.
	RecalculateVariantsByMaterial(ctx context.Context, materialID int) (*CascadeResult, error)

	// CalculateRequirements aggregates the material demand of a production order. Read-only.
	CalculateRequirements(ctx context.Context, productionOrderID int) (*RequirementsResult, error)

	// CompleteProductionOrder consumes raw materials and credits finished goods.
	CompleteProductionOrder(ctx context.Context, productionOrderID int) (*ProductionResult, error)

	// AddStock records a manual stock addition.
	AddStock(ctx context.Context, req AddStockRequest) (*StockResult, error)

	// GetStockLevels returns the positions of one material across warehouses.
	GetStockLevels(ctx context.Context, materialID int) (*StockResult, error)

	// AddBOMLine, UpdateBOMLine and DeleteBOMLine maintain a bill of materials and re-roll the variant.
	AddBOMLine(ctx context.Context, req BOMLineRequest) (*CostResult, error)
	UpdateBOMLine(ctx context.Context, req UpdateBOMLineRequest) (*CostResult, error)
	DeleteBOMLine(ctx context.Context, lineID int) (*CostResult, error)

	// UpdateVariantCosting sets labor, indirect and production-minute inputs and re-rolls the variant.
	UpdateVariantCosting(ctx context.Context, req VariantCostingRequest) (*CostResult, error)

	// UpdateStandardCost edits a material's standard cost and re-rolls every dependent variant.
	UpdateStandardCost(ctx context.Context, req StandardCostRequest) (*CascadeResult, error)
}
