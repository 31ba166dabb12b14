package app

import (
	"context"

	"manufacturing-ledger/internal/core"
)

type appService struct {
	engine *core.Engine
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(engine *core.Engine) ApplicationService {
	return &appService{engine: engine}
}

func (s *appService) ReceivePurchaseOrder(ctx context.Context, req ReceivePORequest) (*ReceiptResult, error) {
	receipt, err := s.engine.Receive(ctx, req.PurchaseOrderID, req.TargetWarehouseID)
	if err != nil {
		return nil, err
	}
	return &ReceiptResult{Receipt: receipt}, nil
}

func (s *appService) ListPendingInspections(ctx context.Context) (*InspectionListResult, error) {
	list, err := s.engine.PendingInspections(ctx)
	if err != nil {
		return nil, err
	}
	return &InspectionListResult{Inspections: list}, nil
}

func (s *appService) GetInspection(ctx context.Context, inspectionID int) (*InspectionResult, error) {
	in, err := s.engine.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	return &InspectionResult{Inspection: in}, nil
}

func (s *appService) ResolveInspection(ctx context.Context, req ResolveInspectionRequest) (*InspectionResult, error) {
	res, err := req.Resolution()
	if err != nil {
		return nil, err
	}
	outcome, err := s.engine.Resolve(ctx, req.InspectionID, res)
	if err != nil {
		return nil, err
	}
	return &InspectionResult{Inspection: outcome.Inspection, Outcome: outcome}, nil
}

func (s *appService) CorrectAcceptedCost(ctx context.Context, req CorrectCostRequest) (*CostCorrectionResult, error) {
	cost, err := parseDecimal("new_unit_cost", req.NewUnitCost)
	if err != nil {
		return nil, err
	}
	c, err := s.engine.CorrectAcceptedCost(ctx, req.InspectionID, cost, req.Reason, req.Actor)
	if err != nil {
		return nil, err
	}
	return &CostCorrectionResult{Correction: c}, nil
}

func (s *appService) RecomputeVariantCost(ctx context.Context, variantID int) (*CostResult, error) {
	b, err := s.engine.RecomputeVariantCost(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return &CostResult{Breakdown: b}, nil
}

func (s *appService) RecalculateVariantsByMaterial(ctx context.Context, materialID int) (*CascadeResult, error) {
	ids, err := s.engine.RecalculateVariantsByMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	return &CascadeResult{MaterialID: materialID, VariantsUpdated: ids}, nil
}

func (s *appService) CalculateRequirements(ctx context.Context, productionOrderID int) (*RequirementsResult, error) {
	reqs, err := s.engine.CalculateRequirements(ctx, productionOrderID)
	if err != nil {
		return nil, err
	}
	return &RequirementsResult{ProductionOrderID: productionOrderID, Requirements: reqs}, nil
}

func (s *appService) CompleteProductionOrder(ctx context.Context, productionOrderID int) (*ProductionResult, error) {
	done, err := s.engine.CompleteProductionOrder(ctx, productionOrderID)
	if err != nil {
		return nil, err
	}
	return &ProductionResult{Completion: done}, nil
}

func (s *appService) AddStock(ctx context.Context, req AddStockRequest) (*StockResult, error) {
	qty, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}
	cost, err := parseOptional("unit_cost", req.UnitCost)
	if err != nil {
		return nil, err
	}
	m, err := s.engine.AddStock(ctx, req.MaterialID, req.WarehouseID, qty, cost, req.Notes)
	if err != nil {
		return nil, err
	}
	levels, err := s.engine.StockLevels(ctx, core.ItemMaterial, req.MaterialID)
	if err != nil {
		return nil, err
	}
	return &StockResult{Kind: core.ItemMaterial, ItemID: req.MaterialID, Levels: levels, Material: m}, nil
}

func (s *appService) GetStockLevels(ctx context.Context, materialID int) (*StockResult, error) {
	levels, err := s.engine.StockLevels(ctx, core.ItemMaterial, materialID)
	if err != nil {
		return nil, err
	}
	return &StockResult{Kind: core.ItemMaterial, ItemID: materialID, Levels: levels}, nil
}

func (s *appService) AddBOMLine(ctx context.Context, req BOMLineRequest) (*CostResult, error) {
	qty, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}
	line, b, err := s.engine.AddBOMLine(ctx, req.VariantID, req.MaterialID, qty)
	if err != nil {
		return nil, err
	}
	return &CostResult{Breakdown: b, Line: line}, nil
}

func (s *appService) UpdateBOMLine(ctx context.Context, req UpdateBOMLineRequest) (*CostResult, error) {
	qty, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}
	line, b, err := s.engine.UpdateBOMLineQuantity(ctx, req.LineID, qty)
	if err != nil {
		return nil, err
	}
	return &CostResult{Breakdown: b, Line: line}, nil
}

func (s *appService) DeleteBOMLine(ctx context.Context, lineID int) (*CostResult, error) {
	b, err := s.engine.DeleteBOMLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	return &CostResult{Breakdown: b}, nil
}

func (s *appService) UpdateVariantCosting(ctx context.Context, req VariantCostingRequest) (*CostResult, error) {
	c, err := req.Costing()
	if err != nil {
		return nil, err
	}
	b, err := s.engine.UpdateVariantCosting(ctx, req.VariantID, c)
	if err != nil {
		return nil, err
	}
	return &CostResult{Breakdown: b}, nil
}

func (s *appService) UpdateStandardCost(ctx context.Context, req StandardCostRequest) (*CascadeResult, error) {
	std, err := parseDecimal("standard_cost", req.StandardCost)
	if err != nil {
		return nil, err
	}
	m, ids, err := s.engine.UpdateStandardCost(ctx, req.MaterialID, std)
	if err != nil {
		return nil, err
	}
	return &CascadeResult{MaterialID: req.MaterialID, Material: m, VariantsUpdated: ids}, nil
}
