package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// AddBOMLine attaches a material to a variant's BOM and rolls the variant up.
func (e *Engine) AddBOMLine(ctx context.Context, variantID, materialID int, quantity decimal.Decimal) (*BOMLine, CostBreakdown, error) {
	line, err := NewBOMLine(variantID, materialID, quantity)
	if err != nil {
		return nil, CostBreakdown{}, err
	}
	var b CostBreakdown
	err = e.run(ctx, "add_bom_line", func(tx Tx) error {
		if _, err := tx.GetMaterial(ctx, materialID); err != nil {
			return err
		}
		if _, err := tx.GetVariant(ctx, variantID); err != nil {
			return err
		}
		if err := tx.InsertBOMLine(ctx, line); err != nil {
			return fmt.Errorf("insert bom line: %w", err)
		}
		b, err = e.recomputeWithConfigTx(ctx, tx, variantID)
		return err
	})
	if err != nil {
		return nil, CostBreakdown{}, err
	}
	return line, b, nil
}

// UpdateBOMLineQuantity changes how much of its material a BOM line consumes.
func (e *Engine) UpdateBOMLineQuantity(ctx context.Context, lineID int, quantity decimal.Decimal) (*BOMLine, CostBreakdown, error) {
	if !quantity.IsPositive() {
		return nil, CostBreakdown{}, validationf("quantity", "must be positive, got %s", quantity)
	}
	if err := checkScale("quantity", quantity); err != nil {
		return nil, CostBreakdown{}, err
	}
	var (
		line *BOMLine
		b    CostBreakdown
	)
	err := e.run(ctx, "update_bom_line", func(tx Tx) error {
		var err error
		if line, err = tx.GetBOMLine(ctx, lineID); err != nil {
			return err
		}
		line.Quantity = quantity
		if err := tx.UpdateBOMLine(ctx, line); err != nil {
			return fmt.Errorf("update bom line %d: %w", line.ID, err)
		}
		b, err = e.recomputeWithConfigTx(ctx, tx, line.VariantID)
		return err
	})
	if err != nil {
		return nil, CostBreakdown{}, err
	}
	return line, b, nil
}

// DeleteBOMLine removes a BOM line and rolls its variant up.
func (e *Engine) DeleteBOMLine(ctx context.Context, lineID int) (CostBreakdown, error) {
	var b CostBreakdown
	err := e.run(ctx, "delete_bom_line", func(tx Tx) error {
		line, err := tx.GetBOMLine(ctx, lineID)
		if err != nil {
			return err
		}
		if err := tx.DeleteBOMLine(ctx, line.ID); err != nil {
			return fmt.Errorf("delete bom line %d: %w", line.ID, err)
		}
		b, err = e.recomputeWithConfigTx(ctx, tx, line.VariantID)
		return err
	})
	return b, err
}

// UpdateVariantCosting replaces the manual cost inputs of a variant and rolls it up.
func (e *Engine) UpdateVariantCosting(ctx context.Context, variantID int, c VariantCosting) (CostBreakdown, error) {
	if c.LaborCost.IsNegative() || c.IndirectCost.IsNegative() {
		return CostBreakdown{}, validationf("costing", "labor and indirect cost must not be negative")
	}
	if c.ProductionMinutes != nil && c.ProductionMinutes.IsNegative() {
		return CostBreakdown{}, validationf("production_minutes", "must not be negative")
	}
	var b CostBreakdown
	err := e.run(ctx, "update_variant_costing", func(tx Tx) error {
		v, err := tx.LockVariant(ctx, variantID)
		if err != nil {
			return err
		}
		v.LaborCost = c.LaborCost
		v.IndirectCost = c.IndirectCost
		v.ProductionMinutes = c.ProductionMinutes
		if err := tx.UpdateVariantCosting(ctx, v); err != nil {
			return fmt.Errorf("update variant %d costing: %w", v.ID, err)
		}
		b, err = e.recomputeWithConfigTx(ctx, tx, v.ID)
		return err
	})
	return b, err
}

// UpdateStandardCost sets a material's standard cost and rolls up every variant that uses it.
func (e *Engine) UpdateStandardCost(ctx context.Context, materialID int, standardCost decimal.Decimal) (*RawMaterial, []int, error) {
	if standardCost.IsNegative() {
		return nil, nil, validationf("standard_cost", "must not be negative")
	}
	var (
		m        *RawMaterial
		variants []int
	)
	err := e.run(ctx, "update_standard_cost", func(tx Tx) error {
		cfg, err := tx.ActiveOperationalConfig(ctx)
		if err != nil {
			return fmt.Errorf("load operational config: %w", err)
		}
		if m, err = tx.LockMaterial(ctx, materialID); err != nil {
			return err
		}
		m.StandardCost = standardCost.Round(CostScale)
		if err := tx.UpdateMaterialCosts(ctx, m); err != nil {
			return fmt.Errorf("update material %d costs: %w", m.ID, err)
		}
		variants, err = e.cascadeTx(ctx, tx, cfg, m.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return m, variants, nil
}

func (e *Engine) recomputeWithConfigTx(ctx context.Context, tx Tx, variantID int) (CostBreakdown, error) {
	cfg, err := tx.ActiveOperationalConfig(ctx)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("load operational config: %w", err)
	}
	return e.RecomputeVariantCostTx(ctx, tx, cfg, variantID)
}
