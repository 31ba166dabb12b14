package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// RollUp computes the cost of one unit of v from its BOM lines. materials must hold every
// material the lines reference. Actual material cost prices each line at the material's average
// cost, falling back to standard cost; reference material cost always uses standard cost. When
// the variant carries production minutes, minutes*costPerMinute replaces the labor and indirect
// overrides on both figures.
func RollUp(v *ProductVariant, lines []BOMLine, materials map[int]RawMaterial, cfg OperationalConfig) CostBreakdown {
	b := CostBreakdown{VariantID: v.ID}
	for _, l := range lines {
		m := materials[l.MaterialID]
		b.ActualMaterialCost = b.ActualMaterialCost.Add(l.Quantity.Mul(m.EffectiveCost()))
		b.ReferenceMaterialCost = b.ReferenceMaterialCost.Add(l.Quantity.Mul(m.StandardCost))
	}

	var overhead decimal.Decimal
	if v.UsesOperationalTime() {
		b.OperationalCost = v.ProductionMinutes.Mul(cfg.CostPerMinute)
		overhead = b.OperationalCost
	} else {
		b.LaborCost = v.LaborCost
		b.IndirectCost = v.IndirectCost
		overhead = v.LaborCost.Add(v.IndirectCost)
	}

	b.Cost = b.ActualMaterialCost.Add(overhead).Round(CostScale)
	b.ReferenceCost = b.ReferenceMaterialCost.Add(overhead).Round(CostScale)
	return b
}

// RecomputeVariantCostTx locks the variant, rolls up its BOM against the latest material costs and
// stores the result, inside the caller's unit of work.
func (e *Engine) RecomputeVariantCostTx(ctx context.Context, tx Tx, cfg OperationalConfig, variantID int) (CostBreakdown, error) {
	v, err := tx.LockVariant(ctx, variantID)
	if err != nil {
		return CostBreakdown{}, err
	}
	lines, err := tx.ListBOMLines(ctx, v.ID)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("list bom lines for variant %d: %w", v.ID, err)
	}

	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MaterialID)
	}
	mats, err := tx.ListMaterials(ctx, ids)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("list materials for variant %d: %w", v.ID, err)
	}
	byID := make(map[int]RawMaterial, len(mats))
	for _, m := range mats {
		byID[m.ID] = m
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return CostBreakdown{}, notFound("material", id)
		}
	}

	b := RollUp(v, lines, byID, cfg)
	v.Cost = b.Cost
	v.ReferenceCost = b.ReferenceCost
	if err := tx.UpdateVariantCosts(ctx, v); err != nil {
		return CostBreakdown{}, fmt.Errorf("update variant %d costs: %w", v.ID, err)
	}
	e.metrics.recomputed(1)
	return b, nil
}

// RecalculateVariantsByMaterialTx recomputes every variant whose BOM references the material and
// returns their ids, ascending.
func (e *Engine) RecalculateVariantsByMaterialTx(ctx context.Context, tx Tx, cfg OperationalConfig, materialID int) ([]int, error) {
	return e.cascadeTx(ctx, tx, cfg, materialID)
}

// cascadeTx recomputes, once each and in ascending id order, every variant depending on any of
// the given materials.
func (e *Engine) cascadeTx(ctx context.Context, tx Tx, cfg OperationalConfig, materialIDs ...int) ([]int, error) {
	seen := make(map[int]struct{})
	for _, mid := range materialIDs {
		ids, err := tx.VariantsUsingMaterial(ctx, mid)
		if err != nil {
			return nil, fmt.Errorf("find variants using material %d: %w", mid, err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	variants := make([]int, 0, len(seen))
	for id := range seen {
		variants = append(variants, id)
	}
	sort.Ints(variants)

	for _, id := range variants {
		if _, err := e.RecomputeVariantCostTx(ctx, tx, cfg, id); err != nil {
			return nil, err
		}
	}
	if len(variants) > 0 {
		e.log.Debug().Ints("materials", materialIDs).Ints("variants", variants).Msg("variant costs rolled up")
	}
	return variants, nil
}

// RecomputeVariantCost rolls up one variant in its own unit of work.
func (e *Engine) RecomputeVariantCost(ctx context.Context, variantID int) (CostBreakdown, error) {
	var out CostBreakdown
	err := e.run(ctx, "recompute_variant_cost", func(tx Tx) error {
		cfg, err := tx.ActiveOperationalConfig(ctx)
		if err != nil {
			return fmt.Errorf("load operational config: %w", err)
		}
		out, err = e.RecomputeVariantCostTx(ctx, tx, cfg, variantID)
		return err
	})
	return out, err
}

// RecalculateVariantsByMaterial rolls up every variant that uses the material in one unit of work.
func (e *Engine) RecalculateVariantsByMaterial(ctx context.Context, materialID int) ([]int, error) {
	var out []int
	err := e.run(ctx, "recalculate_variants_by_material", func(tx Tx) error {
		if _, err := tx.GetMaterial(ctx, materialID); err != nil {
			return err
		}
		cfg, err := tx.ActiveOperationalConfig(ctx)
		if err != nil {
			return fmt.Errorf("load operational config: %w", err)
		}
		out, err = e.cascadeTx(ctx, tx, cfg, materialID)
		return err
	})
	return out, err
}
