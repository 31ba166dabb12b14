package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeightedAverage blends a receipt into a rolling average:
//
//	(priorStock*currentAvg + receivedQty*unitCost) / (priorStock + receivedQty)
//
// When the combined stock is not positive the received cost is used directly.
func WeightedAverage(priorStock, currentAvg, receivedQty, unitCost decimal.Decimal) decimal.Decimal {
	total := priorStock.Add(receivedQty)
	if !total.IsPositive() {
		return unitCost
	}
	return priorStock.Mul(currentAvg).Add(receivedQty.Mul(unitCost)).Div(total)
}

// ApplyReceipt folds an accepted receipt into m: the average cost is re-blended against the stock
// held in the receiving bucket, and the last purchase price and date are always overwritten.
// unitCost is the landed, tax-inclusive unit cost. It returns the new average.
func ApplyReceipt(m *RawMaterial, priorStock, receivedQty, unitCost decimal.Decimal, at time.Time) decimal.Decimal {
	m.AverageCost = WeightedAverage(priorStock, m.AverageCost, receivedQty, unitCost).Round(CostScale)
	m.LastPurchasePrice = unitCost.Round(CostScale)
	ts := at
	m.LastPurchaseDate = &ts
	return m.AverageCost
}

// ApplyReceiptTx locks the material and costs a receipt of receivedQty at unitCost on top of
// priorStock, inside the caller's unit of work. Dependent variants are not rolled up here.
func (e *Engine) ApplyReceiptTx(ctx context.Context, tx Tx, materialID int, priorStock, receivedQty, unitCost decimal.Decimal) (*RawMaterial, error) {
	m, err := tx.LockMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	ApplyReceipt(m, priorStock, receivedQty, unitCost, e.now())
	if err := tx.UpdateMaterialCosts(ctx, m); err != nil {
		return nil, fmt.Errorf("update material %d costs: %w", m.ID, err)
	}
	return m, nil
}

// ReaverageForCorrection spreads a per-lot cost change over the whole current stock:
//
//	currentAvg + acceptedQty*(newCost-oldCost)/stock
//
// clamped at zero and rounded to CostScale.
func ReaverageForCorrection(currentAvg, acceptedQty, oldCost, newCost, stock decimal.Decimal) decimal.Decimal {
	delta := acceptedQty.Mul(newCost.Sub(oldCost))
	avg := currentAvg.Add(delta.Div(stock))
	if avg.IsNegative() {
		avg = decimal.Zero
	}
	return avg.Round(CostScale)
}

// CorrectAcceptedCost retroactively changes the unit cost an inspection was released at. The
// material's average is re-blended over its current raw-materials stock and every dependent
// variant is rolled up; the correction is written to the audit sink.
func (e *Engine) CorrectAcceptedCost(ctx context.Context, inspectionID int, newUnitCost decimal.Decimal, reason, actor string) (*CostCorrection, error) {
	reason = strings.TrimSpace(reason)
	var out *CostCorrection
	err := e.run(ctx, "correct_accepted_cost", func(tx Tx) error {
		in, err := tx.LockInspection(ctx, inspectionID)
		if err != nil {
			return err
		}
		if !in.QuantityAccepted.IsPositive() {
			return correctionf("inspection %d has no accepted quantity", in.ID)
		}
		if !newUnitCost.IsPositive() {
			return correctionf("new unit cost must be positive, got %s", newUnitCost)
		}
		oldCost := decimal.Zero
		if in.AcceptedUnitCost != nil {
			oldCost = *in.AcceptedUnitCost
		}
		if newUnitCost.Equal(oldCost) {
			return correctionf("new unit cost %s equals the accepted cost", newUnitCost)
		}
		if reason == "" {
			return validationf("reason", "is required")
		}

		cfg, err := tx.ActiveOperationalConfig(ctx)
		if err != nil {
			return fmt.Errorf("load operational config: %w", err)
		}
		m, err := tx.LockMaterial(ctx, in.MaterialID)
		if err != nil {
			return err
		}
		stock, err := tx.SumStock(ctx, ItemMaterial, m.ID, WarehouseRawMaterials)
		if err != nil {
			return fmt.Errorf("sum stock for material %d: %w", m.ID, err)
		}
		if !stock.IsPositive() {
			return correctionf("material %d has no raw-materials stock to re-average", m.ID)
		}

		c := &CostCorrection{
			InspectionID:   in.ID,
			MaterialID:     m.ID,
			OldUnitCost:    oldCost,
			NewUnitCost:    newUnitCost,
			Delta:          in.QuantityAccepted.Mul(newUnitCost.Sub(oldCost)),
			StockBase:      stock,
			OldAverageCost: m.AverageCost,
		}
		m.AverageCost = ReaverageForCorrection(m.AverageCost, in.QuantityAccepted, oldCost, newUnitCost, stock)
		c.NewAverageCost = m.AverageCost
		if err := tx.UpdateMaterialCosts(ctx, m); err != nil {
			return fmt.Errorf("update material %d costs: %w", m.ID, err)
		}

		cost := newUnitCost
		in.AcceptedUnitCost = &cost
		if err := tx.UpdateInspection(ctx, in); err != nil {
			return fmt.Errorf("update inspection %d: %w", in.ID, err)
		}

		if c.VariantsUpdated, err = e.cascadeTx(ctx, tx, cfg, m.ID); err != nil {
			return err
		}

		if err := tx.RecordAudit(ctx, AuditEvent{
			ID:         uuid.NewString(),
			EntityType: auditEntityInspection,
			EntityID:   in.ID,
			Action:     auditActionCostCorrection,
			Actor:      actor,
			Notes:      reason,
			Metadata: map[string]any{
				"material_id":      m.ID,
				"old_unit_cost":    oldCost.String(),
				"new_unit_cost":    newUnitCost.String(),
				"delta":            c.Delta.String(),
				"stock_base":       stock.String(),
				"old_average_cost": c.OldAverageCost.String(),
				"new_average_cost": c.NewAverageCost.String(),
			},
			CreatedAt: e.now(),
		}); err != nil {
			return fmt.Errorf("record audit for inspection %d: %w", in.ID, err)
		}

		e.log.Info().
			Int("inspection_id", in.ID).
			Int("material_id", m.ID).
			Str("old_average_cost", c.OldAverageCost.String()).
			Str("new_average_cost", c.NewAverageCost.String()).
			Msg("accepted cost corrected")
		out = c
		return nil
	})
	return out, err
}
