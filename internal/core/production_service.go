package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const productionReference = "production_order"

// CompleteProductionOrder consumes the order's aggregated BOM demand from raw-materials stock and
// credits the built variants to finished goods. Raw positions are drawn in ascending warehouse id.
// The whole order fails with ErrInsufficientStock, writing nothing, if any material is short.
func (e *Engine) CompleteProductionOrder(ctx context.Context, productionOrderID int) (*ProductionCompletion, error) {
	var out *ProductionCompletion
	err := e.run(ctx, "complete_production_order", func(tx Tx) error {
		po, err := tx.LockProductionOrder(ctx, productionOrderID)
		if err != nil {
			return err
		}
		switch po.Status {
		case ProductionCompleted:
			return fmt.Errorf("%w: production order %s", ErrAlreadyCompleted, po.Code)
		case ProductionCancelled:
			return fmt.Errorf("%w: production order %s is cancelled", ErrInvalidState, po.Code)
		}
		if len(po.Items) == 0 {
			return validationf("items", "production order %s has no items", po.Code)
		}

		demand, err := aggregateDemand(ctx, tx, po)
		if err != nil {
			return err
		}
		ids := make([]int, 0, len(demand))
		for id := range demand {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		mats := make(map[int]*RawMaterial, len(ids))
		for _, id := range ids {
			m, err := tx.LockMaterial(ctx, id)
			if err != nil {
				return err
			}
			mats[id] = m
		}

		raw, err := tx.ListWarehouses(ctx, WarehouseRawMaterials)
		if err != nil {
			return fmt.Errorf("list raw materials warehouses: %w", err)
		}
		usable := make(map[int]bool, len(raw))
		for _, w := range raw {
			usable[w.ID] = true
		}

		// Plan every draw before writing so a shortage leaves the ledger untouched.
		var plan []Consumption
		for _, id := range ids {
			need := demand[id]
			levels, err := tx.StockLevels(ctx, ItemMaterial, id)
			if err != nil {
				return fmt.Errorf("stock levels for material %d: %w", id, err)
			}
			for _, lv := range levels {
				if !need.IsPositive() {
					break
				}
				if !usable[lv.WarehouseID] || !lv.Quantity.IsPositive() {
					continue
				}
				pos, err := tx.LockStockPosition(ctx, MaterialKey(id, lv.WarehouseID))
				if err != nil {
					return fmt.Errorf("lock stock position: %w", err)
				}
				if !pos.Quantity.IsPositive() {
					continue
				}
				take := decimal.Min(need, pos.Quantity)
				plan = append(plan, Consumption{MaterialID: id, WarehouseID: lv.WarehouseID, Quantity: take, UnitCost: mats[id].EffectiveCost()})
				need = need.Sub(take)
			}
			if need.IsPositive() {
				return fmt.Errorf("%w: material %s short by %s for production order %s",
					ErrInsufficientStock, mats[id].Code, need, po.Code)
			}
		}

		for _, c := range plan {
			ref := MovementRef{
				Type:          MovementProductionConsumption,
				UnitCost:      c.UnitCost,
				ReferenceType: productionReference,
				ReferenceID:   po.ID,
			}
			if _, err := DebitTx(ctx, tx, MaterialKey(c.MaterialID, c.WarehouseID), c.Quantity, ref); err != nil {
				return err
			}
		}

		fg, err := e.finishedGoodsWarehouseTx(ctx, tx)
		if err != nil {
			return err
		}
		items := append([]ProductionOrderItem(nil), po.Items...)
		sort.SliceStable(items, func(i, j int) bool { return items[i].VariantID < items[j].VariantID })
		var produced []Output
		for _, it := range items {
			if !it.Quantity.IsPositive() {
				continue
			}
			v, err := tx.GetVariant(ctx, it.VariantID)
			if err != nil {
				return err
			}
			ref := MovementRef{
				Type:          MovementProductionOutput,
				UnitCost:      v.Cost,
				ReferenceType: productionReference,
				ReferenceID:   po.ID,
			}
			if _, err := CreditTx(ctx, tx, VariantKey(v.ID, fg.ID), it.Quantity, ref); err != nil {
				return err
			}
			produced = append(produced, Output{VariantID: v.ID, WarehouseID: fg.ID, Quantity: it.Quantity, UnitCost: v.Cost})
		}

		now := e.now()
		if err := tx.MarkProductionOrderCompleted(ctx, po.ID, now); err != nil {
			return fmt.Errorf("mark production order %d completed: %w", po.ID, err)
		}
		e.log.Info().
			Str("production_order", po.Code).
			Int("draws", len(plan)).
			Int("outputs", len(produced)).
			Msg("production order completed")
		out = &ProductionCompletion{
			ProductionOrderID: po.ID,
			CompletedAt:       now,
			Consumed:          plan,
			Produced:          produced,
		}
		return nil
	})
	return out, err
}
