package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const poReference = "purchase_order"

// Receive books every item of a purchase order into stock. Items of materials that require
// inspection are credited to the quarantine bucket and get a pending inspection; the rest are
// credited to the target warehouse and costed immediately. Supplier price history is updated for
// every item and dependent variants are rolled up. targetWarehouseID overrides the default raw
// materials warehouse.
func (e *Engine) Receive(ctx context.Context, purchaseOrderID int, targetWarehouseID *int) (*Receipt, error) {
	var out *Receipt
	err := e.run(ctx, "receive_purchase_order", func(tx Tx) error {
		po, err := tx.LockPurchaseOrder(ctx, purchaseOrderID)
		if err != nil {
			return err
		}
		switch po.Status {
		case POStatusReceived:
			return fmt.Errorf("%w: purchase order %s", ErrAlreadyReceived, po.Code)
		case POStatusCancelled:
			return fmt.Errorf("%w: purchase order %s", ErrCancelled, po.Code)
		}
		if len(po.Items) == 0 {
			return validationf("items", "purchase order %s has no items", po.Code)
		}
		for _, it := range po.Items {
			if !it.Quantity.IsPositive() {
				return validationf("quantity", "item %d must have a positive quantity", it.ID)
			}
			if err := checkScale("quantity", it.Quantity); err != nil {
				return err
			}
			if it.UnitPrice.IsNegative() || it.TaxAmount.IsNegative() || it.LandedUnitCost().IsNegative() {
				return validationf("unit_price", "item %d must not have a negative price or tax", it.ID)
			}
		}

		target, err := e.receivingWarehouseTx(ctx, tx, targetWarehouseID)
		if err != nil {
			return err
		}
		cfg, err := tx.ActiveOperationalConfig(ctx)
		if err != nil {
			return fmt.Errorf("load operational config: %w", err)
		}

		items := append([]PurchaseOrderItem(nil), po.Items...)
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].MaterialID != items[j].MaterialID {
				return items[i].MaterialID < items[j].MaterialID
			}
			return items[i].ID < items[j].ID
		})

		mats := make(map[int]*RawMaterial)
		for _, it := range items {
			if _, ok := mats[it.MaterialID]; ok {
				continue
			}
			m, err := tx.LockMaterial(ctx, it.MaterialID)
			if err != nil {
				return err
			}
			mats[m.ID] = m
		}

		now := e.now()
		rc := &Receipt{PurchaseOrderID: po.ID, ReceivedDate: now}
		var costed []int
		var quarantine *Warehouse
		for _, it := range items {
			m := mats[it.MaterialID]
			line := ReceiptLine{
				ItemID:         it.ID,
				MaterialID:     m.ID,
				Quantity:       it.Quantity,
				LandedUnitCost: it.LandedUnitCost().Round(CostScale),
			}
			ref := MovementRef{UnitCost: line.LandedUnitCost, ReferenceType: poReference, ReferenceID: po.ID}

			if m.RequiresInspection {
				if quarantine == nil {
					if quarantine, err = e.quarantineWarehouseTx(ctx, tx); err != nil {
						return err
					}
				}
				ref.Type = MovementQuarantineReceipt
				if _, err := CreditTx(ctx, tx, MaterialKey(m.ID, quarantine.ID), it.Quantity, ref); err != nil {
					return err
				}
				in, err := e.openInspectionTx(ctx, tx, po, it, quarantine.ID, target.ID, line.LandedUnitCost)
				if err != nil {
					return err
				}
				line.WarehouseID = quarantine.ID
				line.Quarantined = true
				line.InspectionID = &in.ID
				line.NewAverageCost = m.AverageCost
			} else {
				ref.Type = MovementPurchaseReceipt
				prior, err := CreditTx(ctx, tx, MaterialKey(m.ID, target.ID), it.Quantity, ref)
				if err != nil {
					return err
				}
				line.WarehouseID = target.ID
				line.NewAverageCost = ApplyReceipt(m, prior, it.Quantity, line.LandedUnitCost, now)
				if err := tx.UpdateMaterialCosts(ctx, m); err != nil {
					return fmt.Errorf("update material %d costs: %w", m.ID, err)
				}
				costed = append(costed, m.ID)
			}

			if err := tx.UpsertSupplierMaterial(ctx, &SupplierMaterial{
				SupplierID:        po.SupplierID,
				MaterialID:        m.ID,
				LastPurchasePrice: line.LandedUnitCost,
				LastPurchaseDate:  now,
			}); err != nil {
				return fmt.Errorf("upsert supplier %d price for material %d: %w", po.SupplierID, m.ID, err)
			}
			rc.Lines = append(rc.Lines, line)
		}

		// Roll up once per material after all of its lines are costed.
		for i := range rc.Lines {
			l := &rc.Lines[i]
			if l.Quarantined || !isLastLineFor(rc.Lines, i) {
				continue
			}
			if l.VariantsUpdated, err = e.cascadeTx(ctx, tx, cfg, l.MaterialID); err != nil {
				return err
			}
		}

		if err := tx.MarkPurchaseOrderReceived(ctx, po.ID, now); err != nil {
			return fmt.Errorf("mark purchase order %d received: %w", po.ID, err)
		}
		e.log.Info().
			Str("purchase_order", po.Code).
			Int("lines", len(rc.Lines)).
			Ints("costed_materials", costed).
			Msg("purchase order received")
		out = rc
		return nil
	})
	return out, err
}

// isLastLineFor reports whether lines[i] is the last directly received line of its material.
func isLastLineFor(lines []ReceiptLine, i int) bool {
	for j := i + 1; j < len(lines); j++ {
		if lines[j].MaterialID == lines[i].MaterialID && !lines[j].Quarantined {
			return false
		}
	}
	return true
}

func (e *Engine) openInspectionTx(ctx context.Context, tx Tx, po *PurchaseOrder, it PurchaseOrderItem, sourceID, targetID int, landed decimal.Decimal) (*IncomingInspection, error) {
	seq, err := tx.NextSequence(ctx, inspectionSequence)
	if err != nil {
		return nil, fmt.Errorf("next inspection code: %w", err)
	}
	poID, itemID, supplierID := po.ID, it.ID, po.SupplierID
	in := &IncomingInspection{
		Code:                fmt.Sprintf(inspectionCodeFormat, seq),
		PurchaseOrderID:     &poID,
		PurchaseOrderItemID: &itemID,
		MaterialID:          it.MaterialID,
		SupplierID:          &supplierID,
		SourceWarehouseID:   sourceID,
		TargetWarehouseID:   targetID,
		QuantityReceived:    it.Quantity,
		QuantityAccepted:    decimal.Zero,
		QuantityRejected:    decimal.Zero,
		ReceivedUnitCost:    landed,
		Status:              InspectionPending,
		CreatedAt:           e.now(),
	}
	if err := tx.InsertInspection(ctx, in); err != nil {
		return nil, fmt.Errorf("insert inspection for item %d: %w", it.ID, err)
	}
	return in, nil
}

func (e *Engine) receivingWarehouseTx(ctx context.Context, tx Tx, override *int) (*Warehouse, error) {
	if override == nil {
		return e.mainWarehouseTx(ctx, tx)
	}
	w, err := tx.GetWarehouse(ctx, *override)
	if err != nil {
		return nil, err
	}
	if w.Type != WarehouseRawMaterials {
		return nil, validationf("warehouse_id", "warehouse %s is %s, receipts go to %s", w.Name, w.Type, WarehouseRawMaterials)
	}
	return w, nil
}

// mainWarehouseTx finds the default raw materials warehouse by name, creating it on first use.
func (e *Engine) mainWarehouseTx(ctx context.Context, tx Tx) (*Warehouse, error) {
	return e.ensureWarehouseTx(ctx, tx, e.mainWarehouse, WarehouseRawMaterials, false)
}

// quarantineWarehouseTx finds the quarantine bucket by name, then by type, creating it on first use.
func (e *Engine) quarantineWarehouseTx(ctx context.Context, tx Tx) (*Warehouse, error) {
	return e.ensureWarehouseTx(ctx, tx, e.quarantineName, WarehouseQuarantine, true)
}

func (e *Engine) finishedGoodsWarehouseTx(ctx context.Context, tx Tx) (*Warehouse, error) {
	return e.ensureWarehouseTx(ctx, tx, DefaultFinishedGoodsName, WarehouseFinishedGoods, true)
}

func (e *Engine) ensureWarehouseTx(ctx context.Context, tx Tx, name string, t WarehouseType, byType bool) (*Warehouse, error) {
	named, err := tx.FindWarehouseByName(ctx, name)
	switch {
	case err == nil && named.Type == t && named.IsActive:
		return named, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("find warehouse %q: %w", name, err)
	}
	// A name held by an inactive or differently typed warehouse leaves only the type lookup.
	taken := err == nil
	if byType || taken {
		w, err := tx.FindWarehouseByType(ctx, t)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("find %s warehouse: %w", t, err)
		}
	}
	if taken {
		return nil, fmt.Errorf("%w: warehouse %q is %s (active=%t), need an active %s warehouse",
			ErrInvalidState, name, named.Type, named.IsActive, t)
	}
	w := &Warehouse{Name: name, Type: t, IsActive: true, CreatedAt: e.now()}
	if err := tx.CreateWarehouse(ctx, w); err != nil {
		return nil, fmt.Errorf("create warehouse %q: %w", name, err)
	}
	e.log.Info().Int("warehouse_id", w.ID).Str("name", name).Str("type", string(t)).Msg("warehouse created")
	return w, nil
}
