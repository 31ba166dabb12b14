package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// MovementRef describes the journal entry written alongside a credit or debit.
type MovementRef struct {
	Type          MovementType
	UnitCost      decimal.Decimal
	ReferenceType string
	ReferenceID   int
	Notes         string
}

// CreditTx adds qty to the position for key inside the caller's unit of work, creating the
// position on first use. It returns the quantity held before the credit.
func CreditTx(ctx context.Context, tx Tx, key StockKey, qty decimal.Decimal, ref MovementRef) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, validationf("quantity", "credit must be positive, got %s", qty)
	}
	if err := checkScale("quantity", qty); err != nil {
		return decimal.Zero, err
	}
	pos, err := tx.LockStockPosition(ctx, key)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock stock position: %w", err)
	}
	prior := pos.Quantity
	pos.Quantity = prior.Add(qty)
	if err := tx.SaveStockPosition(ctx, pos); err != nil {
		return decimal.Zero, fmt.Errorf("save stock position: %w", err)
	}
	if err := insertMovement(ctx, tx, key, qty, ref); err != nil {
		return decimal.Zero, err
	}
	return prior, nil
}

// DebitTx removes qty from the position for key inside the caller's unit of work. It fails with
// ErrInsufficientStock, writing nothing, when the position holds less than qty.
func DebitTx(ctx context.Context, tx Tx, key StockKey, qty decimal.Decimal, ref MovementRef) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, validationf("quantity", "debit must be positive, got %s", qty)
	}
	if err := checkScale("quantity", qty); err != nil {
		return decimal.Zero, err
	}
	pos, err := tx.LockStockPosition(ctx, key)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock stock position: %w", err)
	}
	if pos.Quantity.LessThan(qty) {
		return decimal.Zero, fmt.Errorf("%w: %s %d in warehouse %d holds %s, need %s",
			ErrInsufficientStock, key.Kind, key.ItemID, key.WarehouseID,
			pos.Quantity.String(), qty.String())
	}
	prior := pos.Quantity
	pos.Quantity = prior.Sub(qty)
	if err := tx.SaveStockPosition(ctx, pos); err != nil {
		return decimal.Zero, fmt.Errorf("save stock position: %w", err)
	}
	if err := insertMovement(ctx, tx, key, qty.Neg(), ref); err != nil {
		return decimal.Zero, err
	}
	return prior, nil
}

func insertMovement(ctx context.Context, tx Tx, key StockKey, signedQty decimal.Decimal, ref MovementRef) error {
	mv := &StockMovement{
		Key:           key,
		Type:          ref.Type,
		Quantity:      signedQty,
		UnitCost:      ref.UnitCost,
		ReferenceType: ref.ReferenceType,
		ReferenceID:   ref.ReferenceID,
		Notes:         ref.Notes,
	}
	if err := tx.InsertMovement(ctx, mv); err != nil {
		return fmt.Errorf("insert %s movement: %w", ref.Type, err)
	}
	return nil
}

// Credit adds stock in its own unit of work.
func (e *Engine) Credit(ctx context.Context, key StockKey, qty decimal.Decimal, ref MovementRef) (*StockPosition, error) {
	var out *StockPosition
	err := e.run(ctx, "credit", func(tx Tx) error {
		if _, err := CreditTx(ctx, tx, key, qty, ref); err != nil {
			return err
		}
		pos, err := tx.LockStockPosition(ctx, key)
		if err != nil {
			return err
		}
		out = pos
		return nil
	})
	return out, err
}

// Debit removes stock in its own unit of work.
func (e *Engine) Debit(ctx context.Context, key StockKey, qty decimal.Decimal, ref MovementRef) (*StockPosition, error) {
	var out *StockPosition
	err := e.run(ctx, "debit", func(tx Tx) error {
		if _, err := DebitTx(ctx, tx, key, qty, ref); err != nil {
			return err
		}
		pos, err := tx.LockStockPosition(ctx, key)
		if err != nil {
			return err
		}
		out = pos
		return nil
	})
	return out, err
}

// AddStock is a manual stock add. When unitCost is positive and the warehouse holds raw
// materials, the receipt is costed and dependent variants are rolled up.
func (e *Engine) AddStock(ctx context.Context, materialID, warehouseID int, qty, unitCost decimal.Decimal, notes string) (*RawMaterial, error) {
	if unitCost.IsNegative() {
		return nil, validationf("unit_cost", "cannot be negative, got %s", unitCost)
	}
	var out *RawMaterial
	err := e.run(ctx, "add_stock", func(tx Tx) error {
		cfg, err := tx.ActiveOperationalConfig(ctx)
		if err != nil {
			return fmt.Errorf("load operational config: %w", err)
		}
		wh, err := tx.GetWarehouse(ctx, warehouseID)
		if err != nil {
			return err
		}
		m, err := tx.LockMaterial(ctx, materialID)
		if err != nil {
			return err
		}
		prior, err := CreditTx(ctx, tx, MaterialKey(m.ID, wh.ID), qty, MovementRef{
			Type:     MovementManualAdd,
			UnitCost: unitCost,
			Notes:    notes,
		})
		if err != nil {
			return err
		}
		if unitCost.IsPositive() && wh.Type == WarehouseRawMaterials {
			ApplyReceipt(m, prior, qty, unitCost, e.now())
			if err := tx.UpdateMaterialCosts(ctx, m); err != nil {
				return fmt.Errorf("update material %d costs: %w", m.ID, err)
			}
			if _, err := e.cascadeTx(ctx, tx, cfg, m.ID); err != nil {
				return err
			}
		}
		out = m
		return nil
	})
	return out, err
}

// StockLevels reports where an item is held.
func (e *Engine) StockLevels(ctx context.Context, kind ItemKind, itemID int) ([]StockLevel, error) {
	var out []StockLevel
	err := e.read(ctx, "stock_levels", func(tx Tx) error {
		levels, err := tx.StockLevels(ctx, kind, itemID)
		if err != nil {
			return err
		}
		out = levels
		return nil
	})
	return out, err
}
