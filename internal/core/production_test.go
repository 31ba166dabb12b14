package core_test

import (
	"errors"
	"testing"

	"manufacturing-ledger/internal/core"
)

func TestCompleteProductionOrder(t *testing.T) {
	f := newFixture(t)
	annex := f.store.AddWarehouse(core.Warehouse{Name: "Annex", Type: core.WarehouseRawMaterials, IsActive: true})
	mat := f.material("M-1", "2", false)
	v := f.variant(t, "V", map[int]string{mat: "4"})
	f.store.SetStock(core.MaterialKey(mat, f.raw), d("5"))
	f.store.SetStock(core.MaterialKey(mat, annex), d("20"))
	order := f.store.AddProductionOrder(core.ProductionOrder{Code: "OP-1", Status: core.ProductionPlanned,
		Items: []core.ProductionOrderItem{{VariantID: v, Quantity: d("3")}}})

	pc, err := f.engine.CompleteProductionOrder(f.ctx, order)
	if err != nil {
		t.Fatalf("CompleteProductionOrder failed: %v", err)
	}

	// 12 units drawn: the lower warehouse id empties first.
	assertDec(t, "main stock", f.qty(core.MaterialKey(mat, f.raw)), d("0"))
	assertDec(t, "annex stock", f.qty(core.MaterialKey(mat, annex)), d("13"))
	if len(pc.Consumed) != 2 || len(pc.Produced) != 1 {
		t.Fatalf("unexpected completion: %+v", pc)
	}
	assertDec(t, "finished goods", f.qty(core.VariantKey(v, pc.Produced[0].WarehouseID)), d("3"))
	assertDec(t, "output unit cost", pc.Produced[0].UnitCost, d("8"))

	po, _ := f.store.ProductionOrder(order)
	if po.Status != core.ProductionCompleted || po.CompletedAt == nil {
		t.Errorf("expected COMPLETED with a date, got %s", po.Status)
	}

	if _, err := f.engine.CompleteProductionOrder(f.ctx, order); !errors.Is(err, core.ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestCompleteProductionOrder_ShortageWritesNothing(t *testing.T) {
	f := newFixture(t)
	a := f.material("M-A", "1", false)
	b := f.material("M-B", "1", false)
	v := f.variant(t, "V", map[int]string{a: "1", b: "1"})
	f.store.SetStock(core.MaterialKey(a, f.raw), d("10"))
	f.store.SetStock(core.MaterialKey(b, f.raw), d("2"))
	order := f.store.AddProductionOrder(core.ProductionOrder{Code: "OP-2", Status: core.ProductionPlanned,
		Items: []core.ProductionOrderItem{{VariantID: v, Quantity: d("5")}}})

	if _, err := f.engine.CompleteProductionOrder(f.ctx, order); !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	assertDec(t, "a stock", f.qty(core.MaterialKey(a, f.raw)), d("10"))
	assertDec(t, "b stock", f.qty(core.MaterialKey(b, f.raw)), d("2"))
	if n := len(f.store.Movements()); n != 0 {
		t.Errorf("expected no movements, got %d", n)
	}
	po, _ := f.store.ProductionOrder(order)
	if po.Status != core.ProductionPlanned {
		t.Errorf("expected order still PLANNED, got %s", po.Status)
	}
}

func TestCompleteProductionOrder_Cancelled(t *testing.T) {
	f := newFixture(t)
	order := f.store.AddProductionOrder(core.ProductionOrder{Code: "OP-X", Status: core.ProductionCancelled})
	if _, err := f.engine.CompleteProductionOrder(f.ctx, order); !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
