package core_test

import (
	"context"
	"testing"
	"time"

	"manufacturing-ledger/internal/core"
	"manufacturing-ledger/internal/memstore"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

// fixture wires an Engine over an empty memstore with the default warehouses and one supplier.
type fixture struct {
	ctx        context.Context
	store      *memstore.Store
	engine     *core.Engine
	raw        int
	quarantine int
	supplier   int
}

func newFixture(t *testing.T, opts ...core.Option) *fixture {
	t.Helper()
	store := memstore.New()
	store.SetClock(func() time.Time { return testNow })
	f := &fixture{
		ctx:   context.Background(),
		store: store,
	}
	f.raw = store.AddWarehouse(core.Warehouse{Name: core.DefaultWarehouseName, Type: core.WarehouseRawMaterials, IsActive: true})
	f.quarantine = store.AddWarehouse(core.Warehouse{Name: core.DefaultQuarantineName, Type: core.WarehouseQuarantine, IsActive: true})
	f.supplier = store.AddSupplier(core.Supplier{Code: "SUP-01", Name: "Aceros del Norte"})
	opts = append([]core.Option{core.WithClock(func() time.Time { return testNow })}, opts...)
	f.engine = core.NewEngine(store, opts...)
	return f
}

func (f *fixture) material(code string, standard string, inspected bool) int {
	return f.store.AddMaterial(core.RawMaterial{
		Code:               code,
		Name:               code,
		Unit:               "kg",
		StandardCost:       d(standard),
		RequiresInspection: inspected,
	})
}

func (f *fixture) variant(t *testing.T, sku string, lines map[int]string) int {
	t.Helper()
	id := f.store.AddVariant(core.ProductVariant{SKU: sku, Name: sku})
	for mid, qty := range lines {
		if _, _, err := f.engine.AddBOMLine(f.ctx, id, mid, d(qty)); err != nil {
			t.Fatalf("AddBOMLine(%s, %d) failed: %v", sku, mid, err)
		}
	}
	return id
}

func (f *fixture) purchaseOrder(items ...core.PurchaseOrderItem) int {
	return f.store.AddPurchaseOrder(core.PurchaseOrder{
		Code:       "PO-TEST",
		SupplierID: f.supplier,
		Status:     core.POStatusApproved,
		OrderDate:  testNow,
		Items:      items,
	})
}

// pendingInspection seeds a lot of qty units sitting in quarantine at landed cost unitCost.
func (f *fixture) pendingInspection(materialID int, qty, unitCost string) int {
	f.store.SetStock(core.MaterialKey(materialID, f.quarantine), d(qty))
	return f.store.AddInspection(core.IncomingInspection{
		Code:              "INS-TEST",
		MaterialID:        materialID,
		SourceWarehouseID: f.quarantine,
		TargetWarehouseID: f.raw,
		QuantityReceived:  d(qty),
		ReceivedUnitCost:  d(unitCost),
		Status:            core.InspectionPending,
		CreatedAt:         testNow,
	})
}

func (f *fixture) qty(key core.StockKey) decimal.Decimal {
	return f.store.Quantity(key)
}

func (f *fixture) mustMaterial(t *testing.T, id int) core.RawMaterial {
	t.Helper()
	m, ok := f.store.Material(id)
	if !ok {
		t.Fatalf("material %d not found", id)
	}
	return m
}

func (f *fixture) mustVariant(t *testing.T, id int) core.ProductVariant {
	t.Helper()
	v, ok := f.store.Variant(id)
	if !ok {
		t.Fatalf("variant %d not found", id)
	}
	return v
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T { return &v }

func assertDec(t *testing.T, what string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s: expected %s, got %s", what, want, got)
	}
}
