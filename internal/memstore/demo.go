package memstore

import (
	"time"

	"manufacturing-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// Demo holds the ids of the catalog loaded by SeedDemo.
type Demo struct {
	RawWarehouse        int
	QuarantineWarehouse int
	Steel               int
	Fabric              int
	Screws              int
	Chair               int
	Stool               int
	SteelOrder          int // approved, 50 m of steel
	FabricOrder         int // approved, 30 m2 of fabric needing inspection
	ChairRun            int // planned, 10 chairs and 4 stools
}

// Variants lists the demo variant ids.
func (d Demo) Variants() []int { return []int{d.Chair, d.Stool} }

// SeedDemo loads a small furniture workshop catalog into s. Variant costs are left at zero;
// callers recompute them through the Engine.
func SeedDemo(s *Store, now time.Time) Demo {
	dec := decimal.RequireFromString
	lastMonth := now.AddDate(0, -1, 0)

	var d Demo
	d.RawWarehouse = s.AddWarehouse(core.Warehouse{Name: core.DefaultWarehouseName, Type: core.WarehouseRawMaterials, IsActive: true, CreatedAt: now})
	d.QuarantineWarehouse = s.AddWarehouse(core.Warehouse{Name: core.DefaultQuarantineName, Type: core.WarehouseQuarantine, IsActive: true, CreatedAt: now})

	aceros := s.AddSupplier(core.Supplier{Code: "SUP-ACE", Name: "Aceros del Norte"})
	textil := s.AddSupplier(core.Supplier{Code: "SUP-TEX", Name: "Textiles Sur"})
	ferre := s.AddSupplier(core.Supplier{Code: "SUP-FER", Name: "Ferreteria Central"})

	d.Steel = s.AddMaterial(core.RawMaterial{
		Code: "STL-TUBE", Name: "Steel tube 25mm", Unit: "m",
		StandardCost: dec("9"), AverageCost: dec("9.5"), LastPurchasePrice: dec("9.5"), LastPurchaseDate: &lastMonth,
		DefaultSupplierID: &aceros, UpdatedAt: now,
	})
	d.Fabric = s.AddMaterial(core.RawMaterial{
		Code: "FAB-GRY", Name: "Upholstery fabric grey", Unit: "m2",
		StandardCost: dec("20"), DefaultSupplierID: &textil, RequiresInspection: true, UpdatedAt: now,
	})
	d.Screws = s.AddMaterial(core.RawMaterial{
		Code: "SCR-M6", Name: "Screw M6", Unit: "unit",
		StandardCost: dec("0.10"), AverageCost: dec("0.12"), LastPurchasePrice: dec("0.12"), LastPurchaseDate: &lastMonth,
		DefaultSupplierID: &ferre, UpdatedAt: now,
	})

	s.SetStock(core.MaterialKey(d.Steel, d.RawWarehouse), dec("40"))
	s.SetStock(core.MaterialKey(d.Screws, d.RawWarehouse), dec("500"))

	s.AddSupplierMaterial(core.SupplierMaterial{SupplierID: aceros, SupplierName: "Aceros del Norte", MaterialID: d.Steel, LastPurchasePrice: dec("9.5"), LastPurchaseDate: lastMonth})
	s.AddSupplierMaterial(core.SupplierMaterial{SupplierID: ferre, SupplierName: "Ferreteria Central", MaterialID: d.Steel, LastPurchasePrice: dec("10.2"), LastPurchaseDate: lastMonth.AddDate(0, -2, 0)})
	s.AddSupplierMaterial(core.SupplierMaterial{SupplierID: ferre, SupplierName: "Ferreteria Central", MaterialID: d.Screws, LastPurchasePrice: dec("0.12"), LastPurchaseDate: lastMonth})

	minutes := dec("12")
	d.Chair = s.AddVariant(core.ProductVariant{SKU: "CHR-STD-GRY", Name: "Dining chair, grey", LaborCost: dec("15"), IndirectCost: dec("4"), UpdatedAt: now})
	d.Stool = s.AddVariant(core.ProductVariant{SKU: "STL-BAR-BLK", Name: "Bar stool, black", ProductionMinutes: &minutes, UpdatedAt: now})
	s.AddOperationalConfig(core.OperationalConfig{CostPerMinute: dec("0.75"), EffectiveFrom: lastMonth})

	s.AddBOMLine(core.BOMLine{VariantID: d.Chair, MaterialID: d.Steel, Quantity: dec("2.5")})
	s.AddBOMLine(core.BOMLine{VariantID: d.Chair, MaterialID: d.Fabric, Quantity: dec("1.2")})
	s.AddBOMLine(core.BOMLine{VariantID: d.Chair, MaterialID: d.Screws, Quantity: dec("8")})
	s.AddBOMLine(core.BOMLine{VariantID: d.Stool, MaterialID: d.Steel, Quantity: dec("3")})
	s.AddBOMLine(core.BOMLine{VariantID: d.Stool, MaterialID: d.Screws, Quantity: dec("6")})

	d.SteelOrder = s.AddPurchaseOrder(core.PurchaseOrder{
		Code: "PO-1001", SupplierID: aceros, Status: core.POStatusApproved, OrderDate: now,
		Items: []core.PurchaseOrderItem{{MaterialID: d.Steel, Quantity: dec("50"), UnitPrice: dec("10"), TaxAmount: dec("40")}},
	})
	d.FabricOrder = s.AddPurchaseOrder(core.PurchaseOrder{
		Code: "PO-1002", SupplierID: textil, Status: core.POStatusApproved, OrderDate: now,
		Items: []core.PurchaseOrderItem{{MaterialID: d.Fabric, Quantity: dec("30"), UnitPrice: dec("22")}},
	})
	d.ChairRun = s.AddProductionOrder(core.ProductionOrder{
		Code: "PRD-0001", Status: core.ProductionPlanned,
		Items: []core.ProductionOrderItem{
			{VariantID: d.Chair, Quantity: dec("10")},
			{VariantID: d.Stool, Quantity: dec("4")},
		},
	})
	return d
}
