package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMLine states how much of a material one unit of a variant consumes.
type BOMLine struct {
	ID         int
	VariantID  int
	MaterialID int
	Quantity   decimal.Decimal
}

// NewBOMLine validates the relations and quantity of a line before it is stored.
func NewBOMLine(variantID, materialID int, quantity decimal.Decimal) (*BOMLine, error) {
	if variantID <= 0 {
		return nil, validationf("variant_id", "is required")
	}
	if materialID <= 0 {
		return nil, validationf("material_id", "is required")
	}
	if !quantity.IsPositive() {
		return nil, validationf("quantity", "must be positive, got %s", quantity)
	}
	if err := checkScale("quantity", quantity); err != nil {
		return nil, err
	}
	return &BOMLine{VariantID: variantID, MaterialID: materialID, Quantity: quantity}, nil
}

// ProductVariant is a sellable configuration of a product. Cost and ReferenceCost are cached
// roll-ups; only the Engine writes them.
type ProductVariant struct {
	ID                int
	SKU               string
	Name              string
	LaborCost         decimal.Decimal
	IndirectCost      decimal.Decimal
	ProductionMinutes *decimal.Decimal
	Cost              decimal.Decimal
	ReferenceCost     decimal.Decimal
	UpdatedAt         time.Time
}

// UsesOperationalTime reports whether the variant is costed by production minutes instead of
// its manual labor and indirect overrides.
func (v *ProductVariant) UsesOperationalTime() bool {
	return v.ProductionMinutes != nil && v.ProductionMinutes.IsPositive()
}

// VariantCosting is the set of manual cost inputs an operator may edit on a variant.
type VariantCosting struct {
	LaborCost         decimal.Decimal
	IndirectCost      decimal.Decimal
	ProductionMinutes *decimal.Decimal
}

// CostBreakdown is the result of one roll-up.
type CostBreakdown struct {
	VariantID             int
	ActualMaterialCost    decimal.Decimal
	ReferenceMaterialCost decimal.Decimal
	OperationalCost       decimal.Decimal
	LaborCost             decimal.Decimal
	IndirectCost          decimal.Decimal
	Cost                  decimal.Decimal
	ReferenceCost         decimal.Decimal
}
