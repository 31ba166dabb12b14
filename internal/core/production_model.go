package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionOrderStatus values.
const (
	ProductionPlanned   = "PLANNED"
	ProductionCompleted = "COMPLETED"
	ProductionCancelled = "CANCELLED"
)

// ProductionOrder asks for a quantity of one or more variants to be built.
type ProductionOrder struct {
	ID          int
	Code        string
	Status      string
	CompletedAt *time.Time
	Items       []ProductionOrderItem
}

// ProductionOrderItem is one variant and the number of units to build.
type ProductionOrderItem struct {
	ID        int
	VariantID int
	Quantity  decimal.Decimal
}

// SupplierCandidate is one supplier able to provide a material, ranked by historical price.
type SupplierCandidate struct {
	SupplierID        int
	SupplierName      string
	LastPurchasePrice decimal.Decimal
	LastPurchaseDate  time.Time
	IsCheapest        bool
}

// MaterialRequirement is the aggregated demand for one material on a production order.
type MaterialRequirement struct {
	MaterialID         int
	MaterialCode       string
	MaterialName       string
	Unit               string
	Required           decimal.Decimal
	Available          decimal.Decimal
	Shortage           decimal.Decimal
	CandidateSuppliers []SupplierCandidate
}

// Consumption is stock drawn from one raw-materials position by a completed order.
type Consumption struct {
	MaterialID  int
	WarehouseID int
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// Output is finished stock credited by a completed order.
type Output struct {
	VariantID   int
	WarehouseID int
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// ProductionCompletion is the outcome of completing a production order.
type ProductionCompletion struct {
	ProductionOrderID int
	CompletedAt       time.Time
	Consumed          []Consumption
	Produced          []Output
}
