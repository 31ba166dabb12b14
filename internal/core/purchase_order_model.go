package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus values recognised by receiving.
const (
	POStatusDraft     = "DRAFT"
	POStatusApproved  = "APPROVED"
	POStatusReceived  = "RECEIVED"
	POStatusCancelled = "CANCELLED"
)

// PurchaseOrder represents a purchase order header with its items.
type PurchaseOrder struct {
	ID           int
	Code         string
	SupplierID   int
	Status       string
	OrderDate    time.Time
	ReceivedDate *time.Time
	Items        []PurchaseOrderItem
}

// PurchaseOrderItem is one ordered material.
type PurchaseOrderItem struct {
	ID         int
	OrderID    int
	MaterialID int
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	TaxAmount  decimal.Decimal
}

// Subtotal is quantity × unit price plus tax.
func (i PurchaseOrderItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Add(i.TaxAmount)
}

// LandedUnitCost is the tax-inclusive unit cost: subtotal / quantity.
func (i PurchaseOrderItem) LandedUnitCost() decimal.Decimal {
	if i.Quantity.IsZero() {
		return decimal.Zero
	}
	return i.Subtotal().Div(i.Quantity)
}

// ReceiptLine reports how one purchase order item was applied.
type ReceiptLine struct {
	ItemID          int
	MaterialID      int
	WarehouseID     int
	Quantity        decimal.Decimal
	LandedUnitCost  decimal.Decimal
	Quarantined     bool
	InspectionID    *int
	NewAverageCost  decimal.Decimal
	VariantsUpdated []int
}

// Receipt is the outcome of receiving a purchase order.
type Receipt struct {
	PurchaseOrderID int
	ReceivedDate    time.Time
	Lines           []ReceiptLine
}
