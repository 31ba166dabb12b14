package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostScale is the number of decimal places kept on persisted cost fields.
const CostScale = 6

// WarehouseType partitions stock into usable, finished and held buckets.
type WarehouseType string

const (
	WarehouseRawMaterials  WarehouseType = "RAW_MATERIALS"
	WarehouseFinishedGoods WarehouseType = "FINISHED_GOODS"
	WarehouseQuarantine    WarehouseType = "QUARANTINE"
)

// Warehouse represents a physical storage location. Its type decides whether stock held in it
// counts as usable raw material.
type Warehouse struct {
	ID        int
	Name      string
	Type      WarehouseType
	IsActive  bool
	CreatedAt time.Time
}

// RawMaterial is a catalog material with its reference and rolling actual costs.
type RawMaterial struct {
	ID                 int
	Code               string
	Name               string
	Unit               string
	StandardCost       decimal.Decimal
	AverageCost        decimal.Decimal // zero until the first accepted receipt
	LastPurchasePrice  decimal.Decimal
	LastPurchaseDate   *time.Time
	DefaultSupplierID  *int
	RequiresInspection bool
	UpdatedAt          time.Time
}

// EffectiveCost is the unit cost used for actual roll-ups: the average when one exists,
// otherwise the standard cost.
func (m *RawMaterial) EffectiveCost() decimal.Decimal {
	if m.AverageCost.IsPositive() {
		return m.AverageCost
	}
	return m.StandardCost
}

// ItemKind tells whether a stock position holds a raw material or a finished product variant.
type ItemKind string

const (
	ItemMaterial ItemKind = "MATERIAL"
	ItemVariant  ItemKind = "VARIANT"
)

// StockKey identifies exactly one StockPosition.
type StockKey struct {
	Kind        ItemKind
	ItemID      int
	WarehouseID int
}

// MaterialKey is the stock key of a raw material in a warehouse.
func MaterialKey(materialID, warehouseID int) StockKey {
	return StockKey{Kind: ItemMaterial, ItemID: materialID, WarehouseID: warehouseID}
}

// VariantKey is the stock key of a product variant in a warehouse.
func VariantKey(variantID, warehouseID int) StockKey {
	return StockKey{Kind: ItemVariant, ItemID: variantID, WarehouseID: warehouseID}
}

// StockPosition is the on-hand quantity for one key. ID is zero until the position is first saved.
type StockPosition struct {
	ID        int
	Key       StockKey
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

// MovementType labels an entry in the stock movement journal.
type MovementType string

const (
	MovementPurchaseReceipt       MovementType = "PURCHASE_RECEIPT"
	MovementQuarantineReceipt     MovementType = "QUARANTINE_RECEIPT"
	MovementQuarantineOut         MovementType = "QUARANTINE_OUT"
	MovementInspectionRelease     MovementType = "INSPECTION_RELEASE"
	MovementInspectionRejection   MovementType = "INSPECTION_REJECTION"
	MovementManualAdd             MovementType = "MANUAL_ADD"
	MovementProductionConsumption MovementType = "PRODUCTION_CONSUMPTION"
	MovementProductionOutput      MovementType = "PRODUCTION_OUTPUT"
)

// StockMovement is one journal line. Quantity is signed: credits positive, debits negative.
type StockMovement struct {
	ID            int
	Key           StockKey
	Type          MovementType
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	ReferenceType string
	ReferenceID   int
	Notes         string
	CreatedAt     time.Time
}

// StockLevel is a read view of one position joined with its warehouse.
type StockLevel struct {
	WarehouseID   int
	WarehouseName string
	WarehouseType WarehouseType
	Quantity      decimal.Decimal
}

// Supplier is a vendor of raw materials.
type Supplier struct {
	ID   int
	Code string
	Name string
}

// SupplierMaterial is the price history of one supplier for one material.
type SupplierMaterial struct {
	SupplierID        int
	SupplierName      string
	MaterialID        int
	LastPurchasePrice decimal.Decimal
	LastPurchaseDate  time.Time
}

// OperationalConfig holds the labor+overhead rate per production minute. The active version is
// fetched once per unit of work and passed into cost roll-ups explicitly.
type OperationalConfig struct {
	ID            int
	CostPerMinute decimal.Decimal
	EffectiveFrom time.Time
}
