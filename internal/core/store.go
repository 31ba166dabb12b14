package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the unit-of-work provider. InTx runs fn inside one atomic transaction: it commits when
// fn returns nil and rolls back otherwise. Retrying on lock contention is the Store's concern.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// InReadTx runs fn in a read-only transaction.
	InReadTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is row-level access to the ledger state within one unit of work. Lock* methods take a
// write lock that is held until the unit of work ends; Get* methods read the latest committed
// row without locking. Lookups that miss return an error wrapping ErrNotFound.
type Tx interface {
	GetMaterial(ctx context.Context, id int) (*RawMaterial, error)
	LockMaterial(ctx context.Context, id int) (*RawMaterial, error)
	// ListMaterials returns the given materials ordered by id.
	ListMaterials(ctx context.Context, ids []int) ([]RawMaterial, error)
	UpdateMaterialCosts(ctx context.Context, m *RawMaterial) error

	GetWarehouse(ctx context.Context, id int) (*Warehouse, error)
	FindWarehouseByName(ctx context.Context, name string) (*Warehouse, error)
	FindWarehouseByType(ctx context.Context, t WarehouseType) (*Warehouse, error)
	// ListWarehouses returns active warehouses of the given type ordered by id.
	ListWarehouses(ctx context.Context, t WarehouseType) ([]Warehouse, error)
	CreateWarehouse(ctx context.Context, w *Warehouse) error

	// LockStockPosition returns the position for key, locked. A missing position comes back with
	// zero quantity, either already materialized or with ID 0 to be created by SaveStockPosition.
	LockStockPosition(ctx context.Context, key StockKey) (*StockPosition, error)
	SaveStockPosition(ctx context.Context, p *StockPosition) error
	InsertMovement(ctx context.Context, mv *StockMovement) error
	// SumStock totals the quantity of an item across active warehouses of type t.
	SumStock(ctx context.Context, kind ItemKind, itemID int, t WarehouseType) (decimal.Decimal, error)
	StockLevels(ctx context.Context, kind ItemKind, itemID int) ([]StockLevel, error)

	GetVariant(ctx context.Context, id int) (*ProductVariant, error)
	LockVariant(ctx context.Context, id int) (*ProductVariant, error)
	UpdateVariantCosting(ctx context.Context, v *ProductVariant) error
	UpdateVariantCosts(ctx context.Context, v *ProductVariant) error
	ListBOMLines(ctx context.Context, variantID int) ([]BOMLine, error)
	GetBOMLine(ctx context.Context, id int) (*BOMLine, error)
	InsertBOMLine(ctx context.Context, line *BOMLine) error
	UpdateBOMLine(ctx context.Context, line *BOMLine) error
	DeleteBOMLine(ctx context.Context, id int) error
	// VariantsUsingMaterial returns the distinct ids of variants with a BOM line on the material,
	// ascending.
	VariantsUsingMaterial(ctx context.Context, materialID int) ([]int, error)

	// ActiveOperationalConfig returns the most recent configuration, or a zero config when none
	// has been recorded.
	ActiveOperationalConfig(ctx context.Context) (OperationalConfig, error)

	GetInspection(ctx context.Context, id int) (*IncomingInspection, error)
	LockInspection(ctx context.Context, id int) (*IncomingInspection, error)
	// ListInspections returns inspections in the given status ordered by id.
	ListInspections(ctx context.Context, status InspectionStatus) ([]IncomingInspection, error)
	InsertInspection(ctx context.Context, in *IncomingInspection) error
	UpdateInspection(ctx context.Context, in *IncomingInspection) error

	LockPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error)
	MarkPurchaseOrderReceived(ctx context.Context, id int, receivedAt time.Time) error

	GetSupplier(ctx context.Context, id int) (*Supplier, error)
	UpsertSupplierMaterial(ctx context.Context, sm *SupplierMaterial) error
	ListSupplierMaterials(ctx context.Context, materialID int) ([]SupplierMaterial, error)

	GetProductionOrder(ctx context.Context, id int) (*ProductionOrder, error)
	LockProductionOrder(ctx context.Context, id int) (*ProductionOrder, error)
	MarkProductionOrderCompleted(ctx context.Context, id int, completedAt time.Time) error

	// NextSequence increments and returns the named counter under a row lock.
	NextSequence(ctx context.Context, name string) (int64, error)

	// RecordAudit writes an audit event in this unit of work. A failure must abort it.
	RecordAudit(ctx context.Context, ev AuditEvent) error
}

// AuditEvent is one entry for the audit sink.
type AuditEvent struct {
	ID         string
	EntityType string
	EntityID   int
	Action     string
	Actor      string
	Notes      string
	Metadata   map[string]any
	CreatedAt  time.Time
}
