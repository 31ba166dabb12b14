// Package memstore is an in-memory core.Store. Units of work are serialized by one mutex and run
// against a copy of the state that replaces the committed state only when the work succeeds, so a
// failed operation leaves nothing behind. It backs the engine tests and the CLI demo.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"manufacturing-ledger/internal/core"
)

type state struct {
	nextID            int
	materials         map[int]core.RawMaterial
	warehouses        map[int]core.Warehouse
	positions         map[core.StockKey]core.StockPosition
	movements         []core.StockMovement
	variants          map[int]core.ProductVariant
	bomLines          map[int]core.BOMLine
	deps              *core.CostDependencyIndex
	configs           []core.OperationalConfig
	inspections       map[int]core.IncomingInspection
	purchaseOrders    map[int]core.PurchaseOrder
	suppliers         map[int]core.Supplier
	supplierMaterials map[[2]int]core.SupplierMaterial
	productionOrders  map[int]core.ProductionOrder
	sequences         map[string]int64
	audit             []core.AuditEvent
}

func newState() *state {
	return &state{
		materials:         make(map[int]core.RawMaterial),
		warehouses:        make(map[int]core.Warehouse),
		positions:         make(map[core.StockKey]core.StockPosition),
		variants:          make(map[int]core.ProductVariant),
		bomLines:          make(map[int]core.BOMLine),
		deps:              core.NewCostDependencyIndex(),
		inspections:       make(map[int]core.IncomingInspection),
		purchaseOrders:    make(map[int]core.PurchaseOrder),
		suppliers:         make(map[int]core.Supplier),
		supplierMaterials: make(map[[2]int]core.SupplierMaterial),
		productionOrders:  make(map[int]core.ProductionOrder),
		sequences:         make(map[string]int64),
	}
}

func (s *state) clone() *state {
	c := &state{
		nextID:            s.nextID,
		materials:         cloneMap(s.materials),
		warehouses:        cloneMap(s.warehouses),
		positions:         cloneMap(s.positions),
		movements:         append([]core.StockMovement(nil), s.movements...),
		variants:          cloneMap(s.variants),
		bomLines:          cloneMap(s.bomLines),
		deps:              s.deps.Clone(),
		configs:           append([]core.OperationalConfig(nil), s.configs...),
		inspections:       cloneMap(s.inspections),
		purchaseOrders:    make(map[int]core.PurchaseOrder, len(s.purchaseOrders)),
		suppliers:         cloneMap(s.suppliers),
		supplierMaterials: cloneMap(s.supplierMaterials),
		productionOrders:  make(map[int]core.ProductionOrder, len(s.productionOrders)),
		sequences:         cloneMap(s.sequences),
		audit:             append([]core.AuditEvent(nil), s.audit...),
	}
	for id, po := range s.purchaseOrders {
		po.Items = append([]core.PurchaseOrderItem(nil), po.Items...)
		c.purchaseOrders[id] = po
	}
	for id, po := range s.productionOrders {
		po.Items = append([]core.ProductionOrderItem(nil), po.Items...)
		c.productionOrders[id] = po
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func (s *state) id() int {
	s.nextID++
	return s.nextID
}

// Store is an in-memory core.Store.
type Store struct {
	mu       sync.Mutex
	st       *state
	now      func() time.Time
	auditErr error
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// FailAudit makes every subsequent RecordAudit return err; nil restores normal behaviour.
func (s *Store) FailAudit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditErr = err
}

func (s *Store) InTx(ctx context.Context, fn func(tx core.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&tx{st: work, store: s}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) InReadTx(ctx context.Context, fn func(tx core.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{st: s.st.clone(), store: s, readOnly: true})
}

var errReadOnly = errors.New("memstore: write in read-only transaction")
