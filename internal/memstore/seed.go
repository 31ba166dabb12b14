package memstore

import (
	"time"

	"manufacturing-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// SetClock overrides the timestamps the store writes.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddWarehouse stores w and returns its id.
func (s *Store) AddWarehouse(w core.Warehouse) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.ID = s.st.id()
	s.st.warehouses[w.ID] = w
	return w.ID
}

// AddMaterial stores m and returns its id.
func (s *Store) AddMaterial(m core.RawMaterial) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.st.id()
	s.st.materials[m.ID] = m
	return m.ID
}

// AddVariant stores v and returns its id. Its cost fields are stored as given.
func (s *Store) AddVariant(v core.ProductVariant) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.st.id()
	s.st.variants[v.ID] = v
	return v.ID
}

// AddBOMLine stores l and indexes its material dependency. The variant's cached costs are not
// recomputed.
func (s *Store) AddBOMLine(l core.BOMLine) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.st.id()
	s.st.bomLines[l.ID] = l
	s.st.deps.Add(l.MaterialID, l.VariantID)
	return l.ID
}

// AddSupplier stores sup and returns its id.
func (s *Store) AddSupplier(sup core.Supplier) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup.ID = s.st.id()
	s.st.suppliers[sup.ID] = sup
	return sup.ID
}

// AddSupplierMaterial records price history directly.
func (s *Store) AddSupplierMaterial(sm core.SupplierMaterial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.supplierMaterials[[2]int{sm.SupplierID, sm.MaterialID}] = sm
}

// AddPurchaseOrder stores po with its items and returns its id.
func (s *Store) AddPurchaseOrder(po core.PurchaseOrder) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	po.ID = s.st.id()
	items := make([]core.PurchaseOrderItem, len(po.Items))
	for i, it := range po.Items {
		it.ID = s.st.id()
		it.OrderID = po.ID
		items[i] = it
	}
	po.Items = items
	s.st.purchaseOrders[po.ID] = po
	return po.ID
}

// AddProductionOrder stores po with its items and returns its id.
func (s *Store) AddProductionOrder(po core.ProductionOrder) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	po.ID = s.st.id()
	items := make([]core.ProductionOrderItem, len(po.Items))
	for i, it := range po.Items {
		it.ID = s.st.id()
		items[i] = it
	}
	po.Items = items
	s.st.productionOrders[po.ID] = po
	return po.ID
}

// AddInspection stores a pending inspection as receiving would have created it.
func (s *Store) AddInspection(in core.IncomingInspection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = s.st.id()
	if in.Status == "" {
		in.Status = core.InspectionPending
	}
	s.st.inspections[in.ID] = in
	return in.ID
}

// AddOperationalConfig records a cost-per-minute configuration.
func (s *Store) AddOperationalConfig(c core.OperationalConfig) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.st.id()
	s.st.configs = append(s.st.configs, c)
	return c.ID
}

// SetStock overwrites a stock position without writing a movement.
func (s *Store) SetStock(key core.StockKey, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.positions[key]
	if !ok {
		p = core.StockPosition{ID: s.st.id(), Key: key}
	}
	p.Quantity = qty
	s.st.positions[key] = p
}

// ── Committed state readers ──────────────────────────────────────────────────

// Material returns the committed material, or false.
func (s *Store) Material(id int) (core.RawMaterial, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.materials[id]
	return m, ok
}

// Variant returns the committed variant, or false.
func (s *Store) Variant(id int) (core.ProductVariant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.st.variants[id]
	return v, ok
}

// Inspection returns the committed inspection, or false.
func (s *Store) Inspection(id int) (core.IncomingInspection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.st.inspections[id]
	return in, ok
}

// PurchaseOrder returns the committed purchase order, or false.
func (s *Store) PurchaseOrder(id int) (core.PurchaseOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.st.purchaseOrders[id]
	return po, ok
}

// ProductionOrder returns the committed production order, or false.
func (s *Store) ProductionOrder(id int) (core.ProductionOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.st.productionOrders[id]
	return po, ok
}

// Quantity returns the committed quantity for key; absent positions hold zero.
func (s *Store) Quantity(key core.StockKey) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.positions[key].Quantity
}

// TotalQuantity sums an item's committed positions across every warehouse.
func (s *Store) TotalQuantity(kind core.ItemKind, itemID int) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for k, p := range s.st.positions {
		if k.Kind == kind && k.ItemID == itemID {
			total = total.Add(p.Quantity)
		}
	}
	return total
}

// Movements returns the committed stock journal in write order.
func (s *Store) Movements() []core.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.StockMovement(nil), s.st.movements...)
}

// AuditEvents returns the committed audit trail in write order.
func (s *Store) AuditEvents() []core.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AuditEvent(nil), s.st.audit...)
}

// SupplierMaterial returns the committed price history row, or false.
func (s *Store) SupplierMaterial(supplierID, materialID int) (core.SupplierMaterial, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, ok := s.st.supplierMaterials[[2]int{supplierID, materialID}]
	return sm, ok
}

// Warehouses returns every warehouse, ascending by id.
func (s *Store) Warehouses() []core.Warehouse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&tx{st: s.st, store: s}).sortedWarehouses()
}
