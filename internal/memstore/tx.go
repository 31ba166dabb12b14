package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"manufacturing-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// tx works on a private copy of the state; the Store mutex serializes units of work, so locking
// reads are plain reads here.
type tx struct {
	st       *state
	store    *Store
	readOnly bool
}

var _ core.Tx = (*tx)(nil)

func (t *tx) write() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *tx) now() time.Time { return t.store.now() }

// ── Materials ────────────────────────────────────────────────────────────────

func (t *tx) GetMaterial(_ context.Context, id int) (*core.RawMaterial, error) {
	m, ok := t.st.materials[id]
	if !ok {
		return nil, core.NotFoundError("material", id)
	}
	return &m, nil
}

func (t *tx) LockMaterial(ctx context.Context, id int) (*core.RawMaterial, error) {
	return t.GetMaterial(ctx, id)
}

func (t *tx) ListMaterials(_ context.Context, ids []int) ([]core.RawMaterial, error) {
	seen := make(map[int]bool, len(ids))
	out := make([]core.RawMaterial, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if m, ok := t.st.materials[id]; ok {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) UpdateMaterialCosts(_ context.Context, m *core.RawMaterial) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.st.materials[m.ID]
	if !ok {
		return core.NotFoundError("material", m.ID)
	}
	cur.StandardCost = m.StandardCost
	cur.AverageCost = m.AverageCost
	cur.LastPurchasePrice = m.LastPurchasePrice
	cur.LastPurchaseDate = m.LastPurchaseDate
	cur.UpdatedAt = t.now()
	t.st.materials[m.ID] = cur
	return nil
}

// ── Warehouses ───────────────────────────────────────────────────────────────

func (t *tx) GetWarehouse(_ context.Context, id int) (*core.Warehouse, error) {
	w, ok := t.st.warehouses[id]
	if !ok {
		return nil, core.NotFoundError("warehouse", id)
	}
	return &w, nil
}

func (t *tx) FindWarehouseByName(_ context.Context, name string) (*core.Warehouse, error) {
	for _, w := range t.sortedWarehouses() {
		if w.Name == name {
			return &w, nil
		}
	}
	return nil, fmt.Errorf("warehouse %q: %w", name, core.ErrNotFound)
}

func (t *tx) FindWarehouseByType(_ context.Context, wt core.WarehouseType) (*core.Warehouse, error) {
	for _, w := range t.sortedWarehouses() {
		if w.Type == wt && w.IsActive {
			return &w, nil
		}
	}
	return nil, fmt.Errorf("%s warehouse: %w", wt, core.ErrNotFound)
}

func (t *tx) ListWarehouses(_ context.Context, wt core.WarehouseType) ([]core.Warehouse, error) {
	var out []core.Warehouse
	for _, w := range t.sortedWarehouses() {
		if w.Type == wt && w.IsActive {
			out = append(out, w)
		}
	}
	return out, nil
}

func (t *tx) sortedWarehouses() []core.Warehouse {
	out := make([]core.Warehouse, 0, len(t.st.warehouses))
	for _, w := range t.st.warehouses {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *tx) CreateWarehouse(_ context.Context, w *core.Warehouse) error {
	if err := t.write(); err != nil {
		return err
	}
	w.ID = t.st.id()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = t.now()
	}
	t.st.warehouses[w.ID] = *w
	return nil
}

// ── Stock ────────────────────────────────────────────────────────────────────

func (t *tx) LockStockPosition(_ context.Context, key core.StockKey) (*core.StockPosition, error) {
	if p, ok := t.st.positions[key]; ok {
		return &p, nil
	}
	if _, ok := t.st.warehouses[key.WarehouseID]; !ok {
		return nil, core.NotFoundError("warehouse", key.WarehouseID)
	}
	return &core.StockPosition{Key: key, Quantity: decimal.Zero}, nil
}

func (t *tx) SaveStockPosition(_ context.Context, p *core.StockPosition) error {
	if err := t.write(); err != nil {
		return err
	}
	if p.Quantity.IsNegative() {
		return fmt.Errorf("stock position %v would go negative", p.Key)
	}
	if p.ID == 0 {
		if cur, ok := t.st.positions[p.Key]; ok {
			p.ID = cur.ID
		} else {
			p.ID = t.st.id()
		}
	}
	p.UpdatedAt = t.now()
	t.st.positions[p.Key] = *p
	return nil
}

func (t *tx) InsertMovement(_ context.Context, mv *core.StockMovement) error {
	if err := t.write(); err != nil {
		return err
	}
	mv.ID = t.st.id()
	mv.CreatedAt = t.now()
	t.st.movements = append(t.st.movements, *mv)
	return nil
}

func (t *tx) SumStock(_ context.Context, kind core.ItemKind, itemID int, wt core.WarehouseType) (decimal.Decimal, error) {
	total := decimal.Zero
	for k, p := range t.st.positions {
		if k.Kind != kind || k.ItemID != itemID {
			continue
		}
		if w, ok := t.st.warehouses[k.WarehouseID]; ok && w.Type == wt && w.IsActive {
			total = total.Add(p.Quantity)
		}
	}
	return total, nil
}

func (t *tx) StockLevels(_ context.Context, kind core.ItemKind, itemID int) ([]core.StockLevel, error) {
	var out []core.StockLevel
	for k, p := range t.st.positions {
		if k.Kind != kind || k.ItemID != itemID {
			continue
		}
		w := t.st.warehouses[k.WarehouseID]
		out = append(out, core.StockLevel{
			WarehouseID:   w.ID,
			WarehouseName: w.Name,
			WarehouseType: w.Type,
			Quantity:      p.Quantity,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

// ── Variants and BOM ─────────────────────────────────────────────────────────

func (t *tx) GetVariant(_ context.Context, id int) (*core.ProductVariant, error) {
	v, ok := t.st.variants[id]
	if !ok {
		return nil, core.NotFoundError("variant", id)
	}
	return &v, nil
}

func (t *tx) LockVariant(ctx context.Context, id int) (*core.ProductVariant, error) {
	return t.GetVariant(ctx, id)
}

func (t *tx) UpdateVariantCosting(_ context.Context, v *core.ProductVariant) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.st.variants[v.ID]
	if !ok {
		return core.NotFoundError("variant", v.ID)
	}
	cur.LaborCost = v.LaborCost
	cur.IndirectCost = v.IndirectCost
	cur.ProductionMinutes = v.ProductionMinutes
	cur.UpdatedAt = t.now()
	t.st.variants[v.ID] = cur
	return nil
}

func (t *tx) UpdateVariantCosts(_ context.Context, v *core.ProductVariant) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.st.variants[v.ID]
	if !ok {
		return core.NotFoundError("variant", v.ID)
	}
	cur.Cost = v.Cost
	cur.ReferenceCost = v.ReferenceCost
	cur.UpdatedAt = t.now()
	t.st.variants[v.ID] = cur
	return nil
}

func (t *tx) ListBOMLines(_ context.Context, variantID int) ([]core.BOMLine, error) {
	var out []core.BOMLine
	for _, l := range t.st.bomLines {
		if l.VariantID == variantID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) GetBOMLine(_ context.Context, id int) (*core.BOMLine, error) {
	l, ok := t.st.bomLines[id]
	if !ok {
		return nil, core.NotFoundError("bom line", id)
	}
	return &l, nil
}

func (t *tx) InsertBOMLine(_ context.Context, l *core.BOMLine) error {
	if err := t.write(); err != nil {
		return err
	}
	l.ID = t.st.id()
	t.st.bomLines[l.ID] = *l
	t.st.deps.Add(l.MaterialID, l.VariantID)
	return nil
}

func (t *tx) UpdateBOMLine(_ context.Context, l *core.BOMLine) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.st.bomLines[l.ID]
	if !ok {
		return core.NotFoundError("bom line", l.ID)
	}
	cur.Quantity = l.Quantity
	t.st.bomLines[l.ID] = cur
	return nil
}

func (t *tx) DeleteBOMLine(_ context.Context, id int) error {
	if err := t.write(); err != nil {
		return err
	}
	l, ok := t.st.bomLines[id]
	if !ok {
		return core.NotFoundError("bom line", id)
	}
	delete(t.st.bomLines, id)
	t.st.deps.Remove(l.MaterialID, l.VariantID)
	return nil
}

func (t *tx) VariantsUsingMaterial(_ context.Context, materialID int) ([]int, error) {
	return t.st.deps.Dependents(materialID), nil
}

func (t *tx) ActiveOperationalConfig(_ context.Context) (core.OperationalConfig, error) {
	var best core.OperationalConfig
	for _, c := range t.st.configs {
		if !c.EffectiveFrom.After(t.now()) && (best.ID == 0 || !c.EffectiveFrom.Before(best.EffectiveFrom)) {
			best = c
		}
	}
	return best, nil
}

// ── Inspections ──────────────────────────────────────────────────────────────

func (t *tx) GetInspection(_ context.Context, id int) (*core.IncomingInspection, error) {
	in, ok := t.st.inspections[id]
	if !ok {
		return nil, core.NotFoundError("inspection", id)
	}
	return &in, nil
}

func (t *tx) LockInspection(ctx context.Context, id int) (*core.IncomingInspection, error) {
	return t.GetInspection(ctx, id)
}

func (t *tx) ListInspections(_ context.Context, status core.InspectionStatus) ([]core.IncomingInspection, error) {
	var out []core.IncomingInspection
	for _, in := range t.st.inspections {
		if in.Status == status {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) InsertInspection(_ context.Context, in *core.IncomingInspection) error {
	if err := t.write(); err != nil {
		return err
	}
	for _, other := range t.st.inspections {
		if other.Code == in.Code {
			return fmt.Errorf("inspection code %s already exists", in.Code)
		}
	}
	in.ID = t.st.id()
	t.st.inspections[in.ID] = *in
	return nil
}

func (t *tx) UpdateInspection(_ context.Context, in *core.IncomingInspection) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.st.inspections[in.ID]
	if !ok {
		return core.NotFoundError("inspection", in.ID)
	}
	upd := *in
	upd.QuantityReceived = cur.QuantityReceived
	upd.CreatedAt = cur.CreatedAt
	t.st.inspections[in.ID] = upd
	return nil
}

// ── Orders and suppliers ─────────────────────────────────────────────────────

func (t *tx) LockPurchaseOrder(_ context.Context, id int) (*core.PurchaseOrder, error) {
	po, ok := t.st.purchaseOrders[id]
	if !ok {
		return nil, core.NotFoundError("purchase order", id)
	}
	po.Items = append([]core.PurchaseOrderItem(nil), po.Items...)
	return &po, nil
}

func (t *tx) MarkPurchaseOrderReceived(_ context.Context, id int, at time.Time) error {
	if err := t.write(); err != nil {
		return err
	}
	po, ok := t.st.purchaseOrders[id]
	if !ok {
		return core.NotFoundError("purchase order", id)
	}
	po.Status = core.POStatusReceived
	po.ReceivedDate = &at
	t.st.purchaseOrders[id] = po
	return nil
}

func (t *tx) GetSupplier(_ context.Context, id int) (*core.Supplier, error) {
	s, ok := t.st.suppliers[id]
	if !ok {
		return nil, core.NotFoundError("supplier", id)
	}
	return &s, nil
}

func (t *tx) UpsertSupplierMaterial(_ context.Context, sm *core.SupplierMaterial) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, ok := t.st.suppliers[sm.SupplierID]; !ok {
		return core.NotFoundError("supplier", sm.SupplierID)
	}
	t.st.supplierMaterials[[2]int{sm.SupplierID, sm.MaterialID}] = *sm
	return nil
}

func (t *tx) ListSupplierMaterials(_ context.Context, materialID int) ([]core.SupplierMaterial, error) {
	var out []core.SupplierMaterial
	for k, sm := range t.st.supplierMaterials {
		if k[1] != materialID {
			continue
		}
		sm.SupplierName = t.st.suppliers[k[0]].Name
		out = append(out, sm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SupplierID < out[j].SupplierID })
	return out, nil
}

func (t *tx) GetProductionOrder(_ context.Context, id int) (*core.ProductionOrder, error) {
	po, ok := t.st.productionOrders[id]
	if !ok {
		return nil, core.NotFoundError("production order", id)
	}
	po.Items = append([]core.ProductionOrderItem(nil), po.Items...)
	return &po, nil
}

func (t *tx) LockProductionOrder(ctx context.Context, id int) (*core.ProductionOrder, error) {
	return t.GetProductionOrder(ctx, id)
}

func (t *tx) MarkProductionOrderCompleted(_ context.Context, id int, at time.Time) error {
	if err := t.write(); err != nil {
		return err
	}
	po, ok := t.st.productionOrders[id]
	if !ok {
		return core.NotFoundError("production order", id)
	}
	po.Status = core.ProductionCompleted
	po.CompletedAt = &at
	t.st.productionOrders[id] = po
	return nil
}

// ── Sequences and audit ──────────────────────────────────────────────────────

func (t *tx) NextSequence(_ context.Context, name string) (int64, error) {
	if err := t.write(); err != nil {
		return 0, err
	}
	t.st.sequences[name]++
	return t.st.sequences[name], nil
}

func (t *tx) RecordAudit(_ context.Context, ev core.AuditEvent) error {
	if err := t.write(); err != nil {
		return err
	}
	if t.store.auditErr != nil {
		return t.store.auditErr
	}
	t.st.audit = append(t.st.audit, ev)
	return nil
}
