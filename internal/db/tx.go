package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"manufacturing-ledger/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// pgTx implements core.Tx over one pgx transaction. Lock* methods use SELECT ... FOR UPDATE.
type pgTx struct {
	tx pgx.Tx
}

var _ core.Tx = (*pgTx)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func notFound(err error, entity string, id int) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NotFoundError(entity, id)
	}
	return fmt.Errorf("failed to load %s %d: %w", entity, id, err)
}

// ── Materials ─────────────────────────────────────────────────────────────────

const materialColumns = `id, code, name, unit, standard_cost, average_cost, last_purchase_price,
	last_purchase_date, default_supplier_id, requires_inspection, updated_at`

func scanMaterial(row scanner) (*core.RawMaterial, error) {
	var m core.RawMaterial
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.StandardCost, &m.AverageCost, &m.LastPurchasePrice,
		&m.LastPurchaseDate, &m.DefaultSupplierID, &m.RequiresInspection, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (t *pgTx) GetMaterial(ctx context.Context, id int) (*core.RawMaterial, error) {
	m, err := scanMaterial(t.tx.QueryRow(ctx, "SELECT "+materialColumns+" FROM raw_materials WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err, "material", id)
	}
	return m, nil
}

func (t *pgTx) LockMaterial(ctx context.Context, id int) (*core.RawMaterial, error) {
	m, err := scanMaterial(t.tx.QueryRow(ctx, "SELECT "+materialColumns+" FROM raw_materials WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, notFound(err, "material", id)
	}
	return m, nil
}

func (t *pgTx) ListMaterials(ctx context.Context, ids []int) ([]core.RawMaterial, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := t.tx.Query(ctx, "SELECT "+materialColumns+" FROM raw_materials WHERE id = ANY($1) ORDER BY id", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}
	defer rows.Close()

	var out []core.RawMaterial
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (t *pgTx) UpdateMaterialCosts(ctx context.Context, m *core.RawMaterial) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE raw_materials
		SET standard_cost = $1, average_cost = $2, last_purchase_price = $3, last_purchase_date = $4, updated_at = NOW()
		WHERE id = $5
	`, m.StandardCost, m.AverageCost, m.LastPurchasePrice, m.LastPurchaseDate, m.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundError("material", m.ID)
	}
	return nil
}

// ── Warehouses ────────────────────────────────────────────────────────────────

const warehouseColumns = "id, name, type, is_active, created_at"

func scanWarehouse(row scanner) (*core.Warehouse, error) {
	var w core.Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.Type, &w.IsActive, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (t *pgTx) GetWarehouse(ctx context.Context, id int) (*core.Warehouse, error) {
	w, err := scanWarehouse(t.tx.QueryRow(ctx, "SELECT "+warehouseColumns+" FROM warehouses WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err, "warehouse", id)
	}
	return w, nil
}

func (t *pgTx) FindWarehouseByName(ctx context.Context, name string) (*core.Warehouse, error) {
	w, err := scanWarehouse(t.tx.QueryRow(ctx, "SELECT "+warehouseColumns+" FROM warehouses WHERE name = $1", name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("warehouse %q: %w", name, core.ErrNotFound)
	}
	return w, err
}

func (t *pgTx) FindWarehouseByType(ctx context.Context, wt core.WarehouseType) (*core.Warehouse, error) {
	w, err := scanWarehouse(t.tx.QueryRow(ctx,
		"SELECT "+warehouseColumns+" FROM warehouses WHERE type = $1 AND is_active = true ORDER BY id LIMIT 1", wt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s warehouse: %w", wt, core.ErrNotFound)
	}
	return w, err
}

func (t *pgTx) ListWarehouses(ctx context.Context, wt core.WarehouseType) ([]core.Warehouse, error) {
	rows, err := t.tx.Query(ctx,
		"SELECT "+warehouseColumns+" FROM warehouses WHERE type = $1 AND is_active = true ORDER BY id", wt)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var out []core.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (t *pgTx) CreateWarehouse(ctx context.Context, w *core.Warehouse) error {
	// ON CONFLICT covers two receipts racing to create the default warehouse.
	return t.tx.QueryRow(ctx, `
		INSERT INTO warehouses (name, type, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, type, created_at
	`, w.Name, w.Type, w.IsActive).Scan(&w.ID, &w.Type, &w.CreatedAt)
}

// ── Stock ─────────────────────────────────────────────────────────────────────

func (t *pgTx) LockStockPosition(ctx context.Context, key core.StockKey) (*core.StockPosition, error) {
	p := &core.StockPosition{Key: key}
	err := t.tx.QueryRow(ctx, `
		SELECT id, quantity, updated_at FROM stock_positions
		WHERE item_kind = $1 AND item_id = $2 AND warehouse_id = $3
		FOR UPDATE
	`, key.Kind, key.ItemID, key.WarehouseID).Scan(&p.ID, &p.Quantity, &p.UpdatedAt)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to lock stock position: %w", err)
	}
	if _, err := t.GetWarehouse(ctx, key.WarehouseID); err != nil {
		return nil, err
	}

	// Materialize the row so that concurrent first movements serialize on it.
	err = t.tx.QueryRow(ctx, `
		INSERT INTO stock_positions (item_kind, item_id, warehouse_id, quantity)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (item_kind, item_id, warehouse_id) DO UPDATE SET updated_at = stock_positions.updated_at
		RETURNING id
	`, key.Kind, key.ItemID, key.WarehouseID).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create stock position: %w", err)
	}
	err = t.tx.QueryRow(ctx, "SELECT quantity, updated_at FROM stock_positions WHERE id = $1 FOR UPDATE", p.ID).
		Scan(&p.Quantity, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock position: %w", err)
	}
	return p, nil
}

func (t *pgTx) SaveStockPosition(ctx context.Context, p *core.StockPosition) error {
	if p.ID == 0 {
		return t.tx.QueryRow(ctx, `
			INSERT INTO stock_positions (item_kind, item_id, warehouse_id, quantity)
			VALUES ($1, $2, $3, $4)
			RETURNING id, updated_at
		`, p.Key.Kind, p.Key.ItemID, p.Key.WarehouseID, p.Quantity).Scan(&p.ID, &p.UpdatedAt)
	}
	return t.tx.QueryRow(ctx,
		"UPDATE stock_positions SET quantity = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at",
		p.Quantity, p.ID,
	).Scan(&p.UpdatedAt)
}

func (t *pgTx) InsertMovement(ctx context.Context, mv *core.StockMovement) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO stock_movements
			(item_kind, item_id, warehouse_id, movement_type, quantity, unit_cost, reference_type, reference_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, mv.Key.Kind, mv.Key.ItemID, mv.Key.WarehouseID, mv.Type, mv.Quantity, mv.UnitCost,
		mv.ReferenceType, mv.ReferenceID, mv.Notes,
	).Scan(&mv.ID, &mv.CreatedAt)
}

func (t *pgTx) SumStock(ctx context.Context, kind core.ItemKind, itemID int, wt core.WarehouseType) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(sp.quantity), 0)
		FROM stock_positions sp
		JOIN warehouses w ON w.id = sp.warehouse_id
		WHERE sp.item_kind = $1 AND sp.item_id = $2 AND w.type = $3 AND w.is_active = true
	`, kind, itemID, wt).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum stock: %w", err)
	}
	return total, nil
}

func (t *pgTx) StockLevels(ctx context.Context, kind core.ItemKind, itemID int) ([]core.StockLevel, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT w.id, w.name, w.type, sp.quantity
		FROM stock_positions sp
		JOIN warehouses w ON w.id = sp.warehouse_id
		WHERE sp.item_kind = $1 AND sp.item_id = $2
		ORDER BY w.id
	`, kind, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var out []core.StockLevel
	for rows.Next() {
		var l core.StockLevel
		if err := rows.Scan(&l.WarehouseID, &l.WarehouseName, &l.WarehouseType, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ── Variants and BOM ──────────────────────────────────────────────────────────

const variantColumns = "id, sku, name, labor_cost, indirect_cost, production_minutes, cost, reference_cost, updated_at"

func scanVariant(row scanner) (*core.ProductVariant, error) {
	var (
		v       core.ProductVariant
		minutes decimal.NullDecimal
	)
	if err := row.Scan(&v.ID, &v.SKU, &v.Name, &v.LaborCost, &v.IndirectCost, &minutes, &v.Cost, &v.ReferenceCost, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if minutes.Valid {
		v.ProductionMinutes = &minutes.Decimal
	}
	return &v, nil
}

func (t *pgTx) GetVariant(ctx context.Context, id int) (*core.ProductVariant, error) {
	v, err := scanVariant(t.tx.QueryRow(ctx, "SELECT "+variantColumns+" FROM product_variants WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err, "variant", id)
	}
	return v, nil
}

func (t *pgTx) LockVariant(ctx context.Context, id int) (*core.ProductVariant, error) {
	v, err := scanVariant(t.tx.QueryRow(ctx, "SELECT "+variantColumns+" FROM product_variants WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, notFound(err, "variant", id)
	}
	return v, nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (t *pgTx) UpdateVariantCosting(ctx context.Context, v *core.ProductVariant) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE product_variants
		SET labor_cost = $1, indirect_cost = $2, production_minutes = $3, updated_at = NOW()
		WHERE id = $4
	`, v.LaborCost, v.IndirectCost, nullable(v.ProductionMinutes), v.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundError("variant", v.ID)
	}
	return nil
}

func (t *pgTx) UpdateVariantCosts(ctx context.Context, v *core.ProductVariant) error {
	tag, err := t.tx.Exec(ctx,
		"UPDATE product_variants SET cost = $1, reference_cost = $2, updated_at = NOW() WHERE id = $3",
		v.Cost, v.ReferenceCost, v.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundError("variant", v.ID)
	}
	return nil
}

func (t *pgTx) ListBOMLines(ctx context.Context, variantID int) ([]core.BOMLine, error) {
	rows, err := t.tx.Query(ctx,
		"SELECT id, variant_id, material_id, quantity FROM bom_lines WHERE variant_id = $1 ORDER BY id", variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bom lines: %w", err)
	}
	defer rows.Close()

	var out []core.BOMLine
	for rows.Next() {
		var l core.BOMLine
		if err := rows.Scan(&l.ID, &l.VariantID, &l.MaterialID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan bom line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) GetBOMLine(ctx context.Context, id int) (*core.BOMLine, error) {
	var l core.BOMLine
	err := t.tx.QueryRow(ctx, "SELECT id, variant_id, material_id, quantity FROM bom_lines WHERE id = $1", id).
		Scan(&l.ID, &l.VariantID, &l.MaterialID, &l.Quantity)
	if err != nil {
		return nil, notFound(err, "bom line", id)
	}
	return &l, nil
}

func (t *pgTx) InsertBOMLine(ctx context.Context, l *core.BOMLine) error {
	return t.tx.QueryRow(ctx,
		"INSERT INTO bom_lines (variant_id, material_id, quantity) VALUES ($1, $2, $3) RETURNING id",
		l.VariantID, l.MaterialID, l.Quantity,
	).Scan(&l.ID)
}

func (t *pgTx) UpdateBOMLine(ctx context.Context, l *core.BOMLine) error {
	tag, err := t.tx.Exec(ctx, "UPDATE bom_lines SET quantity = $1 WHERE id = $2", l.Quantity, l.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundError("bom line", l.ID)
	}
	return nil
}

func (t *pgTx) DeleteBOMLine(ctx context.Context, id int) error {
	tag, err := t.tx.Exec(ctx, "DELETE FROM bom_lines WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundError("bom line", id)
	}
	return nil
}

func (t *pgTx) VariantsUsingMaterial(ctx context.Context, materialID int) ([]int, error) {
	rows, err := t.tx.Query(ctx,
		"SELECT DISTINCT variant_id FROM bom_lines WHERE material_id = $1 ORDER BY variant_id", materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependent variants: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (t *pgTx) ActiveOperationalConfig(ctx context.Context) (core.OperationalConfig, error) {
	var c core.OperationalConfig
	err := t.tx.QueryRow(ctx, `
		SELECT id, cost_per_minute, effective_from
		FROM operational_configs
		WHERE effective_from <= NOW()
		ORDER BY effective_from DESC, id DESC
		LIMIT 1
	`).Scan(&c.ID, &c.CostPerMinute, &c.EffectiveFrom)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.OperationalConfig{}, nil
	}
	return c, err
}

// ── Inspections ───────────────────────────────────────────────────────────────

const inspectionColumns = `id, code, purchase_order_id, purchase_order_item_id, material_id, supplier_id,
	source_warehouse_id, COALESCE(target_warehouse_id, 0), supplier_lot_code, quantity_received,
	quantity_accepted, quantity_rejected, received_unit_cost, accepted_unit_cost, inspection_result,
	status, notes, inspected_by, inspected_at, manager_approved_by, released_by, released_at, created_at`

func scanInspection(row scanner) (*core.IncomingInspection, error) {
	var (
		in       core.IncomingInspection
		accepted decimal.NullDecimal
		result   *string
	)
	err := row.Scan(&in.ID, &in.Code, &in.PurchaseOrderID, &in.PurchaseOrderItemID, &in.MaterialID, &in.SupplierID,
		&in.SourceWarehouseID, &in.TargetWarehouseID, &in.SupplierLotCode, &in.QuantityReceived,
		&in.QuantityAccepted, &in.QuantityRejected, &in.ReceivedUnitCost, &accepted, &result,
		&in.Status, &in.Notes, &in.InspectedBy, &in.InspectedAt, &in.ManagerApprovedBy, &in.ReleasedBy, &in.ReleasedAt, &in.CreatedAt)
	if err != nil {
		return nil, err
	}
	if accepted.Valid {
		in.AcceptedUnitCost = &accepted.Decimal
	}
	if result != nil {
		r := core.InspectionResult(*result)
		in.Result = &r
	}
	return &in, nil
}

func (t *pgTx) GetInspection(ctx context.Context, id int) (*core.IncomingInspection, error) {
	in, err := scanInspection(t.tx.QueryRow(ctx, "SELECT "+inspectionColumns+" FROM incoming_inspections WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err, "inspection", id)
	}
	return in, nil
}

func (t *pgTx) LockInspection(ctx context.Context, id int) (*core.IncomingInspection, error) {
	in, err := scanInspection(t.tx.QueryRow(ctx, "SELECT "+inspectionColumns+" FROM incoming_inspections WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, notFound(err, "inspection", id)
	}
	return in, nil
}

func (t *pgTx) ListInspections(ctx context.Context, status core.InspectionStatus) ([]core.IncomingInspection, error) {
	rows, err := t.tx.Query(ctx, "SELECT "+inspectionColumns+" FROM incoming_inspections WHERE status = $1 ORDER BY id", status)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspections: %w", err)
	}
	defer rows.Close()

	var out []core.IncomingInspection
	for rows.Next() {
		in, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func nullableID(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}

func (t *pgTx) InsertInspection(ctx context.Context, in *core.IncomingInspection) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO incoming_inspections
			(code, purchase_order_id, purchase_order_item_id, material_id, supplier_id, source_warehouse_id,
			 target_warehouse_id, supplier_lot_code, quantity_received, received_unit_cost, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`, in.Code, in.PurchaseOrderID, in.PurchaseOrderItemID, in.MaterialID, in.SupplierID, in.SourceWarehouseID,
		nullableID(in.TargetWarehouseID), in.SupplierLotCode, in.QuantityReceived, in.ReceivedUnitCost, in.Status,
	).Scan(&in.ID, &in.CreatedAt)
}

func (t *pgTx) UpdateInspection(ctx context.Context, in *core.IncomingInspection) error {
	var result *string
	if in.Result != nil {
		r := string(*in.Result)
		result = &r
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE incoming_inspections
		SET target_warehouse_id = $1, supplier_lot_code = $2, quantity_accepted = $3, quantity_rejected = $4,
		    accepted_unit_cost = $5, inspection_result = $6, status = $7, notes = $8, inspected_by = $9,
		    inspected_at = $10, manager_approved_by = $11, released_by = $12, released_at = $13
		WHERE id = $14
	`, nullableID(in.TargetWarehouseID), in.SupplierLotCode, in.QuantityAccepted, in.QuantityRejected,
		nullable(in.AcceptedUnitCost), result, in.Status, in.Notes, in.InspectedBy,
		in.InspectedAt, in.ManagerApprovedBy, in.ReleasedBy, in.ReleasedAt, in.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundError("inspection", in.ID)
	}
	return nil
}

// ── Orders and suppliers ──────────────────────────────────────────────────────

func (t *pgTx) LockPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	var po core.PurchaseOrder
	err := t.tx.QueryRow(ctx, `
		SELECT id, code, supplier_id, status, order_date, received_date
		FROM purchase_orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&po.ID, &po.Code, &po.SupplierID, &po.Status, &po.OrderDate, &po.ReceivedDate)
	if err != nil {
		return nil, notFound(err, "purchase order", id)
	}

	rows, err := t.tx.Query(ctx, `
		SELECT id, order_id, material_id, quantity, unit_price, tax_amount
		FROM purchase_order_items WHERE order_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it core.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MaterialID, &it.Quantity, &it.UnitPrice, &it.TaxAmount); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order item: %w", err)
		}
		po.Items = append(po.Items, it)
	}
	return &po, rows.Err()
}

func (t *pgTx) MarkPurchaseOrderReceived(ctx context.Context, id int, at time.Time) error {
	_, err := t.tx.Exec(ctx,
		"UPDATE purchase_orders SET status = $1, received_date = $2 WHERE id = $3",
		core.POStatusReceived, at, id)
	return err
}

func (t *pgTx) GetSupplier(ctx context.Context, id int) (*core.Supplier, error) {
	var s core.Supplier
	if err := t.tx.QueryRow(ctx, "SELECT id, code, name FROM suppliers WHERE id = $1", id).Scan(&s.ID, &s.Code, &s.Name); err != nil {
		return nil, notFound(err, "supplier", id)
	}
	return &s, nil
}

func (t *pgTx) UpsertSupplierMaterial(ctx context.Context, sm *core.SupplierMaterial) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO supplier_materials (supplier_id, material_id, last_purchase_price, last_purchase_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (supplier_id, material_id) DO UPDATE
		SET last_purchase_price = EXCLUDED.last_purchase_price,
		    last_purchase_date = EXCLUDED.last_purchase_date
	`, sm.SupplierID, sm.MaterialID, sm.LastPurchasePrice, sm.LastPurchaseDate)
	return err
}

func (t *pgTx) ListSupplierMaterials(ctx context.Context, materialID int) ([]core.SupplierMaterial, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT sm.supplier_id, s.name, sm.material_id, sm.last_purchase_price, sm.last_purchase_date
		FROM supplier_materials sm
		JOIN suppliers s ON s.id = sm.supplier_id
		WHERE sm.material_id = $1
		ORDER BY sm.supplier_id
	`, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier history: %w", err)
	}
	defer rows.Close()

	var out []core.SupplierMaterial
	for rows.Next() {
		var sm core.SupplierMaterial
		if err := rows.Scan(&sm.SupplierID, &sm.SupplierName, &sm.MaterialID, &sm.LastPurchasePrice, &sm.LastPurchaseDate); err != nil {
			return nil, fmt.Errorf("failed to scan supplier history: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (t *pgTx) loadProductionOrder(ctx context.Context, id int, lock bool) (*core.ProductionOrder, error) {
	q := "SELECT id, code, status, completed_at FROM production_orders WHERE id = $1"
	if lock {
		q += " FOR UPDATE"
	}
	var po core.ProductionOrder
	if err := t.tx.QueryRow(ctx, q, id).Scan(&po.ID, &po.Code, &po.Status, &po.CompletedAt); err != nil {
		return nil, notFound(err, "production order", id)
	}

	rows, err := t.tx.Query(ctx,
		"SELECT id, variant_id, quantity FROM production_order_items WHERE order_id = $1 ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query production order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it core.ProductionOrderItem
		if err := rows.Scan(&it.ID, &it.VariantID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan production order item: %w", err)
		}
		po.Items = append(po.Items, it)
	}
	return &po, rows.Err()
}

func (t *pgTx) GetProductionOrder(ctx context.Context, id int) (*core.ProductionOrder, error) {
	return t.loadProductionOrder(ctx, id, false)
}

func (t *pgTx) LockProductionOrder(ctx context.Context, id int) (*core.ProductionOrder, error) {
	return t.loadProductionOrder(ctx, id, true)
}

func (t *pgTx) MarkProductionOrderCompleted(ctx context.Context, id int, at time.Time) error {
	_, err := t.tx.Exec(ctx,
		"UPDATE production_orders SET status = $1, completed_at = $2 WHERE id = $3",
		core.ProductionCompleted, at, id)
	return err
}

// ── Sequences and audit ───────────────────────────────────────────────────────

func (t *pgTx) NextSequence(ctx context.Context, name string) (int64, error) {
	_, err := t.tx.Exec(ctx,
		"INSERT INTO ledger_sequences (name, value) VALUES ($1, 0) ON CONFLICT (name) DO NOTHING", name)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure sequence %s: %w", name, err)
	}

	var current int64
	if err := t.tx.QueryRow(ctx, "SELECT value FROM ledger_sequences WHERE name = $1 FOR UPDATE", name).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to lock sequence %s: %w", name, err)
	}
	next := current + 1
	if _, err := t.tx.Exec(ctx, "UPDATE ledger_sequences SET value = $1 WHERE name = $2", next, name); err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return next, nil
}

func (t *pgTx) RecordAudit(ctx context.Context, ev core.AuditEvent) error {
	if ev.Metadata == nil {
		ev.Metadata = map[string]any{}
	}
	meta, err := json.Marshal(ev.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode audit metadata: %w", err)
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO audit_events (id, entity_type, entity_id, action, actor, notes, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ev.ID, ev.EntityType, ev.EntityID, ev.Action, ev.Actor, ev.Notes, meta, ev.CreatedAt)
	return err
}
