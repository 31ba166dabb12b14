package db_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"manufacturing-ledger/internal/core"
	"manufacturing-ledger/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// seeded holds the ids inserted by setupTestDB.
type seeded struct {
	raw        int
	quarantine int
	supplier   int
	steel      int // not inspected
	fabric     int // requires inspection
	chair      int // 2 steel + 1 fabric
}

func setupTestDB(t *testing.T) (*pgxpool.Pool, seeded) {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database; the tables are truncated on every run.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../migrations/001_ledger_schema.sql")
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE audit_events, ledger_sequences, production_order_items, production_orders,
			incoming_inspections, supplier_materials, purchase_order_items, purchase_orders,
			operational_configs, stock_movements, stock_positions, bom_lines, product_variants,
			raw_materials, suppliers, warehouses RESTART IDENTITY CASCADE;

		INSERT INTO warehouses (name, type) VALUES ('Main Warehouse', 'RAW_MATERIALS'), ('Quarantine', 'QUARANTINE');
		INSERT INTO suppliers (code, name) VALUES ('SUP-01', 'Aceros del Norte');
		INSERT INTO raw_materials (code, name, unit, standard_cost, requires_inspection) VALUES
			('STEEL', 'Steel tube', 'm', 9, false),
			('FABRIC', 'Upholstery fabric', 'm2', 20, true);
		INSERT INTO product_variants (sku, name) VALUES ('CHAIR-01', 'Chair');
		INSERT INTO bom_lines (variant_id, material_id, quantity) VALUES (1, 1, 2), (1, 2, 1);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool, seeded{raw: 1, quarantine: 2, supplier: 1, steel: 1, fabric: 2, chair: 1}
}

func insertPO(t *testing.T, pool *pgxpool.Pool, s seeded, code string, materialID int, qty, price, tax string) int {
	t.Helper()
	ctx := context.Background()
	var id int
	err := pool.QueryRow(ctx,
		"INSERT INTO purchase_orders (code, supplier_id, status) VALUES ($1, $2, 'APPROVED') RETURNING id",
		code, s.supplier).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to insert purchase order: %v", err)
	}
	_, err = pool.Exec(ctx,
		"INSERT INTO purchase_order_items (order_id, material_id, quantity, unit_price, tax_amount) VALUES ($1, $2, $3, $4, $5)",
		id, materialID, qty, price, tax)
	if err != nil {
		t.Fatalf("Failed to insert purchase order item: %v", err)
	}
	return id
}

func newEngine(pool *pgxpool.Pool) *core.Engine {
	return core.NewEngine(db.NewStore(pool, zerolog.Nop()))
}

func scalar(t *testing.T, pool *pgxpool.Pool, q string, args ...any) decimal.Decimal {
	t.Helper()
	var v decimal.Decimal
	if err := pool.QueryRow(context.Background(), q, args...).Scan(&v); err != nil {
		t.Fatalf("query %q failed: %v", q, err)
	}
	return v
}

func TestStore_ReceiveAndRollUp(t *testing.T) {
	pool, s := setupTestDB(t)
	engine := newEngine(pool)
	ctx := context.Background()

	first := insertPO(t, pool, s, "PO-1", s.steel, "10", "10", "20")
	second := insertPO(t, pool, s, "PO-2", s.steel, "10", "8", "0")

	if _, err := engine.Receive(ctx, first, nil); err != nil {
		t.Fatalf("Receive(PO-1) failed: %v", err)
	}
	receipt, err := engine.Receive(ctx, second, nil)
	if err != nil {
		t.Fatalf("Receive(PO-2) failed: %v", err)
	}

	// (10*12 + 10*8) / 20
	if got := receipt.Lines[0].NewAverageCost; !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("average cost = %s, want 10", got)
	}
	if got := scalar(t, pool, "SELECT quantity FROM stock_positions WHERE item_kind = 'MATERIAL' AND item_id = $1", s.steel); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("stock = %s, want 20", got)
	}
	// 2 steel at 10 + 1 fabric at its standard 20.
	if got := scalar(t, pool, "SELECT cost FROM product_variants WHERE id = $1", s.chair); !got.Equal(decimal.NewFromInt(40)) {
		t.Errorf("chair cost = %s, want 40", got)
	}
	if got := scalar(t, pool, "SELECT reference_cost FROM product_variants WHERE id = $1", s.chair); !got.Equal(decimal.NewFromInt(38)) {
		t.Errorf("chair reference cost = %s, want 38", got)
	}

	_, err = engine.Receive(ctx, first, nil)
	if !errors.Is(err, core.ErrAlreadyReceived) {
		t.Errorf("second Receive(PO-1) error = %v, want ErrAlreadyReceived", err)
	}
}

func TestStore_QuarantineLifecycle(t *testing.T) {
	pool, s := setupTestDB(t)
	engine := newEngine(pool)
	ctx := context.Background()

	po := insertPO(t, pool, s, "PO-FAB", s.fabric, "10", "30", "0")
	receipt, err := engine.Receive(ctx, po, nil)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	line := receipt.Lines[0]
	if !line.Quarantined || line.InspectionID == nil {
		t.Fatalf("expected a quarantined line with an inspection, got %+v", line)
	}

	outcome, err := engine.Resolve(ctx, *line.InspectionID, core.Approval{
		Accepted:        decimal.NewFromInt(8),
		Rejected:        decimal.NewFromInt(2),
		SupplierLotCode: "LOT-7",
		Approvers:       core.Approvers{InspectedBy: "qa.lopez", ManagerApprovedBy: "mgr.ruiz"},
		Notes:           "two rolls stained on arrival",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome.Inspection.Status != core.InspectionReleased {
		t.Errorf("status = %s, want %s", outcome.Inspection.Status, core.InspectionReleased)
	}
	if got := scalar(t, pool, "SELECT COALESCE(SUM(quantity), 0) FROM stock_positions WHERE item_kind = 'MATERIAL' AND item_id = $1 AND warehouse_id = $2", s.fabric, s.quarantine); !got.IsZero() {
		t.Errorf("quarantine stock = %s, want 0", got)
	}
	if got := scalar(t, pool, "SELECT average_cost FROM raw_materials WHERE id = $1", s.fabric); !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("average cost = %s, want 30", got)
	}

	correction, err := engine.CorrectAcceptedCost(ctx, *line.InspectionID, decimal.NewFromInt(25), "supplier credit note CN-114", "ap.diaz")
	if err != nil {
		t.Fatalf("CorrectAcceptedCost failed: %v", err)
	}
	if !correction.NewAverageCost.Equal(decimal.NewFromInt(25)) {
		t.Errorf("corrected average = %s, want 25", correction.NewAverageCost)
	}

	var audits int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM audit_events WHERE entity_id = $1", *line.InspectionID).Scan(&audits); err != nil {
		t.Fatalf("count audits failed: %v", err)
	}
	if audits != 2 {
		t.Errorf("audit events = %d, want 2", audits)
	}

	_, err = engine.Resolve(ctx, *line.InspectionID, core.Rejection{
		Rejected:  decimal.NewFromInt(8),
		Approvers: core.Approvers{InspectedBy: "qa.lopez"},
		Notes:     "late second opinion",
	})
	if !errors.Is(err, core.ErrAlreadyResolved) {
		t.Errorf("second Resolve error = %v, want ErrAlreadyResolved", err)
	}
}

func TestStore_ConcurrentReceiptsSerialize(t *testing.T) {
	pool, s := setupTestDB(t)
	engine := newEngine(pool)
	ctx := context.Background()

	const orders = 6
	ids := make([]int, orders)
	for i := range ids {
		ids[i] = insertPO(t, pool, s, "PO-C"+string(rune('A'+i)), s.steel, "5", "10", "0")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			_, err := engine.Receive(gctx, id, nil)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Receive failed: %v", err)
	}

	if got := scalar(t, pool, "SELECT SUM(quantity) FROM stock_positions WHERE item_kind = 'MATERIAL' AND item_id = $1", s.steel); !got.Equal(decimal.NewFromInt(5 * orders)) {
		t.Errorf("stock = %s, want %d", got, 5*orders)
	}
	if got := scalar(t, pool, "SELECT SUM(quantity) FROM stock_movements WHERE item_kind = 'MATERIAL' AND item_id = $1", s.steel); !got.Equal(decimal.NewFromInt(5 * orders)) {
		t.Errorf("journal total = %s, want %d", got, 5*orders)
	}
	if got := scalar(t, pool, "SELECT average_cost FROM raw_materials WHERE id = $1", s.steel); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("average cost = %s, want 10", got)
	}
}

func TestStore_InspectionCodesAreSequential(t *testing.T) {
	pool, s := setupTestDB(t)
	engine := newEngine(pool)
	ctx := context.Background()

	for _, code := range []string{"PO-S1", "PO-S2"} {
		if _, err := engine.Receive(ctx, insertPO(t, pool, s, code, s.fabric, "1", "20", "0"), nil); err != nil {
			t.Fatalf("Receive(%s) failed: %v", code, err)
		}
	}

	rows, err := pool.Query(ctx, "SELECT code FROM incoming_inspections ORDER BY id")
	if err != nil {
		t.Fatalf("query inspections failed: %v", err)
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		codes = append(codes, c)
	}
	if len(codes) != 2 || codes[0] != "INS-000001" || codes[1] != "INS-000002" {
		t.Errorf("codes = %v, want [INS-000001 INS-000002]", codes)
	}
}

func TestStore_CompleteProductionOrder(t *testing.T) {
	pool, s := setupTestDB(t)
	engine := newEngine(pool)
	ctx := context.Background()

	if _, err := engine.AddStock(ctx, s.steel, s.raw, decimal.NewFromInt(10), decimal.NewFromInt(9), "opening count"); err != nil {
		t.Fatalf("AddStock(steel) failed: %v", err)
	}
	if _, err := engine.AddStock(ctx, s.fabric, s.raw, decimal.NewFromInt(10), decimal.NewFromInt(20), "opening count"); err != nil {
		t.Fatalf("AddStock(fabric) failed: %v", err)
	}

	var orderID int
	err := pool.QueryRow(ctx, "INSERT INTO production_orders (code) VALUES ('PRD-1') RETURNING id").Scan(&orderID)
	if err != nil {
		t.Fatalf("insert production order failed: %v", err)
	}
	if _, err := pool.Exec(ctx, "INSERT INTO production_order_items (order_id, variant_id, quantity) VALUES ($1, $2, 3)", orderID, s.chair); err != nil {
		t.Fatalf("insert production item failed: %v", err)
	}

	done, err := engine.CompleteProductionOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("CompleteProductionOrder failed: %v", err)
	}
	if len(done.Consumed) != 2 {
		t.Fatalf("consumed %d positions, want 2", len(done.Consumed))
	}
	if got := scalar(t, pool, "SELECT quantity FROM stock_positions WHERE item_kind = 'MATERIAL' AND item_id = $1", s.steel); !got.Equal(decimal.NewFromInt(4)) {
		t.Errorf("steel left = %s, want 4", got)
	}
	if got := scalar(t, pool, "SELECT quantity FROM stock_positions WHERE item_kind = 'VARIANT' AND item_id = $1", s.chair); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("chairs produced = %s, want 3", got)
	}

	_, err = engine.CompleteProductionOrder(ctx, orderID)
	if !errors.Is(err, core.ErrAlreadyCompleted) {
		t.Errorf("second completion error = %v, want ErrAlreadyCompleted", err)
	}
}
