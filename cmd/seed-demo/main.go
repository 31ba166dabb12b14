// seed-demo loads the furniture workshop demo catalog into the configured database and costs
// its variants through the ledger engine. Existing rows with the same codes are left untouched.
//
// Usage: go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"

	"manufacturing-ledger/internal/config"
	"manufacturing-ledger/internal/core"
	"manufacturing-ledger/internal/db"
	"manufacturing-ledger/internal/logger"

	"github.com/jackc/pgx/v5"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init("seed-demo", cfg.LogLevel, cfg.Development())

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	// A step with args must hold a single statement; the others run as simple-protocol scripts.
	steps := []struct {
		name string
		sql  string
		args []any
	}{
		{"warehouses", `
			INSERT INTO warehouses (name, type) VALUES
			  ($1, 'RAW_MATERIALS'),
			  ($2, 'QUARANTINE')
			ON CONFLICT (name) DO NOTHING;`, []any{cfg.DefaultWarehouseName, cfg.QuarantineWarehouseName}},
		{"suppliers", `
			INSERT INTO suppliers (code, name) VALUES
			  ('SUP-ACE', 'Aceros del Norte'),
			  ('SUP-TEX', 'Textiles Sur'),
			  ('SUP-FER', 'Ferreteria Central')
			ON CONFLICT (code) DO NOTHING;`, nil},
		{"raw materials", `
			INSERT INTO raw_materials (code, name, unit, standard_cost, requires_inspection, default_supplier_id)
			SELECT m.code, m.name, m.unit, m.std, m.inspected, s.id
			FROM (VALUES
			    ('STL-TUBE', 'Steel tube 25mm',        'm',    9.00, false, 'SUP-ACE'),
			    ('FAB-GRY',  'Upholstery fabric grey', 'm2',  20.00, true,  'SUP-TEX'),
			    ('SCR-M6',   'Screw M6',               'unit', 0.10, false, 'SUP-FER')
			) AS m(code, name, unit, std, inspected, supplier)
			JOIN suppliers s ON s.code = m.supplier
			ON CONFLICT (code) DO NOTHING;`, nil},
		{"product variants", `
			INSERT INTO product_variants (sku, name, labor_cost, indirect_cost, production_minutes) VALUES
			  ('CHR-STD-GRY', 'Dining chair, grey', 15, 4, NULL),
			  ('STL-BAR-BLK', 'Bar stool, black',   0,  0, 12)
			ON CONFLICT (sku) DO NOTHING;`, nil},
		{"bills of materials", `
			INSERT INTO bom_lines (variant_id, material_id, quantity)
			SELECT v.id, m.id, b.qty
			FROM (VALUES
			    ('CHR-STD-GRY', 'STL-TUBE', 2.5),
			    ('CHR-STD-GRY', 'FAB-GRY',  1.2),
			    ('CHR-STD-GRY', 'SCR-M6',   8),
			    ('STL-BAR-BLK', 'STL-TUBE', 3),
			    ('STL-BAR-BLK', 'SCR-M6',   6)
			) AS b(sku, code, qty)
			JOIN product_variants v ON v.sku = b.sku
			JOIN raw_materials m ON m.code = b.code
			WHERE NOT EXISTS (SELECT 1 FROM bom_lines x WHERE x.variant_id = v.id AND x.material_id = m.id);`, nil},
		{"operational config", `
			INSERT INTO operational_configs (cost_per_minute, effective_from)
			SELECT 0.75, now() - interval '1 month'
			WHERE NOT EXISTS (SELECT 1 FROM operational_configs);`, nil},
		{"purchase orders", `
			INSERT INTO purchase_orders (code, supplier_id, status)
			SELECT p.code, s.id, 'APPROVED'
			FROM (VALUES ('PO-1001', 'SUP-ACE'), ('PO-1002', 'SUP-TEX')) AS p(code, supplier)
			JOIN suppliers s ON s.code = p.supplier
			ON CONFLICT (code) DO NOTHING;

			INSERT INTO purchase_order_items (order_id, material_id, quantity, unit_price, tax_amount)
			SELECT po.id, m.id, i.qty, i.price, i.tax
			FROM (VALUES ('PO-1001', 'STL-TUBE', 50, 10, 40), ('PO-1002', 'FAB-GRY', 30, 22, 0)) AS i(code, material, qty, price, tax)
			JOIN purchase_orders po ON po.code = i.code
			JOIN raw_materials m ON m.code = i.material
			WHERE NOT EXISTS (SELECT 1 FROM purchase_order_items x WHERE x.order_id = po.id);`, nil},
		{"production orders", `
			INSERT INTO production_orders (code) VALUES ('PRD-0001') ON CONFLICT (code) DO NOTHING;

			INSERT INTO production_order_items (order_id, variant_id, quantity)
			SELECT po.id, v.id, i.qty
			FROM (VALUES ('CHR-STD-GRY', 10), ('STL-BAR-BLK', 4)) AS i(sku, qty)
			JOIN product_variants v ON v.sku = i.sku
			JOIN production_orders po ON po.code = 'PRD-0001'
			WHERE NOT EXISTS (SELECT 1 FROM production_order_items x WHERE x.order_id = po.id);`, nil},
	}

	for _, step := range steps {
		log.Info().Str("step", step.name).Msg("seeding")
		if _, err := tx.Exec(ctx, step.sql, step.args...); err != nil {
			log.Fatal().Err(err).Str("step", step.name).Msg("seed step failed")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to commit")
	}

	engine := core.NewEngine(db.NewStore(pool, log), core.WithLogger(log))
	rows, err := pool.Query(ctx, "SELECT id FROM product_variants WHERE sku IN ('CHR-STD-GRY', 'STL-BAR-BLK') ORDER BY id")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list demo variants")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read demo variants")
	}
	for _, id := range ids {
		b, err := engine.RecomputeVariantCost(ctx, id)
		if err != nil {
			log.Fatal().Err(err).Int("variant_id", id).Msg("failed to cost variant")
		}
		log.Info().Int("variant_id", id).Str("cost", b.Cost.String()).Str("reference_cost", b.ReferenceCost.String()).Msg("variant costed")
	}

	log.Info().Msg("Demo catalog seeded successfully.")
}
