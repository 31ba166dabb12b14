package cli_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"manufacturing-ledger/internal/adapters/cli"
	"manufacturing-ledger/internal/app"
	"manufacturing-ledger/internal/core"
	"manufacturing-ledger/internal/memstore"
)

func setup(t *testing.T) (memstore.Demo, func(stdin string, args ...string) (string, error)) {
	t.Helper()
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	store := memstore.New()
	store.SetClock(func() time.Time { return now })
	demo := memstore.SeedDemo(store, now)
	svc := app.NewAppService(core.NewEngine(store, core.WithClock(func() time.Time { return now })))

	run := func(stdin string, args ...string) (string, error) {
		var out bytes.Buffer
		err := cli.New(svc, strings.NewReader(stdin), &out).Run(context.Background(), args)
		return out.String(), err
	}
	return demo, run
}

func TestRun_Rollup(t *testing.T) {
	demo, run := setup(t)

	out, err := run("", "rollup", fmt.Sprint(demo.Chair))
	if err != nil {
		t.Fatalf("rollup failed: %v", err)
	}
	// 2.5 m steel at 9.5 + 1.2 m2 fabric at standard 20 + 8 screws at 0.12, plus 15 labor and 4 indirect.
	if !strings.Contains(out, "67.7100") || !strings.Contains(out, "66.3000") {
		t.Errorf("unexpected chair breakdown:\n%s", out)
	}

	out, err = run("", "rollup", fmt.Sprint(demo.Stool))
	if err != nil {
		t.Fatalf("rollup failed: %v", err)
	}
	if !strings.Contains(out, "Operation time") || !strings.Contains(out, "38.2200") {
		t.Errorf("unexpected stool breakdown:\n%s", out)
	}
}

func TestRun_Requirements(t *testing.T) {
	demo, run := setup(t)

	out, err := run("", "requirements", fmt.Sprint(demo.ChairRun))
	if err != nil {
		t.Fatalf("requirements failed: %v", err)
	}
	for _, want := range []string{"FAB-GRY", "SCR-M6", "STL-TUBE", "37.00", "104.00", "Aceros del Norte @ 9.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("requirements output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "FAB-GRY") > strings.Index(out, "STL-TUBE") {
		t.Errorf("expected rows sorted by material code:\n%s", out)
	}
}

func TestRun_ReceiveAndInspect(t *testing.T) {
	demo, run := setup(t)

	out, err := run(fmt.Sprintf(`{"purchase_order_id": %d}`, demo.FabricOrder), "receive")
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if !strings.Contains(out, `"Quarantined": true`) {
		t.Errorf("expected a quarantined line:\n%s", out)
	}

	out, err = run("", "inspections")
	if err != nil {
		t.Fatalf("inspections failed: %v", err)
	}
	if !strings.Contains(out, "INS-000001") {
		t.Errorf("expected INS-000001 pending:\n%s", out)
	}

	_, err = run(`{"inspection_id": 9999, "result": "CONDICIONAL", "inspected_by": "qa", "notes": "lab pending"}`, "resolve")
	if app.ErrorCode(err) != app.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}

	_, err = run(`{"purchase_order_id": 1, "warehouse": "x"}`, "receive")
	if err == nil || !strings.Contains(err.Error(), "invalid JSON request") {
		t.Errorf("expected unknown fields to be rejected, got %v", err)
	}
}

func TestRun_Schema(t *testing.T) {
	_, run := setup(t)

	out, err := run("", "schema", "resolve")
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	if !strings.Contains(out, `"inspection_id"`) || !strings.Contains(out, "CONDICIONAL") {
		t.Errorf("unexpected schema:\n%s", out)
	}
}

func TestRun_BadInvocations(t *testing.T) {
	_, run := setup(t)

	tests := [][]string{
		{},
		{"frobnicate"},
		{"stock"},
		{"stock", "abc"},
		{"complete", "-3"},
	}
	for _, args := range tests {
		if _, err := run("", args...); err == nil {
			t.Errorf("Run(%v) expected an error", args)
		}
	}
}
