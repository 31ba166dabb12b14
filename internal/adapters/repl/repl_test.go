package repl_test

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"manufacturing-ledger/internal/adapters/repl"
	"manufacturing-ledger/internal/app"
	"manufacturing-ledger/internal/core"
	"manufacturing-ledger/internal/memstore"

	"github.com/shopspring/decimal"
)

func TestRun_ReceiveAndReleaseLot(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	store := memstore.New()
	store.SetClock(func() time.Time { return now })
	demo := memstore.SeedDemo(store, now)
	svc := app.NewAppService(core.NewEngine(store, core.WithClock(func() time.Time { return now })))

	script := strings.Join([]string{
		fmt.Sprintf("/receive %d", demo.FabricOrder),
		"/inspections",
		"/resolve 9999",
		"/resolve INS",
		"hello",
	}, "\n") + "\n"

	var out bytes.Buffer
	repl.Run(context.Background(), svc, bufio.NewReader(strings.NewReader(script)), &out)
	got := out.String()
	for _, want := range []string{"quarantine, insp.", "INS-000001", "Error [NOT_FOUND]", "Invalid inspection id: INS", "Commands start with '/'", "Goodbye!"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	pending, err := svc.ListPendingInspections(context.Background())
	if err != nil || len(pending.Inspections) != 1 {
		t.Fatalf("expected one pending inspection, got %+v (err %v)", pending, err)
	}
	id := pending.Inspections[0].ID

	// Wizard answers: result, accepted, rejected, unit cost, lot, inspector, notes, confirm.
	wizard := strings.Join([]string{
		fmt.Sprintf("/resolve %d", id),
		"a", "", "", "", "LOT-44", "qa.lopez", "", "y",
		fmt.Sprintf("/stock %d", demo.Fabric),
		"/exit",
	}, "\n") + "\n"
	out.Reset()
	repl.Run(context.Background(), svc, bufio.NewReader(strings.NewReader(wizard)), &out)
	got = out.String()
	if !strings.Contains(got, "LIBERADO: 30 released at 22.0000") {
		t.Errorf("expected the lot to be released at its landed cost:\n%s", got)
	}

	m, _ := store.Material(demo.Fabric)
	if !m.AverageCost.Equal(decimal.NewFromInt(22)) {
		t.Errorf("fabric average = %s, want 22", m.AverageCost)
	}
	if q := store.Quantity(core.MaterialKey(demo.Fabric, demo.RawWarehouse)); !q.Equal(decimal.NewFromInt(30)) {
		t.Errorf("fabric raw stock = %s, want 30", q)
	}
}
