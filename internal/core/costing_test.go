package core_test

import (
	"errors"
	"testing"
	"time"

	"manufacturing-ledger/internal/core"
)

func TestWeightedAverage(t *testing.T) {
	tests := []struct {
		name                   string
		prior, avg, qty, price string
		want                   string
	}{
		{"empty bucket takes the receipt price", "0", "0", "100", "10", "10"},
		{"blends with existing stock", "100", "10", "50", "16", "12"},
		{"equal prices keep the average", "40", "7.5", "10", "7.5", "7.5"},
		{"non-positive total falls back to price", "-5", "9", "5", "11", "11"},
		{"fractional quantities", "2.5", "4", "7.5", "8", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.WeightedAverage(d(tt.prior), d(tt.avg), d(tt.qty), d(tt.price))
			assertDec(t, "average", got, d(tt.want))
		})
	}
}

func TestApplyReceipt_UpdatesLastPurchase(t *testing.T) {
	m := &core.RawMaterial{ID: 1, AverageCost: d("10")}
	at := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	avg := core.ApplyReceipt(m, d("30"), d("10"), d("14.1234567"), at)

	assertDec(t, "average", avg, d("11.030864"))
	assertDec(t, "stored average", m.AverageCost, avg)
	assertDec(t, "last purchase price", m.LastPurchasePrice, d("14.123457"))
	if m.LastPurchaseDate == nil || !m.LastPurchaseDate.Equal(at) {
		t.Errorf("expected last purchase date %v, got %v", at, m.LastPurchaseDate)
	}
}

func TestReaverageForCorrection(t *testing.T) {
	got := core.ReaverageForCorrection(d("12"), d("15"), d("10"), d("14"), d("40"))
	assertDec(t, "new average", got, d("13.5"))

	// A large downward correction clamps at zero.
	got = core.ReaverageForCorrection(d("1"), d("100"), d("10"), d("2"), d("50"))
	assertDec(t, "clamped average", got, d("0"))
}

// releasedInspection seeds an inspection that released acceptedQty units at cost, with the
// material holding stock units in raw materials.
func releasedInspection(f *fixture, materialID int, acceptedQty, cost, stock string) int {
	f.store.SetStock(core.MaterialKey(materialID, f.raw), d(stock))
	return f.store.AddInspection(core.IncomingInspection{
		Code:              "INS-DONE",
		MaterialID:        materialID,
		SourceWarehouseID: f.quarantine,
		TargetWarehouseID: f.raw,
		QuantityReceived:  d(acceptedQty),
		QuantityAccepted:  d(acceptedQty),
		AcceptedUnitCost:  ptr(d(cost)),
		Status:            core.InspectionReleased,
	})
}

func TestCorrectAcceptedCost_ReaveragesAcrossStock(t *testing.T) {
	f := newFixture(t)
	mat := f.store.AddMaterial(core.RawMaterial{Code: "M-STEEL", Name: "Steel", StandardCost: d("11"), AverageCost: d("12")})
	variant := f.variant(t, "V-1", map[int]string{mat: "2"})
	insp := releasedInspection(f, mat, "15", "10", "40")

	c, err := f.engine.CorrectAcceptedCost(f.ctx, insp, d("14"), "Supplier invoice revised", "controller")
	if err != nil {
		t.Fatalf("CorrectAcceptedCost failed: %v", err)
	}

	assertDec(t, "delta", c.Delta, d("60"))
	assertDec(t, "stock base", c.StockBase, d("40"))
	assertDec(t, "new average", c.NewAverageCost, d("13.5"))
	assertDec(t, "stored average", f.mustMaterial(t, mat).AverageCost, d("13.5"))

	in, _ := f.store.Inspection(insp)
	assertDec(t, "accepted unit cost", *in.AcceptedUnitCost, d("14"))

	// The variant is rolled up in the same unit of work.
	if len(c.VariantsUpdated) != 1 || c.VariantsUpdated[0] != variant {
		t.Fatalf("expected variant %d to be updated, got %v", variant, c.VariantsUpdated)
	}
	assertDec(t, "variant cost", f.mustVariant(t, variant).Cost, d("27"))

	events := f.store.AuditEvents()
	if len(events) != 1 || events[0].Action != "ACCEPTED_COST_CORRECTED" || events[0].Notes != "Supplier invoice revised" {
		t.Fatalf("expected one cost correction audit event, got %+v", events)
	}
}

func TestCorrectAcceptedCost_Guards(t *testing.T) {
	f := newFixture(t)
	mat := f.store.AddMaterial(core.RawMaterial{Code: "M-1", AverageCost: d("12")})
	released := releasedInspection(f, mat, "15", "10", "40")
	nothingAccepted := f.store.AddInspection(core.IncomingInspection{
		Code:             "INS-REJ",
		MaterialID:       mat,
		QuantityReceived: d("5"),
		QuantityRejected: d("5"),
		Status:           core.InspectionRejected,
	})

	tests := []struct {
		name    string
		id      int
		cost    string
		reason  string
		wantErr error
	}{
		{"no accepted quantity", nothingAccepted, "14", "invoice", core.ErrInvalidCorrection},
		{"zero cost", released, "0", "invoice", core.ErrInvalidCorrection},
		{"negative cost", released, "-1", "invoice", core.ErrInvalidCorrection},
		{"same cost", released, "10", "invoice", core.ErrInvalidCorrection},
		{"missing reason", released, "14", "  ", core.ErrValidation},
		{"unknown inspection", 9999, "14", "invoice", core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.CorrectAcceptedCost(f.ctx, tt.id, d(tt.cost), tt.reason, "controller")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	assertDec(t, "average untouched", f.mustMaterial(t, mat).AverageCost, d("12"))
	if n := len(f.store.AuditEvents()); n != 0 {
		t.Errorf("expected no audit events, got %d", n)
	}
}

func TestCorrectAcceptedCost_NoStockToReaverage(t *testing.T) {
	f := newFixture(t)
	mat := f.store.AddMaterial(core.RawMaterial{Code: "M-1", AverageCost: d("12")})
	insp := releasedInspection(f, mat, "15", "10", "0")

	_, err := f.engine.CorrectAcceptedCost(f.ctx, insp, d("14"), "invoice", "controller")
	if !errors.Is(err, core.ErrInvalidCorrection) {
		t.Fatalf("expected ErrInvalidCorrection, got %v", err)
	}
}
