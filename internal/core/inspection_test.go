package core_test

import (
	"errors"
	"testing"

	"manufacturing-ledger/internal/core"
)

var (
	inspector = core.Approvers{InspectedBy: "qa.lopez"}
	countered = core.Approvers{InspectedBy: "qa.lopez", ManagerApprovedBy: "mgr.ruiz"}
)

func TestResolve_PartialApproval(t *testing.T) {
	f := newFixture(t)
	mat := f.material("M-1", "9", true)
	insp := f.pendingInspection(mat, "20", "10")

	// 1. Quantities must add up to the received lot.
	_, err := f.engine.Resolve(f.ctx, insp, core.Approval{
		Accepted: d("15"), Rejected: d("3"), SupplierLotCode: "LOT-7",
		Approvers: countered, Notes: "Three units dented in transit",
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation for 15+3 != 20, got %v", err)
	}

	// 2. 15 + 5 releases 15 and scraps 5.
	out, err := f.engine.Resolve(f.ctx, insp, core.Approval{
		Accepted: d("15"), Rejected: d("5"), SupplierLotCode: "LOT-7",
		Approvers: countered, Notes: "Five units dented in transit",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if out.Inspection.Status != core.InspectionReleased {
		t.Fatalf("expected LIBERADO, got %s", out.Inspection.Status)
	}
	assertDec(t, "quarantine stock", f.qty(core.MaterialKey(mat, f.quarantine)), d("0"))
	assertDec(t, "raw stock", f.qty(core.MaterialKey(mat, f.raw)), d("15"))

	// Released at the landed cost captured at receipt.
	m := f.mustMaterial(t, mat)
	assertDec(t, "average", m.AverageCost, d("10"))
	assertDec(t, "last purchase price", m.LastPurchasePrice, d("10"))

	in, _ := f.store.Inspection(insp)
	if in.Status != core.InspectionReleased || in.SupplierLotCode != "LOT-7" || in.ReleasedAt == nil {
		t.Errorf("unexpected stored inspection: %+v", in)
	}
	assertDec(t, "accepted", in.QuantityAccepted, d("15"))
	assertDec(t, "rejected", in.QuantityRejected, d("5"))
	assertDec(t, "accepted unit cost", *in.AcceptedUnitCost, d("10"))

	var out15, rej5, rel15 bool
	for _, mv := range f.store.Movements() {
		switch {
		case mv.Type == core.MovementQuarantineOut && mv.Quantity.Equal(d("-15")):
			out15 = true
		case mv.Type == core.MovementInspectionRejection && mv.Quantity.Equal(d("-5")):
			rej5 = true
		case mv.Type == core.MovementInspectionRelease && mv.Quantity.Equal(d("15")):
			rel15 = true
		}
	}
	if !out15 || !rej5 || !rel15 {
		t.Errorf("expected quarantine-out, rejection and release movements, got %+v", f.store.Movements())
	}

	events := f.store.AuditEvents()
	if len(events) != 1 || events[0].Action != "INSPECTION_RESOLVED" || events[0].Actor != "qa.lopez" {
		t.Fatalf("expected one resolution audit event, got %+v", events)
	}
}

func TestResolve_ValidationRules(t *testing.T) {
	f := newFixture(t)
	mat := f.material("M-1", "9", true)

	tests := []struct {
		name string
		res  core.Resolution
	}{
		{"missing inspector", core.Approval{Accepted: d("20"), SupplierLotCode: "L"}},
		{"approval accepts nothing", core.Approval{Accepted: d("0"), Rejected: d("20"), SupplierLotCode: "L", Approvers: countered, Notes: "long enough notes"}},
		{"approval missing lot code", core.Approval{Accepted: d("20"), Approvers: inspector}},
		{"partial approval without manager", core.Approval{Accepted: d("10"), Rejected: d("10"), SupplierLotCode: "L", Approvers: inspector, Notes: "long enough notes"}},
		{"partial approval with short notes", core.Approval{Accepted: d("10"), Rejected: d("10"), SupplierLotCode: "L", Approvers: countered, Notes: "bad"}},
		{"rejection of part of the lot", core.Rejection{Rejected: d("19"), Approvers: countered, Notes: "contaminated batch"}},
		{"rejection without manager", core.Rejection{Rejected: d("20"), Approvers: inspector, Notes: "contaminated batch"}},
		{"rejection with short notes", core.Rejection{Rejected: d("20"), Approvers: countered, Notes: "bad lot"}},
		{"hold without manager", core.ConditionalHold{Approvers: inspector, Notes: "awaiting lab results"}},
		{"hold with short notes", core.ConditionalHold{Approvers: countered, Notes: "lab"}},
		{"negative quantity", core.Approval{Accepted: d("25"), Rejected: d("-5"), SupplierLotCode: "L", Approvers: countered, Notes: "long enough notes"}},
		{"accepted beyond stored precision", core.Approval{Accepted: d("19.9999999"), Rejected: d("0.0000001"), SupplierLotCode: "L", Approvers: countered, Notes: "long enough notes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insp := f.pendingInspection(mat, "20", "10")
			if _, err := f.engine.Resolve(f.ctx, insp, tt.res); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			in, _ := f.store.Inspection(insp)
			if in.Status != core.InspectionPending || in.Result != nil {
				t.Errorf("expected inspection untouched, got %s %v", in.Status, in.Result)
			}
		})
	}
	assertDec(t, "raw stock", f.qty(core.MaterialKey(mat, f.raw)), d("0"))
}

func TestResolve_Rejection(t *testing.T) {
	f := newFixture(t)
	mat := f.material("M-1", "9", true)
	insp := f.pendingInspection(mat, "12", "10")

	out, err := f.engine.Resolve(f.ctx, insp, core.Rejection{Rejected: d("12"), Approvers: countered, Notes: "Moisture above specification"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if out.Inspection.Status != core.InspectionRejected {
		t.Fatalf("expected RECHAZADO, got %s", out.Inspection.Status)
	}
	assertDec(t, "quarantine stock", f.qty(core.MaterialKey(mat, f.quarantine)), d("0"))
	assertDec(t, "raw stock", f.qty(core.MaterialKey(mat, f.raw)), d("0"))
	if m := f.mustMaterial(t, mat); !m.AverageCost.IsZero() {
		t.Errorf("expected no costing on rejection, got average %s", m.AverageCost)
	}
}

func TestResolve_ConditionalHoldStaysPending(t *testing.T) {
	f := newFixture(t)
	mat := f.material("M-1", "9", true)
	insp := f.pendingInspection(mat, "8", "10")

	out, err := f.engine.Resolve(f.ctx, insp, core.ConditionalHold{Approvers: countered, Notes: "Awaiting lab certificate"})
	if err != nil {
		t.Fatalf("Resolve(hold) failed: %v", err)
	}
	if out.Inspection.Status != core.InspectionPending || *out.Inspection.Result != core.ResultConditional {
		t.Fatalf("expected PENDIENTE/CONDICIONAL, got %s/%v", out.Inspection.Status, out.Inspection.Result)
	}
	assertDec(t, "quarantine stock", f.qty(core.MaterialKey(mat, f.quarantine)), d("8"))
	if n := len(f.store.Movements()); n != 0 {
		t.Errorf("expected no movements for a hold, got %d", n)
	}
	if ev := f.store.AuditEvents(); len(ev) != 1 || ev[0].Action != "INSPECTION_HELD" {
		t.Errorf("expected a hold audit event, got %+v", ev)
	}

	// A held lot can be resolved later, here with an explicit unit cost.
	if _, err := f.engine.Resolve(f.ctx, insp, core.Approval{Accepted: d("8"), UnitCost: ptr(d("11")), SupplierLotCode: "LOT-H", Approvers: inspector}); err != nil {
		t.Fatalf("Resolve(approval) failed: %v", err)
	}
	assertDec(t, "raw stock", f.qty(core.MaterialKey(mat, f.raw)), d("8"))
	assertDec(t, "average from explicit cost", f.mustMaterial(t, mat).AverageCost, d("11"))
}

func TestResolve_SecondCallFailsWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	mat := f.material("M-1", "9", true)
	insp := f.pendingInspection(mat, "10", "10")
	res := core.Approval{Accepted: d("10"), SupplierLotCode: "LOT-1", Approvers: inspector}

	if _, err := f.engine.Resolve(f.ctx, insp, res); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	mat1 := f.mustMaterial(t, mat)
	in1, _ := f.store.Inspection(insp)
	moves1 := len(f.store.Movements())
	audit1 := len(f.store.AuditEvents())

	_, err := f.engine.Resolve(f.ctx, insp, res)
	if !errors.Is(err, core.ErrAlreadyResolved) || !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("expected ErrAlreadyResolved (InvalidState), got %v", err)
	}

	mat2 := f.mustMaterial(t, mat)
	in2, _ := f.store.Inspection(insp)
	assertDec(t, "average", mat2.AverageCost, mat1.AverageCost)
	assertDec(t, "raw stock", f.qty(core.MaterialKey(mat, f.raw)), d("10"))
	if in2.Status != in1.Status || !in2.QuantityAccepted.Equal(in1.QuantityAccepted) {
		t.Errorf("inspection changed after failed call: %+v -> %+v", in1, in2)
	}
	if len(f.store.Movements()) != moves1 || len(f.store.AuditEvents()) != audit1 {
		t.Error("failed call wrote movements or audit events")
	}
}

func TestResolve_InsufficientQuarantineStock(t *testing.T) {
	f := newFixture(t)
	mat := f.material("M-1", "9", true)
	insp := f.pendingInspection(mat, "10", "10")
	f.store.SetStock(core.MaterialKey(mat, f.quarantine), d("6"))

	_, err := f.engine.Resolve(f.ctx, insp, core.Approval{Accepted: d("10"), SupplierLotCode: "LOT-1", Approvers: inspector})
	if !errors.Is(err, core.ErrInsufficientQuarantineStock) || !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientQuarantineStock, got %v", err)
	}
	assertDec(t, "quarantine stock", f.qty(core.MaterialKey(mat, f.quarantine)), d("6"))
	assertDec(t, "raw stock", f.qty(core.MaterialKey(mat, f.raw)), d("0"))
}

func TestResolve_AuditFailureAbortsUnitOfWork(t *testing.T) {
	f := newFixture(t)
	mat := f.material("M-1", "9", true)
	insp := f.pendingInspection(mat, "10", "10")
	sinkDown := errors.New("audit sink unavailable")
	f.store.FailAudit(sinkDown)

	_, err := f.engine.Resolve(f.ctx, insp, core.Approval{Accepted: d("10"), SupplierLotCode: "LOT-1", Approvers: inspector})
	if !errors.Is(err, sinkDown) {
		t.Fatalf("expected audit failure, got %v", err)
	}
	in, _ := f.store.Inspection(insp)
	if in.Status != core.InspectionPending {
		t.Errorf("expected inspection still pending, got %s", in.Status)
	}
	assertDec(t, "quarantine stock", f.qty(core.MaterialKey(mat, f.quarantine)), d("10"))
	assertDec(t, "raw stock", f.qty(core.MaterialKey(mat, f.raw)), d("0"))
	if m := f.mustMaterial(t, mat); !m.AverageCost.IsZero() {
		t.Errorf("expected average untouched, got %s", m.AverageCost)
	}
}

func TestResolve_UnitCostFallback(t *testing.T) {
	tests := []struct {
		name      string
		received  string
		lastPrice string
		average   string
		want      string
	}{
		{"landed cost at receipt", "10", "7", "6", "10"},
		{"last purchase price", "0", "7", "6", "7"},
		{"average cost", "0", "0", "6", "6"},
		{"nothing known", "0", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			mat := f.store.AddMaterial(core.RawMaterial{Code: "M", RequiresInspection: true,
				LastPurchasePrice: d(tt.lastPrice), AverageCost: d(tt.average)})
			insp := f.pendingInspection(mat, "4", tt.received)

			out, err := f.engine.Resolve(f.ctx, insp, core.Approval{Accepted: d("4"), SupplierLotCode: "L", Approvers: inspector})
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			assertDec(t, "unit cost", out.UnitCost, d(tt.want))
		})
	}
}

func TestPendingInspections(t *testing.T) {
	f := newFixture(t)
	mat := f.material("M-1", "9", true)
	first := f.pendingInspection(mat, "4", "10")
	second := f.pendingInspection(mat, "4", "10")

	_, err := f.engine.Resolve(f.ctx, first, core.Rejection{
		Rejected: d("4"), Approvers: countered, Notes: "Wrong alloy grade",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	pending, err := f.engine.PendingInspections(f.ctx)
	if err != nil {
		t.Fatalf("PendingInspections failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second {
		t.Fatalf("expected only inspection %d pending, got %+v", second, pending)
	}

	in, err := f.engine.GetInspection(f.ctx, first)
	if err != nil {
		t.Fatalf("GetInspection failed: %v", err)
	}
	if in.Status != core.InspectionRejected {
		t.Errorf("expected RECHAZADO, got %s", in.Status)
	}

	if _, err := f.engine.GetInspection(f.ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
