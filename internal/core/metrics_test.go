package core_test

import (
	"testing"

	"manufacturing-ledger/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetrics_CountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := core.NewMetrics(reg)
	f := newFixture(t, core.WithMetrics(metrics))
	mat := f.material("M-1", "2", true)
	f.variant(t, "V", map[int]string{mat: "1"})
	insp := f.pendingInspection(mat, "5", "3")

	_, _ = f.engine.Resolve(f.ctx, insp, core.Approval{Accepted: d("4"), SupplierLotCode: "L", Approvers: inspector})
	_, _ = f.engine.Resolve(f.ctx, insp, core.Approval{Accepted: d("5"), SupplierLotCode: "L", Approvers: inspector})
	_, _ = f.engine.Resolve(f.ctx, insp, core.Approval{Accepted: d("5"), SupplierLotCode: "L", Approvers: inspector})

	ops := metrics.Operations()
	if got := testutil.ToFloat64(ops.WithLabelValues("resolve_inspection", "validation")); got != 1 {
		t.Errorf("expected 1 validation outcome, got %v", got)
	}
	if got := testutil.ToFloat64(ops.WithLabelValues("resolve_inspection", "ok")); got != 1 {
		t.Errorf("expected 1 ok outcome, got %v", got)
	}
	if got := testutil.ToFloat64(ops.WithLabelValues("resolve_inspection", "invalid_state")); got != 1 {
		t.Errorf("expected 1 invalid_state outcome, got %v", got)
	}
	// One roll-up when the BOM line was added, one on release.
	if got := testutil.ToFloat64(metrics.VariantRecomputes()); got != 2 {
		t.Errorf("expected 2 variant recomputes, got %v", got)
	}
	if n := testutil.CollectAndCount(reg, "ledger_operation_duration_seconds"); n == 0 {
		t.Error("expected duration samples to be collected")
	}
}

func TestMetrics_DurationPerOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, core.WithMetrics(core.NewMetrics(reg)))
	mat := f.material("M-1", "2", true)
	insp := f.pendingInspection(mat, "5", "3")
	if _, err := f.engine.Resolve(f.ctx, insp, core.Approval{Accepted: d("5"), SupplierLotCode: "L", Approvers: inspector}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var hist *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "ledger_operation_duration_seconds" {
			hist = mf
		}
	}
	if hist == nil {
		t.Fatal("duration histogram not gathered")
	}
	if hist.GetType() != dto.MetricType_HISTOGRAM {
		t.Fatalf("expected histogram, got %v", hist.GetType())
	}
	var found bool
	for _, m := range hist.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "operation" && lp.GetValue() == "resolve_inspection" {
				found = true
				if c := m.GetHistogram().GetSampleCount(); c != 1 {
					t.Errorf("expected 1 resolve sample, got %d", c)
				}
			}
		}
	}
	if !found {
		t.Error("no resolve_inspection series in duration histogram")
	}
}
