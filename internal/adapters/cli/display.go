package cli

import (
	"fmt"
	"io"
	"strings"

	"manufacturing-ledger/internal/app"
	"manufacturing-ledger/internal/core"
)

func printRequirements(w io.Writer, result *app.RequirementsResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "  MATERIAL REQUIREMENTS - Production order %d\n", result.ProductionOrderID)
	fmt.Fprintln(w, strings.Repeat("=", 78))
	if len(result.Requirements) == 0 {
		fmt.Fprintln(w, "  No materials required.")
		fmt.Fprintln(w, strings.Repeat("=", 78))
		return
	}
	fmt.Fprintf(w, "  %-10s %-22s %12s %12s %12s  %s\n", "CODE", "NAME", "REQUIRED", "AVAILABLE", "SHORTAGE", "BEST SUPPLIER")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, r := range result.Requirements {
		best := "-"
		if len(r.CandidateSuppliers) > 0 {
			c := r.CandidateSuppliers[0]
			best = fmt.Sprintf("%s @ %s", c.SupplierName, c.LastPurchasePrice.StringFixed(2))
		}
		fmt.Fprintf(w, "  %-10s %-22s %12s %12s %12s  %s\n",
			r.MaterialCode, r.MaterialName,
			r.Required.StringFixed(2), r.Available.StringFixed(2), r.Shortage.StringFixed(2), best)
	}
	fmt.Fprintln(w, strings.Repeat("=", 78))
}

func printStock(w io.Writer, result *app.StockResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintf(w, "  STOCK - Material %d\n", result.ItemID)
	if result.Material != nil {
		fmt.Fprintf(w, "  Average cost : %s\n", result.Material.AverageCost.StringFixed(4))
	}
	fmt.Fprintln(w, strings.Repeat("=", 62))
	if len(result.Levels) == 0 {
		fmt.Fprintln(w, "  No stock positions.")
		fmt.Fprintln(w, strings.Repeat("=", 62))
		return
	}
	fmt.Fprintf(w, "  %-5s %-28s %-15s %10s\n", "ID", "WAREHOUSE", "TYPE", "QTY")
	fmt.Fprintln(w, strings.Repeat("-", 62))
	for _, l := range result.Levels {
		fmt.Fprintf(w, "  %-5d %-28s %-15s %10s\n", l.WarehouseID, l.WarehouseName, l.WarehouseType, l.Quantity.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("=", 62))
}

func printInspections(w io.Writer, result *app.InspectionListResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintln(w, "  PENDING INSPECTIONS")
	fmt.Fprintln(w, strings.Repeat("=", 62))
	if len(result.Inspections) == 0 {
		fmt.Fprintln(w, "  No lots in quarantine.")
		fmt.Fprintln(w, strings.Repeat("=", 62))
		return
	}
	fmt.Fprintf(w, "  %-5s %-12s %-9s %10s %12s\n", "ID", "CODE", "MATERIAL", "QTY", "LANDED COST")
	fmt.Fprintln(w, strings.Repeat("-", 62))
	for _, in := range result.Inspections {
		fmt.Fprintf(w, "  %-5d %-12s %-9d %10s %12s\n",
			in.ID, in.Code, in.MaterialID, in.QuantityReceived.StringFixed(2), in.ReceivedUnitCost.StringFixed(4))
	}
	fmt.Fprintln(w, strings.Repeat("=", 62))
}

func printBreakdown(w io.Writer, b core.CostBreakdown) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 44))
	fmt.Fprintf(w, "  Variant %d\n", b.VariantID)
	fmt.Fprintln(w, strings.Repeat("-", 44))
	fmt.Fprintf(w, "  %-26s %15s\n", "Material (actual)", b.ActualMaterialCost.StringFixed(4))
	fmt.Fprintf(w, "  %-26s %15s\n", "Material (standard)", b.ReferenceMaterialCost.StringFixed(4))
	if b.OperationalCost.IsPositive() {
		fmt.Fprintf(w, "  %-26s %15s\n", "Operation time", b.OperationalCost.StringFixed(4))
	} else {
		fmt.Fprintf(w, "  %-26s %15s\n", "Labor", b.LaborCost.StringFixed(4))
		fmt.Fprintf(w, "  %-26s %15s\n", "Indirect", b.IndirectCost.StringFixed(4))
	}
	fmt.Fprintln(w, strings.Repeat("-", 44))
	fmt.Fprintf(w, "  %-26s %15s\n", "COST", b.Cost.StringFixed(4))
	fmt.Fprintf(w, "  %-26s %15s\n", "REFERENCE COST", b.ReferenceCost.StringFixed(4))
	fmt.Fprintln(w, strings.Repeat("-", 44))
}
