package repl

import (
	"fmt"
	"io"
	"strings"

	"manufacturing-ledger/internal/app"
	"manufacturing-ledger/internal/core"
)

func printReceipt(w io.Writer, result *app.ReceiptResult) {
	r := result.Receipt
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "  RECEIPT - Purchase order %d on %s\n", r.PurchaseOrderID, r.ReceivedDate.Format("2006-01-02"))
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "  %-9s %10s %12s %-24s %12s\n", "MATERIAL", "QTY", "LANDED", "DESTINATION", "NEW AVG")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, l := range r.Lines {
		dest := fmt.Sprintf("warehouse %d", l.WarehouseID)
		avg := l.NewAverageCost.StringFixed(4)
		if l.Quarantined {
			dest = fmt.Sprintf("quarantine, insp. %d", *l.InspectionID)
			avg = "(on release)"
		}
		fmt.Fprintf(w, "  %-9d %10s %12s %-24s %12s\n",
			l.MaterialID, l.Quantity.StringFixed(2), l.LandedUnitCost.StringFixed(4), dest, avg)
	}
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

func printInspections(w io.Writer, result *app.InspectionListResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintln(w, "  LOTS IN QUARANTINE")
	fmt.Fprintln(w, strings.Repeat("=", 62))
	if len(result.Inspections) == 0 {
		fmt.Fprintln(w, "  No pending inspections.")
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

func printInspectionDetail(w io.Writer, in *core.IncomingInspection) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "  Inspection:  %s\n", in.Code)
	fmt.Fprintf(w, "  Material:    %d\n", in.MaterialID)
	fmt.Fprintf(w, "  Received:    %s\n", in.QuantityReceived.StringFixed(2))
	fmt.Fprintf(w, "  Landed cost: %s\n", in.ReceivedUnitCost.StringFixed(4))
	if in.SupplierLotCode != "" {
		fmt.Fprintf(w, "  Lot:         %s\n", in.SupplierLotCode)
	}
	if in.Notes != "" {
		fmt.Fprintf(w, "  Notes:       %s\n", in.Notes)
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
}

func printOutcome(w io.Writer, result *app.InspectionResult) {
	o := result.Outcome
	in := result.Inspection
	switch {
	case o.ReleasedQty.IsPositive():
		fmt.Fprintf(w, "Inspection %s LIBERADO: %s released at %s, %s rejected. New average cost %s.\n",
			in.Code, o.ReleasedQty, o.UnitCost.StringFixed(4), o.RejectedQty, o.NewAverageCost.StringFixed(4))
		if len(o.VariantsUpdated) > 0 {
			fmt.Fprintf(w, "Variants re-costed: %v\n", o.VariantsUpdated)
		}
	case o.RejectedQty.IsPositive():
		fmt.Fprintf(w, "Inspection %s RECHAZADO: %s units scrapped.\n", in.Code, o.RejectedQty)
	default:
		fmt.Fprintf(w, "Inspection %s held (CONDICIONAL). The lot stays in quarantine.\n", in.Code)
	}
}

func printCorrection(w io.Writer, result *app.CostCorrectionResult) {
	c := result.Correction
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "  %-22s %s -> %s\n", "Accepted unit cost", c.OldUnitCost.StringFixed(4), c.NewUnitCost.StringFixed(4))
	fmt.Fprintf(w, "  %-22s %s\n", "Stock base", c.StockBase.StringFixed(2))
	fmt.Fprintf(w, "  %-22s %s -> %s\n", "Average cost", c.OldAverageCost.StringFixed(4), c.NewAverageCost.StringFixed(4))
	fmt.Fprintf(w, "  %-22s %v\n", "Variants re-costed", c.VariantsUpdated)
	fmt.Fprintln(w, strings.Repeat("-", 50))
}

func printStock(w io.Writer, result *app.StockResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintf(w, "  STOCK - Material %d\n", result.ItemID)
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

func printRequirements(w io.Writer, result *app.RequirementsResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "  MATERIAL REQUIREMENTS - Production order %d\n", result.ProductionOrderID)
	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "  %-10s %-22s %12s %12s %12s\n", "CODE", "NAME", "REQUIRED", "AVAILABLE", "SHORTAGE")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, r := range result.Requirements {
		fmt.Fprintf(w, "  %-10s %-22s %12s %12s %12s\n",
			r.MaterialCode, r.MaterialName, r.Required.StringFixed(2), r.Available.StringFixed(2), r.Shortage.StringFixed(2))
		for _, c := range r.CandidateSuppliers {
			mark := " "
			if c.IsCheapest {
				mark = "*"
			}
			fmt.Fprintf(w, "    %s %-30s %10s  last bought %s\n",
				mark, c.SupplierName, c.LastPurchasePrice.StringFixed(4), c.LastPurchaseDate.Format("2006-01-02"))
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 78))
}

func printCompletion(w io.Writer, result *app.ProductionResult) {
	c := result.Completion
	fmt.Fprintf(w, "\nProduction order %d COMPLETED.\n", c.ProductionOrderID)
	for _, con := range c.Consumed {
		fmt.Fprintf(w, "  consumed %10s of material %d from warehouse %d\n", con.Quantity.StringFixed(2), con.MaterialID, con.WarehouseID)
	}
	for _, p := range c.Produced {
		fmt.Fprintf(w, "  produced %10s of variant %d at %s\n", p.Quantity.StringFixed(2), p.VariantID, p.UnitCost.StringFixed(4))
	}
}

func printBreakdown(w io.Writer, b core.CostBreakdown) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 44))
	fmt.Fprintf(w, "  Variant %d\n", b.VariantID)
	fmt.Fprintln(w, strings.Repeat("-", 44))
	fmt.Fprintf(w, "  %-26s %15s\n", "Material (actual)", b.ActualMaterialCost.StringFixed(4))
	fmt.Fprintf(w, "  %-26s %15s\n", "Material (standard)", b.ReferenceMaterialCost.StringFixed(4))
	fmt.Fprintf(w, "  %-26s %15s\n", "Operation time", b.OperationalCost.StringFixed(4))
	fmt.Fprintf(w, "  %-26s %15s\n", "Labor + indirect", b.LaborCost.Add(b.IndirectCost).StringFixed(4))
	fmt.Fprintln(w, strings.Repeat("-", 44))
	fmt.Fprintf(w, "  %-26s %15s\n", "COST", b.Cost.StringFixed(4))
	fmt.Fprintf(w, "  %-26s %15s\n", "REFERENCE COST", b.ReferenceCost.StringFixed(4))
	fmt.Fprintln(w, strings.Repeat("-", 44))
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "\nAvailable commands:")
	fmt.Fprintln(w, "  /receive <po-id> [warehouse-id]       Receive a purchase order")
	fmt.Fprintln(w, "  /inspections                          List lots in quarantine")
	fmt.Fprintln(w, "  /resolve <inspection-id>              Approve, reject or hold a lot")
	fmt.Fprintln(w, "  /correct <id> <cost> <actor> <reason> Correct the accepted cost of a released lot")
	fmt.Fprintln(w, "  /stock <material-id>                  Stock positions of a material")
	fmt.Fprintln(w, "  /add-stock <mat> <wh> <qty> [cost]    Manual stock addition")
	fmt.Fprintln(w, "  /requirements <production-order-id>   Material requirements and best suppliers")
	fmt.Fprintln(w, "  /complete <production-order-id>       Consume materials and produce")
	fmt.Fprintln(w, "  /cost <variant-id>                    Recompute a variant's cost")
	fmt.Fprintln(w, "  /std-cost <material-id> <cost>        Set a standard cost and re-cost variants")
	fmt.Fprintln(w, "  /help                                 Show this help")
	fmt.Fprintln(w, "  /exit                                 Quit")
}
