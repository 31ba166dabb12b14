package repl

import (
	"fmt"
	"strings"

	"manufacturing-ledger/internal/app"
	"manufacturing-ledger/internal/core"
)

// handleResolve runs an interactive disposition session for one quarantined lot.
func (s *shell) handleResolve(inspectionID int) error {
	current, err := s.svc.GetInspection(s.ctx, inspectionID)
	if err != nil {
		return err
	}
	in := current.Inspection
	if in.Status != core.InspectionPending {
		fmt.Fprintf(s.out, "Inspection %s is already %s.\n", in.Code, in.Status)
		return nil
	}
	printInspectionDetail(s.out, in)

	fmt.Fprintln(s.out, "Result: [a]pprove, [r]eject, [c]onditional hold, or 'cancel'")
	var result core.InspectionResult
	switch strings.ToLower(s.prompt("  Result: ")) {
	case "a", "approve", "aprobado":
		result = core.ResultApproved
	case "r", "reject", "rechazado":
		result = core.ResultRejected
	case "c", "conditional", "condicional":
		result = core.ResultConditional
	default:
		fmt.Fprintln(s.out, "Resolution cancelled.")
		return nil
	}

	req := app.ResolveInspectionRequest{InspectionID: inspectionID, Result: string(result)}
	switch result {
	case core.ResultApproved:
		req.QuantityAccepted = s.prompt(fmt.Sprintf("  Accepted qty [%s]: ", in.QuantityReceived))
		if req.QuantityAccepted == "" {
			req.QuantityAccepted = in.QuantityReceived.String()
		}
		req.QuantityRejected = s.prompt("  Rejected qty [0]: ")
		req.UnitCost = s.prompt(fmt.Sprintf("  Unit cost [%s]: ", in.ReceivedUnitCost))
		req.SupplierLotCode = s.prompt("  Supplier lot code: ")
	case core.ResultRejected:
		req.QuantityRejected = in.QuantityReceived.String()
	}

	req.InspectedBy = s.prompt("  Inspected by: ")
	needsJustification := result != core.ResultApproved || (req.QuantityRejected != "" && req.QuantityRejected != "0")
	if needsJustification {
		fmt.Fprintf(s.out, "  Rejections and holds need a manager and notes of at least %d characters.\n", core.MinJustificationLength)
		req.ManagerApprovedBy = s.prompt("  Manager: ")
	}
	req.Notes = s.prompt("  Notes: ")

	if strings.ToLower(s.prompt("\nApply this disposition? (y/n): ")) != "y" {
		fmt.Fprintln(s.out, "Resolution cancelled.")
		return nil
	}

	resolved, err := s.svc.ResolveInspection(s.ctx, req)
	if err != nil {
		return err
	}
	printOutcome(s.out, resolved)
	return nil
}
