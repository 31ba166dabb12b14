package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resolve records a disposition for a pending inspection. Approvals and rejections move the whole
// lot out of quarantine: accepted units are released into raw-materials stock at the accepted unit
// cost and re-averaged into the material, rejected units leave the ledger. A conditional hold only
// records the decision and keeps the inspection pending. Every resolution is audited in the same
// unit of work.
func (e *Engine) Resolve(ctx context.Context, inspectionID int, res Resolution) (*ResolutionOutcome, error) {
	if res == nil {
		return nil, validationf("result", "is required")
	}
	var out *ResolutionOutcome
	err := e.run(ctx, "resolve_inspection", func(tx Tx) error {
		in, err := tx.LockInspection(ctx, inspectionID)
		if err != nil {
			return err
		}
		if in.Status != InspectionPending {
			return fmt.Errorf("%w: inspection %s is %s", ErrAlreadyResolved, in.Code, in.Status)
		}
		lotCode, err := validateResolution(in, res)
		if err != nil {
			return err
		}

		now := e.now()
		result := res.Result()
		ap := res.approvers()
		in.Result = &result
		in.Notes = strings.TrimSpace(res.notes())
		in.InspectedBy = ap.InspectedBy
		in.InspectedAt = &now
		in.ManagerApprovedBy = ap.ManagerApprovedBy
		in.SupplierLotCode = lotCode

		o := &ResolutionOutcome{Inspection: in}
		if result == ResultConditional {
			if err := tx.UpdateInspection(ctx, in); err != nil {
				return fmt.Errorf("update inspection %d: %w", in.ID, err)
			}
			if err := e.auditResolution(ctx, tx, in, auditActionHeld, o); err != nil {
				return err
			}
			e.log.Info().Str("inspection", in.Code).Msg("inspection held")
			out = o
			return nil
		}

		accepted, rejected := res.accepted(), res.rejected()
		cfg, err := tx.ActiveOperationalConfig(ctx)
		if err != nil {
			return fmt.Errorf("load operational config: %w", err)
		}
		m, err := tx.LockMaterial(ctx, in.MaterialID)
		if err != nil {
			return err
		}

		qKey := MaterialKey(m.ID, in.SourceWarehouseID)
		qPos, err := tx.LockStockPosition(ctx, qKey)
		if err != nil {
			return fmt.Errorf("lock quarantine position: %w", err)
		}
		if qPos.Quantity.LessThan(accepted.Add(rejected)) {
			return fmt.Errorf("%w: inspection %s needs %s, quarantine holds %s",
				ErrInsufficientQuarantineStock, in.Code, accepted.Add(rejected), qPos.Quantity)
		}

		ref := MovementRef{ReferenceType: auditEntityInspection, ReferenceID: in.ID}
		if rejected.IsPositive() {
			ref.Type = MovementInspectionRejection
			ref.Notes = in.Notes
			if _, err := DebitTx(ctx, tx, qKey, rejected, ref); err != nil {
				return quarantineErr(err)
			}
		}

		if accepted.IsPositive() {
			cost := acceptedUnitCost(res, in, m)
			ref.Type = MovementQuarantineOut
			ref.UnitCost = cost
			ref.Notes = ""
			if _, err := DebitTx(ctx, tx, qKey, accepted, ref); err != nil {
				return quarantineErr(err)
			}

			target, err := e.releaseWarehouseTx(ctx, tx, in)
			if err != nil {
				return err
			}
			ref.Type = MovementInspectionRelease
			prior, err := CreditTx(ctx, tx, MaterialKey(m.ID, target.ID), accepted, ref)
			if err != nil {
				return err
			}
			o.NewAverageCost = ApplyReceipt(m, prior, accepted, cost, now)
			if err := tx.UpdateMaterialCosts(ctx, m); err != nil {
				return fmt.Errorf("update material %d costs: %w", m.ID, err)
			}

			in.TargetWarehouseID = target.ID
			in.AcceptedUnitCost = &cost
			in.ReleasedBy = ap.InspectedBy
			in.ReleasedAt = &now
			in.Status = InspectionReleased
			o.UnitCost = cost
		} else {
			in.Status = InspectionRejected
		}
		in.QuantityAccepted = accepted
		in.QuantityRejected = rejected
		o.ReleasedQty = accepted
		o.RejectedQty = rejected

		if err := tx.UpdateInspection(ctx, in); err != nil {
			return fmt.Errorf("update inspection %d: %w", in.ID, err)
		}
		if accepted.IsPositive() {
			if o.VariantsUpdated, err = e.cascadeTx(ctx, tx, cfg, m.ID); err != nil {
				return err
			}
		}
		if err := e.auditResolution(ctx, tx, in, auditActionResolved, o); err != nil {
			return err
		}

		e.log.Info().
			Str("inspection", in.Code).
			Str("status", string(in.Status)).
			Str("accepted", accepted.String()).
			Str("rejected", rejected.String()).
			Msg("inspection resolved")
		out = o
		return nil
	})
	return out, err
}

// validateResolution checks the quantity and cross-field rules and returns the supplier lot code to
// record.
func validateResolution(in *IncomingInspection, res Resolution) (string, error) {
	accepted, rejected := res.accepted(), res.rejected()
	ap := res.approvers()
	if strings.TrimSpace(ap.InspectedBy) == "" {
		return "", validationf("inspected_by", "is required")
	}
	if accepted.IsNegative() || rejected.IsNegative() {
		return "", validationf("quantity", "accepted and rejected must not be negative")
	}
	if err := checkScale("quantity_accepted", accepted); err != nil {
		return "", err
	}
	if err := checkScale("quantity_rejected", rejected); err != nil {
		return "", err
	}

	lotCode := in.SupplierLotCode
	justify := false
	switch r := res.(type) {
	case Approval:
		if !accepted.IsPositive() {
			return "", validationf("quantity_accepted", "an approval must accept at least one unit")
		}
		if s := strings.TrimSpace(r.SupplierLotCode); s != "" {
			lotCode = s
		}
		if r.UnitCost != nil && r.UnitCost.IsNegative() {
			return "", validationf("accepted_unit_cost", "must not be negative")
		}
		justify = rejected.IsPositive()
	case Rejection:
		justify = true
	case ConditionalHold:
		justify = true
	default:
		return "", validationf("result", "unsupported resolution %T", res)
	}

	if res.Result() != ResultConditional && !accepted.Add(rejected).Equal(in.QuantityReceived) {
		return "", validationf("quantity", "accepted %s plus rejected %s must equal received %s",
			accepted, rejected, in.QuantityReceived)
	}
	if justify {
		if len(strings.TrimSpace(res.notes())) < MinJustificationLength {
			return "", validationf("notes", "must be at least %d characters", MinJustificationLength)
		}
		if strings.TrimSpace(ap.ManagerApprovedBy) == "" {
			return "", validationf("manager_approved_by", "a second approver is required")
		}
	}
	if accepted.IsPositive() && lotCode == "" {
		return "", validationf("supplier_lot_code", "is required when units are accepted")
	}
	return lotCode, nil
}

// acceptedUnitCost picks the cost basis for released units: the explicit cost on the approval, the
// landed cost captured at receipt, the material's last purchase price, its average cost, or zero.
func acceptedUnitCost(res Resolution, in *IncomingInspection, m *RawMaterial) decimal.Decimal {
	if a, ok := res.(Approval); ok && a.UnitCost != nil && a.UnitCost.IsPositive() {
		return *a.UnitCost
	}
	for _, c := range []decimal.Decimal{in.ReceivedUnitCost, m.LastPurchasePrice, m.AverageCost} {
		if c.IsPositive() {
			return c
		}
	}
	return decimal.Zero
}

func (e *Engine) releaseWarehouseTx(ctx context.Context, tx Tx, in *IncomingInspection) (*Warehouse, error) {
	if in.TargetWarehouseID != 0 {
		return tx.GetWarehouse(ctx, in.TargetWarehouseID)
	}
	return e.mainWarehouseTx(ctx, tx)
}

func quarantineErr(err error) error {
	if errors.Is(err, ErrInsufficientStock) && !errors.Is(err, ErrInsufficientQuarantineStock) {
		return fmt.Errorf("%w: %v", ErrInsufficientQuarantineStock, err)
	}
	return err
}

func (e *Engine) auditResolution(ctx context.Context, tx Tx, in *IncomingInspection, action string, o *ResolutionOutcome) error {
	meta := map[string]any{
		"code":              in.Code,
		"material_id":       in.MaterialID,
		"result":            string(*in.Result),
		"status":            string(in.Status),
		"quantity_received": in.QuantityReceived.String(),
		"quantity_accepted": o.ReleasedQty.String(),
		"quantity_rejected": o.RejectedQty.String(),
		"supplier_lot_code": in.SupplierLotCode,
	}
	if in.ManagerApprovedBy != "" {
		meta["manager_approved_by"] = in.ManagerApprovedBy
	}
	if o.ReleasedQty.IsPositive() {
		meta["accepted_unit_cost"] = o.UnitCost.String()
		meta["new_average_cost"] = o.NewAverageCost.String()
	}
	err := tx.RecordAudit(ctx, AuditEvent{
		ID:         uuid.NewString(),
		EntityType: auditEntityInspection,
		EntityID:   in.ID,
		Action:     action,
		Actor:      in.InspectedBy,
		Notes:      in.Notes,
		Metadata:   meta,
		CreatedAt:  e.now(),
	})
	if err != nil {
		return fmt.Errorf("record audit for inspection %d: %w", in.ID, err)
	}
	return nil
}

// GetInspection returns one inspection without locking it.
func (e *Engine) GetInspection(ctx context.Context, inspectionID int) (*IncomingInspection, error) {
	var out *IncomingInspection
	err := e.read(ctx, "get_inspection", func(tx Tx) error {
		in, err := tx.GetInspection(ctx, inspectionID)
		out = in
		return err
	})
	return out, err
}

// PendingInspections lists the lots still waiting in quarantine for a disposition.
func (e *Engine) PendingInspections(ctx context.Context) ([]IncomingInspection, error) {
	var out []IncomingInspection
	err := e.read(ctx, "pending_inspections", func(tx Tx) error {
		list, err := tx.ListInspections(ctx, InspectionPending)
		out = list
		return err
	})
	if out == nil {
		out = []IncomingInspection{}
	}
	return out, err
}
