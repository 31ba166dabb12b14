package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InspectionResult is the disposition an inspector records for a lot.
type InspectionResult string

const (
	ResultApproved    InspectionResult = "APROBADO"
	ResultRejected    InspectionResult = "RECHAZADO"
	ResultConditional InspectionResult = "CONDICIONAL"
)

// InspectionStatus is the lifecycle state of an incoming inspection.
type InspectionStatus string

const (
	InspectionPending  InspectionStatus = "PENDIENTE"
	InspectionReleased InspectionStatus = "LIBERADO"
	InspectionRejected InspectionStatus = "RECHAZADO"
)

// MinJustificationLength is the minimum length of the notes that justify a rejection or a hold.
const MinJustificationLength = 10

// IncomingInspection is one received lot waiting in quarantine for a disposition.
type IncomingInspection struct {
	ID                  int
	Code                string
	PurchaseOrderID     *int
	PurchaseOrderItemID *int
	MaterialID          int
	SupplierID          *int
	SourceWarehouseID   int // quarantine bucket holding the lot
	TargetWarehouseID   int // raw-materials bucket accepted units are released into
	SupplierLotCode     string
	QuantityReceived    decimal.Decimal
	QuantityAccepted    decimal.Decimal
	QuantityRejected    decimal.Decimal
	ReceivedUnitCost    decimal.Decimal // landed cost captured at receipt
	AcceptedUnitCost    *decimal.Decimal
	Result              *InspectionResult
	Status              InspectionStatus
	Notes               string
	InspectedBy         string
	InspectedAt         *time.Time
	ManagerApprovedBy   string
	ReleasedBy          string
	ReleasedAt          *time.Time
	CreatedAt           time.Time
}

// Approvers names who inspected a lot and, where required, the manager who countersigned.
type Approvers struct {
	InspectedBy       string
	ManagerApprovedBy string
}

// Resolution is a disposition for an inspection. Each constructor carries exactly the fields its
// result needs: a conditional hold has no quantities at all.
type Resolution interface {
	Result() InspectionResult
	accepted() decimal.Decimal
	rejected() decimal.Decimal
	approvers() Approvers
	notes() string
}

// Approval releases Accepted units into usable stock. Rejected may be non-zero for a partial
// approval, in which case the rejection must be justified like a RECHAZADO result.
type Approval struct {
	Accepted        decimal.Decimal
	Rejected        decimal.Decimal
	UnitCost        *decimal.Decimal
	SupplierLotCode string
	Approvers       Approvers
	Notes           string
}

// Rejection scraps the whole lot.
type Rejection struct {
	Rejected  decimal.Decimal
	Approvers Approvers
	Notes     string
}

// ConditionalHold defers the disposition; the lot stays in quarantine and pending.
type ConditionalHold struct {
	Approvers Approvers
	Notes     string
}

func (a Approval) Result() InspectionResult { return ResultApproved }
func (a Approval) accepted() decimal.Decimal { return a.Accepted }
func (a Approval) rejected() decimal.Decimal { return a.Rejected }
func (a Approval) approvers() Approvers { return a.Approvers }
func (a Approval) notes() string { return a.Notes }
func (r Rejection) Result() InspectionResult { return ResultRejected }
func (r Rejection) accepted() decimal.Decimal { return decimal.Zero }
func (r Rejection) rejected() decimal.Decimal { return r.Rejected }
func (r Rejection) approvers() Approvers { return r.Approvers }
func (r Rejection) notes() string { return r.Notes }
func (c ConditionalHold) Result() InspectionResult { return ResultConditional }
func (c ConditionalHold) accepted() decimal.Decimal { return decimal.Zero }
func (c ConditionalHold) rejected() decimal.Decimal { return decimal.Zero }
func (c ConditionalHold) approvers() Approvers { return c.Approvers }
func (c ConditionalHold) notes() string { return c.Notes }

// ResolutionOutcome reports what a resolution did to the ledger.
type ResolutionOutcome struct {
	Inspection      *IncomingInspection
	ReleasedQty     decimal.Decimal
	RejectedQty     decimal.Decimal
	UnitCost        decimal.Decimal
	NewAverageCost  decimal.Decimal
	VariantsUpdated []int
}

// CostCorrection is the outcome of a retroactive accepted-cost correction.
type CostCorrection struct {
	InspectionID    int
	MaterialID      int
	OldUnitCost     decimal.Decimal
	NewUnitCost     decimal.Decimal
	Delta           decimal.Decimal
	StockBase       decimal.Decimal
	OldAverageCost  decimal.Decimal
	NewAverageCost  decimal.Decimal
	VariantsUpdated []int
}
