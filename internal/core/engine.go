package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Default warehouse names used when receiving needs to create a bucket lazily.
const (
	DefaultWarehouseName      = "Main Warehouse"
	DefaultQuarantineName     = "Quarantine"
	DefaultFinishedGoodsName  = "Finished Goods"
	inspectionSequence        = "inspection"
	inspectionCodeFormat      = "INS-%06d"
	auditEntityInspection     = "incoming_inspection"
	auditActionResolved       = "INSPECTION_RESOLVED"
	auditActionHeld           = "INSPECTION_HELD"
	auditActionCostCorrection = "ACCEPTED_COST_CORRECTED"
)

// Engine is the cost and inventory ledger. It is the only writer of stock positions, material
// average costs and variant cost roll-ups; every exported operation runs in one unit of work.
type Engine struct {
	store          Store
	log            zerolog.Logger
	metrics        *Metrics
	now            func() time.Time
	mainWarehouse  string
	quarantineName string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics instruments every operation.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides time.Now, for deterministic receipt and audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithWarehouseNames overrides the names of the lazily created default warehouses.
func WithWarehouseNames(main, quarantine string) Option {
	return func(e *Engine) {
		if main != "" {
			e.mainWarehouse = main
		}
		if quarantine != "" {
			e.quarantineName = quarantine
		}
	}
}

// NewEngine constructs an Engine over the given unit-of-work provider.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		log:            zerolog.Nop(),
		now:            time.Now,
		mainWarehouse:  DefaultWarehouseName,
		quarantineName: DefaultQuarantineName,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) run(ctx context.Context, op string, fn func(tx Tx) error) error {
	start := time.Now()
	err := e.store.InTx(ctx, fn)
	e.metrics.observe(op, time.Since(start), err)
	if err != nil {
		e.log.Debug().Str("operation", op).Err(err).Msg("ledger operation rolled back")
	}
	return err
}

func (e *Engine) read(ctx context.Context, op string, fn func(tx Tx) error) error {
	start := time.Now()
	err := e.store.InReadTx(ctx, fn)
	e.metrics.observe(op, time.Since(start), err)
	return err
}
