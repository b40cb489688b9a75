package services

import (
	"context"
	"time"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
	"github.com/koderius/ScaleSense-sub000/internal/repositories"
)

// OrderService is the transactional authority over order mutations: it decides
// the legal status transition for the calling actor, records what changed, and
// notifies the counter-party, atomically per order.
type OrderService interface {
	// SubmitChange applies one order mutation (field updates plus an optional
	// explicit status request) on behalf of an actor.
	SubmitChange(ctx context.Context, cmd SubmitOrderChangeCommand) (domain.ChangeRecord, error)
	// GetOrder fetches one order with its change log.
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	// ListOrders returns the orders visible to one business side.
	ListOrders(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error)
}

// ComplianceService sweeps for orders violating SLA windows and raises
// one-time alerts per condition.
type ComplianceService interface {
	Sweep(ctx context.Context, now time.Time) (ComplianceSweepReport, error)
}

// OrderEventPublisher publishes committed order events for downstream
// notification delivery.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for events emitted after a committed mutation.
type OrderEvent struct {
	Type            string
	OrderID         string
	ActorID         string
	TargetSide      domain.Side
	ResultingStatus domain.OrderStatus
	AlertKind       domain.ComplianceAlertKind
	OccurredAt      time.Time
}

// OrderFieldPatch carries the allow-listed mutable fields of a submission.
// Nil fields are left untouched on the stored order; anything the caller sent
// outside this struct never reaches persistence.
type OrderFieldPatch struct {
	Products   *[]domain.ProductLine
	SupplyTime *time.Time
	Comment    *string

	// Supplier-side only; ignored for customer actors.
	SupplierComment *string
	Invoice         *string
	Boxes           *int
}

// SubmitOrderChangeCommand describes one desired order mutation.
type SubmitOrderChangeCommand struct {
	OrderID         string
	ActorID         string
	RequestedStatus domain.OrderStatus
	Fields          OrderFieldPatch

	// SupplierID is consulted only on first creation, when the order document
	// does not exist yet.
	SupplierID string
}

// ComplianceSweepReport summarises one scanner pass.
type ComplianceSweepReport struct {
	StaleUnopenedAlerts     int
	SupplyApproachingAlerts int
	Skipped                 int
}
