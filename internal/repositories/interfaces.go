package repositories

import (
	"context"
	"time"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Actors() ActorRepository
	Roster() RosterRepository
	Notifications() NotificationRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork groups repository operations into one atomic read-modify-write
// transaction. The store retries fn on optimistic conflicts with a fresh read;
// any non-conflict error returned by fn aborts without retry.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderListFilter narrows order listings for one business side.
type OrderListFilter struct {
	Side       domain.Side
	BusinessID string
	Statuses   []domain.OrderStatus
	Limit      int
}

// OrderRepository persists order documents including their append-only change logs.
type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	Create(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)

	// ListStaleUnopened returns orders still awaiting the supplier's first open
	// whose creation time precedes cutoff and whose stale alert has not fired.
	ListStaleUnopened(ctx context.Context, cutoff time.Time) ([]domain.Order, error)
	// ListApproachingSupply returns orders not yet final-approved whose supply
	// time precedes deadline and whose supply alert has not fired.
	ListApproachingSupply(ctx context.Context, deadline time.Time) ([]domain.Order, error)
	// SetAlertFlag flips the one-shot compliance flag for the given kind.
	SetAlertFlag(ctx context.Context, orderID string, kind domain.ComplianceAlertKind) error
}

// ActorRepository resolves the identity, side, role, and permissions of a caller.
type ActorRepository interface {
	FindByID(ctx context.Context, actorID string) (domain.Actor, error)
}

// RosterRepository maintains the customers registered under each supplier.
type RosterRepository interface {
	// UpsertCustomer registers the customer under the supplier. Idempotent.
	UpsertCustomer(ctx context.Context, supplierID string, customerID string) error
}

// NotificationRepository is the transactional outbox for counter-party
// notifications; entries written inside a unit of work commit atomically with
// the order mutation that produced them.
type NotificationRepository interface {
	Enqueue(ctx context.Context, notification domain.Notification) error
}
