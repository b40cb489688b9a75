package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/koderius/ScaleSense-sub000/internal/platform/firestore"
	"github.com/koderius/ScaleSense-sub000/internal/repositories"
)

// Registry bundles the Firestore repository implementations behind the
// repositories.Registry contract and provides the shared unit of work.
type Registry struct {
	provider      *pfirestore.Provider
	orders        *OrderRepository
	actors        *ActorRepository
	roster        *RosterRepository
	notifications *NotificationRepository
}

// NewRegistry wires all Firestore repositories over one shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	actors, err := NewActorRepository(provider)
	if err != nil {
		return nil, err
	}
	roster, err := NewRosterRepository(provider)
	if err != nil {
		return nil, err
	}
	notifications, err := NewNotificationRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:      provider,
		orders:        orders,
		actors:        actors,
		roster:        roster,
		notifications: notifications,
	}, nil
}

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Actors returns the actor repository.
func (r *Registry) Actors() repositories.ActorRepository { return r.actors }

// Roster returns the supplier customer roster repository.
func (r *Registry) Roster() repositories.RosterRepository { return r.roster }

// Notifications returns the notification outbox repository.
func (r *Registry) Notifications() repositories.NotificationRepository { return r.notifications }

// RunInTx executes fn inside one Firestore transaction. The transaction handle
// travels on the context, so repository calls made with the inner context
// share the transaction's snapshot reads and buffered writes. Firestore
// retries fn on optimistic conflicts with a fresh read; business errors
// returned by fn abort without retry.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.provider.RunTransaction(ctx, func(txCtx context.Context, _ *firestore.Transaction) error {
		return fn(txCtx)
	})
}

// Close releases the shared Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close()
}
