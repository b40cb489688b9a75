package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/koderius/ScaleSense-sub000/internal/platform/firestore"
)

const (
	suppliersCollection       = "suppliers"
	rosterCustomersCollection = "customers"
)

// RosterRepository maintains the suppliers/{id}/customers subcollection.
type RosterRepository struct {
	provider *pfirestore.Provider
}

// NewRosterRepository constructs a Firestore-backed customer roster repository.
func NewRosterRepository(provider *pfirestore.Provider) (*RosterRepository, error) {
	if provider == nil {
		return nil, errors.New("roster repository requires firestore provider")
	}
	return &RosterRepository{provider: provider}, nil
}

// UpsertCustomer registers the customer under the supplier. The merge write
// makes repeated registrations a no-op, so first-order creation can call this
// unconditionally.
func (r *RosterRepository) UpsertCustomer(ctx context.Context, supplierID string, customerID string) error {
	supplierID = strings.TrimSpace(supplierID)
	customerID = strings.TrimSpace(customerID)
	if supplierID == "" || customerID == "" {
		return pfirestore.WrapError("roster.upsert", errors.New("supplier and customer ids are required"))
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	ref := client.Collection(suppliersCollection).Doc(supplierID).
		Collection(rosterCustomersCollection).Doc(customerID)

	// MergeAll requires map data; the merge keeps repeat registrations idempotent.
	payload := map[string]any{
		"customerId": customerID,
		"linkedAt":   time.Now().UTC(),
	}

	if tx, ok := pfirestore.TransactionFrom(ctx); ok {
		return pfirestore.WrapError("roster.upsert", tx.Set(ref, payload, firestore.MergeAll))
	}
	_, err = ref.Set(ctx, payload, firestore.MergeAll)
	return pfirestore.WrapError("roster.upsert", err)
}
