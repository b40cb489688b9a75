package domain

import "time"

// FieldChangeKind tags how a free-text field moved between two snapshots.
// A cleared field is distinguished from one set to a legitimate empty-looking
// value so that history rendering can say "removed" rather than showing blank.
type FieldChangeKind string

const (
	// FieldSet means the field changed to a new non-empty value.
	FieldSet FieldChangeKind = "set"
	// FieldCleared means a previously non-empty field was emptied.
	FieldCleared FieldChangeKind = "cleared"
)

// FieldChange records a free-text field transition. To is empty when the
// field was cleared.
type FieldChange struct {
	Kind FieldChangeKind
	From string
	To   string
}

// TimeChange records a timestamp field transition.
type TimeChange struct {
	From time.Time
	To   time.Time
}

// ValueChange records a numeric field transition.
type ValueChange struct {
	From float64
	To   float64
}

// ProductChangeKind classifies a per-product diff entry.
type ProductChangeKind string

const (
	// ProductAdded means the product id appears only in the new snapshot.
	ProductAdded ProductChangeKind = "added"
	// ProductRemoved means the product id appears only in the old snapshot.
	ProductRemoved ProductChangeKind = "removed"
	// ProductChanged means the product exists in both snapshots with differing sub-fields.
	ProductChanged ProductChangeKind = "changed"
)

// ProductChange is a per-product diff keyed by product id. Only the sub-fields
// that actually differ are populated; a nil sub-field means unchanged.
type ProductChange struct {
	ProductID string
	Name      string
	Type      string
	Kind      ProductChangeKind
	Amount    *ValueChange
	Price     *ValueChange
	Comment   *FieldChange
}

// ChangeSet is the structured diff between two order snapshots. HasChanges is
// true iff any scalar or product diff exists.
type ChangeSet struct {
	HasChanges      bool
	Products        []ProductChange
	SupplyTime      *TimeChange
	Comment         *FieldChange
	SupplierComment *FieldChange
	TotalPrice      *ValueChange
}
