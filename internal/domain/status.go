package domain

import "fmt"

// OrderStatus encodes the lifecycle stage of an order. The numeric codes are
// part of the persisted contract: stages are ordered by value so that new
// sub-stages can be inserted without breaking relative ordering, and the
// with-changes variant of an approval is always the clean code plus one.
type OrderStatus int

const (
	// StatusDraft is an order the customer has not yet sent.
	StatusDraft OrderStatus = 0
	// StatusSent is an order submitted to the supplier but not yet opened.
	StatusSent OrderStatus = 10
	// StatusEdited is a sent order the customer re-edited before the supplier opened it.
	StatusEdited OrderStatus = 11
	// StatusOpened marks the supplier's first view of the order.
	StatusOpened OrderStatus = 20
	// StatusChangedAfterOpen is a customer edit made after the supplier opened the order.
	StatusChangedAfterOpen OrderStatus = 21
	// StatusApproved is a supplier approval without substantive edits.
	StatusApproved OrderStatus = 30
	// StatusApprovedWithChanges is a supplier approval granted alongside edits.
	StatusApprovedWithChanges OrderStatus = 31
	// StatusFinalApproved locks the order ahead of supply.
	StatusFinalApproved OrderStatus = 80
	// StatusFinalApprovedWithChanges is a final approval granted alongside edits.
	StatusFinalApprovedWithChanges OrderStatus = 81
	// StatusClosed marks a fulfilled order after reception.
	StatusClosed OrderStatus = 100
	// StatusCancelledByCustomer terminates the order on the customer's initiative.
	StatusCancelledByCustomer OrderStatus = 400
	// StatusCancelledBySupplier terminates the order on the supplier's initiative.
	StatusCancelledBySupplier OrderStatus = 401
)

// IsBefore reports whether the status precedes the given stage in the lifecycle.
func (s OrderStatus) IsBefore(other OrderStatus) bool {
	return s < other
}

// IsCancelled reports whether the order was terminated by either side.
func (s OrderStatus) IsCancelled() bool {
	return s >= StatusCancelledByCustomer
}

// IsCancelRequest reports whether a requested status asks for cancellation.
func (s OrderStatus) IsCancelRequest() bool {
	return s.IsCancelled()
}

// Cancellable reports whether an order at this status may still be cancelled.
// Final-approved, closed, and already-cancelled orders may not.
func (s OrderStatus) Cancellable() bool {
	return s.IsBefore(StatusFinalApproved)
}

// Opened reports whether the supplier has seen the order at least once.
func (s OrderStatus) Opened() bool {
	return s >= StatusOpened && !s.IsCancelled()
}

// AwaitingFinalApproval reports whether the order sits in the open window
// where supplier actions collapse to approvals.
func (s OrderStatus) AwaitingFinalApproval() bool {
	return s >= StatusOpened && s < StatusFinalApproved
}

// FinalApproved reports whether the order reached either final-approval variant.
func (s OrderStatus) FinalApproved() bool {
	return s == StatusFinalApproved || s == StatusFinalApprovedWithChanges
}

// WithChanges returns the with-changes variant of an approval status. Statuses
// without a variant are returned unchanged.
func (s OrderStatus) WithChanges() OrderStatus {
	switch s {
	case StatusApproved, StatusFinalApproved:
		return s + 1
	default:
		return s
	}
}

// RequiresSubstantiveEdit reports whether the status only makes sense when the
// submission actually changed something. Used to reject no-op re-sends.
func (s OrderStatus) RequiresSubstantiveEdit() bool {
	return s == StatusEdited || s == StatusChangedAfterOpen
}

func (s OrderStatus) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusSent:
		return "sent"
	case StatusEdited:
		return "edited"
	case StatusOpened:
		return "opened"
	case StatusChangedAfterOpen:
		return "changed_after_open"
	case StatusApproved:
		return "approved"
	case StatusApprovedWithChanges:
		return "approved_with_changes"
	case StatusFinalApproved:
		return "final_approved"
	case StatusFinalApprovedWithChanges:
		return "final_approved_with_changes"
	case StatusClosed:
		return "closed"
	case StatusCancelledByCustomer:
		return "cancelled_by_customer"
	case StatusCancelledBySupplier:
		return "cancelled_by_supplier"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// CancelledBy returns the side-specific cancelled status.
func CancelledBy(side Side) OrderStatus {
	if side == SideSupplier {
		return StatusCancelledBySupplier
	}
	return StatusCancelledByCustomer
}
