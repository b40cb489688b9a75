package services

import (
	"fmt"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
)

// ComputeNextStatus decides the resulting status for an actor's request given
// the order's current status. It is a pure function: the tie-break policy is
// entirely numeric-threshold based so that sub-stages can be inserted later
// without re-enumerating transitions. Combinations not covered below reject.
func ComputeNextStatus(side domain.Side, current, requested domain.OrderStatus) (domain.OrderStatus, error) {
	if !side.Valid() {
		return 0, rejectTransition(side, current, requested)
	}

	// Cancellation is symmetric: either linked side may cancel anything that
	// has not reached final approval.
	if requested.IsCancelRequest() {
		if !current.Cancellable() {
			return 0, rejectTransition(side, current, requested)
		}
		return domain.CancelledBy(side), nil
	}

	if side == domain.SideCustomer {
		return customerNextStatus(current, requested)
	}
	return supplierNextStatus(current, requested)
}

func customerNextStatus(current, requested domain.OrderStatus) (domain.OrderStatus, error) {
	switch current {
	case domain.StatusDraft:
		return domain.StatusSent, nil
	case domain.StatusSent, domain.StatusEdited:
		// Re-edits before the supplier opened the order keep it in the edited
		// stage; there is no one to notify yet.
		return domain.StatusEdited, nil
	case domain.StatusOpened, domain.StatusChangedAfterOpen,
		domain.StatusApproved, domain.StatusApprovedWithChanges:
		return domain.StatusChangedAfterOpen, nil
	default:
		return 0, rejectTransition(domain.SideCustomer, current, requested)
	}
}

func supplierNextStatus(current, requested domain.OrderStatus) (domain.OrderStatus, error) {
	switch {
	case current == domain.StatusSent || current == domain.StatusEdited:
		// The supplier's first action on an unopened order is opening it.
		if requested == domain.StatusOpened {
			return domain.StatusOpened, nil
		}
		return 0, rejectTransition(domain.SideSupplier, current, requested)
	case current.AwaitingFinalApproval():
		// Every supplier action in the open window collapses to an approval;
		// the change detector upgrades it to the with-changes variant when
		// substantive edits exist.
		if requested == domain.StatusFinalApproved {
			return domain.StatusFinalApproved, nil
		}
		return domain.StatusApproved, nil
	case current.FinalApproved() && requested == domain.StatusClosed:
		// Closing after reception is the supplier's final step.
		return domain.StatusClosed, nil
	default:
		return 0, rejectTransition(domain.SideSupplier, current, requested)
	}
}

func rejectTransition(side domain.Side, current, requested domain.OrderStatus) error {
	return fmt.Errorf("%w: side=%s current=%s requested=%s",
		ErrInvalidTransition, side, current, requested)
}
