package services

import (
	"fmt"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
)

// transitionPermissions maps a resulting status to the permission it requires.
// Statuses absent from the table require nothing beyond business linkage.
var transitionPermissions = map[domain.OrderStatus]domain.Permission{
	domain.StatusSent:                domain.PermissionCreateOrder,
	domain.StatusEdited:              domain.PermissionEditOrder,
	domain.StatusChangedAfterOpen:    domain.PermissionChangeOrder,
	domain.StatusCancelledByCustomer: domain.PermissionCancelOrder,
	domain.StatusCancelledBySupplier: domain.PermissionCancelOrder,
}

// RequiredPermission returns the permission needed to land on the given
// status, or false when the transition carries no specific requirement.
func RequiredPermission(resulting domain.OrderStatus) (domain.Permission, bool) {
	p, ok := transitionPermissions[resulting]
	return p, ok
}

// Authorize checks the actor against the permission the transition requires.
// Admins always pass; the absence of a requirement always passes.
func Authorize(actor domain.Actor, resulting domain.OrderStatus) error {
	permission, required := RequiredPermission(resulting)
	if !required {
		return nil
	}
	if actor.Can(permission) {
		return nil
	}
	return fmt.Errorf("%w: actor=%s requires=%s", ErrPermissionDenied, actor.ID, permission)
}

// RequireLinkage verifies the actor's business owns their side of the order.
// An actor from an unrelated business is rejected regardless of the requested
// transition. Skipped only on first creation, when the order does not exist.
func RequireLinkage(actor domain.Actor, order domain.Order) error {
	if order.BusinessFor(actor.Side) != actor.BusinessID {
		return fmt.Errorf("%w: actor=%s business=%s is not the order's %s",
			ErrPermissionDenied, actor.ID, actor.BusinessID, actor.Side)
	}
	return nil
}
