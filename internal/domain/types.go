package domain

import (
	"time"
)

// Side identifies which party of the two-party relationship an actor represents.
type Side string

const (
	// SideCustomer is the ordering business.
	SideCustomer Side = "customer"
	// SideSupplier is the fulfilling business.
	SideSupplier Side = "supplier"
)

// Counterparty returns the opposite side of the relationship.
func (s Side) Counterparty() Side {
	if s == SideCustomer {
		return SideSupplier
	}
	return SideCustomer
}

// Valid reports whether the side is one of the two known parties.
func (s Side) Valid() bool {
	return s == SideCustomer || s == SideSupplier
}

// Role describes the actor's position inside their own business.
type Role string

const (
	// RoleAdmin bypasses all permission checks within the business.
	RoleAdmin Role = "admin"
	// RoleManager is a regular member whose permission set is consulted.
	RoleManager Role = "manager"
	// RoleWorker is a restricted member whose permission set is consulted.
	RoleWorker Role = "worker"
)

// Permission names a capability an actor may hold on orders.
type Permission string

const (
	// PermissionCreateOrder allows sending a new order to a supplier.
	PermissionCreateOrder Permission = "orders.create"
	// PermissionEditOrder allows editing a sent order before the supplier opens it.
	PermissionEditOrder Permission = "orders.edit"
	// PermissionChangeOrder allows changing an order the supplier already opened.
	PermissionChangeOrder Permission = "orders.change"
	// PermissionCancelOrder allows cancelling an order.
	PermissionCancelOrder Permission = "orders.cancel"
)

// Actor is the resolved identity performing an order mutation.
type Actor struct {
	ID          string
	BusinessID  string
	Side        Side
	Role        Role
	Permissions []Permission
}

// Can reports whether the actor holds the given permission. Admins hold every
// permission implicitly.
func (a Actor) Can(permission Permission) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ProductLine is a single ordered line item, unique by ProductID within an order.
type ProductLine struct {
	ProductID string
	Name      string
	Type      string
	Amount    float64
	UnitPrice float64
	Comment   string
}

// OrderData holds the mutable business fields of an order, the part compared
// by the change detector. Boxes, Invoice and SupplierComment are written by
// the supplier side only.
type OrderData struct {
	Products        []ProductLine
	SupplyTime      time.Time
	Comment         string
	SupplierComment string
	Invoice         string
	Boxes           int
}

// TotalPrice sums amount times unit price over all line items.
func (d OrderData) TotalPrice() float64 {
	var total float64
	for _, p := range d.Products {
		total += p.Amount * p.UnitPrice
	}
	return total
}

// ComplianceFlags are one-shot alert markers, flipped at most once per order.
type ComplianceFlags struct {
	StaleUnopened     bool
	SupplyApproaching bool
}

// ComplianceAlertKind names a compliance condition monitored by the scanner.
type ComplianceAlertKind string

const (
	// AlertStaleUnopened fires when a sent order stays unopened past the SLA window.
	AlertStaleUnopened ComplianceAlertKind = "stale_unopened"
	// AlertSupplyApproaching fires when supply time nears without final approval.
	AlertSupplyApproaching ComplianceAlertKind = "supply_approaching"
)

// Order is the aggregate root. The change log is append-only: entries are
// totally ordered by the commit order of the transaction that added them and
// are never rewritten.
type Order struct {
	ID         string
	CustomerID string
	SupplierID string
	Status     OrderStatus
	Data       OrderData
	CreatedAt  time.Time
	ModifiedAt time.Time
	ChangeLog  []ChangeRecord
	AlertFlags ComplianceFlags
}

// BusinessFor returns the business that owns the given side of the order.
func (o Order) BusinessFor(side Side) string {
	if side == SideSupplier {
		return o.SupplierID
	}
	return o.CustomerID
}

// ChangeRecord is one immutable audit entry, created per committed transition.
type ChangeRecord struct {
	ID              string
	ActorID         string
	ActorSide       Side
	Timestamp       time.Time
	ResultingStatus OrderStatus
	ChangeSet
}

// NotificationCode distinguishes the event that triggered a notification.
type NotificationCode int

const (
	// NotificationOrderChange signals a committed order transition.
	NotificationOrderChange NotificationCode = 1
	// NotificationOrderAlert signals a compliance alert.
	NotificationOrderAlert NotificationCode = 2
)

// NotificationContent carries the event-specific payload of a notification.
type NotificationContent struct {
	OrderID     string
	OrderStatus OrderStatus
	AlertKind   ComplianceAlertKind
}

// Notification is an outbox entry addressed to one side of a business
// relationship, delivered at least once by the dispatch layer.
type Notification struct {
	ID               string
	TargetSide       Side
	TargetBusinessID string
	Code             NotificationCode
	Timestamp        time.Time
	RefSide          Side
	RefBusinessID    string
	Content          NotificationContent
}
