package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
	"github.com/koderius/ScaleSense-sub000/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"

	changeRecordIDPrefix = "chg_"
	notificationIDPrefix = "ntf_"
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders        repositories.OrderRepository
	Actors        repositories.ActorRepository
	Roster        repositories.RosterRepository
	Notifications repositories.NotificationRepository
	UnitOfWork    repositories.UnitOfWork
	Clock         func() time.Time
	IDGenerator   func() string
	Events        OrderEventPublisher
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders        repositories.OrderRepository
	actors        repositories.ActorRepository
	roster        repositories.RosterRepository
	notifications repositories.NotificationRepository
	unitOfWork    repositories.UnitOfWork
	clock         func() time.Time
	newID         func() string
	events        OrderEventPublisher
	logger        func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Actors == nil {
		return nil, errors.New("order service: actor repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:        deps.Orders,
		actors:        deps.Actors,
		roster:        deps.Roster,
		notifications: deps.Notifications,
		unitOfWork:    unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *orderService) SubmitChange(ctx context.Context, cmd SubmitOrderChangeCommand) (domain.ChangeRecord, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return domain.ChangeRecord{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return domain.ChangeRecord{}, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}

	now := s.now()

	var (
		record  domain.ChangeRecord
		created bool
		target  domain.Side
	)
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		actor, err := s.actors.FindByID(txCtx, actorID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: unknown actor %s", ErrPermissionDenied, actorID)
			}
			return s.mapRepositoryError(err)
		}
		if !actor.Side.Valid() {
			return fmt.Errorf("%w: actor %s has no side", ErrPermissionDenied, actorID)
		}

		order, err := s.orders.FindByID(txCtx, orderID)
		isNew := false
		switch {
		case err == nil:
			if linkErr := RequireLinkage(actor, order); linkErr != nil {
				return linkErr
			}
		case isNotFound(err):
			isNew = true
			order = domain.Order{ID: orderID, Status: domain.StatusDraft}
		default:
			return s.mapRepositoryError(err)
		}

		next, err := ComputeNextStatus(actor.Side, order.Status, cmd.RequestedStatus)
		if err != nil {
			return err
		}
		if err := Authorize(actor, next); err != nil {
			return err
		}

		if isNew {
			// The only way into existence is a submission; a first request
			// that resolves to anything else (a cancel, say) has no order
			// to act on.
			if next != domain.StatusSent {
				return fmt.Errorf("%w: order %s does not exist", ErrInvalidTransition, orderID)
			}
			supplierID := strings.TrimSpace(cmd.SupplierID)
			if supplierID == "" {
				return fmt.Errorf("%w: supplier id is required for a new order", ErrInvalidInput)
			}
			order.CustomerID = actor.BusinessID
			order.SupplierID = supplierID
			order.CreatedAt = now
		}

		previous := order.Data
		updated := applyFieldPatch(previous, actor.Side, cmd.Fields)
		changes := DetectChanges(previous, updated)

		// A supplier approval that also edits the order lands on the
		// with-changes sibling so the customer sees it needs review.
		if actor.Side == domain.SideSupplier && changes.HasChanges {
			next = next.WithChanges()
		}
		if rejectErr := rejectNoOp(order.Status, next, changes); rejectErr != nil {
			return rejectErr
		}

		record = domain.ChangeRecord{
			ID:              changeRecordIDPrefix + s.newID(),
			ActorID:         actor.ID,
			ActorSide:       actor.Side,
			Timestamp:       now,
			ResultingStatus: next,
			ChangeSet:       changes,
		}

		order.Status = next
		order.Data = updated
		order.ModifiedAt = now
		order.ChangeLog = append(order.ChangeLog, record)

		if isNew {
			if err := s.orders.Create(txCtx, order); err != nil {
				return s.mapRepositoryError(err)
			}
			if s.roster != nil {
				if err := s.roster.UpsertCustomer(txCtx, order.SupplierID, order.CustomerID); err != nil {
					return s.mapRepositoryError(err)
				}
			}
		} else {
			if err := s.orders.Update(txCtx, order); err != nil {
				return s.mapRepositoryError(err)
			}
		}

		created = isNew
		target = actor.Side.Counterparty()

		// Pre-open customer edits stay silent; the supplier has not seen the
		// order yet and will pick up the latest snapshot on first open.
		if next == domain.StatusEdited || s.notifications == nil {
			return nil
		}
		notification := domain.Notification{
			ID:               notificationIDPrefix + s.newID(),
			TargetSide:       target,
			TargetBusinessID: order.BusinessFor(target),
			Code:             domain.NotificationOrderChange,
			Timestamp:        now,
			RefSide:          actor.Side,
			RefBusinessID:    actor.BusinessID,
			Content: domain.NotificationContent{
				OrderID:     order.ID,
				OrderStatus: next,
			},
		}
		if err := s.notifications.Enqueue(txCtx, notification); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return domain.ChangeRecord{}, err
	}

	eventType := orderEventStatusChanged
	if created {
		eventType = orderEventCreated
	}
	s.publishEvent(ctx, OrderEvent{
		Type:            eventType,
		OrderID:         orderID,
		ActorID:         actorID,
		TargetSide:      target,
		ResultingStatus: record.ResultingStatus,
		OccurredAt:      now,
	})

	return record, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if !filter.Side.Valid() {
		return nil, fmt.Errorf("%w: side must be customer or supplier", ErrInvalidInput)
	}
	if strings.TrimSpace(filter.BusinessID) == "" {
		return nil, fmt.Errorf("%w: business id is required", ErrInvalidInput)
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

// applyFieldPatch merges the allow-listed fields onto the stored snapshot.
// Supplier-owned fields submitted by a customer are dropped, not rejected:
// the caller's client may echo them back unchanged.
func applyFieldPatch(data domain.OrderData, side domain.Side, patch OrderFieldPatch) domain.OrderData {
	if patch.Products != nil {
		data.Products = cloneProducts(*patch.Products)
	}
	if patch.SupplyTime != nil {
		data.SupplyTime = *patch.SupplyTime
	}
	if patch.Comment != nil {
		data.Comment = *patch.Comment
	}
	if side != domain.SideSupplier {
		return data
	}
	if patch.SupplierComment != nil {
		data.SupplierComment = *patch.SupplierComment
	}
	if patch.Invoice != nil {
		data.Invoice = *patch.Invoice
	}
	if patch.Boxes != nil {
		data.Boxes = *patch.Boxes
	}
	return data
}

func cloneProducts(products []domain.ProductLine) []domain.ProductLine {
	if products == nil {
		return nil
	}
	cloned := make([]domain.ProductLine, len(products))
	copy(cloned, products)
	return cloned
}

// rejectNoOp refuses transitions whose entire point is a substantive edit
// when no field actually changed, and supplier re-approvals of an already
// approved order that carry nothing new.
func rejectNoOp(current, next domain.OrderStatus, changes domain.ChangeSet) error {
	if changes.HasChanges {
		return nil
	}
	if next.RequiresSubstantiveEdit() {
		return fmt.Errorf("%w: %s requires field changes", ErrNoOpRejected, next)
	}
	if next == domain.StatusApproved && !current.IsBefore(domain.StatusApproved) {
		return fmt.Errorf("%w: order is already approved", ErrNoOpRejected)
	}
	return nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":   event.Type,
			"order":  event.OrderID,
			"error":  err.Error(),
			"status": event.ResultingStatus.String(),
		})
	}
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
