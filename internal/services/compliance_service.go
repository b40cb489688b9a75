package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
	"github.com/koderius/ScaleSense-sub000/internal/repositories"
)

const orderEventAlertRaised = "order.alert.raised"

// ComplianceServiceDeps bundles collaborators for the compliance service.
type ComplianceServiceDeps struct {
	Orders        repositories.OrderRepository
	Notifications repositories.NotificationRepository
	UnitOfWork    repositories.UnitOfWork
	IDGenerator   func() string
	Events        OrderEventPublisher
	Logger        func(ctx context.Context, event string, fields map[string]any)

	// StaleAfter is how long a sent order may sit unopened before the
	// supplier is nudged.
	StaleAfter time.Duration
	// SupplyWindow is how close to the supply time an order may get without
	// final approval before both sides are alerted.
	SupplyWindow time.Duration
}

type complianceService struct {
	orders        repositories.OrderRepository
	notifications repositories.NotificationRepository
	unitOfWork    repositories.UnitOfWork
	newID         func() string
	events        OrderEventPublisher
	logger        func(context.Context, string, map[string]any)
	staleAfter    time.Duration
	supplyWindow  time.Duration
}

// NewComplianceService wires dependencies into a concrete ComplianceService.
func NewComplianceService(deps ComplianceServiceDeps) (ComplianceService, error) {
	if deps.Orders == nil {
		return nil, errors.New("compliance service: order repository is required")
	}
	if deps.StaleAfter <= 0 {
		return nil, errors.New("compliance service: stale-after window must be positive")
	}
	if deps.SupplyWindow <= 0 {
		return nil, errors.New("compliance service: supply window must be positive")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
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

	return &complianceService{
		orders:        deps.Orders,
		notifications: deps.Notifications,
		unitOfWork:    unit,
		newID:         idGen,
		events:        deps.Events,
		logger:        logger,
		staleAfter:    deps.StaleAfter,
		supplyWindow:  deps.SupplyWindow,
	}, nil
}

func (s *complianceService) Sweep(ctx context.Context, now time.Time) (ComplianceSweepReport, error) {
	now = now.UTC()
	var report ComplianceSweepReport

	stale, err := s.orders.ListStaleUnopened(ctx, now.Add(-s.staleAfter))
	if err != nil {
		return report, fmt.Errorf("compliance: list stale unopened: %w", err)
	}
	for _, order := range stale {
		raised, err := s.raiseAlert(ctx, order.ID, domain.AlertStaleUnopened, now)
		if err != nil {
			s.logger(ctx, "compliance.alert.failed", map[string]any{
				"order": order.ID,
				"kind":  string(domain.AlertStaleUnopened),
				"error": err.Error(),
			})
			report.Skipped++
			continue
		}
		if raised {
			report.StaleUnopenedAlerts++
		} else {
			report.Skipped++
		}
	}

	approaching, err := s.orders.ListApproachingSupply(ctx, now.Add(s.supplyWindow))
	if err != nil {
		return report, fmt.Errorf("compliance: list approaching supply: %w", err)
	}
	for _, order := range approaching {
		raised, err := s.raiseAlert(ctx, order.ID, domain.AlertSupplyApproaching, now)
		if err != nil {
			s.logger(ctx, "compliance.alert.failed", map[string]any{
				"order": order.ID,
				"kind":  string(domain.AlertSupplyApproaching),
				"error": err.Error(),
			})
			report.Skipped++
			continue
		}
		if raised {
			report.SupplyApproachingAlerts++
		} else {
			report.Skipped++
		}
	}

	return report, nil
}

// raiseAlert flips the one-shot flag and enqueues the alert notifications in
// one transaction. It re-reads the order inside the transaction: a concurrent
// sweep or a status transition since the listing query makes the alert moot.
func (s *complianceService) raiseAlert(ctx context.Context, orderID string, kind domain.ComplianceAlertKind, now time.Time) (bool, error) {
	raised := false
	var targets []domain.Side
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		raised = false
		order, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if !s.alertStillDue(order, kind) {
			return nil
		}

		targets = alertTargets(kind)
		for _, target := range targets {
			notification := domain.Notification{
				ID:               notificationIDPrefix + s.newID(),
				TargetSide:       target,
				TargetBusinessID: order.BusinessFor(target),
				Code:             domain.NotificationOrderAlert,
				Timestamp:        now,
				RefSide:          target.Counterparty(),
				RefBusinessID:    order.BusinessFor(target.Counterparty()),
				Content: domain.NotificationContent{
					OrderID:     order.ID,
					OrderStatus: order.Status,
					AlertKind:   kind,
				},
			}
			if s.notifications != nil {
				if err := s.notifications.Enqueue(txCtx, notification); err != nil {
					return err
				}
			}
		}
		if err := s.orders.SetAlertFlag(txCtx, order.ID, kind); err != nil {
			return err
		}
		raised = true
		return nil
	})
	if err != nil || !raised {
		return false, err
	}

	for _, target := range targets {
		s.publishAlertEvent(ctx, orderID, kind, target, now)
	}
	return true, nil
}

// alertStillDue re-checks the one-shot flag and the status window against the
// current document state.
func (s *complianceService) alertStillDue(order domain.Order, kind domain.ComplianceAlertKind) bool {
	switch kind {
	case domain.AlertStaleUnopened:
		return !order.AlertFlags.StaleUnopened &&
			(order.Status == domain.StatusSent || order.Status == domain.StatusEdited)
	case domain.AlertSupplyApproaching:
		return !order.AlertFlags.SupplyApproaching &&
			!order.Status.FinalApproved() &&
			!order.Status.IsCancelled() &&
			order.Status != domain.StatusClosed &&
			order.Status >= domain.StatusSent
	default:
		return false
	}
}

// alertTargets lists who gets told. Staleness is the supplier's problem; an
// approaching supply date without final approval concerns both parties.
func alertTargets(kind domain.ComplianceAlertKind) []domain.Side {
	if kind == domain.AlertStaleUnopened {
		return []domain.Side{domain.SideSupplier}
	}
	return []domain.Side{domain.SideCustomer, domain.SideSupplier}
}

func (s *complianceService) publishAlertEvent(ctx context.Context, orderID string, kind domain.ComplianceAlertKind, target domain.Side, now time.Time) {
	if s.events == nil {
		return
	}
	event := OrderEvent{
		Type:       orderEventAlertRaised,
		OrderID:    orderID,
		TargetSide: target,
		AlertKind:  kind,
		OccurredAt: now,
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
			"kind":  string(kind),
		})
	}
}
