package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
	"github.com/koderius/ScaleSense-sub000/internal/repositories"
)

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *stubRepoError) Error() string       { return "stub repository error" }
func (e *stubRepoError) IsNotFound() bool    { return e.notFound }
func (e *stubRepoError) IsConflict() bool    { return e.conflict }
func (e *stubRepoError) IsUnavailable() bool { return e.unavailable }

var errStubNotFound = &stubRepoError{notFound: true}

type stubOrderRepo struct {
	findFn       func(context.Context, string) (domain.Order, error)
	createFn     func(context.Context, domain.Order) error
	updateFn     func(context.Context, domain.Order) error
	listFn       func(context.Context, repositories.OrderListFilter) ([]domain.Order, error)
	staleFn      func(context.Context, time.Time) ([]domain.Order, error)
	approachFn   func(context.Context, time.Time) ([]domain.Order, error)
	setFlagFn    func(context.Context, string, domain.ComplianceAlertKind) error
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errStubNotFound
}

func (s *stubOrderRepo) Create(ctx context.Context, order domain.Order) error {
	if s.createFn != nil {
		return s.createFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubOrderRepo) ListStaleUnopened(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	if s.staleFn != nil {
		return s.staleFn(ctx, cutoff)
	}
	return nil, nil
}

func (s *stubOrderRepo) ListApproachingSupply(ctx context.Context, deadline time.Time) ([]domain.Order, error) {
	if s.approachFn != nil {
		return s.approachFn(ctx, deadline)
	}
	return nil, nil
}

func (s *stubOrderRepo) SetAlertFlag(ctx context.Context, orderID string, kind domain.ComplianceAlertKind) error {
	if s.setFlagFn != nil {
		return s.setFlagFn(ctx, orderID, kind)
	}
	return nil
}

type stubActorRepo struct {
	findFn func(context.Context, string) (domain.Actor, error)
}

func (s *stubActorRepo) FindByID(ctx context.Context, actorID string) (domain.Actor, error) {
	if s.findFn != nil {
		return s.findFn(ctx, actorID)
	}
	return domain.Actor{}, errStubNotFound
}

type stubRosterRepo struct {
	upsertFn func(context.Context, string, string) error
}

func (s *stubRosterRepo) UpsertCustomer(ctx context.Context, supplierID, customerID string) error {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, supplierID, customerID)
	}
	return nil
}

type stubNotificationRepo struct {
	enqueued []domain.Notification
	fn       func(context.Context, domain.Notification) error
}

func (s *stubNotificationRepo) Enqueue(ctx context.Context, n domain.Notification) error {
	if s.fn != nil {
		return s.fn(ctx, n)
	}
	s.enqueued = append(s.enqueued, n)
	return nil
}

type stubPublisher struct {
	events []OrderEvent
	fn     func(context.Context, OrderEvent) error
}

func (s *stubPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	if s.fn != nil {
		return s.fn(ctx, event)
	}
	s.events = append(s.events, event)
	return nil
}

type stubUnitOfWork struct {
	runFn func(context.Context, func(context.Context) error) error
}

func (s *stubUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.runFn != nil {
		return s.runFn(ctx, fn)
	}
	return fn(ctx)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%02d", prefix, n)
	}
}

func customerActor() domain.Actor {
	return domain.Actor{
		ID:         "act-cust",
		BusinessID: "cust-1",
		Side:       domain.SideCustomer,
		Role:       domain.RoleManager,
		Permissions: []domain.Permission{
			domain.PermissionCreateOrder,
			domain.PermissionEditOrder,
			domain.PermissionChangeOrder,
			domain.PermissionCancelOrder,
		},
	}
}

func supplierActor() domain.Actor {
	return domain.Actor{
		ID:         "act-sup",
		BusinessID: "sup-1",
		Side:       domain.SideSupplier,
		Role:       domain.RoleManager,
	}
}

func newTestOrderService(t *testing.T, orders *stubOrderRepo, actors *stubActorRepo, deps func(*OrderServiceDeps)) OrderService {
	t.Helper()
	d := OrderServiceDeps{
		Orders: orders,
		Actors: actors,
		Clock:  fixedClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)),
	}
	if deps != nil {
		deps(&d)
	}
	svc, err := NewOrderService(d)
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func TestSubmitChangeCreatesOrder(t *testing.T) {
	actor := customerActor()
	var created domain.Order
	orders := &stubOrderRepo{
		createFn: func(_ context.Context, order domain.Order) error {
			created = order
			return nil
		},
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	roster := &stubRosterRepo{}
	var rosterSupplier, rosterCustomer string
	roster.upsertFn = func(_ context.Context, supplierID, customerID string) error {
		rosterSupplier, rosterCustomer = supplierID, customerID
		return nil
	}
	notifications := &stubNotificationRepo{}
	publisher := &stubPublisher{}

	svc := newTestOrderService(t, orders, actors, func(d *OrderServiceDeps) {
		d.Roster = roster
		d.Notifications = notifications
		d.Events = publisher
		d.IDGenerator = sequentialIDs("id")
	})

	products := []domain.ProductLine{{ProductID: "p1", Name: "Tomatoes", Type: "vegetable", Amount: 2, UnitPrice: 10}}
	supplyTime := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	record, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusSent,
		SupplierID:      "sup-1",
		Fields: OrderFieldPatch{
			Products:   &products,
			SupplyTime: &supplyTime,
		},
	})
	if err != nil {
		t.Fatalf("SubmitChange: %v", err)
	}

	if record.ResultingStatus != domain.StatusSent {
		t.Fatalf("resulting status = %s, want sent", record.ResultingStatus)
	}
	if !record.HasChanges {
		t.Fatal("creation diff against the zero snapshot must register changes")
	}
	if created.ID != "o1" || created.CustomerID != "cust-1" || created.SupplierID != "sup-1" {
		t.Fatalf("created order %+v", created)
	}
	if created.Status != domain.StatusSent {
		t.Fatalf("created status = %s", created.Status)
	}
	if len(created.ChangeLog) != 1 {
		t.Fatalf("change log length = %d, want 1", len(created.ChangeLog))
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.ModifiedAt) {
		t.Fatalf("timestamps: created=%v modified=%v", created.CreatedAt, created.ModifiedAt)
	}
	if rosterSupplier != "sup-1" || rosterCustomer != "cust-1" {
		t.Fatalf("roster upsert got supplier=%q customer=%q", rosterSupplier, rosterCustomer)
	}
	if len(notifications.enqueued) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications.enqueued))
	}
	n := notifications.enqueued[0]
	if n.TargetSide != domain.SideSupplier || n.TargetBusinessID != "sup-1" {
		t.Fatalf("notification target %+v", n)
	}
	if n.Code != domain.NotificationOrderChange || n.Content.OrderStatus != domain.StatusSent {
		t.Fatalf("notification content %+v", n)
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != orderEventCreated {
		t.Fatalf("events = %+v", publisher.events)
	}
}

func TestSubmitChangeCreateRequiresSupplier(t *testing.T) {
	actor := customerActor()
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	svc := newTestOrderService(t, &stubOrderRepo{}, actors, nil)

	_, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusSent,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestSubmitChangeRejectsCancelOfMissingOrder(t *testing.T) {
	actor := customerActor()
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	orders := &stubOrderRepo{
		createFn: func(context.Context, domain.Order) error {
			t.Fatal("a cancel request must not create an order")
			return nil
		},
	}
	svc := newTestOrderService(t, orders, actors, nil)

	_, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "missing",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusCancelledByCustomer,
		SupplierID:      "sup-1",
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestSubmitChangeSupplierApprovalWithEdits(t *testing.T) {
	actor := supplierActor()
	existing := domain.Order{
		ID:         "o1",
		CustomerID: "cust-1",
		SupplierID: "sup-1",
		Status:     domain.StatusChangedAfterOpen,
		Data:       baselineOrderData(),
		CreatedAt:  time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC),
	}
	var updated domain.Order
	orders := &stubOrderRepo{
		findFn:   func(context.Context, string) (domain.Order, error) { return existing, nil },
		updateFn: func(_ context.Context, order domain.Order) error { updated = order; return nil },
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	notifications := &stubNotificationRepo{}

	svc := newTestOrderService(t, orders, actors, func(d *OrderServiceDeps) {
		d.Notifications = notifications
	})

	supplierComment := "short on stock, halved the tomatoes"
	products := []domain.ProductLine{
		{ProductID: "p1", Name: "Tomatoes", Type: "vegetable", Amount: 1, UnitPrice: 10},
		{ProductID: "p2", Name: "Olive Oil", Type: "pantry", Amount: 1, UnitPrice: 40, Comment: "cold pressed"},
	}
	record, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusApproved,
		Fields: OrderFieldPatch{
			Products:        &products,
			SupplierComment: &supplierComment,
		},
	})
	if err != nil {
		t.Fatalf("SubmitChange: %v", err)
	}
	if record.ResultingStatus != domain.StatusApprovedWithChanges {
		t.Fatalf("resulting status = %s, want approved_with_changes", record.ResultingStatus)
	}
	if !record.HasChanges || record.SupplierComment == nil || record.TotalPrice == nil {
		t.Fatalf("change set incomplete: %+v", record.ChangeSet)
	}
	if updated.Status != domain.StatusApprovedWithChanges {
		t.Fatalf("stored status = %s", updated.Status)
	}
	if updated.Data.SupplierComment != supplierComment {
		t.Fatalf("supplier comment = %q", updated.Data.SupplierComment)
	}
	if len(notifications.enqueued) != 1 || notifications.enqueued[0].TargetSide != domain.SideCustomer {
		t.Fatalf("notifications = %+v", notifications.enqueued)
	}
}

func TestSubmitChangeSupplyTimeOnlyUpgradesApproval(t *testing.T) {
	actor := supplierActor()
	existing := domain.Order{
		ID:         "o1",
		CustomerID: "cust-1",
		SupplierID: "sup-1",
		Status:     domain.StatusOpened,
		Data:       baselineOrderData(),
		CreatedAt:  time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC),
	}
	var updated domain.Order
	orders := &stubOrderRepo{
		findFn:   func(context.Context, string) (domain.Order, error) { return existing, nil },
		updateFn: func(_ context.Context, order domain.Order) error { updated = order; return nil },
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}

	svc := newTestOrderService(t, orders, actors, nil)

	supplyTime := existing.Data.SupplyTime.Add(48 * time.Hour)
	record, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusApproved,
		Fields:          OrderFieldPatch{SupplyTime: &supplyTime},
	})
	if err != nil {
		t.Fatalf("SubmitChange: %v", err)
	}
	if record.ResultingStatus != domain.StatusApprovedWithChanges {
		t.Fatalf("resulting status = %s, want approved_with_changes", record.ResultingStatus)
	}
	if record.SupplyTime == nil || !record.SupplyTime.To.Equal(supplyTime) {
		t.Fatalf("supply time change = %+v", record.SupplyTime)
	}
	if len(record.Products) != 0 || record.TotalPrice != nil {
		t.Fatalf("unexpected product diff: %+v", record.ChangeSet)
	}
	if !updated.Data.SupplyTime.Equal(supplyTime) {
		t.Fatalf("stored supply time = %v", updated.Data.SupplyTime)
	}
}

func TestSubmitChangeRejectsNoOpEdit(t *testing.T) {
	actor := customerActor()
	existing := domain.Order{
		ID:         "o1",
		CustomerID: "cust-1",
		SupplierID: "sup-1",
		Status:     domain.StatusOpened,
		Data:       baselineOrderData(),
	}
	orders := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) { return existing, nil },
		updateFn: func(context.Context, domain.Order) error {
			t.Fatal("no-op submission must not write")
			return nil
		},
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	svc := newTestOrderService(t, orders, actors, nil)

	_, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusChangedAfterOpen,
	})
	if !errors.Is(err, ErrNoOpRejected) {
		t.Fatalf("want ErrNoOpRejected, got %v", err)
	}
}

func TestSubmitChangeRejectsRepeatApprovalWithoutEdits(t *testing.T) {
	actor := supplierActor()
	existing := domain.Order{
		ID:         "o1",
		CustomerID: "cust-1",
		SupplierID: "sup-1",
		Status:     domain.StatusApproved,
		Data:       baselineOrderData(),
	}
	orders := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) { return existing, nil },
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	svc := newTestOrderService(t, orders, actors, nil)

	_, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusApproved,
	})
	if !errors.Is(err, ErrNoOpRejected) {
		t.Fatalf("want ErrNoOpRejected, got %v", err)
	}
}

func TestSubmitChangeSuppressesPreOpenEditNotification(t *testing.T) {
	actor := customerActor()
	existing := domain.Order{
		ID:         "o1",
		CustomerID: "cust-1",
		SupplierID: "sup-1",
		Status:     domain.StatusSent,
		Data:       baselineOrderData(),
	}
	orders := &stubOrderRepo{
		findFn:   func(context.Context, string) (domain.Order, error) { return existing, nil },
		updateFn: func(context.Context, domain.Order) error { return nil },
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	notifications := &stubNotificationRepo{}
	svc := newTestOrderService(t, orders, actors, func(d *OrderServiceDeps) {
		d.Notifications = notifications
	})

	comment := "leave at the gate"
	record, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusEdited,
		Fields:          OrderFieldPatch{Comment: &comment},
	})
	if err != nil {
		t.Fatalf("SubmitChange: %v", err)
	}
	if record.ResultingStatus != domain.StatusEdited {
		t.Fatalf("resulting status = %s", record.ResultingStatus)
	}
	if len(notifications.enqueued) != 0 {
		t.Fatalf("pre-open edits must not notify, got %+v", notifications.enqueued)
	}
}

func TestSubmitChangeIgnoresSupplierFieldsFromCustomer(t *testing.T) {
	actor := customerActor()
	existing := domain.Order{
		ID:         "o1",
		CustomerID: "cust-1",
		SupplierID: "sup-1",
		Status:     domain.StatusOpened,
		Data:       baselineOrderData(),
	}
	var updated domain.Order
	orders := &stubOrderRepo{
		findFn:   func(context.Context, string) (domain.Order, error) { return existing, nil },
		updateFn: func(_ context.Context, order domain.Order) error { updated = order; return nil },
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	svc := newTestOrderService(t, orders, actors, nil)

	comment := "new comment"
	invoice := "INV-999"
	boxes := 7
	_, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusChangedAfterOpen,
		Fields: OrderFieldPatch{
			Comment: &comment,
			Invoice: &invoice,
			Boxes:   &boxes,
		},
	})
	if err != nil {
		t.Fatalf("SubmitChange: %v", err)
	}
	if updated.Data.Invoice != "" || updated.Data.Boxes != 0 {
		t.Fatalf("supplier-only fields leaked through a customer patch: %+v", updated.Data)
	}
	if updated.Data.Comment != "new comment" {
		t.Fatalf("comment = %q", updated.Data.Comment)
	}
}

func TestSubmitChangeDeniesUnlinkedActor(t *testing.T) {
	actor := customerActor()
	actor.BusinessID = "someone-else"
	existing := domain.Order{ID: "o1", CustomerID: "cust-1", SupplierID: "sup-1", Status: domain.StatusSent}
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) { return existing, nil }}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	svc := newTestOrderService(t, orders, actors, nil)

	_, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusEdited,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
}

func TestSubmitChangeDeniesMissingPermission(t *testing.T) {
	actor := domain.Actor{
		ID:         "act-w",
		BusinessID: "cust-1",
		Side:       domain.SideCustomer,
		Role:       domain.RoleWorker,
	}
	existing := domain.Order{ID: "o1", CustomerID: "cust-1", SupplierID: "sup-1", Status: domain.StatusSent}
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) { return existing, nil }}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	svc := newTestOrderService(t, orders, actors, nil)

	_, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusCancelledByCustomer,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
}

func TestSubmitChangeAppendsChangeLog(t *testing.T) {
	actor := customerActor()
	existing := domain.Order{
		ID:         "o1",
		CustomerID: "cust-1",
		SupplierID: "sup-1",
		Status:     domain.StatusOpened,
		Data:       baselineOrderData(),
		ChangeLog: []domain.ChangeRecord{
			{ID: "chg_old", ResultingStatus: domain.StatusSent},
		},
	}
	var updated domain.Order
	orders := &stubOrderRepo{
		findFn:   func(context.Context, string) (domain.Order, error) { return existing, nil },
		updateFn: func(_ context.Context, order domain.Order) error { updated = order; return nil },
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	svc := newTestOrderService(t, orders, actors, func(d *OrderServiceDeps) {
		d.IDGenerator = sequentialIDs("id")
	})

	comment := "ring the bell"
	record, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusChangedAfterOpen,
		Fields:          OrderFieldPatch{Comment: &comment},
	})
	if err != nil {
		t.Fatalf("SubmitChange: %v", err)
	}
	if len(updated.ChangeLog) != 2 {
		t.Fatalf("change log length = %d, want 2", len(updated.ChangeLog))
	}
	if updated.ChangeLog[0].ID != "chg_old" {
		t.Fatal("existing entries must be preserved in order")
	}
	if updated.ChangeLog[1].ID != record.ID {
		t.Fatalf("appended entry = %s, record = %s", updated.ChangeLog[1].ID, record.ID)
	}
}

func TestSubmitChangeLoserRecomputesAgainstCommittedState(t *testing.T) {
	actor := customerActor()
	stored := domain.Order{
		ID:         "o1",
		CustomerID: "cust-1",
		SupplierID: "sup-1",
		Status:     domain.StatusOpened,
		Data:       baselineOrderData(),
	}
	var committed []domain.Order
	orders := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		updateFn: func(_ context.Context, order domain.Order) error {
			committed = append(committed, order)
			return nil
		},
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}

	attempts := 0
	uow := &stubUnitOfWork{runFn: func(ctx context.Context, fn func(context.Context) error) error {
		attempts++
		if err := fn(ctx); err != nil {
			return err
		}
		// First attempt loses the race: the supplier's cancellation commits
		// underneath it, the buffered write is dropped, and the transaction
		// reruns against the winner's state.
		committed = nil
		stored.Status = domain.StatusCancelledBySupplier
		stored.ChangeLog = []domain.ChangeRecord{
			{ID: "chg_winner", ResultingStatus: domain.StatusCancelledBySupplier},
		}
		attempts++
		return fn(ctx)
	}}

	svc := newTestOrderService(t, orders, actors, func(d *OrderServiceDeps) {
		d.UnitOfWork = uow
	})

	comment := "more olives"
	_, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusChangedAfterOpen,
		Fields:          OrderFieldPatch{Comment: &comment},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition after rerun, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if len(committed) != 0 {
		t.Fatalf("losing submission must commit nothing, got %d updates", len(committed))
	}
	if len(stored.ChangeLog) != 1 || stored.ChangeLog[0].ID != "chg_winner" {
		t.Fatalf("change log = %+v, want only the winning entry", stored.ChangeLog)
	}
}

func TestSubmitChangePublishFailureDoesNotFail(t *testing.T) {
	actor := customerActor()
	existing := domain.Order{
		ID:         "o1",
		CustomerID: "cust-1",
		SupplierID: "sup-1",
		Status:     domain.StatusOpened,
		Data:       baselineOrderData(),
	}
	orders := &stubOrderRepo{
		findFn:   func(context.Context, string) (domain.Order, error) { return existing, nil },
		updateFn: func(context.Context, domain.Order) error { return nil },
	}
	actors := &stubActorRepo{findFn: func(context.Context, string) (domain.Actor, error) { return actor, nil }}
	publisher := &stubPublisher{fn: func(context.Context, OrderEvent) error { return errors.New("broker down") }}

	var loggedEvent string
	svc := newTestOrderService(t, orders, actors, func(d *OrderServiceDeps) {
		d.Events = publisher
		d.Logger = func(_ context.Context, event string, _ map[string]any) {
			loggedEvent = event
		}
	})

	comment := "updated"
	if _, err := svc.SubmitChange(context.Background(), SubmitOrderChangeCommand{
		OrderID:         "o1",
		ActorID:         actor.ID,
		RequestedStatus: domain.StatusChangedAfterOpen,
		Fields:          OrderFieldPatch{Comment: &comment},
	}); err != nil {
		t.Fatalf("publish failures must not fail the mutation: %v", err)
	}
	if loggedEvent != "order.event.publish.failed" {
		t.Fatalf("logged event = %q", loggedEvent)
	}
}

func TestGetOrderMapsNotFound(t *testing.T) {
	orders := &stubOrderRepo{}
	actors := &stubActorRepo{}
	svc := newTestOrderService(t, orders, actors, nil)

	_, err := svc.GetOrder(context.Background(), "missing")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound, got %v", err)
	}
}

func TestListOrdersValidatesFilter(t *testing.T) {
	svc := newTestOrderService(t, &stubOrderRepo{}, &stubActorRepo{}, nil)

	if _, err := svc.ListOrders(context.Background(), repositories.OrderListFilter{
		Side: domain.Side("nobody"), BusinessID: "b1",
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput for bad side, got %v", err)
	}
	if _, err := svc.ListOrders(context.Background(), repositories.OrderListFilter{
		Side: domain.SideCustomer,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput for empty business, got %v", err)
	}
}
