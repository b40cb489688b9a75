package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
	pfirestore "github.com/koderius/ScaleSense-sub000/internal/platform/firestore"
	"github.com/koderius/ScaleSense-sub000/internal/repositories"
)

const ordersCollection = "orders"

// statusCodesNotOpened are the stages before the supplier's first open.
var statusCodesNotOpened = []int{
	int(domain.StatusSent),
	int(domain.StatusEdited),
}

// statusCodesNotFinalApproved are the active stages before final approval.
var statusCodesNotFinalApproved = []int{
	int(domain.StatusSent),
	int(domain.StatusEdited),
	int(domain.StatusOpened),
	int(domain.StatusChangedAfterOpen),
	int(domain.StatusApproved),
	int(domain.StatusApprovedWithChanges),
}

type productLineDocument struct {
	ProductID string  `firestore:"productId"`
	Name      string  `firestore:"name"`
	Type      string  `firestore:"type"`
	Amount    float64 `firestore:"amount"`
	UnitPrice float64 `firestore:"unitPrice"`
	Comment   string  `firestore:"comment,omitempty"`
}

type fieldChangeDocument struct {
	Kind string `firestore:"kind"`
	From string `firestore:"from,omitempty"`
	To   string `firestore:"to,omitempty"`
}

type timeChangeDocument struct {
	From time.Time `firestore:"from"`
	To   time.Time `firestore:"to"`
}

type valueChangeDocument struct {
	From float64 `firestore:"from"`
	To   float64 `firestore:"to"`
}

type productChangeDocument struct {
	ProductID string               `firestore:"productId"`
	Name      string               `firestore:"name,omitempty"`
	Type      string               `firestore:"type,omitempty"`
	Kind      string               `firestore:"kind"`
	Amount    *valueChangeDocument `firestore:"amount,omitempty"`
	Price     *valueChangeDocument `firestore:"price,omitempty"`
	Comment   *fieldChangeDocument `firestore:"comment,omitempty"`
}

type changeRecordDocument struct {
	ID              string                  `firestore:"id"`
	ActorID         string                  `firestore:"actorId"`
	ActorSide       string                  `firestore:"actorSide"`
	Timestamp       time.Time               `firestore:"timestamp"`
	ResultingStatus int                     `firestore:"resultingStatus"`
	HasChanges      bool                    `firestore:"hasChanges"`
	Products        []productChangeDocument `firestore:"productChanges,omitempty"`
	SupplyTime      *timeChangeDocument     `firestore:"supplyTimeChange,omitempty"`
	Comment         *fieldChangeDocument    `firestore:"commentChange,omitempty"`
	SupplierComment *fieldChangeDocument    `firestore:"supplierCommentChange,omitempty"`
	TotalPrice      *valueChangeDocument    `firestore:"totalPriceChange,omitempty"`
}

type alertFlagsDocument struct {
	StaleUnopened     bool `firestore:"staleUnopened"`
	SupplyApproaching bool `firestore:"supplyApproaching"`
}

type orderDocument struct {
	CustomerID      string                 `firestore:"customerId"`
	SupplierID      string                 `firestore:"supplierId"`
	Status          int                    `firestore:"status"`
	Products        []productLineDocument  `firestore:"products"`
	SupplyTime      time.Time              `firestore:"supplyTime"`
	Comment         string                 `firestore:"comment,omitempty"`
	SupplierComment string                 `firestore:"supplierComment,omitempty"`
	Invoice         string                 `firestore:"invoice,omitempty"`
	Boxes           int                    `firestore:"boxes,omitempty"`
	CreatedAt       time.Time              `firestore:"createdAt"`
	ModifiedAt      time.Time              `firestore:"modifiedAt"`
	ChangeLog       []changeRecordDocument `firestore:"changeLog"`
	AlertFlags      alertFlagsDocument     `firestore:"alertFlags"`
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
type OrderRepository struct {
	base *pfirestore.BaseRepository[domain.Order]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository(provider, ordersCollection, decodeOrder)
	return &OrderRepository{base: base}, nil
}

// FindByID fetches one order including its change log.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	return r.base.Get(ctx, orderID)
}

// Create writes a new order document, failing when the ID already exists.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	return r.base.Create(ctx, order.ID, encodeOrder(order))
}

// Update replaces the order document. Callers extend the change log before
// updating; prior entries are carried over verbatim so the log is effectively
// append-only under the optimistic transaction guarding the write.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	return r.base.Set(ctx, order.ID, encodeOrder(order))
}

// List returns orders owned by one side of a business relationship.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	field := "customerId"
	if filter.Side == domain.SideSupplier {
		field = "supplierId"
	}
	return r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where(field, "==", strings.TrimSpace(filter.BusinessID))
		if len(filter.Statuses) > 0 {
			codes := make([]int, 0, len(filter.Statuses))
			for _, s := range filter.Statuses {
				codes = append(codes, int(s))
			}
			q = q.Where("status", "in", codes)
		}
		q = q.OrderBy("createdAt", firestore.Desc)
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
}

// ListStaleUnopened implements the stale-unopened compliance query.
func (r *OrderRepository) ListStaleUnopened(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	return r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.
			Where("status", "in", statusCodesNotOpened).
			Where("alertFlags.staleUnopened", "==", false).
			Where("createdAt", "<", cutoff.UTC())
	})
}

// ListApproachingSupply implements the approaching-supply compliance query.
func (r *OrderRepository) ListApproachingSupply(ctx context.Context, deadline time.Time) ([]domain.Order, error) {
	return r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.
			Where("status", "in", statusCodesNotFinalApproved).
			Where("alertFlags.supplyApproaching", "==", false).
			Where("supplyTime", "<", deadline.UTC())
	})
}

// SetAlertFlag flips a one-shot compliance flag without touching other fields.
func (r *OrderRepository) SetAlertFlag(ctx context.Context, orderID string, kind domain.ComplianceAlertKind) error {
	path := "alertFlags.staleUnopened"
	if kind == domain.AlertSupplyApproaching {
		path = "alertFlags.supplyApproaching"
	}
	return r.base.Update(ctx, orderID, []firestore.Update{{Path: path, Value: true}})
}

func decodeOrder(snap *firestore.DocumentSnapshot) (domain.Order, error) {
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:         snap.Ref.ID,
		CustomerID: doc.CustomerID,
		SupplierID: doc.SupplierID,
		Status:     domain.OrderStatus(doc.Status),
		Data: domain.OrderData{
			SupplyTime:      doc.SupplyTime,
			Comment:         doc.Comment,
			SupplierComment: doc.SupplierComment,
			Invoice:         doc.Invoice,
			Boxes:           doc.Boxes,
		},
		CreatedAt:  doc.CreatedAt,
		ModifiedAt: doc.ModifiedAt,
		AlertFlags: domain.ComplianceFlags{
			StaleUnopened:     doc.AlertFlags.StaleUnopened,
			SupplyApproaching: doc.AlertFlags.SupplyApproaching,
		},
	}

	for _, p := range doc.Products {
		order.Data.Products = append(order.Data.Products, domain.ProductLine(p))
	}
	for _, rec := range doc.ChangeLog {
		order.ChangeLog = append(order.ChangeLog, decodeChangeRecord(rec))
	}
	return order, nil
}

func encodeOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		CustomerID:      order.CustomerID,
		SupplierID:      order.SupplierID,
		Status:          int(order.Status),
		SupplyTime:      order.Data.SupplyTime.UTC(),
		Comment:         order.Data.Comment,
		SupplierComment: order.Data.SupplierComment,
		Invoice:         order.Data.Invoice,
		Boxes:           order.Data.Boxes,
		CreatedAt:       order.CreatedAt.UTC(),
		ModifiedAt:      order.ModifiedAt.UTC(),
		AlertFlags: alertFlagsDocument{
			StaleUnopened:     order.AlertFlags.StaleUnopened,
			SupplyApproaching: order.AlertFlags.SupplyApproaching,
		},
	}
	for _, p := range order.Data.Products {
		doc.Products = append(doc.Products, productLineDocument(p))
	}
	for _, rec := range order.ChangeLog {
		doc.ChangeLog = append(doc.ChangeLog, encodeChangeRecord(rec))
	}
	return doc
}

func encodeChangeRecord(rec domain.ChangeRecord) changeRecordDocument {
	doc := changeRecordDocument{
		ID:              rec.ID,
		ActorID:         rec.ActorID,
		ActorSide:       string(rec.ActorSide),
		Timestamp:       rec.Timestamp.UTC(),
		ResultingStatus: int(rec.ResultingStatus),
		HasChanges:      rec.HasChanges,
		SupplyTime:      encodeTimeChange(rec.SupplyTime),
		Comment:         encodeFieldChange(rec.Comment),
		SupplierComment: encodeFieldChange(rec.SupplierComment),
		TotalPrice:      encodeValueChange(rec.TotalPrice),
	}
	for _, pc := range rec.Products {
		doc.Products = append(doc.Products, productChangeDocument{
			ProductID: pc.ProductID,
			Name:      pc.Name,
			Type:      pc.Type,
			Kind:      string(pc.Kind),
			Amount:    encodeValueChange(pc.Amount),
			Price:     encodeValueChange(pc.Price),
			Comment:   encodeFieldChange(pc.Comment),
		})
	}
	return doc
}

func decodeChangeRecord(doc changeRecordDocument) domain.ChangeRecord {
	rec := domain.ChangeRecord{
		ID:              doc.ID,
		ActorID:         doc.ActorID,
		ActorSide:       domain.Side(doc.ActorSide),
		Timestamp:       doc.Timestamp,
		ResultingStatus: domain.OrderStatus(doc.ResultingStatus),
		ChangeSet: domain.ChangeSet{
			HasChanges:      doc.HasChanges,
			SupplyTime:      decodeTimeChange(doc.SupplyTime),
			Comment:         decodeFieldChange(doc.Comment),
			SupplierComment: decodeFieldChange(doc.SupplierComment),
			TotalPrice:      decodeValueChange(doc.TotalPrice),
		},
	}
	for _, pc := range doc.Products {
		rec.Products = append(rec.Products, domain.ProductChange{
			ProductID: pc.ProductID,
			Name:      pc.Name,
			Type:      pc.Type,
			Kind:      domain.ProductChangeKind(pc.Kind),
			Amount:    decodeValueChange(pc.Amount),
			Price:     decodeValueChange(pc.Price),
			Comment:   decodeFieldChange(pc.Comment),
		})
	}
	return rec
}

func encodeFieldChange(fc *domain.FieldChange) *fieldChangeDocument {
	if fc == nil {
		return nil
	}
	return &fieldChangeDocument{Kind: string(fc.Kind), From: fc.From, To: fc.To}
}

func decodeFieldChange(doc *fieldChangeDocument) *domain.FieldChange {
	if doc == nil {
		return nil
	}
	return &domain.FieldChange{Kind: domain.FieldChangeKind(doc.Kind), From: doc.From, To: doc.To}
}

func encodeTimeChange(tc *domain.TimeChange) *timeChangeDocument {
	if tc == nil {
		return nil
	}
	return &timeChangeDocument{From: tc.From.UTC(), To: tc.To.UTC()}
}

func decodeTimeChange(doc *timeChangeDocument) *domain.TimeChange {
	if doc == nil {
		return nil
	}
	return &domain.TimeChange{From: doc.From, To: doc.To}
}

func encodeValueChange(vc *domain.ValueChange) *valueChangeDocument {
	if vc == nil {
		return nil
	}
	return &valueChangeDocument{From: vc.From, To: vc.To}
}

func decodeValueChange(doc *valueChangeDocument) *domain.ValueChange {
	if doc == nil {
		return nil
	}
	return &domain.ValueChange{From: doc.From, To: doc.To}
}
