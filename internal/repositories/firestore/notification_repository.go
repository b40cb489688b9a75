package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
	pfirestore "github.com/koderius/ScaleSense-sub000/internal/platform/firestore"
)

const notificationsCollection = "notifications"

type notificationContentDocument struct {
	OrderID     string `firestore:"orderId"`
	OrderStatus int    `firestore:"orderStatus"`
	AlertKind   string `firestore:"alertKind,omitempty"`
}

type notificationDocument struct {
	TargetSide       string                      `firestore:"targetSide"`
	TargetBusinessID string                      `firestore:"targetBusinessId"`
	Code             int                         `firestore:"code"`
	Timestamp        time.Time                   `firestore:"timestamp"`
	RefSide          string                      `firestore:"refSide"`
	RefBusinessID    string                      `firestore:"refBusinessId"`
	Content          notificationContentDocument `firestore:"content"`
}

// NotificationRepository is the Firestore-backed transactional outbox. An
// Enqueue inside a unit of work commits atomically with the order mutation,
// giving the dispatch layer an at-least-once source to drain.
type NotificationRepository struct {
	base *pfirestore.BaseRepository[domain.Notification]
}

// NewNotificationRepository constructs a Firestore-backed notification outbox.
func NewNotificationRepository(provider *pfirestore.Provider) (*NotificationRepository, error) {
	if provider == nil {
		return nil, errors.New("notification repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[domain.Notification](provider, notificationsCollection, nil)
	return &NotificationRepository{base: base}, nil
}

// Enqueue writes one outbox document under the notification's own ID.
func (r *NotificationRepository) Enqueue(ctx context.Context, notification domain.Notification) error {
	if strings.TrimSpace(notification.ID) == "" {
		return pfirestore.WrapError("notifications.enqueue", errors.New("notification id is required"))
	}
	doc := notificationDocument{
		TargetSide:       string(notification.TargetSide),
		TargetBusinessID: notification.TargetBusinessID,
		Code:             int(notification.Code),
		Timestamp:        notification.Timestamp.UTC(),
		RefSide:          string(notification.RefSide),
		RefBusinessID:    notification.RefBusinessID,
		Content: notificationContentDocument{
			OrderID:     notification.Content.OrderID,
			OrderStatus: int(notification.Content.OrderStatus),
			AlertKind:   string(notification.Content.AlertKind),
		},
	}
	return r.base.Create(ctx, notification.ID, doc)
}
