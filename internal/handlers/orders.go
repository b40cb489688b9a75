package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
	"github.com/koderius/ScaleSense-sub000/internal/platform/httpx"
	"github.com/koderius/ScaleSense-sub000/internal/platform/requestctx"
	"github.com/koderius/ScaleSense-sub000/internal/repositories"
	"github.com/koderius/ScaleSense-sub000/internal/services"
)

const (
	actorHeader          = "X-Actor-ID"
	defaultOrderListSize = 20
	maxOrderListSize     = 100
	maxChangeBodySize    = 256 * 1024
)

// OrderHandlers exposes the order change-submission and read endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}/changes", h.submitChange)
}

type productLinePayload struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	UnitPrice float64 `json:"unitPrice"`
	Comment   string  `json:"comment,omitempty"`
}

type submitChangeRequest struct {
	RequestedStatus int                   `json:"requestedStatus"`
	SupplierID      string                `json:"supplierId,omitempty"`
	Products        *[]productLinePayload `json:"products,omitempty"`
	SupplyTime      *time.Time            `json:"supplyTime,omitempty"`
	Comment         *string               `json:"comment,omitempty"`
	SupplierComment *string               `json:"supplierComment,omitempty"`
	Invoice         *string               `json:"invoice,omitempty"`
	Boxes           *int                  `json:"boxes,omitempty"`
}

func (h *OrderHandlers) submitChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	actorID := strings.TrimSpace(r.Header.Get(actorHeader))
	if actorID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "actor header is required", http.StatusUnauthorized))
		return
	}
	ctx = requestctx.WithActorID(ctx, actorID)
	r = r.WithContext(ctx)

	var req submitChangeRequest
	body := io.LimitReader(r.Body, maxChangeBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cmd := services.SubmitOrderChangeCommand{
		OrderID:         chi.URLParam(r, "orderID"),
		ActorID:         actorID,
		RequestedStatus: domain.OrderStatus(req.RequestedStatus),
		SupplierID:      req.SupplierID,
		Fields: services.OrderFieldPatch{
			SupplyTime:      req.SupplyTime,
			Comment:         req.Comment,
			SupplierComment: req.SupplierComment,
			Invoice:         req.Invoice,
			Boxes:           req.Boxes,
		},
	}
	if req.Products != nil {
		products := make([]domain.ProductLine, 0, len(*req.Products))
		for _, p := range *req.Products {
			products = append(products, domain.ProductLine{
				ProductID: p.ProductID,
				Name:      p.Name,
				Type:      p.Type,
				Amount:    p.Amount,
				UnitPrice: p.UnitPrice,
				Comment:   p.Comment,
			})
		}
		cmd.Fields.Products = &products
	}

	record, err := h.orders.SubmitChange(ctx, cmd)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, changeRecordPayload(record))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orderPayload(order))
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := repositories.OrderListFilter{
		Side:       domain.Side(strings.TrimSpace(query.Get("side"))),
		BusinessID: strings.TrimSpace(query.Get("businessId")),
		Limit:      defaultOrderListSize,
	}

	for _, raw := range query["status"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			code, err := strconv.Atoi(part)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status filters must be numeric codes", http.StatusBadRequest))
				return
			}
			filter.Statuses = append(filter.Statuses, domain.OrderStatus(code))
		}
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be an integer", http.StatusBadRequest))
			return
		}
		switch {
		case limit <= 0:
			filter.Limit = defaultOrderListSize
		case limit > maxOrderListSize:
			filter.Limit = maxOrderListSize
		default:
			filter.Limit = limit
		}
	}

	orders, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	payload := make([]map[string]any, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, orderPayload(order))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": payload})
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrPermissionDenied):
		httpx.WriteError(ctx, w, httpx.NewError("permission_denied", err.Error(), http.StatusForbidden))
	case errors.Is(err, services.ErrInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrConflict):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrNoOpRejected):
		httpx.WriteError(ctx, w, httpx.NewError("no_op_rejected", err.Error(), http.StatusUnprocessableEntity))
	default:
		requestctx.Logger(ctx).Error("order request failed",
			zap.Error(err),
			zap.String("actor", requestctx.ActorID(ctx)),
		)
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal error", http.StatusInternalServerError))
	}
}

func orderPayload(order domain.Order) map[string]any {
	products := make([]productLinePayload, 0, len(order.Data.Products))
	for _, p := range order.Data.Products {
		products = append(products, productLinePayload{
			ProductID: p.ProductID,
			Name:      p.Name,
			Type:      p.Type,
			Amount:    p.Amount,
			UnitPrice: p.UnitPrice,
			Comment:   p.Comment,
		})
	}

	changeLog := make([]map[string]any, 0, len(order.ChangeLog))
	for _, record := range order.ChangeLog {
		changeLog = append(changeLog, changeRecordPayload(record))
	}

	return map[string]any{
		"id":         order.ID,
		"customerId": order.CustomerID,
		"supplierId": order.SupplierID,
		"status":     int(order.Status),
		"statusName": order.Status.String(),
		"products":   products,
		"supplyTime": order.Data.SupplyTime,
		"comment":    order.Data.Comment,
		"supplierComment": order.Data.SupplierComment,
		"invoice":    order.Data.Invoice,
		"boxes":      order.Data.Boxes,
		"totalPrice": order.Data.TotalPrice(),
		"createdAt":  order.CreatedAt,
		"modifiedAt": order.ModifiedAt,
		"changeLog":  changeLog,
	}
}

func changeRecordPayload(record domain.ChangeRecord) map[string]any {
	payload := map[string]any{
		"id":              record.ID,
		"actorId":         record.ActorID,
		"actorSide":       string(record.ActorSide),
		"timestamp":       record.Timestamp,
		"resultingStatus": int(record.ResultingStatus),
		"statusName":      record.ResultingStatus.String(),
		"hasChanges":      record.HasChanges,
	}

	if len(record.Products) > 0 {
		products := make([]map[string]any, 0, len(record.Products))
		for _, pc := range record.Products {
			entry := map[string]any{
				"productId": pc.ProductID,
				"name":      pc.Name,
				"type":      pc.Type,
				"kind":      string(pc.Kind),
			}
			if pc.Amount != nil {
				entry["amount"] = map[string]any{"from": pc.Amount.From, "to": pc.Amount.To}
			}
			if pc.Price != nil {
				entry["price"] = map[string]any{"from": pc.Price.From, "to": pc.Price.To}
			}
			if pc.Comment != nil {
				entry["comment"] = fieldChangeEntry(*pc.Comment)
			}
			products = append(products, entry)
		}
		payload["products"] = products
	}
	if record.SupplyTime != nil {
		payload["supplyTime"] = map[string]any{"from": record.SupplyTime.From, "to": record.SupplyTime.To}
	}
	if record.Comment != nil {
		payload["comment"] = fieldChangeEntry(*record.Comment)
	}
	if record.SupplierComment != nil {
		payload["supplierComment"] = fieldChangeEntry(*record.SupplierComment)
	}
	if record.TotalPrice != nil {
		payload["totalPrice"] = map[string]any{"from": record.TotalPrice.From, "to": record.TotalPrice.To}
	}
	return payload
}

func fieldChangeEntry(change domain.FieldChange) map[string]any {
	return map[string]any{
		"kind": string(change.Kind),
		"from": change.From,
		"to":   change.To,
	}
}
