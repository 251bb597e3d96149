package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Update sources, used as a metric label
const (
	SourceHTTP  = "http"
	SourceKafka = "kafka"
)

// StatusUpdate is one vendor status record. ID is echoed back as sent.
// Fields stay raw so a malformed record fails on its own in apply instead
// of failing the decode of the whole batch.
type StatusUpdate struct {
	ID             json.RawMessage `json:"id"`
	Status         json.RawMessage `json:"status"`
	TrxOrderID     json.RawMessage `json:"trx_order_id"`
	TrxOrderNumber json.RawMessage `json:"trx_order_number"`
}

// UnmarshalJSON never fails. A record that is not an object decodes to an
// empty update, which apply reports as missing fields.
func (u *StatusUpdate) UnmarshalJSON(b []byte) error {
	type plain StatusUpdate
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		*u = StatusUpdate{}
		return nil
	}
	*u = StatusUpdate(p)
	return nil
}

// StatusUpdateResult reports the outcome of one record
type StatusUpdateResult struct {
	ID      json.RawMessage `json:"id"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
}

// StatusSyncService applies vendor-side order status updates
type StatusSyncService struct {
	store  StatusStore
	events OrderEvents
	logger *zap.Logger
}

// NewStatusSyncService creates a new status synchronizer
func NewStatusSyncService(store StatusStore, events OrderEvents) *StatusSyncService {
	return &StatusSyncService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// ApplyUpdates applies each record on its own. A bad record is reported in
// its result entry and never aborts the batch.
func (s *StatusSyncService) ApplyUpdates(ctx context.Context, source string, updates []StatusUpdate) []StatusUpdateResult {
	ctx, span := util.StartSpan(ctx, "StatusSyncService.ApplyUpdates")
	defer span.End()

	results := make([]StatusUpdateResult, 0, len(updates))
	for _, u := range updates {
		results = append(results, s.apply(ctx, source, u))
	}
	return results
}

func (s *StatusSyncService) apply(ctx context.Context, source string, u StatusUpdate) StatusUpdateResult {
	result := StatusUpdateResult{ID: u.ID}
	if len(result.ID) == 0 {
		result.ID = json.RawMessage("null")
	}

	orderID, idOK := parseOrderID(u.ID)
	status, statusOK := scalarField(u.Status)
	trxID, trxIDOK := scalarField(u.TrxOrderID)
	trxNumber, trxNumberOK := scalarField(u.TrxOrderNumber)
	if !idOK || !statusOK || !trxIDOK || !trxNumberOK {
		util.StatusUpdatesTotal.WithLabelValues(source, "invalid").Inc()
		result.Message = "Missing required fields"
		return result
	}

	if err := s.store.UpdateOrderVendorStatus(ctx, orderID, status, trxID, trxNumber); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.StatusUpdatesTotal.WithLabelValues(source, "not_found").Inc()
			result.Message = "Order not found"
			return result
		}
		util.StatusUpdatesTotal.WithLabelValues(source, "error").Inc()
		s.logger.Error("Failed to update order status",
			zap.Int64("order_id", orderID),
			zap.String("source", source),
			zap.Error(err))
		result.Message = "Failed to update order"
		return result
	}

	util.StatusUpdatesTotal.WithLabelValues(source, "updated").Inc()
	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", status),
		zap.String("trx_order_number", trxNumber))

	event := &models.OrderStatusUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusUpdated,
			Timestamp: time.Now(),
		},
		OrderID:        orderID,
		Status:         status,
		TrxOrderID:     trxID,
		TrxOrderNumber: trxNumber,
	}
	if err := s.events.PublishOrderStatusUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusUpdated event", zap.Int64("order_id", orderID), zap.Error(err))
	}

	result.Success = true
	result.Message = "Order updated successfully"
	return result
}

// HandleVendorEvent applies a status update that arrived on the vendor topic
func (s *StatusSyncService) HandleVendorEvent(ctx context.Context, event *models.VendorOrderStatusEvent) error {
	result := s.apply(ctx, SourceKafka, StatusUpdate{
		ID:             event.OrderID,
		Status:         event.Status,
		TrxOrderID:     event.TrxOrderID,
		TrxOrderNumber: event.TrxOrderNumber,
	})
	if !result.Success {
		s.logger.Warn("Vendor status event rejected",
			zap.String("event_id", event.EventID),
			zap.ByteString("order_id", event.OrderID),
			zap.String("reason", result.Message))
	}
	return nil
}

// parseOrderID accepts a positive integer sent as a JSON number or string
func parseOrderID(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	s, ok := scalarField(raw)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// scalarField reads a non-empty JSON string or number. Objects, arrays,
// booleans and null are rejected.
func scalarField(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	var f FlexString
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", false
	}
	return f.String(), f != ""
}
