package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-orders/internal/models"
	"storefront-orders/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	orders        EventWriter
	notifications EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(orders, notifications EventWriter) *EventPublisher {
	return &EventPublisher{orders: orders, notifications: notifications}
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// PublishOrderStatusUpdated publishes OrderStatusUpdated event
func (ep *EventPublisher) PublishOrderStatusUpdated(ctx context.Context, event *models.OrderStatusUpdatedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// PublishOTPIssued hands a login code to the mailer
func (ep *EventPublisher) PublishOTPIssued(ctx context.Context, event *models.OTPIssuedEvent) error {
	return ep.notifications.PublishEvent(ctx, "otp-"+event.Email, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onVendorOrderStatus func(context.Context, *models.VendorOrderStatusEvent) error
	logger              *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnVendorOrderStatus registers a handler for vendor status events
func (eh *EventHandler) OnVendorOrderStatus(handler func(context.Context, *models.VendorOrderStatusEvent) error) {
	eh.onVendorOrderStatus = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeVendorOrderStatus:
		if eh.onVendorOrderStatus != nil {
			var event models.VendorOrderStatusEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal VendorOrderStatus event: %w", err)
			}
			return eh.onVendorOrderStatus(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
