package worker

import (
	"context"
	"errors"

	"storefront-orders/internal/broker"
	"storefront-orders/internal/models"
	"storefront-orders/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageSource is the consumer side of a topic
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// VendorStatusHandler applies one vendor status event
type VendorStatusHandler interface {
	HandleVendorEvent(ctx context.Context, event *models.VendorOrderStatusEvent) error
}

// VendorStatusWorker feeds vendor status events from Kafka into the order
// status synchronizer
type VendorStatusWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewVendorStatusWorker creates a new vendor status worker
func NewVendorStatusWorker(consumer MessageSource, statuses VendorStatusHandler) *VendorStatusWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnVendorOrderStatus(statuses.HandleVendorEvent)

	return &VendorStatusWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start consumes until ctx is cancelled. Messages that cannot be decoded
// are logged and skipped so one bad payload does not stall the partition.
func (w *VendorStatusWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting vendor status worker")

	err := w.consumer.StartConsuming(ctx, w.handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *VendorStatusWorker) handle(ctx context.Context, msg kafka.Message) error {
	if err := w.eventHandler.HandleMessage(ctx, msg); err != nil {
		w.logger.Error("Dropping vendor status message",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
	}
	return nil
}

// Stop stops the worker
func (w *VendorStatusWorker) Stop() error {
	w.logger.Info("Stopping vendor status worker")
	return w.consumer.Close()
}
