package models

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusUpdated = "ORDER_STATUS_UPDATED"
	EventTypeVendorOrderStatus  = "VENDOR_ORDER_STATUS"
	EventTypeOTPIssued          = "OTP_ISSUED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order is persisted for a venue
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    int64          `json:"order_id"`
	VenueID    int64          `json:"venue_id"`
	CustomerID int64          `json:"customer_id"`
	CustomerPO string         `json:"customer_po,omitempty"`
	Items      []LineItemData `json:"items"`
}

// OrderStatusUpdatedEvent published after a vendor status is applied
type OrderStatusUpdatedEvent struct {
	BaseEvent
	OrderID        int64  `json:"order_id"`
	Status         string `json:"status"`
	TrxOrderID     string `json:"trx_order_id"`
	TrxOrderNumber string `json:"trx_order_number"`
}

// VendorOrderStatusEvent is pushed by the vendor integration onto the
// vendor topic. Field names and value rules match the HTTP update payload,
// so strings and numbers are both accepted.
type VendorOrderStatusEvent struct {
	BaseEvent
	OrderID        json.RawMessage `json:"id"`
	Status         json.RawMessage `json:"status"`
	TrxOrderID     json.RawMessage `json:"trx_order_id"`
	TrxOrderNumber json.RawMessage `json:"trx_order_number"`
}

// OTPIssuedEvent is consumed by the mailer
type OTPIssuedEvent struct {
	BaseEvent
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LineItemData represents line item data in events
type LineItemData struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}
