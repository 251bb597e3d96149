package service

import (
	"context"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
)

// OrderStore is the persistence the order creator and readers need
type OrderStore interface {
	CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.LineItem) error
	ListCustomerVenues(ctx context.Context, customerID int64) ([]models.Venue, error)
	GetVenuesByIDs(ctx context.Context, ids []int64) ([]models.Venue, error)
	ListOrdersByVenueIDs(ctx context.Context, venueIDs []int64) ([]models.Order, error)
	ListOrdersByStatus(ctx context.Context, status string, venueIDs []int64) ([]models.Order, error)
	GetLineItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]models.LineItem, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// StatusStore applies vendor status updates
type StatusStore interface {
	UpdateOrderVendorStatus(ctx context.Context, orderID int64, status, trxOrderID, trxOrderNumber string) error
}

// VenueAccessStore backs the venue access checker
type VenueAccessStore interface {
	CustomerHasVenue(ctx context.Context, customerID, venueID int64) (bool, error)
	DeleteCartItemsForVenue(ctx context.Context, customerID int64, venueID string) (int64, error)
}

// OrderEvents publishes order lifecycle events
type OrderEvents interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusUpdated(ctx context.Context, event *models.OrderStatusUpdatedEvent) error
}

// LoginEvents publishes login codes for delivery
type LoginEvents interface {
	PublishOTPIssued(ctx context.Context, event *models.OTPIssuedEvent) error
}

// SubmitGuard provides idempotency records and a per-customer lock for
// order submission. Optional.
type SubmitGuard interface {
	GetIdempotencyKey(ctx context.Context, key string) ([]byte, error)
	SetIdempotencyKey(ctx context.Context, key string, value []byte, ttl time.Duration) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// CustomerLookup finds customers for login
type CustomerLookup interface {
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
}

// SessionStore holds login codes and sessions
type SessionStore interface {
	SaveOTP(ctx context.Context, email, codeHash string, ttl time.Duration) error
	GetOTP(ctx context.Context, email string) (string, int, error)
	IncrementOTPAttempts(ctx context.Context, email string) (int, error)
	DeleteOTP(ctx context.Context, email string) error
	CreateSession(ctx context.Context, token string, customerID int64, ttl time.Duration) error
	DeleteSession(ctx context.Context, token string) error
}

// CartStore backs the cart service
type CartStore interface {
	GetOrCreateCart(ctx context.Context, customerID int64) (*models.Cart, error)
	ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	AddCartItem(ctx context.Context, item *models.CartItem) error
	DeleteCartItem(ctx context.Context, cartID, itemID int64) error
	ClearCart(ctx context.Context, cartID int64) (int64, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// CatalogStore backs product browsing and venue administration
type CatalogStore interface {
	SearchProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListCustomerVenues(ctx context.Context, customerID int64) ([]models.Venue, error)
	CustomerHasVenue(ctx context.Context, customerID, venueID int64) (bool, error)
	ListVenueProducts(ctx context.Context, venueID int64) ([]models.Product, error)
	AttachVenue(ctx context.Context, customerID, venueID int64) error
	DetachVenue(ctx context.Context, customerID, venueID int64) error
	AttachProductToVenue(ctx context.Context, venueID, productID int64) error
}
