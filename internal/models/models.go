package models

import "time"

// Customer is a storefront account. Customers are created out-of-band.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	SeePrices bool      `db:"see_prices" json:"seePrices"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Venue is a delivery location a customer orders for
type Venue struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Product represents a product in the catalog
type Product struct {
	ID           int64     `db:"id" json:"id"`
	SKU          string    `db:"sku" json:"sku"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Manufacturer string    `db:"manufacturer" json:"manufacturer"`
	Category     string    `db:"category" json:"category"`
	Pattern      string    `db:"pattern" json:"pattern"`
	Collection   string    `db:"collection" json:"collection"`
	QtyAvailable int       `db:"qty_available" json:"qtyAvailable"`
	Quickship    bool      `db:"quickship" json:"quickship"`
	Images       []string  `db:"-" json:"images"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ProductImage is one image URL attached to a product
type ProductImage struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"productId"`
	URL       string `db:"url" json:"url"`
	Position  int    `db:"position" json:"position"`
}

// VenueProduct scopes which products are sellable at a venue
type VenueProduct struct {
	ID      int64 `db:"id" json:"id"`
	VenueID int64 `db:"venue_id" json:"venueId"`
}

// Cart is owned by exactly one customer
type Cart struct {
	ID         int64 `db:"id" json:"id"`
	CustomerID int64 `db:"customer_id" json:"customerId"`
}

// CartItem snapshots product data at the time it was added.
// VenueID is kept as the client sent it; "0" means unassigned.
type CartItem struct {
	ID        int64     `db:"id" json:"id"`
	CartID    int64     `db:"cart_id" json:"-"`
	ProductID int64     `db:"product_id" json:"productId"`
	SKU       string    `db:"sku" json:"sku"`
	Title     string    `db:"title" json:"title"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Price     int64     `db:"price" json:"price"`
	VenueID   string    `db:"venue_id" json:"venueId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Order represents a venue order
type Order struct {
	ID             int64     `db:"id" json:"id"`
	VenueID        int64     `db:"venue_id" json:"venueId"`
	Status         string    `db:"status" json:"status"`
	CustomerPO     *string   `db:"customer_po" json:"customerPo,omitempty"`
	Note           *string   `db:"note" json:"note,omitempty"`
	TrxOrderID     *string   `db:"trx_order_id" json:"trxOrderId,omitempty"`
	TrxOrderNumber *string   `db:"trx_order_number" json:"trxOrderNumber,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// LineItem is fixed when the order is created
type LineItem struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"orderId"`
	ProductID int64 `db:"product_id" json:"productId"`
	Quantity  int   `db:"quantity" json:"quantity"`
}

// OrderStatusNew is the status every order starts in. Anything after that
// is a vendor-defined string.
const OrderStatusNew = "new"
