package service

import (
	"context"
	"fmt"
	"strconv"

	"storefront-orders/internal/models"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

// CartService manages the customer's cart
type CartService struct {
	store  CartStore
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store CartStore) *CartService {
	return &CartService{store: store, logger: util.GetLogger()}
}

// AddCartItemRequest adds a product to the cart
type AddCartItemRequest struct {
	ProductID int64      `json:"productId"`
	Quantity  int        `json:"quantity"`
	Price     int64      `json:"price"`
	VenueID   FlexString `json:"venueId"`
}

// Items returns the customer's cart items
func (s *CartService) Items(ctx context.Context, customerID int64) ([]models.CartItem, error) {
	cart, err := s.store.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return s.store.ListCartItems(ctx, cart.ID)
}

// AddItem snapshots the product's SKU and title into a new cart item. A
// venue that does not parse is stored as "0", meaning unassigned.
func (s *CartService) AddItem(ctx context.Context, customerID int64, req *AddCartItemRequest) (*models.CartItem, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if req.ProductID <= 0 || req.Quantity < 1 || req.Price < 0 {
		return nil, Invalid("productId and a quantity of at least 1 are required")
	}

	product, err := s.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	venueID := "0"
	if id, ok := ParseVenueID(req.VenueID.String()); ok {
		venueID = strconv.FormatInt(id, 10)
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		SKU:       product.SKU,
		Title:     product.Title,
		Quantity:  req.Quantity,
		Price:     req.Price,
		VenueID:   venueID,
	}
	if err := s.store.AddCartItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes one item from the customer's cart
func (s *CartService) RemoveItem(ctx context.Context, customerID, itemID int64) error {
	cart, err := s.store.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	return s.store.DeleteCartItem(ctx, cart.ID, itemID)
}

// Clear empties the customer's cart
func (s *CartService) Clear(ctx context.Context, customerID int64) error {
	cart, err := s.store.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	n, err := s.store.ClearCart(ctx, cart.ID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.logger.Debug("Cart cleared", zap.Int64("customer_id", customerID), zap.Int64("removed", n))
	return nil
}
