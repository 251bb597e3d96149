package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-orders/internal/models"
)

const cartItemColumns = `id, cart_id, product_id, sku, title, quantity, price, venue_id, created_at`

// GetOrCreateCart returns the customer's cart, creating it on first use
func (s *Store) GetOrCreateCart(ctx context.Context, customerID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, s.rebind("SELECT id, customer_id FROM carts WHERE customer_id = ?"), customerID)
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO carts (customer_id) VALUES (?) ON CONFLICT DO NOTHING"), customerID); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	err = s.db.GetContext(ctx, &cart, s.rebind("SELECT id, customer_id FROM carts WHERE customer_id = ?"), customerID)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListCartItems returns the items in a cart in insertion order
func (s *Store) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := s.db.SelectContext(ctx, &items, s.rebind(
		"SELECT "+cartItemColumns+" FROM cart_items WHERE cart_id = ? ORDER BY id"), cartID)
	return items, err
}

// AddCartItem inserts a cart item
func (s *Store) AddCartItem(ctx context.Context, item *models.CartItem) error {
	item.CreatedAt = now()
	return s.db.GetContext(ctx, &item.ID, s.rebind(`
		INSERT INTO cart_items (cart_id, product_id, sku, title, quantity, price, venue_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		item.CartID, item.ProductID, item.SKU, item.Title, item.Quantity, item.Price, item.VenueID, item.CreatedAt)
}

// DeleteCartItem removes one item from a cart
func (s *Store) DeleteCartItem(ctx context.Context, cartID, itemID int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM cart_items WHERE id = ? AND cart_id = ?"), itemID, cartID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// ClearCart removes every item from a cart
func (s *Store) ClearCart(ctx context.Context, cartID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM cart_items WHERE cart_id = ?"), cartID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteCartItemsForVenue removes the customer's cart items assigned to venueID
func (s *Store) DeleteCartItemsForVenue(ctx context.Context, customerID int64, venueID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM cart_items
		WHERE venue_id = ?
		  AND cart_id IN (SELECT id FROM carts WHERE customer_id = ?)`),
		venueID, customerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
