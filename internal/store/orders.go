package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-orders/internal/models"

	"github.com/jmoiron/sqlx"
)

const orderColumns = `id, venue_id, status, customer_po, note, trx_order_id, trx_order_number, created_at, updated_at`

// CreateOrderWithItems writes an order and its line items in one transaction
func (s *Store) CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.LineItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := now()
	order.CreatedAt = ts
	order.UpdatedAt = ts

	err = tx.GetContext(ctx, &order.ID, tx.Rebind(`
		INSERT INTO orders (venue_id, status, customer_po, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		order.VenueID, order.Status, order.CustomerPO, order.Note, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.GetContext(ctx, &items[i].ID, tx.Rebind(`
			INSERT INTO line_items (order_id, product_id, quantity)
			VALUES (?, ?, ?)
			RETURNING id`),
			items[i].OrderID, items[i].ProductID, items[i].Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, s.rebind("SELECT "+orderColumns+" FROM orders WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderVendorStatus overwrites status and vendor identifiers.
// There is no version check; the last write wins.
func (s *Store) UpdateOrderVendorStatus(ctx context.Context, orderID int64, status, trxOrderID, trxOrderNumber string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE orders
		SET status = ?, trx_order_id = ?, trx_order_number = ?, updated_at = ?
		WHERE id = ?`),
		status, trxOrderID, trxOrderNumber, now(), orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return nil
}

// ListOrdersByVenueIDs returns orders for the given venues, newest first
func (s *Store) ListOrdersByVenueIDs(ctx context.Context, venueIDs []int64) ([]models.Order, error) {
	if len(venueIDs) == 0 {
		return []models.Order{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+orderColumns+" FROM orders WHERE venue_id IN (?) ORDER BY created_at DESC, id DESC", venueIDs)
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	err = s.db.SelectContext(ctx, &orders, s.rebind(query), args...)
	return orders, err
}

// ListOrdersByStatus returns orders with the given status, newest first.
// A nil venueIDs means every venue.
func (s *Store) ListOrdersByStatus(ctx context.Context, status string, venueIDs []int64) ([]models.Order, error) {
	orders := []models.Order{}

	if venueIDs == nil {
		err := s.db.SelectContext(ctx, &orders, s.rebind(
			"SELECT "+orderColumns+" FROM orders WHERE status = ? ORDER BY created_at DESC, id DESC"), status)
		return orders, err
	}
	if len(venueIDs) == 0 {
		return orders, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+orderColumns+" FROM orders WHERE status = ? AND venue_id IN (?) ORDER BY created_at DESC, id DESC",
		status, venueIDs)
	if err != nil {
		return nil, err
	}
	err = s.db.SelectContext(ctx, &orders, s.rebind(query), args...)
	return orders, err
}

// GetLineItemsByOrderID retrieves all line items for an order
func (s *Store) GetLineItemsByOrderID(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	items := []models.LineItem{}
	err := s.db.SelectContext(ctx, &items, s.rebind(
		"SELECT id, order_id, product_id, quantity FROM line_items WHERE order_id = ? ORDER BY id"), orderID)
	return items, err
}

// GetLineItemsByOrderIDs retrieves line items for several orders in one query
func (s *Store) GetLineItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]models.LineItem, error) {
	if len(orderIDs) == 0 {
		return []models.LineItem{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT id, order_id, product_id, quantity FROM line_items WHERE order_id IN (?) ORDER BY order_id, id", orderIDs)
	if err != nil {
		return nil, err
	}

	items := []models.LineItem{}
	err = s.db.SelectContext(ctx, &items, s.rebind(query), args...)
	return items, err
}
