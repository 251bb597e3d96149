package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront-orders/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateCustomer inserts a customer. Emails are stored lowercased.
func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	customer.CreatedAt = now()

	return s.db.GetContext(ctx, &customer.ID, s.rebind(`
		INSERT INTO customers (email, phone, see_prices, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		customer.Email, customer.Phone, customer.SeePrices, customer.CreatedAt)
}

// GetCustomerByID retrieves a customer by ID
func (s *Store) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, s.rebind(
		"SELECT id, email, phone, see_prices, created_at FROM customers WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomerByEmail looks a customer up case-insensitively
func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, s.rebind(
		"SELECT id, email, phone, see_prices, created_at FROM customers WHERE LOWER(email) = LOWER(?)"),
		strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateVenue inserts a venue
func (s *Store) CreateVenue(ctx context.Context, venue *models.Venue) error {
	venue.CreatedAt = now()
	return s.db.GetContext(ctx, &venue.ID, s.rebind(
		"INSERT INTO venues (name, created_at) VALUES (?, ?) RETURNING id"),
		venue.Name, venue.CreatedAt)
}

// GetVenueByID retrieves a venue by ID
func (s *Store) GetVenueByID(ctx context.Context, id int64) (*models.Venue, error) {
	var venue models.Venue
	err := s.db.GetContext(ctx, &venue, s.rebind("SELECT id, name, created_at FROM venues WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("venue %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &venue, nil
}

// GetVenuesByIDs retrieves several venues. Missing ids are skipped.
func (s *Store) GetVenuesByIDs(ctx context.Context, ids []int64) ([]models.Venue, error) {
	if len(ids) == 0 {
		return []models.Venue{}, nil
	}

	query, args, err := sqlx.In("SELECT id, name, created_at FROM venues WHERE id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, err
	}

	venues := []models.Venue{}
	err = s.db.SelectContext(ctx, &venues, s.rebind(query), args...)
	return venues, err
}

// ListCustomerVenues returns the venues currently associated with a customer
func (s *Store) ListCustomerVenues(ctx context.Context, customerID int64) ([]models.Venue, error) {
	venues := []models.Venue{}
	err := s.db.SelectContext(ctx, &venues, s.rebind(`
		SELECT v.id, v.name, v.created_at
		FROM venues v
		JOIN customer_venues cv ON cv.venue_id = v.id
		WHERE cv.customer_id = ?
		ORDER BY v.id`), customerID)
	return venues, err
}

// CustomerHasVenue reports whether the customer is associated with the venue
func (s *Store) CustomerHasVenue(ctx context.Context, customerID, venueID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, s.rebind(
		"SELECT EXISTS(SELECT 1 FROM customer_venues WHERE customer_id = ? AND venue_id = ?)"),
		customerID, venueID)
	return exists, err
}

// AttachVenue associates a venue with a customer. Attaching twice is a no-op.
func (s *Store) AttachVenue(ctx context.Context, customerID, venueID int64) error {
	if _, err := s.GetCustomerByID(ctx, customerID); err != nil {
		return err
	}
	if _, err := s.GetVenueByID(ctx, venueID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO customer_venues (customer_id, venue_id) VALUES (?, ?) ON CONFLICT DO NOTHING"),
		customerID, venueID)
	return err
}

// DetachVenue removes a venue association. Orders and cart items are left alone.
func (s *Store) DetachVenue(ctx context.Context, customerID, venueID int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"DELETE FROM customer_venues WHERE customer_id = ? AND venue_id = ?"), customerID, venueID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("customer %d venue %d: %w", customerID, venueID, ErrNotFound)
	}
	return nil
}
