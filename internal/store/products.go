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

const productColumns = `id, sku, title, description, manufacturer, category, pattern, collection, qty_available, quickship, created_at`

// ProductFilter narrows a catalog search. Empty fields are ignored.
type ProductFilter struct {
	Query        string
	Manufacturer string
	Category     string
	Pattern      string
	Collection   string
	Quickship    *bool
	Limit        int
	Offset       int
}

// CreateProduct inserts a product and its images. A non-zero ID is kept,
// since catalog ids usually come from the vendor feed.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	product.CreatedAt = now()
	args := []interface{}{product.SKU, product.Title, product.Description, product.Manufacturer,
		product.Category, product.Pattern, product.Collection, product.QtyAvailable, product.Quickship, product.CreatedAt}

	if product.ID != 0 {
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO products (id, sku, title, description, manufacturer, category, pattern, collection, qty_available, quickship, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			append([]interface{}{product.ID}, args...)...)
	} else {
		err = tx.GetContext(ctx, &product.ID, tx.Rebind(`
			INSERT INTO products (sku, title, description, manufacturer, category, pattern, collection, qty_available, quickship, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`), args...)
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	for i, url := range product.Images {
		if _, err := tx.ExecContext(ctx, tx.Rebind(
			"INSERT INTO product_images (product_id, url, position) VALUES (?, ?, ?)"),
			product.ID, url, i); err != nil {
			return fmt.Errorf("failed to insert product image: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteProduct removes a product with its images and venue assignments.
// Line items and cart items keep pointing at the old id.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM product_images WHERE product_id = ?"), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM venue_product_items WHERE product_id = ?"), id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM products WHERE id = ?"), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, s.rebind("SELECT "+productColumns+" FROM products WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	products := []models.Product{product}
	if err := s.attachImages(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// GetProductsByIDs retrieves multiple products by IDs. Missing ids are skipped.
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT "+productColumns+" FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	err = s.db.SelectContext(ctx, &products, s.rebind(query), args...)
	return products, err
}

// likeEscaper makes user input match literally inside a LIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SearchProducts runs a catalog search
func (s *Store) SearchProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	var (
		where []string
		args  []interface{}
	)

	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		where = append(where, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(sku) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	tags := []struct{ column, value string }{
		{"manufacturer", f.Manufacturer},
		{"category", f.Category},
		{"pattern", f.Pattern},
		{"collection", f.Collection},
	}
	for _, tag := range tags {
		if tag.value != "" {
			where = append(where, "LOWER("+tag.column+") = LOWER(?)")
			args = append(args, tag.value)
		}
	}
	if f.Quickship != nil {
		where = append(where, "quickship = ?")
		args = append(args, *f.Quickship)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY title, id LIMIT ? OFFSET ?"

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, max(f.Offset, 0))

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, s.rebind(query), args...); err != nil {
		return nil, err
	}
	if err := s.attachImages(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) attachImages(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	byID := make(map[int64]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
		byID[products[i].ID] = i
		products[i].Images = []string{}
	}

	query, args, err := sqlx.In(
		"SELECT id, product_id, url, position FROM product_images WHERE product_id IN (?) ORDER BY product_id, position", ids)
	if err != nil {
		return err
	}

	var images []models.ProductImage
	if err := s.db.SelectContext(ctx, &images, s.rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load product images: %w", err)
	}
	for _, img := range images {
		i := byID[img.ProductID]
		products[i].Images = append(products[i].Images, img.URL)
	}
	return nil
}

// AttachProductToVenue makes a product sellable at a venue, creating the
// venue's product grouping the first time it is needed.
func (s *Store) AttachProductToVenue(ctx context.Context, venueID, productID int64) error {
	if _, err := s.GetVenueByID(ctx, venueID); err != nil {
		return err
	}
	if _, err := s.GetProductByID(ctx, productID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var vp models.VenueProduct
	err = tx.GetContext(ctx, &vp, tx.Rebind("SELECT id, venue_id FROM venue_products WHERE venue_id = ?"), venueID)
	if errors.Is(err, sql.ErrNoRows) {
		vp.VenueID = venueID
		err = tx.GetContext(ctx, &vp.ID, tx.Rebind("INSERT INTO venue_products (venue_id) VALUES (?) RETURNING id"), venueID)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve venue products: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(
		"INSERT INTO venue_product_items (venue_product_id, product_id) VALUES (?, ?) ON CONFLICT DO NOTHING"),
		vp.ID, productID); err != nil {
		return fmt.Errorf("failed to attach product: %w", err)
	}

	return tx.Commit()
}

// ListVenueProducts returns the products sellable at a venue
func (s *Store) ListVenueProducts(ctx context.Context, venueID int64) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, s.rebind(`
		SELECT p.id, p.sku, p.title, p.description, p.manufacturer, p.category, p.pattern, p.collection,
		       p.qty_available, p.quickship, p.created_at
		FROM products p
		JOIN venue_product_items vpi ON vpi.product_id = p.id
		JOIN venue_products vp ON vp.id = vpi.venue_product_id
		WHERE vp.venue_id = ?
		ORDER BY p.title, p.id`), venueID)
	if err != nil {
		return nil, err
	}
	if err := s.attachImages(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}
