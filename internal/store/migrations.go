package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Migration represents a database schema migration. Up and Down use
// {{PK}} and {{TS}} placeholders filled in per dialect.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{Version: "1.0.0", Up: migrationV1Up, Down: migrationV1Down},
	{Version: "1.1.0", Up: migrationV11Up, Down: migrationV11Down},
}

const migrationV1Up = `
CREATE TABLE IF NOT EXISTS customers (
    id {{PK}},
    email TEXT NOT NULL UNIQUE,
    phone TEXT,
    see_prices BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS venues (
    id {{PK}},
    name TEXT NOT NULL,
    created_at {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS customer_venues (
    customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
    venue_id BIGINT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
    PRIMARY KEY (customer_id, venue_id)
);

CREATE TABLE IF NOT EXISTS products (
    id {{PK}},
    sku TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    manufacturer TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    pattern TEXT NOT NULL DEFAULT '',
    collection TEXT NOT NULL DEFAULT '',
    qty_available INTEGER NOT NULL DEFAULT 0,
    quickship BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS product_images (
    id {{PK}},
    product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS venue_products (
    id {{PK}},
    venue_id BIGINT NOT NULL UNIQUE REFERENCES venues(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS venue_product_items (
    venue_product_id BIGINT NOT NULL REFERENCES venue_products(id) ON DELETE CASCADE,
    product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    PRIMARY KEY (venue_product_id, product_id)
);

CREATE TABLE IF NOT EXISTS carts (
    id {{PK}},
    customer_id BIGINT NOT NULL UNIQUE REFERENCES customers(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS cart_items (
    id {{PK}},
    cart_id BIGINT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
    product_id BIGINT NOT NULL,
    sku TEXT NOT NULL,
    title TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    price BIGINT NOT NULL DEFAULT 0,
    venue_id TEXT NOT NULL DEFAULT '0',
    created_at {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    id {{PK}},
    venue_id BIGINT NOT NULL,
    status TEXT NOT NULL,
    customer_po TEXT,
    note TEXT,
    trx_order_id TEXT,
    trx_order_number TEXT,
    created_at {{TS}} NOT NULL,
    updated_at {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS line_items (
    id {{PK}},
    order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id BIGINT NOT NULL,
    quantity INTEGER NOT NULL
);
`

const migrationV1Down = `
DROP TABLE IF EXISTS line_items;
DROP TABLE IF EXISTS orders;
DROP TABLE IF EXISTS cart_items;
DROP TABLE IF EXISTS carts;
DROP TABLE IF EXISTS venue_product_items;
DROP TABLE IF EXISTS venue_products;
DROP TABLE IF EXISTS product_images;
DROP TABLE IF EXISTS products;
DROP TABLE IF EXISTS customer_venues;
DROP TABLE IF EXISTS venues;
DROP TABLE IF EXISTS customers;
`

const migrationV11Up = `
CREATE INDEX IF NOT EXISTS idx_orders_venue_created ON orders(venue_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_line_items_order ON line_items(order_id);
CREATE INDEX IF NOT EXISTS idx_cart_items_cart_venue ON cart_items(cart_id, venue_id);
CREATE INDEX IF NOT EXISTS idx_product_images_product ON product_images(product_id);
`

const migrationV11Down = `
DROP INDEX IF EXISTS idx_product_images_product;
DROP INDEX IF EXISTS idx_cart_items_cart_venue;
DROP INDEX IF EXISTS idx_line_items_order;
DROP INDEX IF EXISTS idx_orders_status;
DROP INDEX IF EXISTS idx_orders_venue_created;
`

func (s *Store) renderDDL(ddl string) string {
	pk, ts := "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	if s.dialect == DriverSQLite {
		pk, ts = "INTEGER PRIMARY KEY AUTOINCREMENT", "TIMESTAMP"
	}
	return strings.NewReplacer("{{PK}}", pk, "{{TS}}", ts).Replace(ddl)
}

// SchemaVersion returns the highest applied migration version, 0.0.0 if none
func (s *Store) SchemaVersion(ctx context.Context) (*semver.Version, error) {
	if _, err := s.db.ExecContext(ctx, s.renderDDL(
		`CREATE TABLE IF NOT EXISTS schema_version (version TEXT PRIMARY KEY, applied_at {{TS}} NOT NULL)`)); err != nil {
		return nil, fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var applied []string
	if err := s.db.SelectContext(ctx, &applied, "SELECT version FROM schema_version"); err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}

	current := semver.MustParse("0.0.0")
	for _, v := range applied {
		parsed, err := semver.NewVersion(v)
		if err != nil {
			return nil, fmt.Errorf("invalid schema version %s: %w", v, err)
		}
		if parsed.GreaterThan(current) {
			current = parsed
		}
	}
	return current, nil
}

// Migrate applies every migration newer than the current schema version.
// It returns the versions it applied.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, migration := range AllMigrations {
		version, err := semver.NewVersion(migration.Version)
		if err != nil {
			return applied, fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}
		if !current.LessThan(version) {
			continue
		}

		if _, err := s.db.ExecContext(ctx, s.renderDDL(migration.Up)); err != nil {
			return applied, fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}
		if _, err := s.db.ExecContext(ctx,
			s.rebind("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)"),
			migration.Version, now()); err != nil {
			return applied, fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		current = version
		applied = append(applied, migration.Version)
	}

	return applied, nil
}

// Rollback reverts the most recent migration
func (s *Store) Rollback(ctx context.Context) (string, error) {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return "", err
	}

	for i := len(AllMigrations) - 1; i >= 0; i-- {
		migration := AllMigrations[i]
		if !semver.MustParse(migration.Version).Equal(current) {
			continue
		}
		if _, err := s.db.ExecContext(ctx, s.renderDDL(migration.Down)); err != nil {
			return "", fmt.Errorf("failed to rollback migration %s: %w", migration.Version, err)
		}
		if _, err := s.db.ExecContext(ctx,
			s.rebind("DELETE FROM schema_version WHERE version = ?"), migration.Version); err != nil {
			return "", fmt.Errorf("failed to remove migration record %s: %w", migration.Version, err)
		}
		return migration.Version, nil
	}

	return "", fmt.Errorf("no migration to roll back from %s", current)
}
