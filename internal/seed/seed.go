// Package seed loads catalog, venue and customer fixtures into an empty
// database for local development and demos.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"

	"gopkg.in/yaml.v3"
)

// Fixtures is the YAML fixture document
type Fixtures struct {
	Venues    []VenueFixture    `yaml:"venues"`
	Products  []ProductFixture  `yaml:"products"`
	Customers []CustomerFixture `yaml:"customers"`
}

type VenueFixture struct {
	Name string `yaml:"name"`
	// Products lists SKUs sellable at the venue
	Products []string `yaml:"products"`
}

type ProductFixture struct {
	ID           int64    `yaml:"id"`
	SKU          string   `yaml:"sku"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Manufacturer string   `yaml:"manufacturer"`
	Category     string   `yaml:"category"`
	Pattern      string   `yaml:"pattern"`
	Collection   string   `yaml:"collection"`
	QtyAvailable int      `yaml:"qty_available"`
	Quickship    bool     `yaml:"quickship"`
	Images       []string `yaml:"images"`
}

type CustomerFixture struct {
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
	SeePrices bool   `yaml:"see_prices"`
	// Venues lists venue names the customer is associated with
	Venues []string `yaml:"venues"`
}

// Summary counts what Apply wrote
type Summary struct {
	Venues      int
	Products    int
	Customers   int
	Attachments int
}

// LoadFile reads and parses a fixture file
func LoadFile(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML fixtures and checks cross references
func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that every referenced venue and SKU is declared once
func (f *Fixtures) Validate() error {
	venues := make(map[string]bool)
	for _, v := range f.Venues {
		if v.Name == "" {
			return errors.New("venue without a name")
		}
		if venues[v.Name] {
			return fmt.Errorf("duplicate venue %q", v.Name)
		}
		venues[v.Name] = true
	}

	skus := make(map[string]bool)
	for _, p := range f.Products {
		if p.SKU == "" || p.Title == "" {
			return fmt.Errorf("product %d needs a sku and a title", p.ID)
		}
		if skus[p.SKU] {
			return fmt.Errorf("duplicate sku %q", p.SKU)
		}
		skus[p.SKU] = true
	}

	for _, v := range f.Venues {
		for _, sku := range v.Products {
			if !skus[sku] {
				return fmt.Errorf("venue %q references unknown sku %q", v.Name, sku)
			}
		}
	}
	for _, c := range f.Customers {
		if c.Email == "" {
			return errors.New("customer without an email")
		}
		for _, name := range c.Venues {
			if !venues[name] {
				return fmt.Errorf("customer %q references unknown venue %q", c.Email, name)
			}
		}
	}
	return nil
}

// Apply writes the fixtures. Customers whose email already exists are
// reused rather than duplicated.
func Apply(ctx context.Context, s *store.Store, f *Fixtures) (*Summary, error) {
	var sum Summary

	productIDs := make(map[string]int64, len(f.Products))
	for _, p := range f.Products {
		product := &models.Product{
			ID:           p.ID,
			SKU:          p.SKU,
			Title:        p.Title,
			Description:  p.Description,
			Manufacturer: p.Manufacturer,
			Category:     p.Category,
			Pattern:      p.Pattern,
			Collection:   p.Collection,
			QtyAvailable: p.QtyAvailable,
			Quickship:    p.Quickship,
			Images:       p.Images,
		}
		if err := s.CreateProduct(ctx, product); err != nil {
			return &sum, fmt.Errorf("product %s: %w", p.SKU, err)
		}
		productIDs[p.SKU] = product.ID
		sum.Products++
	}

	venueIDs := make(map[string]int64, len(f.Venues))
	for _, v := range f.Venues {
		venue := &models.Venue{Name: v.Name}
		if err := s.CreateVenue(ctx, venue); err != nil {
			return &sum, fmt.Errorf("venue %s: %w", v.Name, err)
		}
		venueIDs[v.Name] = venue.ID
		sum.Venues++

		for _, sku := range v.Products {
			if err := s.AttachProductToVenue(ctx, venue.ID, productIDs[sku]); err != nil {
				return &sum, fmt.Errorf("venue %s product %s: %w", v.Name, sku, err)
			}
			sum.Attachments++
		}
	}

	for _, c := range f.Customers {
		customer, err := s.GetCustomerByEmail(ctx, c.Email)
		if errors.Is(err, store.ErrNotFound) {
			customer = &models.Customer{Email: c.Email, SeePrices: c.SeePrices}
			if c.Phone != "" {
				phone := c.Phone
				customer.Phone = &phone
			}
			if err := s.CreateCustomer(ctx, customer); err != nil {
				return &sum, fmt.Errorf("customer %s: %w", c.Email, err)
			}
			sum.Customers++
		} else if err != nil {
			return &sum, err
		}

		for _, name := range c.Venues {
			if err := s.AttachVenue(ctx, customer.ID, venueIDs[name]); err != nil {
				return &sum, fmt.Errorf("customer %s venue %s: %w", c.Email, name, err)
			}
			sum.Attachments++
		}
	}

	return &sum, nil
}
