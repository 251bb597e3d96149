package service

import (
	"context"
	"fmt"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

// CatalogService serves product search and venue catalogs, and the venue
// administration used by back-office tooling.
type CatalogService struct {
	store  CatalogStore
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store, logger: util.GetLogger()}
}

func (s *CatalogService) Search(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Search")
	defer span.End()

	products, err := s.store.SearchProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) Product(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetProductByID(ctx, id)
}

// CustomerVenues lists the venues a customer may order for
func (s *CatalogService) CustomerVenues(ctx context.Context, customerID int64) ([]models.Venue, error) {
	return s.store.ListCustomerVenues(ctx, customerID)
}

// VenueProducts lists a venue's catalog. Customers only see venues they
// are associated with.
func (s *CatalogService) VenueProducts(ctx context.Context, customerID, venueID int64) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.VenueProducts")
	defer span.End()

	has, err := s.store.CustomerHasVenue(ctx, customerID, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to check venue access: %w", err)
	}
	if !has {
		return nil, ErrForbidden
	}
	return s.store.ListVenueProducts(ctx, venueID)
}

// AttachVenue associates a customer with a venue
func (s *CatalogService) AttachVenue(ctx context.Context, customerID, venueID int64) error {
	if err := s.store.AttachVenue(ctx, customerID, venueID); err != nil {
		return err
	}
	s.logger.Info("Venue attached", zap.Int64("customer_id", customerID), zap.Int64("venue_id", venueID))
	return nil
}

// DetachVenue removes the association. The customer's cart is pruned the
// next time access to the venue is checked.
func (s *CatalogService) DetachVenue(ctx context.Context, customerID, venueID int64) error {
	if err := s.store.DetachVenue(ctx, customerID, venueID); err != nil {
		return err
	}
	s.logger.Info("Venue detached", zap.Int64("customer_id", customerID), zap.Int64("venue_id", venueID))
	return nil
}

// AttachProduct makes a product sellable at a venue
func (s *CatalogService) AttachProduct(ctx context.Context, venueID, productID int64) error {
	return s.store.AttachProductToVenue(ctx, venueID, productID)
}
