package service

import (
	"context"
	"fmt"
	"strconv"

	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

// VenueAccessService answers whether a customer may act on a venue
type VenueAccessService struct {
	store  VenueAccessStore
	logger *zap.Logger
}

// NewVenueAccessService creates a new venue access checker
func NewVenueAccessService(store VenueAccessStore) *VenueAccessService {
	return &VenueAccessService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CheckAccess reports whether the customer is associated with the venue.
// A denied check prunes the customer's cart items for that venue; pruning
// never changes the answer.
func (s *VenueAccessService) CheckAccess(ctx context.Context, customerID, venueID int64) (bool, error) {
	ctx, span := util.StartSpan(ctx, "VenueAccessService.CheckAccess")
	defer span.End()

	has, err := s.store.CustomerHasVenue(ctx, customerID, venueID)
	if err != nil {
		return false, fmt.Errorf("failed to check venue access: %w", err)
	}

	if has {
		util.VenueAccessChecksTotal.WithLabelValues("granted").Inc()
		return true, nil
	}

	util.VenueAccessChecksTotal.WithLabelValues("denied").Inc()
	s.pruneCart(ctx, customerID, venueID)
	return false, nil
}

// pruneCart removes stale cart items for a venue the customer lost. Errors
// and panics stop here.
func (s *VenueAccessService) pruneCart(ctx context.Context, customerID, venueID int64) {
	defer func() {
		if r := recover(); r != nil {
			util.CartPruneFailuresTotal.Inc()
			s.logger.Error("Cart pruning panicked",
				zap.Int64("customer_id", customerID),
				zap.Int64("venue_id", venueID),
				zap.Any("panic", r))
		}
	}()

	removed, err := s.store.DeleteCartItemsForVenue(ctx, customerID, strconv.FormatInt(venueID, 10))
	if err != nil {
		util.CartPruneFailuresTotal.Inc()
		s.logger.Error("Failed to prune cart items",
			zap.Int64("customer_id", customerID),
			zap.Int64("venue_id", venueID),
			zap.Error(err))
		return
	}

	if removed > 0 {
		s.logger.Info("Pruned cart items for revoked venue",
			zap.Int64("customer_id", customerID),
			zap.Int64("venue_id", venueID),
			zap.Int64("removed", removed))
	}
}
