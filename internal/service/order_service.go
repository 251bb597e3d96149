package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	NoVenueItemsMessage = "No venue-specific items to order"

	unknownProductTitle = "Unknown Product"
	unknownProductSKU   = "Unknown SKU"

	submitLockTTL = 30 * time.Second
)

// OrderService creates venue orders from carts and reads them back
type OrderService struct {
	store          OrderStore
	guard          SubmitGuard
	events         OrderEvents
	logger         *zap.Logger
	workers        int
	idempotencyTTL time.Duration
}

// OrderServiceConfig tunes submission
type OrderServiceConfig struct {
	// Workers bounds how many venue orders of one submission are written at once
	Workers        int
	IdempotencyTTL time.Duration
}

// NewOrderService creates a new order service. guard may be nil.
func NewOrderService(store OrderStore, guard SubmitGuard, events OrderEvents, cfg OrderServiceConfig) *OrderService {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &OrderService{
		store:          store,
		guard:          guard,
		events:         events,
		logger:         util.GetLogger(),
		workers:        cfg.Workers,
		idempotencyTTL: cfg.IdempotencyTTL,
	}
}

// SubmitOrdersRequest represents a cart submission
type SubmitOrdersRequest struct {
	Items          []CartItemInput `json:"items"`
	Comment        string          `json:"comment"`
	PurchaseOrder  string          `json:"purchaseOrder"`
	IdempotencyKey string          `json:"-"`
}

// VenueOrderResult describes one created venue order
type VenueOrderResult struct {
	VenueID   string `json:"venueId"`
	OrderID   int64  `json:"orderId"`
	ItemCount int    `json:"itemCount"`
}

// VenueOrderFailure describes a venue group that could not be written
type VenueOrderFailure struct {
	VenueID string `json:"venueId"`
	Error   string `json:"error"`
}

// SubmitOrdersResponse is returned to the storefront
type SubmitOrdersResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Orders  []VenueOrderResult  `json:"orders,omitempty"`
	Failed  []VenueOrderFailure `json:"failed,omitempty"`
}

// SubmitOrders turns a cart into one order per venue. Each venue group is
// written on its own; a failing group is reported and does not stop the
// rest. The call fails only when every group failed.
func (s *OrderService) SubmitOrders(ctx context.Context, customerID int64, req *SubmitOrdersRequest) (*SubmitOrdersResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SubmitOrders")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderSubmitLatency.Observe(time.Since(start).Seconds())
	}()

	idemKey := ""
	if req.IdempotencyKey != "" && s.guard != nil {
		idemKey = fmt.Sprintf("%d:%s", customerID, req.IdempotencyKey)
		if cached, ok := s.cachedResponse(ctx, idemKey); ok {
			s.logger.Info("Duplicate order submission detected",
				zap.Int64("customer_id", customerID),
				zap.String("idempotency_key", req.IdempotencyKey))
			return cached, nil
		}
	}

	if s.guard != nil {
		lockKey := fmt.Sprintf("submit:%d", customerID)
		acquired, err := s.guard.AcquireLock(ctx, lockKey, submitLockTTL)
		if err != nil {
			s.logger.Warn("Submit lock unavailable, continuing without it",
				zap.Int64("customer_id", customerID), zap.Error(err))
		} else if !acquired {
			return nil, ErrSubmitInProgress
		} else {
			defer func() {
				if err := s.guard.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
					s.logger.Warn("Failed to release submit lock", zap.Error(err))
				}
			}()
		}
	}

	groups, dropped := GroupByVenue(req.Items)
	if dropped > 0 {
		util.CartItemsDroppedTotal.Add(float64(dropped))
	}

	if len(groups) == 0 {
		s.logger.Info("No venue-specific items in submission",
			zap.Int64("customer_id", customerID),
			zap.Int("dropped", dropped))
		return &SubmitOrdersResponse{Success: true, Message: NoVenueItemsMessage}, nil
	}

	type outcome struct {
		result *VenueOrderResult
		err    error
	}
	outcomes := make([]outcome, len(groups))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, group := range groups {
		g.Go(func() error {
			result, err := s.createVenueOrder(ctx, customerID, group, req.PurchaseOrder, req.Comment)
			outcomes[i] = outcome{result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()

	resp := &SubmitOrdersResponse{Success: true, Orders: []VenueOrderResult{}}
	for i, o := range outcomes {
		if o.err != nil {
			resp.Failed = append(resp.Failed, VenueOrderFailure{
				VenueID: strconv.FormatInt(groups[i].VenueID, 10),
				Error:   "Failed to create order",
			})
			continue
		}
		resp.Orders = append(resp.Orders, *o.result)
	}

	if len(resp.Orders) == 0 {
		return nil, fmt.Errorf("all %d venue orders failed: %w", len(groups), outcomes[0].err)
	}

	if idemKey != "" {
		s.storeResponse(ctx, idemKey, resp)
	}

	return resp, nil
}

// createVenueOrder persists one venue group as an order with status new
func (s *OrderService) createVenueOrder(ctx context.Context, customerID int64, group VenueGroup, purchaseOrder, comment string) (*VenueOrderResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.createVenueOrder")
	defer span.End()

	order := &models.Order{
		VenueID:    group.VenueID,
		Status:     models.OrderStatusNew,
		CustomerPO: optionalString(purchaseOrder),
		Note:       optionalString(comment),
	}

	items := make([]models.LineItem, 0, len(group.Items))
	itemData := make([]models.LineItemData, 0, len(group.Items))
	for _, item := range group.Items {
		items = append(items, models.LineItem{ProductID: item.ProductID, Quantity: item.Quantity})
		itemData = append(itemData, models.LineItemData{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if err := s.store.CreateOrderWithItems(ctx, order, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		s.logger.Error("Failed to create venue order",
			zap.Int64("customer_id", customerID),
			zap.Int64("venue_id", group.VenueID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create order for venue %d: %w", group.VenueID, err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("venue_id", order.VenueID),
		zap.Int("items", len(items)))

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:    order.ID,
		VenueID:    order.VenueID,
		CustomerID: customerID,
		CustomerPO: purchaseOrder,
		Items:      itemData,
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Int64("order_id", order.ID), zap.Error(err))
	}

	return &VenueOrderResult{
		VenueID:   strconv.FormatInt(group.VenueID, 10),
		OrderID:   order.ID,
		ItemCount: len(items),
	}, nil
}

func (s *OrderService) cachedResponse(ctx context.Context, key string) (*SubmitOrdersResponse, bool) {
	raw, err := s.guard.GetIdempotencyKey(ctx, key)
	if err != nil {
		if !errors.Is(err, redisclient.ErrMiss) {
			s.logger.Warn("Idempotency lookup failed", zap.Error(err))
		}
		return nil, false
	}

	var resp SubmitOrdersResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.logger.Warn("Discarding unreadable idempotency record", zap.Error(err))
		return nil, false
	}
	return &resp, true
}

func (s *OrderService) storeResponse(ctx context.Context, key string, resp *SubmitOrdersResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.guard.SetIdempotencyKey(ctx, key, raw, s.idempotencyTTL); err != nil {
		s.logger.Warn("Failed to store idempotency record", zap.Error(err))
	}
}

// LineItemView is a line item with product details resolved at read time
type LineItemView struct {
	ProductID   int64  `json:"productId"`
	Title       string `json:"title"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// OrderView is an order as shown to customers and the vendor feed
type OrderView struct {
	ID             int64          `json:"id"`
	VenueID        int64          `json:"venueId"`
	VenueName      string         `json:"venueName"`
	Date           time.Time      `json:"date"`
	Status         string         `json:"status"`
	CustomerPO     *string        `json:"customerPo"`
	Note           *string        `json:"note"`
	Items          []LineItemView `json:"items"`
	TrxOrderID     *string        `json:"trxOrderId"`
	TrxOrderNumber *string        `json:"trxOrderNumber"`
}

// GetOrderHistory returns every order placed for the customer's current
// venues, newest first. A customer without venues gets an empty list.
func (s *OrderService) GetOrderHistory(ctx context.Context, customerID int64) ([]OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrderHistory")
	defer span.End()

	venues, err := s.store.ListCustomerVenues(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer venues: %w", err)
	}
	if len(venues) == 0 {
		return []OrderView{}, nil
	}

	venueIDs := make([]int64, len(venues))
	for i, v := range venues {
		venueIDs[i] = v.ID
	}

	orders, err := s.store.ListOrdersByVenueIDs(ctx, venueIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	return s.buildViews(ctx, orders, venues)
}

// ListNewOrders returns orders still in status new. A nil venueIDs means
// every venue.
func (s *OrderService) ListNewOrders(ctx context.Context, venueIDs []int64) ([]OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListNewOrders")
	defer span.End()

	orders, err := s.store.ListOrdersByStatus(ctx, models.OrderStatusNew, venueIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load new orders: %w", err)
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, o := range orders {
		if !seen[o.VenueID] {
			seen[o.VenueID] = true
			ids = append(ids, o.VenueID)
		}
	}
	venues, err := s.store.GetVenuesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load venues: %w", err)
	}

	return s.buildViews(ctx, orders, venues)
}

// CustomerVenueIDs returns the ids of the customer's current venues
func (s *OrderService) CustomerVenueIDs(ctx context.Context, customerID int64) ([]int64, error) {
	venues, err := s.store.ListCustomerVenues(ctx, customerID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(venues))
	for i, v := range venues {
		ids[i] = v.ID
	}
	return ids, nil
}

// buildViews joins line items and current product data onto orders.
// Products that no longer exist degrade to placeholder text.
func (s *OrderService) buildViews(ctx context.Context, orders []models.Order, venues []models.Venue) ([]OrderView, error) {
	views := make([]OrderView, 0, len(orders))
	if len(orders) == 0 {
		return views, nil
	}

	venueNames := make(map[int64]string, len(venues))
	for _, v := range venues {
		venueNames[v.ID] = v.Name
	}

	orderIDs := make([]int64, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}
	lineItems, err := s.store.GetLineItemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	itemsByOrder := make(map[int64][]models.LineItem)
	productIDs := make([]int64, 0, len(lineItems))
	seenProduct := make(map[int64]bool)
	for _, li := range lineItems {
		itemsByOrder[li.OrderID] = append(itemsByOrder[li.OrderID], li)
		if !seenProduct[li.ProductID] {
			seenProduct[li.ProductID] = true
			productIDs = append(productIDs, li.ProductID)
		}
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	productByID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	for _, o := range orders {
		view := OrderView{
			ID:             o.ID,
			VenueID:        o.VenueID,
			VenueName:      venueNames[o.VenueID],
			Date:           o.CreatedAt,
			Status:         o.Status,
			CustomerPO:     o.CustomerPO,
			Note:           o.Note,
			Items:          []LineItemView{},
			TrxOrderID:     o.TrxOrderID,
			TrxOrderNumber: o.TrxOrderNumber,
		}

		for _, li := range itemsByOrder[o.ID] {
			item := LineItemView{
				ProductID: li.ProductID,
				Title:     unknownProductTitle,
				SKU:       unknownProductSKU,
				Quantity:  li.Quantity,
			}
			if p, ok := productByID[li.ProductID]; ok {
				item.Title = p.Title
				item.SKU = p.SKU
				item.Description = p.Description
			}
			view.Items = append(view.Items, item)
		}

		views = append(views, view)
	}

	return views, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
