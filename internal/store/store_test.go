package store

import (
	"context"
	"testing"

	"storefront-orders/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Migrate(context.Background())
	require.NoError(t, err)
	return s
}

func strPtr(s string) *string { return &s }

func TestMigrateIsIncremental(t *testing.T) {
	s, err := NewStore(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	applied, err := s.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.1.0"}, applied)

	applied, err = s.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", version.String())

	rolledBack, err := s.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", rolledBack)

	version, err = s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version.String())
}

func TestNewStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewStore("oracle", "whatever")
	assert.Error(t, err)
}

func TestCreateOrderWithItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	order := &models.Order{
		VenueID:    12,
		Status:     models.OrderStatusNew,
		CustomerPO: strPtr("PO-99"),
	}
	items := []models.LineItem{
		{ProductID: 100, Quantity: 2},
		{ProductID: 101, Quantity: 1},
	}

	require.NoError(t, s.CreateOrderWithItems(ctx, order, items))
	assert.NotZero(t, order.ID)
	assert.Equal(t, order.ID, items[0].OrderID)

	retrieved, err := s.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), retrieved.VenueID)
	assert.Equal(t, models.OrderStatusNew, retrieved.Status)
	require.NotNil(t, retrieved.CustomerPO)
	assert.Equal(t, "PO-99", *retrieved.CustomerPO)
	assert.Nil(t, retrieved.Note)
	assert.Nil(t, retrieved.TrxOrderID)

	lineItems, err := s.GetLineItemsByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lineItems, 2)
	assert.Equal(t, 2, lineItems[0].Quantity)
}

func TestUpdateOrderVendorStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	order := &models.Order{VenueID: 3, Status: models.OrderStatusNew}
	require.NoError(t, s.CreateOrderWithItems(ctx, order, []models.LineItem{{ProductID: 1, Quantity: 1}}))

	require.NoError(t, s.UpdateOrderVendorStatus(ctx, order.ID, "processing", "TRX-1", "100045"))

	retrieved, err := s.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "processing", retrieved.Status)
	assert.Equal(t, "TRX-1", *retrieved.TrxOrderID)
	assert.Equal(t, "100045", *retrieved.TrxOrderNumber)

	err = s.UpdateOrderVendorStatus(ctx, 9999, "processing", "TRX-2", "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersByVenueAndStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, venueID := range []int64{1, 2, 1, 3} {
		o := &models.Order{VenueID: venueID, Status: models.OrderStatusNew}
		require.NoError(t, s.CreateOrderWithItems(ctx, o, []models.LineItem{{ProductID: 1, Quantity: 1}}))
	}
	require.NoError(t, s.UpdateOrderVendorStatus(ctx, 1, "shipped", "T", "N"))

	orders, err := s.ListOrdersByVenueIDs(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, int64(3), orders[0].ID, "newest first")

	orders, err = s.ListOrdersByVenueIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, orders)

	newOrders, err := s.ListOrdersByStatus(ctx, models.OrderStatusNew, nil)
	require.NoError(t, err)
	assert.Len(t, newOrders, 3)

	newOrders, err = s.ListOrdersByStatus(ctx, models.OrderStatusNew, []int64{1})
	require.NoError(t, err)
	require.Len(t, newOrders, 1)
	assert.Equal(t, int64(3), newOrders[0].ID)

	newOrders, err = s.ListOrdersByStatus(ctx, models.OrderStatusNew, []int64{})
	require.NoError(t, err)
	assert.Empty(t, newOrders)
}

func TestCustomerVenues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &models.Customer{Email: "Chef@Example.com", SeePrices: true}
	require.NoError(t, s.CreateCustomer(ctx, c))
	assert.Equal(t, "chef@example.com", c.Email)

	found, err := s.GetCustomerByEmail(ctx, "CHEF@example.COM")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
	assert.True(t, found.SeePrices)

	v := &models.Venue{Name: "Harbor Grill"}
	require.NoError(t, s.CreateVenue(ctx, v))

	has, err := s.CustomerHasVenue(ctx, c.ID, v.ID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.AttachVenue(ctx, c.ID, v.ID))
	require.NoError(t, s.AttachVenue(ctx, c.ID, v.ID))

	venues, err := s.ListCustomerVenues(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "Harbor Grill", venues[0].Name)

	has, err = s.CustomerHasVenue(ctx, c.ID, v.ID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.DetachVenue(ctx, c.ID, v.ID))
	assert.ErrorIs(t, s.DetachVenue(ctx, c.ID, v.ID), ErrNotFound)
	assert.ErrorIs(t, s.AttachVenue(ctx, c.ID, 999), ErrNotFound)
}

func TestDeleteCartItemsForVenue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &models.Customer{Email: "a@b.c"}
	require.NoError(t, s.CreateCustomer(ctx, c))
	cart, err := s.GetOrCreateCart(ctx, c.ID)
	require.NoError(t, err)

	again, err := s.GetOrCreateCart(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	for _, venueID := range []string{"5", "6", "5", "0"} {
		item := &models.CartItem{CartID: cart.ID, ProductID: 1, SKU: "A", Title: "Plate", Quantity: 1, VenueID: venueID}
		require.NoError(t, s.AddCartItem(ctx, item))
	}

	n, err := s.DeleteCartItemsForVenue(ctx, c.ID, "5")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	items, err := s.ListCartItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "6", items[0].VenueID)
	assert.Equal(t, "0", items[1].VenueID)

	assert.ErrorIs(t, s.DeleteCartItem(ctx, cart.ID, 9999), ErrNotFound)
	require.NoError(t, s.DeleteCartItem(ctx, cart.ID, items[0].ID))

	cleared, err := s.ClearCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
}

func TestProductsAndVenueGrouping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p1 := &models.Product{ID: 9000000001, SKU: "DN-100", Title: "Dinner Plate", Manufacturer: "Acme",
		Quickship: true, Images: []string{"https://img/1.jpg", "https://img/2.jpg"}}
	p2 := &models.Product{SKU: "GL-7", Title: "Wine Glass", Description: "crystal stemware", Manufacturer: "Glassco"}
	require.NoError(t, s.CreateProduct(ctx, p1))
	require.NoError(t, s.CreateProduct(ctx, p2))
	assert.NotZero(t, p2.ID)

	got, err := s.GetProductByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img/1.jpg", "https://img/2.jpg"}, got.Images)
	assert.True(t, got.Quickship)

	found, err := s.SearchProducts(ctx, ProductFilter{Query: "CRYSTAL"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "GL-7", found[0].SKU)

	quick := true
	found, err = s.SearchProducts(ctx, ProductFilter{Quickship: &quick, Manufacturer: "acme"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, p1.ID, found[0].ID)

	v := &models.Venue{Name: "Bistro"}
	require.NoError(t, s.CreateVenue(ctx, v))
	require.NoError(t, s.AttachProductToVenue(ctx, v.ID, p1.ID))
	require.NoError(t, s.AttachProductToVenue(ctx, v.ID, p2.ID))
	require.NoError(t, s.AttachProductToVenue(ctx, v.ID, p2.ID))

	venueProducts, err := s.ListVenueProducts(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, venueProducts, 2)

	require.NoError(t, s.DeleteProduct(ctx, p1.ID))
	_, err = s.GetProductByID(ctx, p1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, p1.ID), ErrNotFound)

	byIDs, err := s.GetProductsByIDs(ctx, []int64{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)
}

func TestSearchProductsMatchesWildcardsLiterally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateProduct(ctx, &models.Product{SKU: "NP-50", Title: "Napkin 50% linen"}))
	require.NoError(t, s.CreateProduct(ctx, &models.Product{SKU: "NP-100", Title: "Napkin cotton"}))
	require.NoError(t, s.CreateProduct(ctx, &models.Product{SKU: "TB_1", Title: "Table runner"}))

	found, err := s.SearchProducts(ctx, ProductFilter{Query: "50%"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "NP-50", found[0].SKU)

	found, err = s.SearchProducts(ctx, ProductFilter{Query: "%"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = s.SearchProducts(ctx, ProductFilter{Query: "tb_"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "TB_1", found[0].SKU)

	found, err = s.SearchProducts(ctx, ProductFilter{Query: "p_"})
	require.NoError(t, err)
	assert.Empty(t, found)
}
