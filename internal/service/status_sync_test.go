package service

import (
	"context"
	"encoding/json"
	"testing"

	"storefront-orders/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeUpdates(t *testing.T, body string) []StatusUpdate {
	t.Helper()
	var payload struct {
		Orders []StatusUpdate `json:"orders"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload.Orders
}

func TestApplyUpdatesIsolatesFailures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		o := &models.Order{VenueID: 1, Status: models.OrderStatusNew}
		require.NoError(t, s.CreateOrderWithItems(ctx, o, []models.LineItem{{ProductID: 1, Quantity: 1}}))
		ids = append(ids, o.ID)
	}

	updates := decodeUpdates(t, `{"orders":[
		{"id": 1, "status": "processing", "trx_order_id": "TRX-1", "trx_order_number": 100045},
		{"id": "2", "trx_order_id": "TRX-2", "trx_order_number": "100046"},
		{"id": 3, "status": "shipped", "trx_order_id": "TRX-3", "trx_order_number": "100047"}
	]}`)

	events := &recordedEvents{}
	results := NewStatusSyncService(s, events).ApplyUpdates(ctx, SourceHTTP, updates)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Missing required fields", results[1].Message)
	assert.JSONEq(t, `"2"`, string(results[1].ID))
	assert.True(t, results[2].Success)

	first, err := s.GetOrderByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "processing", first.Status)
	assert.Equal(t, "100045", *first.TrxOrderNumber)

	untouched, err := s.GetOrderByID(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNew, untouched.Status)

	third, err := s.GetOrderByID(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, "shipped", third.Status)

	require.Len(t, events.updated, 2)
	assert.Equal(t, ids[0], events.updated[0].OrderID)
}

func TestApplyUpdatesReportsUnknownAndMalformedIDs(t *testing.T) {
	s := newTestStore(t)

	updates := decodeUpdates(t, `{"orders":[
		{"id": 404, "status": "processing", "trx_order_id": "T", "trx_order_number": "N"},
		{"id": "abc", "status": "processing", "trx_order_id": "T", "trx_order_number": "N"},
		{"status": "processing", "trx_order_id": "T", "trx_order_number": "N"}
	]}`)

	results := NewStatusSyncService(s, &recordedEvents{}).ApplyUpdates(context.Background(), SourceHTTP, updates)
	require.Len(t, results, 3)

	assert.False(t, results[0].Success)
	assert.Equal(t, "Order not found", results[0].Message)
	assert.False(t, results[1].Success)
	assert.False(t, results[2].Success)

	out, err := json.Marshal(results[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":null,"success":false,"message":"Missing required fields"}`, string(out))
}

func TestApplyUpdatesRejectsNonScalarFieldsPerRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		o := &models.Order{VenueID: 1, Status: models.OrderStatusNew}
		require.NoError(t, s.CreateOrderWithItems(ctx, o, []models.LineItem{{ProductID: 1, Quantity: 1}}))
		ids = append(ids, o.ID)
	}

	updates := decodeUpdates(t, `{"orders":[
		{"id": 1, "status": "processing", "trx_order_id": "TRX-1", "trx_order_number": "N1"},
		{"id": 2, "status": {"code": "x"}, "trx_order_id": true, "trx_order_number": ["N2"]},
		{"id": 3, "status": "shipped", "trx_order_id": "TRX-3", "trx_order_number": "N3"},
		"not-a-record"
	]}`)
	require.Len(t, updates, 4)

	results := NewStatusSyncService(s, &recordedEvents{}).ApplyUpdates(ctx, SourceHTTP, updates)
	require.Len(t, results, 4)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Missing required fields", results[1].Message)
	assert.JSONEq(t, `2`, string(results[1].ID))
	assert.True(t, results[2].Success)
	assert.False(t, results[3].Success)
	assert.JSONEq(t, `null`, string(results[3].ID))

	second, err := s.GetOrderByID(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNew, second.Status)

	third, err := s.GetOrderByID(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, "shipped", third.Status)
}

func TestApplyUpdatesLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	o := &models.Order{VenueID: 1, Status: models.OrderStatusNew}
	require.NoError(t, s.CreateOrderWithItems(ctx, o, []models.LineItem{{ProductID: 1, Quantity: 1}}))

	svc := NewStatusSyncService(s, &recordedEvents{})
	updates := decodeUpdates(t, `{"orders":[
		{"id": 1, "status": "shipped", "trx_order_id": "T", "trx_order_number": "N"},
		{"id": 1, "status": "processing", "trx_order_id": "T", "trx_order_number": "N"}
	]}`)
	results := svc.ApplyUpdates(ctx, SourceHTTP, updates)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)

	got, err := s.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)
}

func TestHandleVendorEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	o := &models.Order{VenueID: 1, Status: models.OrderStatusNew}
	require.NoError(t, s.CreateOrderWithItems(ctx, o, []models.LineItem{{ProductID: 1, Quantity: 1}}))

	svc := NewStatusSyncService(s, &recordedEvents{})
	require.NoError(t, svc.HandleVendorEvent(ctx, &models.VendorOrderStatusEvent{
		OrderID:        json.RawMessage(`1`),
		Status:         json.RawMessage(`"delivered"`),
		TrxOrderID:     json.RawMessage(`"TRX-9"`),
		TrxOrderNumber: json.RawMessage(`100049`),
	}))

	got, err := s.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivered", got.Status)
	assert.Equal(t, "100049", *got.TrxOrderNumber)

	assert.NoError(t, svc.HandleVendorEvent(ctx, &models.VendorOrderStatusEvent{OrderID: json.RawMessage(`"77"`)}))
}
