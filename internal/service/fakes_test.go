package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/store"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.NewStore(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Migrate(context.Background())
	require.NoError(t, err)
	return s
}

type recordedEvents struct {
	mu      sync.Mutex
	created []*models.OrderCreatedEvent
	updated []*models.OrderStatusUpdatedEvent
	otps    []*models.OTPIssuedEvent
	err     error
}

func (r *recordedEvents) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, e)
	return r.err
}

func (r *recordedEvents) PublishOrderStatusUpdated(_ context.Context, e *models.OrderStatusUpdatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, e)
	return r.err
}

func (r *recordedEvents) PublishOTPIssued(_ context.Context, e *models.OTPIssuedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.otps = append(r.otps, e)
	return r.err
}

// memoryRedis stands in for redisclient.Client
type memoryRedis struct {
	mu          sync.Mutex
	otps        map[string]*otpEntry
	sessions    map[string]int64
	idempotency map[string][]byte
	locks       map[string]bool
}

type otpEntry struct {
	hash     string
	attempts int
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{
		otps:        map[string]*otpEntry{},
		sessions:    map[string]int64{},
		idempotency: map[string][]byte{},
		locks:       map[string]bool{},
	}
}

func (m *memoryRedis) SaveOTP(_ context.Context, email, codeHash string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[email] = &otpEntry{hash: codeHash}
	return nil
}

func (m *memoryRedis) GetOTP(_ context.Context, email string) (string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.otps[email]
	if !ok {
		return "", 0, redisclient.ErrMiss
	}
	return e.hash, e.attempts, nil
}

func (m *memoryRedis) IncrementOTPAttempts(_ context.Context, email string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.otps[email]
	if !ok {
		return 0, redisclient.ErrMiss
	}
	e.attempts++
	return e.attempts, nil
}

func (m *memoryRedis) DeleteOTP(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, email)
	return nil
}

func (m *memoryRedis) CreateSession(_ context.Context, token string, customerID int64, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = customerID
	return nil
}

func (m *memoryRedis) GetSession(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.sessions[token]
	if !ok {
		return 0, redisclient.ErrMiss
	}
	return id, nil
}

func (m *memoryRedis) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memoryRedis) GetIdempotencyKey(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.idempotency[key]
	if !ok {
		return nil, redisclient.ErrMiss
	}
	return v, nil
}

func (m *memoryRedis) SetIdempotencyKey(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idempotency[key] = value
	return nil
}

func (m *memoryRedis) AcquireLock(_ context.Context, lockKey string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[lockKey] {
		return false, nil
	}
	m.locks[lockKey] = true
	return true, nil
}

func (m *memoryRedis) ReleaseLock(_ context.Context, lockKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, lockKey)
	return nil
}

// failingOrderStore fails order creation for selected venues
type failingOrderStore struct {
	*store.Store
	failVenues map[int64]bool
}

func (f *failingOrderStore) CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.LineItem) error {
	if f.failVenues[order.VenueID] {
		return errors.New("connection reset")
	}
	return f.Store.CreateOrderWithItems(ctx, order, items)
}
