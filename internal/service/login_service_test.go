package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoginFixture(t *testing.T) (*LoginService, *memoryRedis, *recordedEvents, *models.Customer) {
	t.Helper()
	s := newTestStore(t)
	c := &models.Customer{Email: "Chef@Example.com", SeePrices: true}
	require.NoError(t, s.CreateCustomer(context.Background(), c))

	redis := newMemoryRedis()
	events := &recordedEvents{}
	svc := NewLoginService(s, redis, events, LoginConfig{
		OTPTTL:         10 * time.Minute,
		OTPMaxAttempts: 3,
		SessionTTL:     time.Hour,
	})
	svc.generateCode = func() (string, error) { return "123456", nil }
	return svc, redis, events, c
}

func TestLoginRoundTrip(t *testing.T) {
	svc, redis, events, c := newLoginFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, " CHEF@example.com "))
	require.Len(t, events.otps, 1)
	assert.Equal(t, "chef@example.com", events.otps[0].Email)
	assert.Equal(t, "123456", events.otps[0].Code)
	assert.NotEqual(t, "123456", redis.otps["chef@example.com"].hash, "only the digest is stored")

	session, err := svc.VerifyCode(ctx, "chef@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, c.ID, session.Customer.ID)
	assert.NotEmpty(t, session.Token)

	id, err := redis.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)

	_, err = svc.VerifyCode(ctx, "chef@example.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidOTP, "codes are single use")

	require.NoError(t, svc.Logout(ctx, session.Token))
	assert.Empty(t, redis.sessions)
}

func TestVerifyCodeBurnsAfterMaxAttempts(t *testing.T) {
	svc, redis, _, _ := newLoginFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "chef@example.com"))
	for i := 0; i < 3; i++ {
		_, err := svc.VerifyCode(ctx, "chef@example.com", "000000")
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}
	assert.Empty(t, redis.otps)

	_, err := svc.VerifyCode(ctx, "chef@example.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

// expiringOTPs drops the code right after it is read, as a TTL would
type expiringOTPs struct {
	*memoryRedis
}

func (e expiringOTPs) GetOTP(ctx context.Context, email string) (string, int, error) {
	hash, attempts, err := e.memoryRedis.GetOTP(ctx, email)
	_ = e.memoryRedis.DeleteOTP(ctx, email)
	return hash, attempts, err
}

func TestVerifyCodeAfterExpiryDoesNotRecreateCode(t *testing.T) {
	svc, redis, _, _ := newLoginFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "chef@example.com"))
	svc.sessions = expiringOTPs{redis}

	_, err := svc.VerifyCode(ctx, "chef@example.com", "000000")
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Empty(t, redis.otps)
	assert.Empty(t, redis.sessions)
}

func TestRequestCodeValidation(t *testing.T) {
	svc, _, _, _ := newLoginFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.RequestCode(ctx, "  "), ErrInvalidInput)
	assert.ErrorIs(t, svc.RequestCode(ctx, "nobody@example.com"), store.ErrNotFound)

	_, err := svc.VerifyCode(ctx, "chef@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRandomCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := randomCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}
