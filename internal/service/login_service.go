package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const otpDigits = 6

// LoginConfig controls code and session lifetimes
type LoginConfig struct {
	OTPTTL         time.Duration
	OTPMaxAttempts int
	SessionTTL     time.Duration
}

// LoginService issues one-time login codes and exchanges them for sessions
type LoginService struct {
	customers CustomerLookup
	sessions  SessionStore
	events    LoginEvents
	cfg       LoginConfig
	logger    *zap.Logger

	// generateCode is replaced in tests
	generateCode func() (string, error)
}

// NewLoginService creates a new login service
func NewLoginService(customers CustomerLookup, sessions SessionStore, events LoginEvents, cfg LoginConfig) *LoginService {
	if cfg.OTPMaxAttempts < 1 {
		cfg.OTPMaxAttempts = 5
	}
	return &LoginService{
		customers:    customers,
		sessions:     sessions,
		events:       events,
		cfg:          cfg,
		logger:       util.GetLogger(),
		generateCode: randomCode,
	}
}

// Session is the result of a successful login
type Session struct {
	Token    string           `json:"token"`
	Customer *models.Customer `json:"customer"`
}

// RequestCode issues a fresh code for a known customer and hands it to the
// mailer. Any earlier code for the same email stops working.
func (s *LoginService) RequestCode(ctx context.Context, email string) error {
	ctx, span := util.StartSpan(ctx, "LoginService.RequestCode")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" {
		return Invalid("email is required")
	}

	customer, err := s.customers.GetCustomerByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if err := s.sessions.SaveOTP(ctx, email, digestCode(code), s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	event := &models.OTPIssuedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOTPIssued,
			Timestamp: time.Now(),
		},
		Email:     customer.Email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.cfg.OTPTTL),
	}
	if err := s.events.PublishOTPIssued(ctx, event); err != nil {
		return fmt.Errorf("failed to dispatch code: %w", err)
	}

	util.OTPIssuedTotal.Inc()
	s.logger.Info("Login code issued", zap.Int64("customer_id", customer.ID))
	return nil
}

// VerifyCode exchanges a valid code for a new session. Too many wrong
// guesses burn the code.
func (s *LoginService) VerifyCode(ctx context.Context, email, code string) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "LoginService.VerifyCode")
	defer span.End()

	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, Invalid("email and code are required")
	}

	stored, attempts, err := s.sessions.GetOTP(ctx, email)
	if errors.Is(err, redisclient.ErrMiss) {
		util.OTPVerifyTotal.WithLabelValues("expired").Inc()
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load code: %w", err)
	}

	if attempts >= s.cfg.OTPMaxAttempts {
		util.OTPVerifyTotal.WithLabelValues("exhausted").Inc()
		_ = s.sessions.DeleteOTP(ctx, email)
		return nil, ErrInvalidOTP
	}

	if subtle.ConstantTimeCompare([]byte(digestCode(code)), []byte(stored)) != 1 {
		util.OTPVerifyTotal.WithLabelValues("mismatch").Inc()
		n, err := s.sessions.IncrementOTPAttempts(ctx, email)
		if err != nil {
			s.logger.Warn("Failed to record login attempt", zap.Error(err))
		} else if n >= s.cfg.OTPMaxAttempts {
			_ = s.sessions.DeleteOTP(ctx, email)
		}
		return nil, ErrInvalidOTP
	}

	if err := s.sessions.DeleteOTP(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to consume code: %w", err)
	}

	customer, err := s.customers.GetCustomerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token := uuid.New().String()
	if err := s.sessions.CreateSession(ctx, token, customer.ID, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	util.OTPVerifyTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Customer logged in", zap.Int64("customer_id", customer.ID))
	return &Session{Token: token, Customer: customer}, nil
}

// Logout ends a session
func (s *LoginService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, token)
}

// Customer returns the profile of a logged-in customer
func (s *LoginService) Customer(ctx context.Context, customerID int64) (*models.Customer, error) {
	return s.customers.GetCustomerByID(ctx, customerID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func digestCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func randomCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
