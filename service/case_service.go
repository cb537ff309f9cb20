package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"mietrecht-backend/models"
	"mietrecht-backend/payment"
	"mietrecht-backend/repository"
)

// CaseService books consultations and starts their payment
type CaseService struct {
	cases    repository.CaseRepository
	checkout *payment.CheckoutClient
	urls     CheckoutURLs
	currency string
	now      func() time.Time
	logger   *zap.Logger
}

// CheckoutURLs are the pages the payment provider redirects back to
type CheckoutURLs struct {
	Success string
	Cancel  string
}

// CaseServiceOption is a functional option for CaseService
type CaseServiceOption func(*CaseService)

// WithCaseRepository sets the case repository
func WithCaseRepository(repo repository.CaseRepository) CaseServiceOption {
	return func(s *CaseService) {
		s.cases = repo
	}
}

// WithCheckout enables hosted checkout for booked cases
func WithCheckout(client *payment.CheckoutClient, urls CheckoutURLs, currency string) CaseServiceOption {
	return func(s *CaseService) {
		s.checkout = client
		s.urls = urls
		if currency != "" {
			s.currency = currency
		}
	}
}

// WithClock overrides the booking timestamp source
func WithClock(now func() time.Time) CaseServiceOption {
	return func(s *CaseService) {
		s.now = now
	}
}

// WithCaseLogger sets the logger
func WithCaseLogger(logger *zap.Logger) CaseServiceOption {
	return func(s *CaseService) {
		s.logger = logger
	}
}

// NewCaseService creates a new case service
func NewCaseService(opts ...CaseServiceOption) *CaseService {
	s := &CaseService{
		currency: "eur",
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookRequest is the payload of a confirmed booking. Timestamp is the
// client's confirmation time; when absent the server clock is used.
type BookRequest struct {
	User      models.UserSnapshot    `json:"user"`
	Case      models.CaseSnapshot    `json:"case"`
	Booking   models.BookingSnapshot `json:"booking"`
	Timestamp time.Time              `json:"timestamp"`
}

// BookResult carries the allocated case identifier
type BookResult struct {
	CaseID string
}

func (r *BookRequest) normalize() error {
	r.User.Name = strings.TrimSpace(r.User.Name)
	r.User.Email = strings.TrimSpace(r.User.Email)
	r.Case.Topic = strings.TrimSpace(r.Case.Topic)

	if r.User.Name == "" {
		return validationError("user name is required")
	}
	if r.User.Email == "" {
		return validationError("user email is required")
	}
	if _, err := mail.ParseAddress(r.User.Email); err != nil {
		return validationError("user email %q is invalid", r.User.Email)
	}
	if r.Case.Topic == "" && r.Case.Analysis == nil {
		return validationError("case needs a topic or an analysis")
	}
	if r.Booking.Price < 0 {
		return validationError("price must not be negative")
	}

	if r.Case.Analysis != nil {
		if r.Case.Risk == "" {
			r.Case.Risk = string(r.Case.Analysis.RiskLevel)
		}
		if r.Case.Topic == "" {
			r.Case.Topic = r.Case.Analysis.Topic
		}
	}
	return nil
}

// Book validates the request and stores a new case with status New
func (s *CaseService) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	if s.cases == nil {
		return nil, errors.New("case repository not set")
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}

	created := req.Timestamp
	if created.IsZero() {
		created = s.now()
	}

	id, err := s.cases.Create(ctx, req.User, req.Case, req.Booking, created.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	s.logger.Info("case booked",
		zap.String("case_id", id),
		zap.String("topic", req.Case.Topic),
		zap.Float64("price", req.Booking.Price),
	)
	return &BookResult{CaseID: id}, nil
}

// Get returns one case
func (s *CaseService) Get(ctx context.Context, id string) (*models.Case, error) {
	if s.cases == nil {
		return nil, errors.New("case repository not set")
	}
	c, err := s.cases.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: case %q", ErrNotFound, id)
	}
	return c, err
}

// List returns all cases, newest first
func (s *CaseService) List(ctx context.Context) ([]models.Case, error) {
	if s.cases == nil {
		return nil, errors.New("case repository not set")
	}
	return s.cases.List(ctx)
}

// CheckoutResult is a created payment session
type CheckoutResult struct {
	CaseID    string
	SessionID string
	URL       string
}

// Checkout opens a hosted payment session for a booked case. The caller must
// know the email the case was booked with; a mismatch looks like an unknown case.
func (s *CaseService) Checkout(ctx context.Context, id, email string) (*CheckoutResult, error) {
	if s.checkout == nil {
		return nil, fmt.Errorf("%w: payment checkout", ErrConfiguration)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationError("booking email is required")
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(c.User.Email, email) {
		s.logger.Warn("checkout email mismatch", zap.String("case_id", c.ID))
		return nil, fmt.Errorf("%w: case %q", ErrNotFound, id)
	}
	if c.Status == models.CaseStatusPaid {
		return nil, validationError("case %s is already paid", c.ID)
	}
	if c.Booking.Price <= 0 {
		return nil, validationError("case %s has no price", c.ID)
	}

	description := "Rechtsberatung Mietrecht"
	if c.Case.Topic != "" {
		description += ": " + c.Case.Topic
	}

	session, err := s.checkout.CreateSession(ctx, payment.CheckoutRequest{
		CaseID:        c.ID,
		Description:   description,
		Amount:        c.Booking.Price,
		Currency:      s.currency,
		CustomerEmail: c.User.Email,
		SuccessURL:    s.urls.Success,
		CancelURL:     s.urls.Cancel,
	})
	if err != nil {
		s.logger.Error("checkout session failed", zap.String("case_id", c.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("checkout session created", zap.String("case_id", c.ID), zap.String("session_id", session.ID))
	return &CheckoutResult{CaseID: c.ID, SessionID: session.ID, URL: session.URL}, nil
}
