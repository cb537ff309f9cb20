package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mietrecht-backend/models"
	"mietrecht-backend/payment"
	"mietrecht-backend/repository"
)

// PaymentService handles payment provider webhooks
type PaymentService struct {
	cases     repository.CaseRepository
	secret    string
	tolerance time.Duration
	ledger    payment.Ledger
	logger    *zap.Logger
}

// PaymentServiceOption is a functional option for PaymentService
type PaymentServiceOption func(*PaymentService)

// WithPaymentCases sets the case repository
func WithPaymentCases(repo repository.CaseRepository) PaymentServiceOption {
	return func(s *PaymentService) {
		s.cases = repo
	}
}

// WithWebhookSecret sets the shared signing secret and the accepted timestamp age
func WithWebhookSecret(secret string, tolerance time.Duration) PaymentServiceOption {
	return func(s *PaymentService) {
		s.secret = secret
		s.tolerance = tolerance
	}
}

// WithLedger short-circuits redelivered events
func WithLedger(l payment.Ledger) PaymentServiceOption {
	return func(s *PaymentService) {
		s.ledger = l
	}
}

// WithPaymentLogger sets the logger
func WithPaymentLogger(logger *zap.Logger) PaymentServiceOption {
	return func(s *PaymentService) {
		s.logger = logger
	}
}

// NewPaymentService creates a new payment service
func NewPaymentService(opts ...PaymentServiceOption) *PaymentService {
	s := &PaymentService{
		tolerance: payment.DefaultTolerance,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WebhookResult reports what a delivery did. Handled is false for acknowledged
// events that complete no payment; Changed is true only for the delivery that
// moved the case to Paid.
type WebhookResult struct {
	EventID     string `json:"event_id"`
	EventType   string `json:"event_type"`
	CaseID      string `json:"case_id,omitempty"`
	Handled     bool   `json:"handled"`
	Changed     bool   `json:"changed"`
	Duplicate   bool   `json:"duplicate,omitempty"`
	UnknownCase bool   `json:"unknown_case,omitempty"`
}

// HandleWebhook authenticates the raw payload before reading it, then marks the
// referenced case as paid. Redeliveries are safe.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, header string) (*WebhookResult, error) {
	if s.cases == nil {
		return nil, errors.New("case repository not set")
	}

	if err := payment.VerifySignature(payload, header, s.secret, s.tolerance); err != nil {
		if errors.Is(err, payment.ErrMissingSecret) {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		s.logger.Warn("webhook signature rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event, err := payment.ParseEvent(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	res := &WebhookResult{EventID: event.ID, EventType: string(event.Type)}

	if !event.CompletesPayment() {
		s.logger.Debug("webhook event ignored", zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
		return res, nil
	}

	session, err := event.CheckoutSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	res.CaseID = session.CaseID()
	if res.CaseID == "" {
		return nil, fmt.Errorf("%w: event %s carries no case id", ErrMalformedPayload, event.ID)
	}
	if !session.Paid() {
		s.logger.Info("checkout completed without settled payment",
			zap.String("event_id", event.ID), zap.String("case_id", res.CaseID))
		return res, nil
	}

	if s.ledger != nil {
		seen, err := s.ledger.Seen(ctx, event.ID)
		if err != nil {
			s.logger.Warn("event ledger lookup failed", zap.String("event_id", event.ID), zap.Error(err))
		} else if seen {
			res.Handled = true
			res.Duplicate = true
			return res, nil
		}
	}

	changed, err := s.cases.SetStatus(ctx, res.CaseID, models.CaseStatusPaid)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		// a webhook for an unknown case must not block later deliveries
		s.logger.Warn("webhook references unknown case",
			zap.String("event_id", event.ID), zap.String("case_id", res.CaseID))
		res.UnknownCase = true
		return res, nil
	case err != nil:
		return nil, fmt.Errorf("failed to update case %s: %w", res.CaseID, err)
	}
	res.Handled = true
	res.Changed = changed

	if s.ledger != nil {
		if err := s.ledger.Record(ctx, event.ID); err != nil {
			s.logger.Warn("event ledger record failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}

	s.logger.Info("case marked as paid",
		zap.String("event_id", event.ID),
		zap.String("case_id", res.CaseID),
		zap.Bool("changed", changed),
	)
	return res, nil
}
