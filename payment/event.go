package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
)

// Event types that complete a payment
const (
	EventCheckoutCompleted     = string(stripe.EventTypeCheckoutSessionCompleted)
	EventAsyncPaymentSucceeded = string(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded)
	MetadataCaseID             = "case_id"
)

// Event is a decoded webhook delivery
type Event struct {
	*stripe.Event
}

// CheckoutSession is the checkout session carried by an event
type CheckoutSession struct {
	*stripe.CheckoutSession
}

// ParseEvent decodes the envelope. The signature must be checked first.
func ParseEvent(payload []byte) (*Event, error) {
	var e stripe.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("invalid event JSON: %w", err)
	}
	if e.ID == "" || e.Type == "" {
		return nil, errors.New("event id or type missing")
	}
	return &Event{Event: &e}, nil
}

// CompletesPayment reports whether the event type can finish a payment
func (e *Event) CompletesPayment() bool {
	return e.Type == stripe.EventTypeCheckoutSessionCompleted ||
		e.Type == stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded
}

// CheckoutSession decodes data.object as a checkout session
func (e *Event) CheckoutSession() (*CheckoutSession, error) {
	if e.Data == nil || len(e.Data.Raw) == 0 {
		return nil, errors.New("event has no data object")
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(e.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("invalid checkout session: %w", err)
	}
	return &CheckoutSession{CheckoutSession: &s}, nil
}

// CaseID returns the case identifier from metadata, else client_reference_id
func (s *CheckoutSession) CaseID() string {
	if id := strings.TrimSpace(s.Metadata[MetadataCaseID]); id != "" {
		return id
	}
	return strings.TrimSpace(s.ClientReferenceID)
}

// Paid is false while a delayed payment method has not settled
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus != stripe.CheckoutSessionPaymentStatusUnpaid
}
