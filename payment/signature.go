// Package payment talks to the card payment provider: webhook signatures,
// event decoding, checkout sessions and the processed-event ledger.
package payment

import (
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader carries the webhook signature
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance is the accepted age of a signed webhook
const DefaultTolerance = webhook.DefaultTolerance

var (
	ErrMissingHeader    = webhook.ErrNotSigned
	ErrInvalidHeader    = webhook.ErrInvalidHeader
	ErrNoValidSignature = webhook.ErrNoValidSignature
	ErrTimestampTooOld  = webhook.ErrTooOld
	ErrMissingSecret    = errors.New("webhook secret is not configured")
	ErrEmptyPayload     = errors.New("empty payload")
)

// Sign produces a signature header for payload. Used by tests and local tooling.
func Sign(payload []byte, secret string, ts time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: ts,
	})
	return signed.Header
}

// VerifySignature checks header against the raw payload. Any matching v1
// signature is accepted. A tolerance <= 0 disables the timestamp check.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if tolerance <= 0 {
		return webhook.ValidatePayloadIgnoringTolerance(payload, header, secret)
	}
	return webhook.ValidatePayloadWithTolerance(payload, header, secret, tolerance)
}
