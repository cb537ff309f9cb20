package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

const defaultCheckoutTimeout = 15 * time.Second

// CheckoutClient creates hosted checkout sessions
type CheckoutClient struct {
	sessions *session.Client
}

type checkoutConfig struct {
	baseURL    string
	httpClient *http.Client
}

// CheckoutOption is a functional option for CheckoutClient
type CheckoutOption func(*checkoutConfig)

// WithBaseURL points the client at another API host
func WithBaseURL(u string) CheckoutOption {
	return func(c *checkoutConfig) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the default client with its 15s timeout
func WithHTTPClient(hc *http.Client) CheckoutOption {
	return func(c *checkoutConfig) {
		c.httpClient = hc
	}
}

// NewCheckoutClient creates a checkout client for the given secret API key
func NewCheckoutClient(secretKey string, opts ...CheckoutOption) (*CheckoutClient, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is empty")
	}
	cfg := &checkoutConfig{
		httpClient: &http.Client{Timeout: defaultCheckoutTimeout},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.httpClient,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.baseURL != "" {
		backendCfg.URL = stripe.String(cfg.baseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	return &CheckoutClient{
		sessions: &session.Client{B: backend, Key: secretKey},
	}, nil
}

// CheckoutRequest describes one consultation payment
type CheckoutRequest struct {
	CaseID        string
	Description   string
	Amount        float64 // major units, e.g. 89.00 EUR
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSessionResult is the created session
type CheckoutSessionResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// MinorUnits converts a major-unit amount to cents
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateSession opens a payment-mode checkout session. The case id travels
// in metadata and client_reference_id so the webhook can find the case.
func (c *CheckoutClient) CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSessionResult, error) {
	amount := MinorUnits(req.Amount)
	if amount <= 0 {
		return nil, fmt.Errorf("invalid amount %.2f", req.Amount)
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyEUR)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.CaseID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataCaseID, req.CaseID)
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	s, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("checkout API error: %w", err)
	}
	if s.ID == "" || s.URL == "" {
		return nil, errors.New("checkout response without id or url")
	}
	return &CheckoutSessionResult{ID: s.ID, URL: s.URL}, nil
}
