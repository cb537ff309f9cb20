package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"mietrecht-backend/models"
	"mietrecht-backend/payment"
	"mietrecht-backend/repository"
)

func newTestCases(t *testing.T) repository.CaseRepository {
	t.Helper()
	ctx := context.Background()

	store, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "cases.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store.Cases()
}

func kautionBooking() BookRequest {
	return BookRequest{
		User:    models.UserSnapshot{Name: "Max Mustermann", Email: "max@example.de", Phone: "0171 1234567", Address: "Lindenstr. 5, 10969 Berlin"},
		Case:    models.CaseSnapshot{Topic: "Kaution", Risk: "mittel"},
		Booking: models.BookingSnapshot{Lawyer: "RA Dr. Weber", Type: "Telefon", Price: 89, Time: "2026-10-20 14:00"},
	}
}

func TestBookCreatesCase(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	svc := NewCaseService(WithCaseRepository(newTestCases(t)), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	res, err := svc.Book(ctx, kautionBooking())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if res.CaseID != "JM-1001" {
		t.Errorf("CaseID = %q, want JM-1001", res.CaseID)
	}

	c, err := svc.Get(ctx, res.CaseID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if c.Status != models.CaseStatusNew {
		t.Errorf("Status = %q, want New", c.Status)
	}
	if !c.Timestamp.Equal(fixed) {
		t.Errorf("Timestamp = %v, want %v", c.Timestamp, fixed)
	}
	if c.Booking.Price != 89 || c.Case.Topic != "Kaution" {
		t.Errorf("stored case = %+v", c)
	}

	second, err := svc.Book(ctx, kautionBooking())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if second.CaseID != "JM-1002" {
		t.Errorf("second CaseID = %q, want JM-1002", second.CaseID)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "JM-1002" {
		t.Errorf("List() = %v, want newest first", list)
	}
}

func TestBookUsesClientTimestamp(t *testing.T) {
	serverNow := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	svc := NewCaseService(WithCaseRepository(newTestCases(t)), WithClock(func() time.Time { return serverNow }))
	ctx := context.Background()

	confirmed := time.Date(2026, 10, 15, 18, 5, 0, 0, time.FixedZone("CEST", 2*60*60))
	req := kautionBooking()
	req.Timestamp = confirmed

	res, err := svc.Book(ctx, req)
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	c, err := svc.Get(ctx, res.CaseID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !c.Timestamp.Equal(confirmed) {
		t.Errorf("Timestamp = %v, want client time %v", c.Timestamp, confirmed)
	}
}

func TestBookCopiesRiskFromAnalysis(t *testing.T) {
	svc := NewCaseService(WithCaseRepository(newTestCases(t)))
	ctx := context.Background()

	req := kautionBooking()
	req.Case = models.CaseSnapshot{Analysis: &models.AnalysisResult{
		Summary:   "s",
		Analysis:  "a",
		Rulings:   "r",
		RiskLevel: models.RiskHigh,
		Topic:     "Kündigung",
	}}

	res, err := svc.Book(ctx, req)
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	c, err := svc.Get(ctx, res.CaseID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if c.Case.Risk != "hoch" || c.Case.Topic != "Kündigung" {
		t.Errorf("case snapshot = %+v, want risk and topic from analysis", c.Case)
	}
}

func TestBookValidation(t *testing.T) {
	svc := NewCaseService(WithCaseRepository(newTestCases(t)))

	tests := []struct {
		name   string
		mutate func(*BookRequest)
	}{
		{"missing name", func(r *BookRequest) { r.User.Name = "  " }},
		{"missing email", func(r *BookRequest) { r.User.Email = "" }},
		{"invalid email", func(r *BookRequest) { r.User.Email = "max-at-example" }},
		{"no topic", func(r *BookRequest) { r.Case = models.CaseSnapshot{} }},
		{"negative price", func(r *BookRequest) { r.Booking.Price = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := kautionBooking()
			tt.mutate(&req)
			if _, err := svc.Book(context.Background(), req); !errors.Is(err, ErrValidation) {
				t.Errorf("Book() error = %v, want ErrValidation", err)
			}
		})
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List() = %d cases, want none after rejected bookings", len(list))
	}
}

func TestGetUnknownCase(t *testing.T) {
	svc := NewCaseService(WithCaseRepository(newTestCases(t)))
	for _, id := range []string{"JM-4711", "nonsense"} {
		if _, err := svc.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("metadata[case_id]"); got != "JM-1001" {
			t.Errorf("metadata[case_id] = %q, want JM-1001", got)
		}
		if got := r.PostForm.Get("line_items[0][price_data][unit_amount]"); got != "8900" {
			t.Errorf("unit_amount = %q, want 8900", got)
		}
		if got := r.PostForm.Get("customer_email"); got != "max@example.de" {
			t.Errorf("customer_email = %q, want max@example.de", got)
		}
		fmt.Fprint(w, `{"id":"cs_test_a1","url":"https://checkout.example/c/pay/cs_test_a1"}`)
	}))
	defer srv.Close()

	client, err := payment.NewCheckoutClient("sk_test", payment.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewCheckoutClient() error = %v", err)
	}
	cases := newTestCases(t)
	svc := NewCaseService(
		WithCaseRepository(cases),
		WithCheckout(client, CheckoutURLs{Success: "https://app.example/danke", Cancel: "https://app.example/buchung"}, "eur"),
	)
	ctx := context.Background()

	booked, err := svc.Book(ctx, kautionBooking())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	res, err := svc.Checkout(ctx, booked.CaseID, "MAX@example.de")
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if res.SessionID != "cs_test_a1" || res.CaseID != "JM-1001" {
		t.Errorf("Checkout() = %+v", res)
	}

	if _, err := svc.Checkout(ctx, "JM-9999", "max@example.de"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Checkout(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Checkout(ctx, booked.CaseID, "erika@example.de"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Checkout(other email) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Checkout(ctx, booked.CaseID, " "); !errors.Is(err, ErrValidation) {
		t.Errorf("Checkout(no email) error = %v, want ErrValidation", err)
	}

	if _, err := cases.SetStatus(ctx, booked.CaseID, models.CaseStatusPaid); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if _, err := svc.Checkout(ctx, booked.CaseID, "max@example.de"); !errors.Is(err, ErrValidation) {
		t.Errorf("Checkout(paid) error = %v, want ErrValidation", err)
	}
}

func TestCheckoutNotConfigured(t *testing.T) {
	svc := NewCaseService(WithCaseRepository(newTestCases(t)))
	if _, err := svc.Checkout(context.Background(), "JM-1001", "max@example.de"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Checkout() error = %v, want ErrConfiguration", err)
	}
}
