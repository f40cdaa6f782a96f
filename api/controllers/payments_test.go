package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dromero-dev/clubfunds-backend/internal/payments"
	"github.com/dromero-dev/clubfunds-backend/internal/records"
	"github.com/dromero-dev/clubfunds-backend/pkg/enums"
	pkgerrors "github.com/dromero-dev/clubfunds-backend/pkg/errors"
)

type fakePaymentsService struct {
	createInput  *payments.CreateIntentInput
	createResult *payments.CreateIntentResult
	createErr    error

	historyResult []records.PaymentIntentRecord
	historyErr    error
}

func (f *fakePaymentsService) CreateIntent(_ context.Context, input payments.CreateIntentInput) (*payments.CreateIntentResult, error) {
	f.createInput = &input
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakePaymentsService) History(_ context.Context, _, _ string) ([]records.PaymentIntentRecord, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.historyResult, nil
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	svc := &fakePaymentsService{
		createResult: &payments.CreateIntentResult{ClientSecret: "pi_1_secret", PaymentIntentID: "pi_1"},
	}
	handler := CreatePaymentIntent(svc, nil)

	body := `{"amount":15000,"currency":"usd","memberId":"m1","organizationId":"o1","description":"Spring dues"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/create-payment-intent", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["clientSecret"] != "pi_1_secret" || resp["paymentIntentId"] != "pi_1" {
		t.Fatalf("unexpected response body: %v", resp)
	}
	if svc.createInput.AmountCents != 15000 || svc.createInput.MemberID != "m1" {
		t.Fatalf("unexpected service input: %+v", svc.createInput)
	}
}

func TestCreatePaymentIntent_ValidationDetails(t *testing.T) {
	svc := &fakePaymentsService{}
	handler := CreatePaymentIntent(svc, nil)

	body := `{"amount":10,"currency":"usd","memberId":"m1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/create-payment-intent", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error code, got %q", resp.Error)
	}
	for _, field := range []string{"amount", "organizationId", "description"} {
		if resp.Details[field] == "" {
			t.Fatalf("expected violation for %q, got %v", field, resp.Details)
		}
	}
	if svc.createInput != nil {
		t.Fatalf("invalid body must not reach the service")
	}
}

func TestCreatePaymentIntent_MemberNotFound(t *testing.T) {
	svc := &fakePaymentsService{createErr: pkgerrors.New(pkgerrors.CodeNotFound, "member not found")}
	handler := CreatePaymentIntent(svc, nil)

	body := `{"amount":15000,"currency":"usd","memberId":"ghost","organizationId":"o1","description":"Spring dues"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/create-payment-intent", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestPaymentHistory_ReturnsEntries(t *testing.T) {
	created := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	svc := &fakePaymentsService{
		historyResult: []records.PaymentIntentRecord{
			{
				ID:          "pi_2",
				AmountCents: 2500,
				Currency:    "usd",
				Status:      enums.PaymentStatusPaid,
				Description: "Donation",
				PaymentType: enums.PaymentTypeDonation,
				CreatedAt:   created,
			},
		},
	}
	rec := getHistory(t, svc)

	var resp struct {
		Payments []historyEntry `json:"payments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Payments) != 1 {
		t.Fatalf("expected one payment, got %d", len(resp.Payments))
	}
	entry := resp.Payments[0]
	if entry.ID != "pi_2" || entry.Amount != 2500 || entry.Status != "paid" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.CreatedAt != created.Format(time.RFC3339) {
		t.Fatalf("unexpected timestamp: %q", entry.CreatedAt)
	}
}

func TestPaymentHistory_EmptyList(t *testing.T) {
	svc := &fakePaymentsService{historyResult: []records.PaymentIntentRecord{}}
	rec := getHistory(t, svc)

	if !strings.Contains(rec.Body.String(), `"payments":[]`) {
		t.Fatalf("expected empty payments array, got %s", rec.Body.String())
	}
}

func getHistory(t *testing.T, svc PaymentsService) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/payments/history/{organizationId}/{memberId}", PaymentHistory(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/payments/history/o1/m1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	return rec
}
