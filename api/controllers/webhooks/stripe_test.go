package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/dromero-dev/clubfunds-backend/internal/reconcile"
)

const testSigningSecret = "whsec_test"

func TestStripeWebhook_SuccessAndDuplicate(t *testing.T) {
	payload, header := buildSignedEvent(t)
	service := &fakeReconcileService{}
	guard := newTestGuard(t)
	handler := StripeWebhook(service, &fakeVerifier{secret: testSigningSecret}, guard, nil, nil)

	rec := deliver(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	assertReceivedBody(t, rec)
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	rec2 := deliver(handler, payload, header)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	payload, _ := buildSignedEvent(t)
	service := &fakeReconcileService{}
	handler := StripeWebhook(service, &fakeVerifier{secret: testSigningSecret}, newTestGuard(t), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=invalid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service must not be invoked on invalid signature")
	}
}

func TestStripeWebhook_MissingSignatureHeader(t *testing.T) {
	payload, _ := buildSignedEvent(t)
	service := &fakeReconcileService{}
	handler := StripeWebhook(service, &fakeVerifier{secret: testSigningSecret}, newTestGuard(t), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without signature header, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service must not be invoked without a signature header")
	}
}

func TestStripeWebhook_HandlerFailureStillAcknowledges(t *testing.T) {
	payload, header := buildSignedEvent(t)
	service := &fakeReconcileService{err: fmt.Errorf("store write failed")}
	guard := newTestGuard(t)
	handler := StripeWebhook(service, &fakeVerifier{secret: testSigningSecret}, guard, nil, nil)

	rec := deliver(handler, payload, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("handler failure must still acknowledge, got %d (%s)", rec.Code, rec.Body.String())
	}
	assertReceivedBody(t, rec)

	// The failed event's mark is released so a redelivery is retried.
	service.err = nil
	rec2 := deliver(handler, payload, header)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on redelivery, got %d", rec2.Code)
	}
	if service.calls != 2 {
		t.Fatalf("expected redelivery to reach the service, call count %d", service.calls)
	}
}

func TestStripeWebhook_NoGuardProcessesEveryDelivery(t *testing.T) {
	payload, header := buildSignedEvent(t)
	service := &fakeReconcileService{}
	handler := StripeWebhook(service, &fakeVerifier{secret: testSigningSecret}, nil, nil, nil)

	deliver(handler, payload, header)
	deliver(handler, payload, header)
	if service.calls != 2 {
		t.Fatalf("without a guard every delivery is handled, call count %d", service.calls)
	}
}

func deliver(handler http.HandlerFunc, payload []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func assertReceivedBody(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body["received"] {
		t.Fatalf("expected {received:true}, got %s", rec.Body.String())
	}
}

func buildSignedEvent(t *testing.T) ([]byte, string) {
	t.Helper()
	intent := &stripe.PaymentIntent{
		ID:     "pi_" + uuid.NewString(),
		Amount: 15000,
		Metadata: map[string]string{
			"memberId":       "m1",
			"organizationId": "o1",
			"paymentType":    "dues",
			"memberName":     "Test",
		},
	}
	rawIntent, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		Type:       stripe.EventTypePaymentIntentSucceeded,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data: &stripe.EventData{
			Raw: rawIntent,
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	header := buildStripeSignatureHeader(payload, testSigningSecret, time.Now().Unix())
	return payload, header
}

func buildStripeSignatureHeader(payload []byte, secret string, ts int64) string {
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type fakeReconcileService struct {
	calls int
	err   error
}

func (f *fakeReconcileService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	f.calls++
	return f.err
}

type fakeVerifier struct {
	secret string
}

func (f *fakeVerifier) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, f.secret)
}

func newTestGuard(t *testing.T) *reconcile.IdempotencyGuard {
	t.Helper()
	guard, err := reconcile.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "stripe-event")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{
		data: make(map[string]string),
	}
}

func (s *inMemoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("cf:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
