package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/dromero-dev/clubfunds-backend/pkg/errors"
)

func decodeError(t *testing.T, body []byte) ErrorBody {
	t.Helper()
	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return eb
}

func TestWriteError_ValidationPassesMessageAndDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"amount": "must be at least 50"})
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	eb := decodeError(t, rec.Body.Bytes())
	if eb.Error != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error code: %q", eb.Error)
	}
	details, ok := eb.Details.(map[string]any)
	if !ok || details["amount"] != "must be at least 50" {
		t.Fatalf("expected field details, got %v", eb.Details)
	}
}

func TestWriteError_ProviderMessagePassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeProvider, "Your card was declined.")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != 500 {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	eb := decodeError(t, rec.Body.Bytes())
	if eb.Message != "Your card was declined." {
		t.Fatalf("provider message must pass through, got %q", eb.Message)
	}
}

func TestWriteError_StoreDetailStaysInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeStore, errors.New("firestore: deadline exceeded"), "persist payment intent record")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != 500 {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	eb := decodeError(t, rec.Body.Bytes())
	if eb.Message != "record store error" {
		t.Fatalf("store failures must use the public message, got %q", eb.Message)
	}
	if eb.Details != nil {
		t.Fatalf("store failures must not leak details, got %v", eb.Details)
	}
}

func TestWriteError_UntypedErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("boom"))

	if rec.Code != 500 {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	eb := decodeError(t, rec.Body.Bytes())
	if eb.Error != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected error code: %q", eb.Error)
	}
}

func TestWriteJSON_SetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 200, map[string]bool{"received": true})

	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type, got %q", got)
	}
}
