package tokenize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 2 * time.Second},
		log:  zap.NewNop(),
	}
}

func TestTokenizeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.CardNumber != "4532015112830366" {
			t.Errorf("unexpected card number forwarded")
		}
		json.NewEncoder(w).Encode(Response{
			Success:        true,
			Token:          "tok_abc123",
			CardBrand:      "visa",
			LastFourDigits: "0366",
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Tokenize(context.Background(), Request{
		ContactID:   1,
		CardNumber:  "4532015112830366",
		ExpiryMonth: 12,
		ExpiryYear:  2027,
		CVV:         "123",
	})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if resp.Token != "tok_abc123" || resp.CardBrand != "visa" || resp.LastFourDigits != "0366" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTokenizeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(Response{Success: false, Error: "card declined"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Tokenize(context.Background(), Request{CardNumber: "4532015112830366"})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestTokenizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Tokenize(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTokenizeWithoutEndpointConfigured(t *testing.T) {
	if _, err := newTestClient("").Tokenize(context.Background(), Request{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
