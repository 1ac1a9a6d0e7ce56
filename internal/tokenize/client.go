package tokenize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/config"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("tokenization_not_configured")
	ErrRejected      = errors.New("tokenization_rejected")
)

// Request carries raw card data to the tokenization endpoint. It is
// never logged and never persisted; only the response token and its
// display fields survive this call.
type Request struct {
	ContactID      snowflake.ID   `json:"contact_id"`
	CardNumber     string         `json:"card_number"`
	ExpiryMonth    int            `json:"expiry_month"`
	ExpiryYear     int            `json:"expiry_year"`
	CVV            string         `json:"cvv"`
	CardholderName string         `json:"cardholder_name"`
	BillingAddress map[string]any `json:"billing_address,omitempty"`
}

type Response struct {
	Success        bool   `json:"success"`
	Token          string `json:"token"`
	CardBrand      string `json:"cardBrand"`
	LastFourDigits string `json:"lastFourDigits"`
	Error          string `json:"error,omitempty"`
}

// Client calls the external tokenization endpoint.
type Client struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

func NewClient(p Params) *Client {
	timeout := p.Cfg.TokenizationTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url: p.Cfg.TokenizationURL,
		http: tracing.WrapHTTPClient(&http.Client{
			Timeout: timeout,
		}),
		log: p.Log.Named("tokenize.client"),
	}
}

// Tokenize exchanges raw card data for an opaque token. A response
// with success=false maps to ErrRejected carrying the remote reason.
func (c *Client) Tokenize(ctx context.Context, req Request) (*Response, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		// The error never includes the request body; only the
		// endpoint and transport failure are loggable.
		c.log.Warn("tokenization call failed", zap.Error(err))
		return nil, fmt.Errorf("call tokenization endpoint: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		c.log.Warn("tokenization endpoint error", zap.Int("status", httpResp.StatusCode))
		return nil, fmt.Errorf("tokenization endpoint returned %d", httpResp.StatusCode)
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !resp.Success {
		c.log.Info("tokenization rejected", zap.String("reason", resp.Error))
		return nil, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	return &resp, nil
}
