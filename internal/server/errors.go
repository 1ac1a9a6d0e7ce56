package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apikeyservice "github.com/maximegiguere1one/chiroflow-sub004/internal/apikey/service"
	autopaydomain "github.com/maximegiguere1one/chiroflow-sub004/internal/autopay/domain"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/tokenize"
)

// APIError is the uniform error envelope returned by every endpoint.
type APIError struct {
	Status  int          `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError points a validation failure at a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrUnauthorized       = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "missing or invalid credentials"}
	ErrNotFound           = &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrServiceUnavailable = &APIError{Status: http.StatusServiceUnavailable, Code: "service_unavailable", Message: "service unavailable"}
	ErrTooManyRequests    = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
)

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "malformed request body"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "validation_failed",
		Message: "request validation failed",
		Fields:  []FieldError{{Field: field, Code: code, Message: message}},
	}
}

// AbortWithError terminates the request with the mapped status for a
// domain error. Unknown errors become an opaque 500.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, billingdomain.ErrNotFound),
		errors.Is(err, autopaydomain.ErrAuthorizationNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, billingdomain.ErrNotProvisioned):
		status, code = http.StatusServiceUnavailable, "billing_not_provisioned"
	case errors.Is(err, billingdomain.ErrInvalidContact),
		errors.Is(err, billingdomain.ErrInvalidAmount),
		errors.Is(err, billingdomain.ErrInvalidCurrency),
		errors.Is(err, billingdomain.ErrInvalidStatus),
		errors.Is(err, billingdomain.ErrInvalidInterval),
		errors.Is(err, billingdomain.ErrInvalidPaymentMethod),
		errors.Is(err, autopaydomain.ErrInvalidContact),
		errors.Is(err, autopaydomain.ErrInvalidSpendingLimit),
		errors.Is(err, tokenize.ErrRejected):
		status, code = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, billingdomain.ErrInvalidTransition),
		errors.Is(err, billingdomain.ErrInvoiceCancelled),
		errors.Is(err, billingdomain.ErrPaymentImmutable),
		errors.Is(err, billingdomain.ErrSubscriptionTerminated),
		errors.Is(err, billingdomain.ErrBillingDateMovedBack),
		errors.Is(err, autopaydomain.ErrNoPaymentMethod),
		errors.Is(err, autopaydomain.ErrPaymentMethodInactive),
		errors.Is(err, autopaydomain.ErrNotPendingConsent):
		status, code = http.StatusConflict, err.Error()
	case errors.Is(err, apikeyservice.ErrInvalidKey),
		errors.Is(err, apikeyservice.ErrKeyRevoked):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, tokenize.ErrNotConfigured):
		status, code = http.StatusServiceUnavailable, "tokenization_not_configured"
	}

	message := "request failed"
	if status != http.StatusInternalServerError {
		message = err.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": &APIError{Status: status, Code: code, Message: message}})
}
