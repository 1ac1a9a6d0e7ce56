package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/card"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/tokenize"
)

type validateCardRequest struct {
	CardNumber  string `json:"card_number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
	PostalCode  string `json:"postal_code"`
}

type validateCardResponse struct {
	Valid           bool         `json:"valid"`
	Brand           card.Brand   `json:"brand"`
	BrandName       string       `json:"brand_name"`
	FormattedNumber string       `json:"formatted_number"`
	LastFour        string       `json:"last_four"`
	Errors          []FieldError `json:"errors,omitempty"`
}

// @Summary      Validate Card
// @Description  Validates raw card fields without storing or transmitting them.
// @Tags         cards
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body validateCardRequest true "Card fields"
// @Success      200  {object}  validateCardResponse
// @Router       /cards/validate [post]
func (s *Server) ValidateCard(c *gin.Context) {
	var req validateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	brand := card.DetectBrand(req.CardNumber)
	resp := validateCardResponse{
		Brand:           brand,
		BrandName:       brand.DisplayName(),
		FormattedNumber: card.FormatNumber(req.CardNumber),
		LastFour:        card.LastFour(req.CardNumber),
	}

	if !card.ValidateNumber(req.CardNumber) {
		resp.Errors = append(resp.Errors, FieldError{
			Field:   "card_number",
			Code:    "invalid_card_number",
			Message: "card number failed checksum validation",
		})
	}
	if !card.ValidateExpiry(req.ExpiryMonth, req.ExpiryYear, time.Now()) {
		resp.Errors = append(resp.Errors, FieldError{
			Field:   "expiry",
			Code:    "card_expired",
			Message: "card is expired or the expiry date is invalid",
		})
	}
	if !card.ValidateCVV(req.CVV, brand) {
		resp.Errors = append(resp.Errors, FieldError{
			Field:   "cvv",
			Code:    "invalid_cvv",
			Message: "cvv length does not match the card brand",
		})
	}
	if req.PostalCode != "" && !card.ValidateCanadianPostalCode(req.PostalCode) {
		resp.Errors = append(resp.Errors, FieldError{
			Field:   "postal_code",
			Code:    "invalid_postal_code",
			Message: "postal code must match the Canadian A1A 1A1 format",
		})
	}

	resp.Valid = len(resp.Errors) == 0
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type tokenizeCardRequest struct {
	ContactID      int64          `json:"contact_id"`
	CardNumber     string         `json:"card_number"`
	ExpiryMonth    int            `json:"expiry_month"`
	ExpiryYear     int            `json:"expiry_year"`
	CVV            string         `json:"cvv"`
	CardholderName string         `json:"cardholder_name"`
	BillingAddress map[string]any `json:"billing_address"`
}

// @Summary      Tokenize Card
// @Description  Exchanges raw card data for an opaque vault token. Card data is never persisted.
// @Tags         cards
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body tokenizeCardRequest true "Card data"
// @Success      200  {object}  tokenize.Response
// @Router       /cards/tokenize [post]
func (s *Server) TokenizeCard(c *gin.Context) {
	var req tokenizeCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if !card.ValidateNumber(req.CardNumber) {
		AbortWithError(c, newValidationError("card_number", "invalid_card_number", "card number failed checksum validation"))
		return
	}
	if !card.ValidateExpiry(req.ExpiryMonth, req.ExpiryYear, time.Now()) {
		AbortWithError(c, newValidationError("expiry", "card_expired", "card is expired or the expiry date is invalid"))
		return
	}

	resp, err := s.tokenizer.Tokenize(c.Request.Context(), tokenize.Request{
		ContactID:      snowflake.ParseInt64(req.ContactID),
		CardNumber:     req.CardNumber,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		CVV:            req.CVV,
		CardholderName: req.CardholderName,
		BillingAddress: req.BillingAddress,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
