package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
)

type createPaymentMethodRequest struct {
	ContactID      int64          `json:"contact_id"`
	Token          string         `json:"token"`
	Brand          string         `json:"brand"`
	LastFour       string         `json:"last_four"`
	ExpiryMonth    int            `json:"expiry_month"`
	ExpiryYear     int            `json:"expiry_year"`
	BillingAddress map[string]any `json:"billing_address"`
	IsDefault      bool           `json:"is_default"`
}

// @Summary      List Payment Methods
// @Tags         payment-methods
// @Produce      json
// @Security     ApiKeyAuth
// @Param        contact_id  query  int  false  "Contact ID"
// @Success      200  {object}  []billingdomain.PaymentMethod
// @Router       /payment-methods [get]
func (s *Server) ListPaymentMethods(c *gin.Context) {
	filter, ok := contactFilter(c)
	if !ok {
		return
	}

	methods, err := s.store.LoadPaymentMethods(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": methods})
}

// @Summary      Create Payment Method
// @Description  Persist a tokenized payment method
// @Tags         payment-methods
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body createPaymentMethodRequest true "Create Payment Method Request"
// @Success      200  {object}  billingdomain.PaymentMethod
// @Router       /payment-methods [post]
func (s *Server) CreatePaymentMethod(c *gin.Context) {
	var req createPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	method, err := s.store.CreatePaymentMethod(c.Request.Context(), billingdomain.CreatePaymentMethodRequest{
		ContactID:      snowflake.ParseInt64(req.ContactID),
		Token:          strings.TrimSpace(req.Token),
		Brand:          req.Brand,
		LastFour:       req.LastFour,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		BillingAddress: req.BillingAddress,
		IsDefault:      req.IsDefault,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     "payment_method.create",
		TargetType: "payment_method",
		TargetID:   method.ID.String(),
		Metadata: map[string]any{
			"contact_id": method.ContactID.String(),
			"brand":      string(method.Brand),
			"last_four":  method.LastFour,
		},
	})

	c.JSON(http.StatusOK, gin.H{"data": method})
}

type updatePaymentMethodRequest struct {
	ExpiryMonth    *int           `json:"expiry_month"`
	ExpiryYear     *int           `json:"expiry_year"`
	BillingAddress map[string]any `json:"billing_address"`
	IsActive       *bool          `json:"is_active"`
}

// @Summary      Update Payment Method
// @Tags         payment-methods
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id      path  int                         true  "Payment Method ID"
// @Param        request body  updatePaymentMethodRequest  true  "Patch"
// @Success      200  {object}  billingdomain.PaymentMethod
// @Router       /payment-methods/{id} [patch]
func (s *Server) UpdatePaymentMethod(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	method, err := s.store.UpdatePaymentMethod(c.Request.Context(), id, billingdomain.UpdatePaymentMethodPatch{
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		BillingAddress: req.BillingAddress,
		IsActive:       req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": method})
}

// @Summary      Delete Payment Method
// @Tags         payment-methods
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id  path  int  true  "Payment Method ID"
// @Success      200  {object}  map[string]string
// @Router       /payment-methods/{id} [delete]
func (s *Server) DeletePaymentMethod(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeletePaymentMethod(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     "payment_method.delete",
		TargetType: "payment_method",
		TargetID:   id.String(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Set Default Payment Method
// @Description  Marks the method as the contact's single default
// @Tags         payment-methods
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id  path  int  true  "Payment Method ID"
// @Success      200  {object}  billingdomain.PaymentMethod
// @Router       /payment-methods/{id}/default [post]
func (s *Server) SetDefaultPaymentMethod(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	method, err := s.store.SetDefaultPaymentMethod(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     "payment_method.set_default",
		TargetType: "payment_method",
		TargetID:   method.ID.String(),
		Metadata:   map[string]any{"contact_id": method.ContactID.String()},
	})

	c.JSON(http.StatusOK, gin.H{"data": method})
}
