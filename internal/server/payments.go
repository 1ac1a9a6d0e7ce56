package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
)

type createPaymentRequest struct {
	ContactID      int64   `json:"contact_id"`
	Amount         int64   `json:"amount"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"`
	TransactionRef *string `json:"transaction_ref"`
}

// @Summary      List Payments
// @Tags         payments
// @Produce      json
// @Security     ApiKeyAuth
// @Param        contact_id  query  int  false  "Contact ID"
// @Success      200  {object}  []billingdomain.Payment
// @Router       /payments [get]
func (s *Server) ListPayments(c *gin.Context) {
	filter, ok := contactFilter(c)
	if !ok {
		return
	}

	payments, err := s.store.LoadPayments(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments})
}

// @Summary      Record Payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body createPaymentRequest true "Record Payment Request"
// @Success      200  {object}  billingdomain.Payment
// @Router       /payments [post]
func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payment, err := s.store.CreatePayment(c.Request.Context(), billingdomain.CreatePaymentRequest{
		ContactID:      snowflake.ParseInt64(req.ContactID),
		Amount:         req.Amount,
		Currency:       req.Currency,
		Status:         billingdomain.PaymentStatus(req.Status),
		TransactionRef: req.TransactionRef,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     "payment.create",
		TargetType: "payment",
		TargetID:   payment.ID.String(),
		Metadata: map[string]any{
			"contact_id": payment.ContactID.String(),
			"amount":     payment.Amount,
			"currency":   payment.Currency,
			"status":     payment.Status,
		},
	})
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

type updatePaymentRequest struct {
	Status         *string `json:"status"`
	TransactionRef *string `json:"transaction_ref"`
}

// @Summary      Update Payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id      path  int                   true  "Payment ID"
// @Param        request body  updatePaymentRequest  true  "Patch"
// @Success      200  {object}  billingdomain.Payment
// @Router       /payments/{id} [patch]
func (s *Server) UpdatePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	patch := billingdomain.UpdatePaymentPatch{
		TransactionRef: req.TransactionRef,
	}
	if req.Status != nil {
		status := billingdomain.PaymentStatus(*req.Status)
		patch.Status = &status
	}

	payment, err := s.store.UpdatePayment(c.Request.Context(), id, patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

// @Summary      Delete Payment
// @Tags         payments
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id  path  int  true  "Payment ID"
// @Success      200  {object}  map[string]string
// @Router       /payments/{id} [delete]
func (s *Server) DeletePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeletePayment(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     "payment.delete",
		TargetType: "payment",
		TargetID:   id.String(),
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
