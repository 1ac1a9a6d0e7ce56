package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
)

type createInvoiceRequest struct {
	ContactID int64                    `json:"contact_id"`
	Amount    int64                    `json:"amount"`
	Currency  string                   `json:"currency"`
	Status    string                   `json:"status"`
	DueDate   string                   `json:"due_date"`
	LineItems []billingdomain.LineItem `json:"line_items"`
}

// @Summary      List Invoices
// @Tags         invoices
// @Produce      json
// @Security     ApiKeyAuth
// @Param        contact_id  query  int  false  "Contact ID"
// @Success      200  {object}  []billingdomain.Invoice
// @Router       /invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	filter, ok := contactFilter(c)
	if !ok {
		return
	}

	invoices, err := s.store.LoadInvoices(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

// @Summary      Create Invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body createInvoiceRequest true "Create Invoice Request"
// @Success      200  {object}  billingdomain.Invoice
// @Router       /invoices [post]
func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	invoice, err := s.store.CreateInvoice(c.Request.Context(), billingdomain.CreateInvoiceRequest{
		ContactID: snowflake.ParseInt64(req.ContactID),
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    billingdomain.InvoiceStatus(req.Status),
		DueDate:   dueDate,
		LineItems: req.LineItems,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

type updateInvoiceRequest struct {
	Amount    *int64                   `json:"amount"`
	Status    *string                  `json:"status"`
	DueDate   *string                  `json:"due_date"`
	LineItems []billingdomain.LineItem `json:"line_items"`
}

// @Summary      Update Invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id      path  int                   true  "Invoice ID"
// @Param        request body  updateInvoiceRequest  true  "Patch"
// @Success      200  {object}  billingdomain.Invoice
// @Router       /invoices/{id} [patch]
func (s *Server) UpdateInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	patch := billingdomain.UpdateInvoicePatch{
		Amount:    req.Amount,
		LineItems: req.LineItems,
	}
	if req.Status != nil {
		status := billingdomain.InvoiceStatus(*req.Status)
		patch.Status = &status
	}
	if req.DueDate != nil {
		dueDate, err := parseOptionalTime(*req.DueDate, true)
		if err != nil {
			AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
			return
		}
		patch.DueDate = dueDate
	}

	invoice, err := s.store.UpdateInvoice(c.Request.Context(), id, patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

// @Summary      Delete Invoice
// @Tags         invoices
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id  path  int  true  "Invoice ID"
// @Success      200  {object}  map[string]string
// @Router       /invoices/{id} [delete]
func (s *Server) DeleteInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteInvoice(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
