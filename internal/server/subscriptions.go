package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
)

type createSubscriptionRequest struct {
	ContactID       int64  `json:"contact_id"`
	PaymentMethodID *int64 `json:"payment_method_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Interval        string `json:"interval"`
	IntervalCount   int    `json:"interval_count"`
	NextBillingDate string `json:"next_billing_date"`
}

// @Summary      List Subscriptions
// @Tags         subscriptions
// @Produce      json
// @Security     ApiKeyAuth
// @Param        contact_id  query  int  false  "Contact ID"
// @Success      200  {object}  []billingdomain.Subscription
// @Router       /subscriptions [get]
func (s *Server) ListSubscriptions(c *gin.Context) {
	filter, ok := contactFilter(c)
	if !ok {
		return
	}

	subscriptions, err := s.store.LoadSubscriptions(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subscriptions})
}

// @Summary      Create Subscription
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body createSubscriptionRequest true "Create Subscription Request"
// @Success      200  {object}  billingdomain.Subscription
// @Router       /subscriptions [post]
func (s *Server) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	nextBillingDate, err := parseOptionalTime(req.NextBillingDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("next_billing_date", "invalid_next_billing_date", "invalid next_billing_date"))
		return
	}

	create := billingdomain.CreateSubscriptionRequest{
		ContactID:       snowflake.ParseInt64(req.ContactID),
		Amount:          req.Amount,
		Currency:        req.Currency,
		Interval:        billingdomain.Interval(req.Interval),
		IntervalCount:   req.IntervalCount,
		NextBillingDate: nextBillingDate,
	}
	if req.PaymentMethodID != nil {
		id := snowflake.ParseInt64(*req.PaymentMethodID)
		create.PaymentMethodID = &id
	}

	subscription, err := s.store.CreateSubscription(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     "subscription.create",
		TargetType: "subscription",
		TargetID:   subscription.ID.String(),
		Metadata: map[string]any{
			"contact_id": subscription.ContactID.String(),
			"amount":     subscription.Amount,
			"interval":   subscription.Interval,
		},
	})
	c.JSON(http.StatusOK, gin.H{"data": subscription})
}

type updateSubscriptionRequest struct {
	PaymentMethodID *int64  `json:"payment_method_id"`
	Amount          *int64  `json:"amount"`
	Status          *string `json:"status"`
	NextBillingDate *string `json:"next_billing_date"`
}

// @Summary      Update Subscription
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id      path  int                        true  "Subscription ID"
// @Param        request body  updateSubscriptionRequest  true  "Patch"
// @Success      200  {object}  billingdomain.Subscription
// @Router       /subscriptions/{id} [patch]
func (s *Server) UpdateSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	patch := billingdomain.UpdateSubscriptionPatch{
		Amount: req.Amount,
	}
	if req.PaymentMethodID != nil {
		methodID := snowflake.ParseInt64(*req.PaymentMethodID)
		patch.PaymentMethodID = &methodID
	}
	if req.Status != nil {
		status := billingdomain.SubscriptionStatus(*req.Status)
		patch.Status = &status
	}
	if req.NextBillingDate != nil {
		nextBillingDate, err := parseOptionalTime(*req.NextBillingDate, false)
		if err != nil {
			AbortWithError(c, newValidationError("next_billing_date", "invalid_next_billing_date", "invalid next_billing_date"))
			return
		}
		patch.NextBillingDate = nextBillingDate
	}

	subscription, err := s.store.UpdateSubscription(c.Request.Context(), id, patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subscription})
}

// @Summary      Cancel Subscription
// @Tags         subscriptions
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id  path  int  true  "Subscription ID"
// @Success      200  {object}  billingdomain.Subscription
// @Router       /subscriptions/{id}/cancel [post]
func (s *Server) CancelSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	subscription, err := s.store.CancelSubscription(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     "subscription.cancel",
		TargetType: "subscription",
		TargetID:   subscription.ID.String(),
		Metadata: map[string]any{
			"contact_id": subscription.ContactID.String(),
		},
	})
	c.JSON(http.StatusOK, gin.H{"data": subscription})
}

// @Summary      Delete Subscription
// @Tags         subscriptions
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id  path  int  true  "Subscription ID"
// @Success      200  {object}  map[string]string
// @Router       /subscriptions/{id} [delete]
func (s *Server) DeleteSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteSubscription(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
