package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	autopaydomain "github.com/maximegiguere1one/chiroflow-sub004/internal/autopay/domain"
)

type autopaySettingsRequest struct {
	PaymentMethodID        *int64 `json:"payment_method_id"`
	SpendingLimitPerCharge *int64 `json:"spending_limit_per_charge"`
	SpendingLimitMonthly   *int64 `json:"spending_limit_monthly"`
	NotifyBeforeCharge     *bool  `json:"notify_before_charge"`
	NotifyAfterCharge      *bool  `json:"notify_after_charge"`
}

func (r autopaySettingsRequest) toSettings() autopaydomain.Settings {
	settings := autopaydomain.Settings{
		SpendingLimitPerCharge: r.SpendingLimitPerCharge,
		SpendingLimitMonthly:   r.SpendingLimitMonthly,
		NotifyBeforeCharge:     r.NotifyBeforeCharge,
		NotifyAfterCharge:      r.NotifyAfterCharge,
	}
	if r.PaymentMethodID != nil {
		id := snowflake.ParseInt64(*r.PaymentMethodID)
		settings.PaymentMethodID = &id
	}
	return settings
}

// @Summary      Get Autopay Authorization
// @Tags         autopay
// @Produce      json
// @Security     ApiKeyAuth
// @Param        contactId  path  int  true  "Contact ID"
// @Success      200  {object}  autopaydomain.PaymentAuthorization
// @Router       /contacts/{contactId}/autopay [get]
func (s *Server) GetAutopay(c *gin.Context) {
	contactID, ok := parseIDParam(c, "contactId")
	if !ok {
		return
	}

	authorization, err := s.autopaySvc.Get(c.Request.Context(), contactID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": authorization})
}

// @Summary      Enable Autopay
// @Tags         autopay
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        contactId  path  int                     true   "Contact ID"
// @Param        request    body  autopaySettingsRequest  false  "Settings"
// @Success      200  {object}  autopaydomain.PaymentAuthorization
// @Router       /contacts/{contactId}/autopay/enable [post]
func (s *Server) EnableAutopay(c *gin.Context) {
	contactID, ok := parseIDParam(c, "contactId")
	if !ok {
		return
	}
	var req autopaySettingsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	authorization, err := s.autopaySvc.Enable(c.Request.Context(), contactID, req.toSettings())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": authorization})
}

// @Summary      Confirm Autopay Consent
// @Tags         autopay
// @Produce      json
// @Security     ApiKeyAuth
// @Param        contactId  path  int  true  "Contact ID"
// @Success      200  {object}  autopaydomain.PaymentAuthorization
// @Router       /contacts/{contactId}/autopay/consent [post]
func (s *Server) ConsentAutopay(c *gin.Context) {
	contactID, ok := parseIDParam(c, "contactId")
	if !ok {
		return
	}

	authorization, err := s.autopaySvc.Consent(c.Request.Context(), contactID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": authorization})
}

// @Summary      Disable Autopay
// @Tags         autopay
// @Produce      json
// @Security     ApiKeyAuth
// @Param        contactId  path  int  true  "Contact ID"
// @Success      200  {object}  autopaydomain.PaymentAuthorization
// @Router       /contacts/{contactId}/autopay/disable [post]
func (s *Server) DisableAutopay(c *gin.Context) {
	contactID, ok := parseIDParam(c, "contactId")
	if !ok {
		return
	}

	authorization, err := s.autopaySvc.Disable(c.Request.Context(), contactID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": authorization})
}

// @Summary      Update Autopay Settings
// @Tags         autopay
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        contactId  path  int                     true  "Contact ID"
// @Param        request    body  autopaySettingsRequest  true  "Settings"
// @Success      200  {object}  autopaydomain.PaymentAuthorization
// @Router       /contacts/{contactId}/autopay [patch]
func (s *Server) UpdateAutopaySettings(c *gin.Context) {
	contactID, ok := parseIDParam(c, "contactId")
	if !ok {
		return
	}
	var req autopaySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	authorization, err := s.autopaySvc.UpdateSettings(c.Request.Context(), contactID, req.toSettings())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": authorization})
}
