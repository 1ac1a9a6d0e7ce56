package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Billing Stats
// @Description  Returns the ledger's aggregate counters and the store's availability state.
// @Tags         stats
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  billingdomain.Stats
// @Router       /stats [get]
func (s *Server) BillingStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"stats":      s.store.Stats(),
		"available":  s.store.Available(),
		"last_error": s.store.LastError(),
	}})
}
