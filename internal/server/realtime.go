package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Realtime Push Socket
// @Description  Upgrades to a websocket that streams ledger changes and stats updates.
// @Tags         realtime
// @Security     ApiKeyAuth
// @Success      101
// @Router       /ws [get]
func (s *Server) RealtimePush(c *gin.Context) {
	s.hub.HandleWebSocket(c.Writer, c.Request)
}

// @Summary      Realtime Sync Status
// @Tags         realtime
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  map[string]bool
// @Router       /realtime/status [get]
func (s *Server) RealtimeStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"channels": s.syncManager.Status(),
		"clients":  s.hub.ClientCount(),
	}})
}

// @Summary      Enable Realtime Sync
// @Description  Subscribes every ledger table to the upstream change feed. Enabling an active channel is a no-op.
// @Tags         realtime
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  map[string]bool
// @Router       /realtime/enable [post]
func (s *Server) RealtimeEnable(c *gin.Context) {
	if err := s.syncManager.EnableAll(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"channels": s.syncManager.Status()}})
}

// @Summary      Disable Realtime Sync
// @Tags         realtime
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  map[string]bool
// @Router       /realtime/disable [post]
func (s *Server) RealtimeDisable(c *gin.Context) {
	s.syncManager.DisableAll()
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"channels": s.syncManager.Status()}})
}
