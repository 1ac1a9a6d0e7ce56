package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
)

type createAPIKeyRequest struct {
	Name      string `json:"name"`
	ExpiresAt string `json:"expires_at"`
}

// @Summary      List API Keys
// @Description  Returns key metadata. Secrets are never readable after creation.
// @Tags         api-keys
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  []apikeydomain.APIKey
// @Router       /api-keys [get]
func (s *Server) ListAPIKeys(c *gin.Context) {
	keys, err := s.apikeySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": keys})
}

// @Summary      Create API Key
// @Description  Mints a new key. The plaintext is returned exactly once in this response.
// @Tags         api-keys
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body createAPIKeyRequest true "Create API Key Request"
// @Success      200  {object}  map[string]any
// @Router       /api-keys [post]
func (s *Server) CreateAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Name == "" {
		AbortWithError(c, newValidationError("name", "name_required", "name is required"))
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, err := parseOptionalTime(req.ExpiresAt, true)
		if err != nil {
			AbortWithError(c, newValidationError("expires_at", "invalid_expires_at", "invalid expires_at"))
			return
		}
		expiresAt = parsed
	}

	plaintext, key, err := s.apikeySvc.Create(c.Request.Context(), req.Name, expiresAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     "api_key.create",
		TargetType: "api_key",
		TargetID:   key.ID.String(),
		Metadata:   map[string]any{"name": key.Name, "key_id": key.KeyID},
	})
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"key":       key,
		"plaintext": plaintext,
	}})
}

// @Summary      Revoke API Key
// @Tags         api-keys
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id  path  int  true  "API Key ID"
// @Success      200  {object}  map[string]string
// @Router       /api-keys/{id} [delete]
func (s *Server) RevokeAPIKey(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := s.apikeySvc.Revoke(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		Action:     "api_key.revoke",
		TargetType: "api_key",
		TargetID:   id.String(),
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
