package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
	obscontext "github.com/maximegiguere1one/chiroflow-sub004/internal/observability/context"
)

// APIKeyRequired authenticates requests with a bearer API key and
// stamps the resolved key as the request actor. The per-key rate
// limiter runs after authentication so anonymous traffic cannot burn
// another caller's budget.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		key, err := s.apikeySvc.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			AbortWithError(c, err)
			return
		}

		if !s.limiter.Allow(key.KeyID) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}

		ctx := obscontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeAPIKey), key.KeyID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
