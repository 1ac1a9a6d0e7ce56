package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
)

// @Summary      List Audit Logs
// @Description  Returns newest-first audit entries with cursor pagination.
// @Tags         audit
// @Produce      json
// @Security     ApiKeyAuth
// @Param        action       query  string  false  "Action filter"
// @Param        target_type  query  string  false  "Target type filter"
// @Param        target_id    query  string  false  "Target id filter"
// @Param        actor_type   query  string  false  "Actor type filter"
// @Param        start_at     query  string  false  "RFC3339 or YYYY-MM-DD lower bound"
// @Param        end_at       query  string  false  "RFC3339 or YYYY-MM-DD upper bound"
// @Param        cursor_id    query  int     false  "Cursor: last seen id"
// @Param        cursor_at    query  string  false  "Cursor: last seen created_at, RFC3339"
// @Param        limit        query  int     false  "Page size, max 200"
// @Success      200  {object}  []auditdomain.AuditLog
// @Router       /audit-logs [get]
func (s *Server) ListAuditLogs(c *gin.Context) {
	filter := auditdomain.ListFilter{
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		TargetID:   strings.TrimSpace(c.Query("target_id")),
		ActorType:  strings.TrimSpace(c.Query("actor_type")),
	}

	startAt, err := parseOptionalTime(c.Query("start_at"), false)
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_start_at", "invalid start_at"))
		return
	}
	filter.StartAt = startAt

	endAt, err := parseOptionalTime(c.Query("end_at"), true)
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_end_at", "invalid end_at"))
		return
	}
	filter.EndAt = endAt

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	cursor, ok := parseAuditCursor(c)
	if !ok {
		return
	}
	filter.Cursor = cursor

	logs, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

// parseAuditCursor requires cursor_id and cursor_at together.
func parseAuditCursor(c *gin.Context) (*auditdomain.AuditCursor, bool) {
	rawID := strings.TrimSpace(c.Query("cursor_id"))
	rawAt := strings.TrimSpace(c.Query("cursor_at"))
	if rawID == "" && rawAt == "" {
		return nil, true
	}
	if rawID == "" || rawAt == "" {
		AbortWithError(c, newValidationError("cursor", "invalid_cursor", "cursor_id and cursor_at must be supplied together"))
		return nil, false
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		AbortWithError(c, newValidationError("cursor_id", "invalid_cursor", "must be a positive integer id"))
		return nil, false
	}
	at, err := time.Parse(time.RFC3339, rawAt)
	if err != nil {
		AbortWithError(c, newValidationError("cursor_at", "invalid_cursor", "must be an RFC3339 timestamp"))
		return nil, false
	}
	return &auditdomain.AuditCursor{ID: snowflake.ParseInt64(id), CreatedAt: at}, true
}
