package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
)

func parseIDParam(c *gin.Context, name string) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		AbortWithError(c, newValidationError(name, "invalid_id", "must be a positive integer id"))
		return 0, false
	}
	return snowflake.ParseInt64(value), true
}

// contactFilter reads the optional contact_id query parameter.
func contactFilter(c *gin.Context) (billingdomain.ListFilter, bool) {
	raw := strings.TrimSpace(c.Query("contact_id"))
	if raw == "" {
		return billingdomain.ListFilter{}, true
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		AbortWithError(c, newValidationError("contact_id", "invalid_contact_id", "must be a positive integer id"))
		return billingdomain.ListFilter{}, false
	}
	id := snowflake.ParseInt64(value)
	return billingdomain.ListFilter{ContactID: &id}, true
}

func parseOptionalTime(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
