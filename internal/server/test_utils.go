package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup deletes contacts whose name matches the prefix, along
// with every billing row that references them. Hidden in production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	contactIDs, err := s.loadContactIDsByPrefix(ctx, prefix)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.deleteContactData(ctx, contactIDs); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) loadContactIDsByPrefix(ctx context.Context, prefix string) ([]int64, error) {
	like := strings.TrimSpace(prefix) + "%"
	var contactIDs []int64
	if err := s.db.WithContext(ctx).
		Table("contacts").
		Select("id").
		Where("name LIKE ?", like).
		Scan(&contactIDs).Error; err != nil {
		return nil, err
	}
	return contactIDs, nil
}

func (s *Server) deleteContactData(ctx context.Context, contactIDs []int64) error {
	if len(contactIDs) == 0 {
		return nil
	}
	queries := []string{
		`DELETE FROM payment_authorizations WHERE contact_id IN ?`,
		`DELETE FROM subscriptions WHERE contact_id IN ?`,
		`DELETE FROM payments WHERE contact_id IN ?`,
		`DELETE FROM invoices WHERE contact_id IN ?`,
		`DELETE FROM payment_methods WHERE contact_id IN ?`,
		`DELETE FROM contacts WHERE id IN ?`,
	}
	for _, query := range queries {
		if err := s.db.WithContext(ctx).Exec(query, contactIDs).Error; err != nil {
			return err
		}
	}
	return nil
}
