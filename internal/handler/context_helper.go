package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/arunalla/relief-intake-api/internal/middleware"
	"github.com/arunalla/relief-intake-api/internal/models"
)

// claimsFromContext extracts the authenticated staff claims set by the
// JWT middleware.
func claimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
