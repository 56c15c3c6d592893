package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/service"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// authRequired resolves "who is calling" from the bearer token. The
// services only ever see the resolved user id.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := s.tokens.Validate(auth[len("Bearer "):])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func (s *Server) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

// respondErr maps typed service failures onto HTTP statuses.
func (s *Server) respondErr(c *gin.Context, err error) {
	var validation *service.ValidationError
	var conflict *service.ConflictError
	var notFound *service.NotFoundError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Msg})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Msg})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		s.log.Error("request failed", logger.String("path", c.FullPath()), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
