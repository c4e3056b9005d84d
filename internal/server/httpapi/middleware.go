package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetHeader("X-Request-ID"),
		)
	}
}

// authRequired resolves the bearer token to a user id stored under userIDKey.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			abort(c, http.StatusUnauthorized, proxyapi.CodeUnauthorized, "missing token")
			return
		}

		userID, err := s.users.Authenticate(token)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// limitUpload caps multipart bodies.
func (s *Server) limitUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.maxUploadBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > s.maxUploadBytes {
			abort(c, http.StatusRequestEntityTooLarge, proxyapi.CodeUploadTooLarge, "upload too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
		c.Next()
	}
}
