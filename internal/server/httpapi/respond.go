package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
	"github.com/gin-gonic/gin"
)

func respond(c *gin.Context, status int, data any) {
	env, err := proxyapi.OK(data)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, proxyapi.Fail(proxyapi.CodeInternal, "internal error"))
		return
	}
	c.JSON(status, env)
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, proxyapi.Fail(code, msg))
}

// fail maps a service error onto a status and envelope code. Anything not
// recognized is an internal error and its text is not sent to the client.
func (s *Server) fail(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status == 0 {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		status, code, msg = http.StatusInternalServerError, proxyapi.CodeInternal, "internal error"
	}
	abort(c, status, code, msg)
}

// failUpstream is fail for calls that reached a platform API: unrecognized
// errors are reported as upstream failures with their message intact.
func (s *Server) failUpstream(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status == 0 {
		s.logger.Warn(c.Request.Context(), "upstream call failed", "path", c.FullPath(), "error", err)
		status, code, msg = http.StatusBadGateway, proxyapi.CodeUpstream, err.Error()
	}
	abort(c, status, code, msg)
}

func classify(err error) (int, string, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, proxyapi.CodeUploadTooLarge, "upload too large"
	case errors.Is(err, common.ErrBadRequest):
		return http.StatusBadRequest, proxyapi.CodeBadRequest, err.Error()
	case errors.Is(err, common.ErrLoginAlreadyTaken):
		return http.StatusConflict, proxyapi.CodeConflict, common.ErrLoginAlreadyTaken.Error()
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, proxyapi.CodeUnauthorized, "token expired"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, proxyapi.CodeUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, proxyapi.CodeNotFound, "not found"
	case errors.Is(err, common.ErrNotConfigured):
		return http.StatusNotImplemented, proxyapi.CodeNotConfigured, err.Error()
	}
	return 0, "", ""
}
