package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
	"github.com/gin-gonic/gin"
)

func (s *Server) getConfig(c *gin.Context) {
	blob, err := s.configs.Get(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, proxyapi.ConfigBlob{
		Nonce:      blob.Nonce,
		Ciphertext: blob.Ciphertext,
		UpdatedAt:  blob.UpdatedAt,
	})
}

func (s *Server) putConfig(c *gin.Context) {
	var req proxyapi.ConfigBlob
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", common.ErrBadRequest, err))
		return
	}

	blob, err := s.configs.Put(c.Request.Context(), c.GetString(userIDKey), req.Nonce, req.Ciphertext)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, proxyapi.ConfigBlob{
		Nonce:      blob.Nonce,
		Ciphertext: blob.Ciphertext,
		UpdatedAt:  blob.UpdatedAt,
	})
}
