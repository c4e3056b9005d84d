package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
	"github.com/gin-gonic/gin"
)

func (s *Server) register(c *gin.Context) {
	var req proxyapi.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", common.ErrBadRequest, err))
		return
	}

	u, err := s.users.Register(c.Request.Context(), req.Login, req.Salt, req.Verifier)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "username", u.UserName)
	respond(c, http.StatusCreated, proxyapi.RegisterResponse{UserID: u.ID})
}

func (s *Server) salt(c *gin.Context) {
	login := c.Query("login")
	if login == "" {
		s.fail(c, fmt.Errorf("%w: login is required", common.ErrBadRequest))
		return
	}

	salt, err := s.users.GetSalt(c.Request.Context(), login)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, proxyapi.SaltResponse{Salt: salt})
}

func (s *Server) login(c *gin.Context) {
	var req proxyapi.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", common.ErrBadRequest, err))
		return
	}

	userID, token, err := s.users.Login(c.Request.Context(), req.Login, req.Verifier)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, proxyapi.LoginResponse{
		AccessToken: token.Token,
		UserID:      userID,
		ExpiresAt:   token.ExpiresAt,
	})
}
