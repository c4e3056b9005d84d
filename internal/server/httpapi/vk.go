package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
	"github.com/gin-gonic/gin"
)

func (s *Server) vkUploadPhoto(c *gin.Context) {
	if err := parseMultipart(c); err != nil {
		s.fail(c, err)
		return
	}

	img, err := formImage(c.Request.MultipartForm, proxyapi.FieldPhoto)
	if err != nil {
		s.fail(c, err)
		return
	}

	att, err := s.vk.UploadWallPhoto(c.Request.Context(),
		c.PostForm(proxyapi.FieldAccessToken), c.PostForm(proxyapi.FieldOwnerID), img)
	if err != nil {
		s.failUpstream(c, err)
		return
	}
	respond(c, http.StatusOK, proxyapi.VKUploadResponse{Attachment: att})
}

func (s *Server) vkPost(c *gin.Context) {
	var req proxyapi.VKPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", common.ErrBadRequest, err))
		return
	}

	id, err := s.vk.Post(c.Request.Context(), req.AccessToken, req.OwnerID, req.Message, req.Attachments)
	if err != nil {
		s.failUpstream(c, err)
		return
	}
	respond(c, http.StatusOK, proxyapi.VKPostResponse{PostID: id})
}

func (s *Server) vkRefreshToken(c *gin.Context) {
	var req proxyapi.VKRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", common.ErrBadRequest, err))
		return
	}

	grant, err := s.vk.RefreshToken(c.Request.Context(), req.RefreshToken, req.DeviceID)
	if err != nil {
		s.failUpstream(c, err)
		return
	}
	respond(c, http.StatusOK, grant)
}
