package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
	"github.com/dmitrijs2005/crossposter/internal/server/upstream/telegram"
	"github.com/gin-gonic/gin"
)

const attachPrefix = "attach://"

func (s *Server) telegramSendMessage(c *gin.Context) {
	var req proxyapi.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", common.ErrBadRequest, err))
		return
	}

	id, err := s.telegram.SendMessage(telegram.Message{
		BotToken:  req.BotToken,
		ChatID:    req.ChatID,
		Text:      req.Text,
		ParseMode: req.ParseMode,
	})
	if err != nil {
		s.failUpstream(c, err)
		return
	}
	respond(c, http.StatusOK, proxyapi.SendResponse{MessageID: id})
}

func (s *Server) telegramSendPhoto(c *gin.Context) {
	if err := parseMultipart(c); err != nil {
		s.fail(c, err)
		return
	}
	form := c.Request.MultipartForm

	img, err := formImage(form, proxyapi.FieldPhoto)
	if err != nil {
		s.fail(c, err)
		return
	}

	id, err := s.telegram.SendPhoto(telegram.Message{
		BotToken:  c.PostForm(proxyapi.FieldBotToken),
		ChatID:    c.PostForm(proxyapi.FieldChatID),
		Text:      c.PostForm(proxyapi.FieldCaption),
		ParseMode: c.PostForm(proxyapi.FieldParseMode),
		Images:    []models.Image{img},
	})
	if err != nil {
		s.failUpstream(c, err)
		return
	}
	respond(c, http.StatusOK, proxyapi.SendResponse{MessageID: id})
}

// telegramSendMediaGroup resolves each "attach://name" media item to the
// multipart part of that name. The caption comes from the first item.
func (s *Server) telegramSendMediaGroup(c *gin.Context) {
	if err := parseMultipart(c); err != nil {
		s.fail(c, err)
		return
	}
	form := c.Request.MultipartForm

	var media []proxyapi.MediaItem
	if err := json.Unmarshal([]byte(c.PostForm(proxyapi.FieldMedia)), &media); err != nil || len(media) == 0 {
		s.fail(c, fmt.Errorf("%w: media must be a non-empty JSON array", common.ErrBadRequest))
		return
	}

	msg := telegram.Message{
		BotToken:  c.PostForm(proxyapi.FieldBotToken),
		ChatID:    c.PostForm(proxyapi.FieldChatID),
		Text:      media[0].Caption,
		ParseMode: media[0].ParseMode,
	}
	for _, item := range media {
		part, ok := strings.CutPrefix(item.Media, attachPrefix)
		if !ok {
			s.fail(c, fmt.Errorf("%w: media %q is not an attachment", common.ErrBadRequest, item.Media))
			return
		}
		img, err := formImage(form, part)
		if err != nil {
			s.fail(c, err)
			return
		}
		msg.Images = append(msg.Images, img)
	}

	ids, err := s.telegram.SendMediaGroup(msg)
	if err != nil {
		s.failUpstream(c, err)
		return
	}

	out := proxyapi.SendResponse{MessageIDs: ids}
	if len(ids) > 0 {
		out.MessageID = ids[0]
	}
	respond(c, http.StatusOK, out)
}
