package proxyclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/crossposter/internal/adapters/telegram"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
)

var _ telegram.Sender = (*Client)(nil)

func (c *Client) SendMessage(ctx context.Context, req telegram.Request) (string, error) {
	var out proxyapi.SendResponse
	err := c.doJSON(ctx, http.MethodPost, proxyapi.RouteTelegramSendMessage, proxyapi.SendMessageRequest{
		ChatID:    req.ChatID,
		Text:      req.Text,
		ParseMode: req.ParseMode,
		BotToken:  req.BotToken,
	}, &out, false)
	if err != nil {
		return "", err
	}
	return messageID(out)
}

func (c *Client) SendPhoto(ctx context.Context, req telegram.Request) (string, error) {
	if len(req.Images) == 0 {
		return "", fmt.Errorf("sendPhoto: no image")
	}
	img := req.Images[0]

	f := newForm()
	f.field(proxyapi.FieldChatID, req.ChatID)
	f.field(proxyapi.FieldCaption, req.Text)
	f.field(proxyapi.FieldParseMode, req.ParseMode)
	f.field(proxyapi.FieldBotToken, req.BotToken)
	f.file(proxyapi.FieldPhoto, img.Name, img.Data)

	r, err := f.request(http.MethodPost, proxyapi.RouteTelegramSendPhoto)
	if err != nil {
		return "", err
	}

	var out proxyapi.SendResponse
	if err := c.do(ctx, r, &out); err != nil {
		return "", err
	}
	return messageID(out)
}

// SendMediaGroup sends all images as one album; only the first item carries
// the caption.
func (c *Client) SendMediaGroup(ctx context.Context, req telegram.Request) (string, error) {
	media := make([]proxyapi.MediaItem, len(req.Images))
	for i := range req.Images {
		media[i] = proxyapi.MediaItem{Type: "photo", Media: "attach://photo" + strconv.Itoa(i)}
	}
	if len(media) > 0 {
		media[0].Caption = req.Text
		media[0].ParseMode = req.ParseMode
	}
	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return "", fmt.Errorf("encode media: %w", err)
	}

	f := newForm()
	f.field(proxyapi.FieldChatID, req.ChatID)
	f.field(proxyapi.FieldBotToken, req.BotToken)
	f.field(proxyapi.FieldMedia, string(mediaJSON))
	for i, img := range req.Images {
		f.file("photo"+strconv.Itoa(i), img.Name, img.Data)
	}

	r, err := f.request(http.MethodPost, proxyapi.RouteTelegramSendMediaGroup)
	if err != nil {
		return "", err
	}

	var out proxyapi.SendResponse
	if err := c.do(ctx, r, &out); err != nil {
		return "", err
	}
	return messageID(out)
}

func messageID(out proxyapi.SendResponse) (string, error) {
	switch {
	case out.MessageID != 0:
		return strconv.Itoa(out.MessageID), nil
	case len(out.MessageIDs) > 0:
		return strconv.Itoa(out.MessageIDs[0]), nil
	}
	return "", errEmptyResponse
}
