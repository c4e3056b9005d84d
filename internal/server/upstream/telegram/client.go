// Package telegram sends posts through the Telegram Bot API on behalf of
// proxy users. Bots are created lazily per token and reused.
package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message is one outgoing post. Images are optional; with more than one
// image the post goes out as an album.
type Message struct {
	BotToken  string
	ChatID    string
	Text      string
	ParseMode string
	Images    []models.Image
}

type Client struct {
	endpoint     string
	defaultToken string
	http         *http.Client

	mu   sync.Mutex
	bots map[string]*tgbotapi.BotAPI
}

// New returns a Client. endpoint is a Bot API template such as
// "https://api.telegram.org/bot%s/%s"; defaultToken serves requests that
// carry no bot token.
func New(endpoint, defaultToken string, h *http.Client) *Client {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if h == nil {
		h = http.DefaultClient
	}
	return &Client{
		endpoint:     endpoint,
		defaultToken: defaultToken,
		http:         h,
		bots:         make(map[string]*tgbotapi.BotAPI),
	}
}

// bot returns the cached bot for token, creating it on first use. Creating a
// bot calls getMe, so a bad token fails here and is not cached.
func (c *Client) bot(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		token = c.defaultToken
	}
	if token == "" {
		return nil, fmt.Errorf("telegram bot token: %w", common.ErrNotConfigured)
	}

	c.mu.Lock()
	b, ok := c.bots[token]
	c.mu.Unlock()
	if ok {
		return b, nil
	}

	b, err := tgbotapi.NewBotAPIWithClient(token, c.endpoint, c.http)
	if err != nil {
		return nil, upstreamError("getMe", err)
	}

	c.mu.Lock()
	c.bots[token] = b
	c.mu.Unlock()
	return b, nil
}

// SendMessage posts text and returns the message id.
func (c *Client) SendMessage(m Message) (int, error) {
	b, err := c.bot(m.BotToken)
	if err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(0, m.Text)
	if err := setChat(&msg.BaseChat, m.ChatID); err != nil {
		return 0, err
	}
	msg.ParseMode = m.ParseMode

	sent, err := b.Send(msg)
	if err != nil {
		return 0, upstreamError("sendMessage", err)
	}
	return sent.MessageID, nil
}

// SendPhoto posts the first image with the text as caption.
func (c *Client) SendPhoto(m Message) (int, error) {
	if len(m.Images) == 0 {
		return 0, fmt.Errorf("%w: no photo", common.ErrBadRequest)
	}
	b, err := c.bot(m.BotToken)
	if err != nil {
		return 0, err
	}

	photo := tgbotapi.NewPhoto(0, fileBytes(m.Images[0], 0))
	if err := setChat(&photo.BaseChat, m.ChatID); err != nil {
		return 0, err
	}
	photo.Caption = m.Text
	photo.ParseMode = m.ParseMode

	sent, err := b.Send(photo)
	if err != nil {
		return 0, upstreamError("sendPhoto", err)
	}
	return sent.MessageID, nil
}

// maxMediaGroup is the Bot API album limit.
const maxMediaGroup = 10

// SendMediaGroup posts all images as one album. Only the first item carries
// the caption. It returns the ids of every album message.
func (c *Client) SendMediaGroup(m Message) ([]int, error) {
	if len(m.Images) == 0 {
		return nil, fmt.Errorf("%w: no photos", common.ErrBadRequest)
	}
	if len(m.Images) > maxMediaGroup {
		return nil, fmt.Errorf("%w: media group holds at most %d photos, got %d", common.ErrBadRequest, maxMediaGroup, len(m.Images))
	}
	b, err := c.bot(m.BotToken)
	if err != nil {
		return nil, err
	}

	media := make([]interface{}, len(m.Images))
	for i, img := range m.Images {
		item := tgbotapi.NewInputMediaPhoto(fileBytes(img, i))
		if i == 0 {
			item.Caption = m.Text
			item.ParseMode = m.ParseMode
		}
		media[i] = item
	}

	cfg := tgbotapi.MediaGroupConfig{Media: media}
	chatID, channel, err := parseChat(m.ChatID)
	if err != nil {
		return nil, err
	}
	cfg.ChatID, cfg.ChannelUsername = chatID, channel

	sent, err := b.SendMediaGroup(cfg)
	if err != nil {
		return nil, upstreamError("sendMediaGroup", err)
	}

	ids := make([]int, len(sent))
	for i, s := range sent {
		ids[i] = s.MessageID
	}
	return ids, nil
}

func setChat(bc *tgbotapi.BaseChat, raw string) error {
	id, channel, err := parseChat(raw)
	if err != nil {
		return err
	}
	bc.ChatID, bc.ChannelUsername = id, channel
	return nil
}

// parseChat accepts a numeric chat id or a channel username with or without
// the leading "@".
func parseChat(raw string) (int64, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "", fmt.Errorf("%w: chat id is required", common.ErrBadRequest)
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, "", nil
	}
	if !strings.HasPrefix(raw, "@") {
		raw = "@" + raw
	}
	return 0, raw, nil
}

func fileBytes(img models.Image, i int) tgbotapi.FileBytes {
	name := img.Name
	if name == "" {
		name = "photo" + strconv.Itoa(i) + ".jpg"
	}
	return tgbotapi.FileBytes{Name: name, Bytes: img.Data}
}

// Error is a failure reported by the Bot API or on the way to it.
type Error struct {
	Method string
	Code   int
	Err    error
}

func (e *Error) Error() string {
	var api *tgbotapi.Error
	if errors.As(e.Err, &api) {
		return api.Message
	}
	return e.Method + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func upstreamError(method string, err error) error {
	out := &Error{Method: method, Err: err}
	var api *tgbotapi.Error
	if errors.As(err, &api) {
		out.Code = api.Code
	}
	return out
}
