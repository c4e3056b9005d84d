// Package telegram publishes a post draft to the selected channels of a
// Telegram bot, one request per channel.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
)

// Request is one send call for one chat.
type Request struct {
	BotToken  string
	ChatID    string
	Text      string
	ParseMode string
	Images    []models.Image
}

// Sender performs the upstream calls. A returned error covers transport
// failures as well as unsuccessful API envelopes; the string is the upstream
// message id.
type Sender interface {
	SendMessage(ctx context.Context, req Request) (string, error)
	SendPhoto(ctx context.Context, req Request) (string, error)
	SendMediaGroup(ctx context.Context, req Request) (string, error)
}

// MaxAlbumImages is the Bot API limit on photos in one media group.
const MaxAlbumImages = 10

const (
	msgNoChannels = "no channels selected for publishing"
	msgNoChatID   = "chat id is missing"
	unnamedTarget = "selected channel"
)

type Adapter struct {
	sender Sender
	log    logging.Logger
}

func NewAdapter(sender Sender, log logging.Logger) *Adapter {
	return &Adapter{sender: sender, log: log.With("platform", models.PlatformTelegram)}
}

type target struct {
	channel models.TelegramChannel
	chatID  string
}

// Publish sends draft to every selected channel in order and returns one
// result per selected channel. It never fails as a whole: configuration and
// upstream problems become failed results.
func (a *Adapter) Publish(ctx context.Context, draft models.PostDraft, settings models.TelegramSettings) []models.PostResult {
	var (
		ready   []target
		results []models.PostResult
	)

	for _, ch := range settings.Channels {
		if !ch.IsSelected {
			continue
		}
		chatID := strings.TrimSpace(ch.ChatID)
		if chatID == "" {
			name := ch.Label
			if name == "" {
				name = unnamedTarget
			}
			results = append(results, models.Failure(models.PlatformTelegram, "", name+": "+msgNoChatID))
			continue
		}
		ready = append(ready, target{channel: ch, chatID: chatID})
	}

	if len(ready) == 0 && len(results) == 0 {
		return []models.PostResult{models.Failure(models.PlatformTelegram, "", msgNoChannels)}
	}

	if n := len(draft.Images); n > MaxAlbumImages {
		for _, t := range ready {
			results = append(results, models.Failure(models.PlatformTelegram, t.chatID,
				fmt.Sprintf("%s: too many images for one post (%d, at most %d)", t.name(), n, MaxAlbumImages)))
		}
		return results
	}

	for _, t := range ready {
		results = append(results, a.send(ctx, draft, settings, t))
	}
	return results
}

func (t target) name() string {
	if t.channel.Label != "" {
		return t.channel.Label
	}
	return t.chatID
}

func (a *Adapter) send(ctx context.Context, draft models.PostDraft, settings models.TelegramSettings, t target) models.PostResult {
	name := t.name()

	req := Request{
		BotToken:  settings.BotToken,
		ChatID:    t.chatID,
		Text:      draft.Content,
		ParseMode: settings.ParseMode,
		Images:    draft.Images,
	}

	var (
		id  string
		err error
	)
	switch len(draft.Images) {
	case 0:
		id, err = a.sender.SendMessage(ctx, req)
	case 1:
		id, err = a.sender.SendPhoto(ctx, req)
	default:
		id, err = a.sender.SendMediaGroup(ctx, req)
	}

	if err != nil {
		a.log.Warn(ctx, "telegram send failed", "chat_id", t.chatID, "images", len(draft.Images), "error", err)
		return models.Failure(models.PlatformTelegram, t.chatID, fmt.Sprintf("%s: %v", name, err))
	}

	a.log.Debug(ctx, "telegram message sent", "chat_id", t.chatID, "message_id", id)
	return models.PostResult{
		Platform:  models.PlatformTelegram,
		Success:   true,
		TargetID:  t.chatID,
		MessageID: name + ":" + id,
	}
}
