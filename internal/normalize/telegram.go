package normalize

import (
	"strings"

	"github.com/dmitrijs2005/crossposter/internal/models"
)

func looseTelegram(m map[string]any) models.TelegramSettings {
	s := models.TelegramSettings{
		BotToken:  str(m, "botToken", "bot_token", "token"),
		ParseMode: str(m, "parseMode", "parse_mode"),
	}

	if items, ok := m["channels"].([]any); ok {
		for _, it := range items {
			if ch, ok := looseChannel(it); ok {
				s.Channels = append(s.Channels, ch)
			}
		}
	}

	if len(s.Channels) == 0 {
		if chatID := str(m, "chatId", "chat_id"); chatID != "" {
			s.Channels = append(s.Channels, models.TelegramChannel{ChatID: chatID, IsSelected: true})
		}
	}

	return Telegram(s)
}

func looseChannel(v any) (models.TelegramChannel, bool) {
	switch x := v.(type) {
	case string:
		id := strings.TrimSpace(x)
		if id == "" {
			return models.TelegramChannel{}, false
		}
		return models.TelegramChannel{ChatID: id, IsSelected: true}, true
	case map[string]any:
		return models.TelegramChannel{
			ChatID:     str(x, "chatId", "chat_id", "id", "channelId", "channel_id"),
			IsSelected: flag(x, true, "isSelected", "is_selected", "selected", "enabled"),
			Label:      str(x, "label", "title", "name"),
		}, true
	default:
		if n, ok := number(x); ok {
			return models.TelegramChannel{ChatID: str(map[string]any{"id": n}, "id"), IsSelected: true}, true
		}
		return models.TelegramChannel{}, false
	}
}

// Telegram trims channel ids and guarantees at least one (placeholder)
// channel row. Duplicate chat ids are kept as independent targets.
func Telegram(s models.TelegramSettings) models.TelegramSettings {
	s = s.Clone()
	s.BotToken = strings.TrimSpace(s.BotToken)
	for i := range s.Channels {
		s.Channels[i].ChatID = strings.TrimSpace(s.Channels[i].ChatID)
		s.Channels[i].Label = strings.TrimSpace(s.Channels[i].Label)
	}
	if len(s.Channels) == 0 {
		s.Channels = []models.TelegramChannel{{}}
	}
	return s
}
