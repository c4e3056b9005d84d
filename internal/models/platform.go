// Package models defines the domain types shared by the publishing core:
// drafts, per-platform configuration, publish results and the cached VK
// token record.
package models

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/crossposter/internal/common"
)

// PlatformKind identifies a publishing destination platform.
type PlatformKind string

const (
	PlatformTelegram PlatformKind = "telegram"
	PlatformVK       PlatformKind = "vk"
)

// PlatformKinds lists every supported platform in canonical order.
var PlatformKinds = []PlatformKind{PlatformTelegram, PlatformVK}

// ParsePlatformKind maps a raw tag to a PlatformKind.
func ParsePlatformKind(s string) (PlatformKind, error) {
	switch PlatformKind(s) {
	case PlatformTelegram, PlatformVK:
		return PlatformKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnknownPlatform, s)
	}
}

// PlatformSettings is the closed set of per-platform settings payloads.
// Only TelegramSettings and VKSettings implement it.
type PlatformSettings interface {
	Kind() PlatformKind
	platformSettings()
}

// PlatformConfig is one platform's entry in AppConfig.
type PlatformConfig struct {
	Platform PlatformKind
	Enabled  bool
	Settings PlatformSettings
}

type platformConfigJSON struct {
	Platform PlatformKind    `json:"platform"`
	Enabled  bool            `json:"enabled"`
	Settings json.RawMessage `json:"settings"`
}

// Validate reports whether Settings matches Platform.
func (p PlatformConfig) Validate() error {
	switch s := p.Settings.(type) {
	case TelegramSettings, VKSettings:
		if s.Kind() != p.Platform {
			return fmt.Errorf("%w: %s settings under %q", common.ErrSettingsMismatch, s.Kind(), p.Platform)
		}
		return nil
	case nil:
		return fmt.Errorf("%w: no settings for %q", common.ErrSettingsMismatch, p.Platform)
	default:
		return fmt.Errorf("%w: %T", common.ErrSettingsMismatch, s)
	}
}

func (p PlatformConfig) MarshalJSON() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return nil, err
	}
	return json.Marshal(platformConfigJSON{Platform: p.Platform, Enabled: p.Enabled, Settings: settings})
}

func (p *PlatformConfig) UnmarshalJSON(b []byte) error {
	var w platformConfigJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	var settings PlatformSettings
	switch w.Platform {
	case PlatformTelegram:
		var s TelegramSettings
		if err := unmarshalSettings(w.Settings, &s); err != nil {
			return err
		}
		settings = s
	case PlatformVK:
		var s VKSettings
		if err := unmarshalSettings(w.Settings, &s); err != nil {
			return err
		}
		settings = s
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownPlatform, w.Platform)
	}

	*p = PlatformConfig{Platform: w.Platform, Enabled: w.Enabled, Settings: settings}
	return nil
}

func unmarshalSettings(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// AppConfig is the full per-user publishing configuration. Platforms holds
// at most one entry per kind.
type AppConfig struct {
	Platforms []PlatformConfig `json:"platforms"`
}

// Platform returns the entry for kind.
func (c AppConfig) Platform(kind PlatformKind) (PlatformConfig, bool) {
	for _, p := range c.Platforms {
		if p.Platform == kind {
			return p, true
		}
	}
	return PlatformConfig{}, false
}

// Telegram returns the Telegram entry and its settings. After normalization
// the entry always exists.
func (c AppConfig) Telegram() (PlatformConfig, TelegramSettings) {
	p, _ := c.Platform(PlatformTelegram)
	s, _ := p.Settings.(TelegramSettings)
	return p, s
}

// VK returns the VK entry and its settings.
func (c AppConfig) VK() (PlatformConfig, VKSettings) {
	p, _ := c.Platform(PlatformVK)
	s, _ := p.Settings.(VKSettings)
	return p, s
}

// WithPlatform returns a copy of c with the entry for pc.Platform replaced,
// or appended when missing.
func (c AppConfig) WithPlatform(pc PlatformConfig) AppConfig {
	out := AppConfig{Platforms: make([]PlatformConfig, 0, len(c.Platforms)+1)}
	replaced := false
	for _, p := range c.Platforms {
		if p.Platform == pc.Platform {
			out.Platforms = append(out.Platforms, pc)
			replaced = true
			continue
		}
		out.Platforms = append(out.Platforms, p)
	}
	if !replaced {
		out.Platforms = append(out.Platforms, pc)
	}
	return out
}

// Validate checks every platform entry and kind uniqueness.
func (c AppConfig) Validate() error {
	seen := make(map[PlatformKind]struct{}, len(c.Platforms))
	for _, p := range c.Platforms {
		if _, dup := seen[p.Platform]; dup {
			return fmt.Errorf("%w: duplicate platform %q", common.ErrMalformedConfig, p.Platform)
		}
		seen[p.Platform] = struct{}{}
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
