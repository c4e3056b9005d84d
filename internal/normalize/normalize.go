// Package normalize repairs loosely-typed or legacy configuration blobs into
// a canonical models.AppConfig.
//
// The result always holds exactly one Telegram entry followed by one VK
// entry, so callers look a platform up by kind and only check Enabled.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/models"
)

// Normalize decodes raw JSON and normalizes it. Only undecodable JSON is an
// error; structurally invalid entries are dropped.
func Normalize(raw []byte) (models.AppConfig, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Value(nil), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return models.AppConfig{}, fmt.Errorf("%w: %v", common.ErrMalformedConfig, err)
	}
	return Value(v), nil
}

// Value normalizes an already decoded blob (maps, slices, json.Number or
// float64 numbers).
func Value(v any) models.AppConfig {
	found := make(map[models.PlatformKind]models.PlatformConfig, 2)

	for _, e := range platformEntries(v) {
		kind, err := models.ParsePlatformKind(str(e, "platform", "type"))
		if err != nil {
			continue
		}
		if _, dup := found[kind]; dup {
			continue
		}
		settings, ok := e["settings"].(map[string]any)
		if !ok {
			continue
		}

		pc := models.PlatformConfig{Platform: kind, Enabled: flag(e, false, "enabled", "isEnabled")}
		switch kind {
		case models.PlatformTelegram:
			pc.Settings = looseTelegram(settings)
		case models.PlatformVK:
			pc.Settings = looseVK(settings)
		}
		found[kind] = pc
	}

	return assemble(found)
}

// Config re-normalizes an already typed config: it repairs settings and
// synthesizes missing platforms. Entries whose settings do not match their
// platform are replaced by disabled defaults.
func Config(cfg models.AppConfig) models.AppConfig {
	found := make(map[models.PlatformKind]models.PlatformConfig, 2)

	for _, p := range cfg.Platforms {
		if _, dup := found[p.Platform]; dup {
			continue
		}
		switch s := p.Settings.(type) {
		case models.TelegramSettings:
			if p.Platform != models.PlatformTelegram {
				continue
			}
			p.Settings = Telegram(s)
		case models.VKSettings:
			if p.Platform != models.PlatformVK {
				continue
			}
			p.Settings = VK(s)
		default:
			continue
		}
		found[p.Platform] = p
	}

	return assemble(found)
}

func assemble(found map[models.PlatformKind]models.PlatformConfig) models.AppConfig {
	out := models.AppConfig{Platforms: make([]models.PlatformConfig, 0, len(models.PlatformKinds))}
	for _, kind := range models.PlatformKinds {
		if pc, ok := found[kind]; ok {
			out.Platforms = append(out.Platforms, pc)
			continue
		}
		out.Platforms = append(out.Platforms, Default(kind))
	}
	return out
}

// Default is the disabled, empty entry for kind.
func Default(kind models.PlatformKind) models.PlatformConfig {
	switch kind {
	case models.PlatformTelegram:
		return models.PlatformConfig{Platform: kind, Settings: Telegram(models.TelegramSettings{})}
	case models.PlatformVK:
		return models.PlatformConfig{Platform: kind, Settings: VK(models.VKSettings{})}
	default:
		panic(fmt.Sprintf("normalize: no default for platform %q", kind))
	}
}

// platformEntries accepts {platforms:[...]}, {platforms:{kind:{...}}},
// a bare list, and the legacy {telegram:{...}, vk:{...}} shape.
func platformEntries(v any) []map[string]any {
	switch root := v.(type) {
	case []any:
		return entryList(root)
	case map[string]any:
		switch p := root["platforms"].(type) {
		case []any:
			return entryList(p)
		case map[string]any:
			return entryMap(p)
		}
		return entryMap(root)
	}
	return nil
}

func entryList(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func entryMap(m map[string]any) []map[string]any {
	var out []map[string]any
	for _, kind := range models.PlatformKinds {
		v, ok := m[string(kind)].(map[string]any)
		if !ok {
			continue
		}
		e := map[string]any{"platform": string(kind), "enabled": v["enabled"]}
		if s, ok := v["settings"].(map[string]any); ok {
			e["settings"] = s
		} else {
			e["settings"] = v
		}
		out = append(out, e)
	}
	return out
}
