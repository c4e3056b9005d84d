package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// str returns the first non-empty string (or number rendered as a string)
// stored under any of keys.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// flag returns the first boolean stored under any of keys, else def.
func flag(m map[string]any, def bool, keys ...string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		}
	}
	return def
}

// number parses a numeric-ish value: numbers, numeric strings and VK-style
// "club123"/"public123" handles. ok is false when nothing finite was found.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		for _, prefix := range []string{"club", "public", "event"} {
			s = strings.TrimPrefix(s, prefix)
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// timestamp accepts RFC3339 strings and epoch numbers (milliseconds, or
// seconds for values too small to be milliseconds).
func timestamp(m map[string]any, keys ...string) *time.Time {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s)); err == nil {
				t = t.UTC()
				return &t
			}
		}
		if n, ok := number(v); ok && n > 0 {
			var t time.Time
			if n >= 1e11 {
				t = time.UnixMilli(int64(n)).UTC()
			} else {
				t = time.Unix(int64(n), 0).UTC()
			}
			return &t
		}
	}
	return nil
}

// stringSet accepts a list of strings or a comma separated string.
func stringSet(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, it := range v {
				if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			return out
		case string:
			var out []string
			for _, p := range strings.Split(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	return nil
}
