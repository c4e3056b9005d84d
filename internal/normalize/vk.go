package normalize

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/crossposter/internal/models"
)

func looseVK(m map[string]any) models.VKSettings {
	s := models.VKSettings{
		AccessToken:          str(m, "accessToken", "access_token"),
		AccessTokenExpiresAt: timestamp(m, "accessTokenExpiresAt", "access_token_expires_at", "expiresAt", "expires_at"),
		RefreshToken:         str(m, "refreshToken", "refresh_token"),
		DeviceID:             str(m, "deviceId", "device_id"),
		Scope:                str(m, "scope"),
		UserID:               str(m, "userId", "user_id"),
		LastSyncedAt:         timestamp(m, "lastSyncedAt", "last_synced_at"),
	}

	if items, ok := m["communities"].([]any); ok {
		for _, it := range items {
			if c, ok := looseCommunity(it); ok {
				s.Communities = append(s.Communities, c)
			}
		}
	}

	// Legacy single-target shape: the community posts with the user token.
	if len(s.Communities) == 0 {
		legacy := map[string]any{}
		for _, k := range []string{"groupId", "group_id", "ownerId", "owner_id"} {
			if v, ok := m[k]; ok {
				legacy[k] = v
			}
		}
		if c, ok := looseCommunity(legacy); ok {
			c.IsSelected = true
			c.AccessToken = s.AccessToken
			c.AccessTokenExpiresAt = s.AccessTokenExpiresAt
			s.Communities = append(s.Communities, c)
		}
	}

	return VK(s)
}

func looseCommunity(v any) (models.VKCommunity, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		if _, isNum := number(v); !isNum {
			return models.VKCommunity{}, false
		}
		m = map[string]any{"groupId": v}
	}

	var groupID int64
	for _, k := range []string{"groupId", "group_id", "id", "ownerId", "owner_id"} {
		if n, ok := number(m[k]); ok && n != 0 {
			groupID, _ = positiveID(n)
			break
		}
	}
	if groupID == 0 {
		return models.VKCommunity{}, false
	}

	return models.VKCommunity{
		GroupID:              groupID,
		OwnerID:              str(m, "ownerId", "owner_id"),
		Name:                 str(m, "name", "title"),
		ScreenName:           str(m, "screenName", "screen_name"),
		PhotoURL:             str(m, "photoUrl", "photo_url", "photo_200", "photo"),
		AccessToken:          str(m, "accessToken", "access_token", "token"),
		AccessTokenExpiresAt: timestamp(m, "accessTokenExpiresAt", "access_token_expires_at", "expiresAt", "expires_at"),
		Scope:                str(m, "scope"),
		Permissions:          stringSet(m, "permissions"),
		ObtainedAt:           timestamp(m, "obtainedAt", "obtained_at"),
		IsSelected:           flag(m, true, "isSelected", "is_selected", "selected", "enabled"),
	}, true
}

// positiveID maps a whole number to its absolute value as int64. Fractions
// and magnitudes beyond int64 are rejected.
func positiveID(n float64) (int64, bool) {
	a := math.Abs(n)
	if a < 1 || a != math.Trunc(a) || a >= math.MaxInt64 {
		return 0, false
	}
	return int64(a), true
}

// VK clamps group ids to positive values, derives owner ids, drops entries
// without a usable group id and merges duplicates by group id (first
// position kept, later non-empty fields win).
func VK(s models.VKSettings) models.VKSettings {
	s = s.Clone()

	index := make(map[int64]int, len(s.Communities))
	out := make([]models.VKCommunity, 0, len(s.Communities))
	for _, c := range s.Communities {
		if c.GroupID < 0 {
			c.GroupID = -c.GroupID
		}
		// MinInt64 stays negative after the flip.
		if c.GroupID <= 0 {
			continue
		}
		c.OwnerID = ownerID(c.OwnerID, c.GroupID)
		c.Permissions = uniqueSorted(c.Permissions)

		if i, dup := index[c.GroupID]; dup {
			out[i] = OverlayCommunity(out[i], c)
			continue
		}
		index[c.GroupID] = len(out)
		out = append(out, c)
	}
	s.Communities = out
	return s
}

// ownerID keeps an explicit signed, non-zero owner id and otherwise derives
// "-{groupID}".
func ownerID(explicit string, groupID int64) string {
	explicit = strings.TrimSpace(explicit)
	if strings.HasPrefix(explicit, "-") {
		if n, err := strconv.ParseInt(explicit, 10, 64); err == nil && n != 0 {
			return explicit
		}
	}
	return models.DefaultOwnerID(groupID)
}

// OverlayCommunity returns base with every non-empty field of top applied.
// Credential fields travel together: when top carries an access token its
// expiry, scope, permissions and obtainedAt replace base's even if empty.
// IsSelected always comes from top.
func OverlayCommunity(base, top models.VKCommunity) models.VKCommunity {
	out := base.Clone()
	top = top.Clone()

	if top.OwnerID != "" {
		out.OwnerID = top.OwnerID
	}
	if top.Name != "" {
		out.Name = top.Name
	}
	if top.ScreenName != "" {
		out.ScreenName = top.ScreenName
	}
	if top.PhotoURL != "" {
		out.PhotoURL = top.PhotoURL
	}
	if top.AccessToken != "" {
		out.AccessToken = top.AccessToken
		out.AccessTokenExpiresAt = top.AccessTokenExpiresAt
		out.ObtainedAt = top.ObtainedAt
		out.Scope = top.Scope
		out.Permissions = top.Permissions
	} else {
		if top.Scope != "" {
			out.Scope = top.Scope
		}
		if len(top.Permissions) > 0 {
			out.Permissions = top.Permissions
		}
	}
	out.IsSelected = top.IsSelected
	return out
}

func uniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	slices.Sort(out)
	return slices.Compact(out)
}
