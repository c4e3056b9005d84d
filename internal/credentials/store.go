// Package credentials keeps the local VK token cache consistent with the VK
// settings of the loaded configuration.
//
// With an owner set every record is keyed by the app user id, so one user's
// tokens never surface in another user's session.
//
// The cache is best effort: storage failures are logged and swallowed, a
// missing record is a normal miss. All read-merge-write sequences run under
// one mutex so concurrent publishes and config saves cannot interleave.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/cache"
	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/normalize"
)

// DefaultExpiryBuffer is subtracted from a token expiry before comparing it
// with the current time.
const DefaultExpiryBuffer = 60 * time.Second

// Refresher exchanges a VK refresh token for a new access token.
type Refresher interface {
	RefreshVKToken(ctx context.Context, refreshToken, deviceID string) (models.VKTokenGrant, error)
}

type Store struct {
	mu        sync.Mutex
	repo      cache.Repository
	refresher Refresher
	log       logging.Logger
	now       func() time.Time
	owner     func() (string, bool)
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRefresher sets the token exchange collaborator used by Refresh.
func WithRefresher(r Refresher) Option {
	return func(s *Store) { s.refresher = r }
}

// WithOwner scopes the cache record to the app user returned by owner.
// While owner reports no user the cache reads as empty and writes are
// dropped.
func WithOwner(owner func() (string, bool)) Option {
	return func(s *Store) { s.owner = owner }
}

// CacheKey is the cache key of the record owned by userID.
func CacheKey(userID string) string {
	return common.VKTokenCacheKey + ":" + userID
}

func NewStore(repo cache.Repository, log logging.Logger, opts ...Option) *Store {
	s := &Store{repo: repo, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now is the store clock.
func (s *Store) Now() time.Time { return s.now() }

// Cached returns the stored record, if any.
func (s *Store) Cached(ctx context.Context) (*models.StoredVkToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// MergeWithCache returns in with cached scalar token fields taking
// precedence and the community lists merged by group id (cache as base,
// in as overlay, sorted by group id). Without a cache record in is returned
// unchanged.
func (s *Store) MergeWithCache(ctx context.Context, in models.VKSettings) models.VKSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := in.Clone()
	stored, ok := s.load(ctx)
	if !ok {
		return out
	}
	return merge(out, stored)
}

func merge(in models.VKSettings, stored *models.StoredVkToken) models.VKSettings {
	out := in
	if stored.AccessToken != "" {
		out.AccessToken = stored.AccessToken
	}
	if stored.AccessTokenExpiresAt != nil {
		t := *stored.AccessTokenExpiresAt
		out.AccessTokenExpiresAt = &t
	}
	if stored.RefreshToken != "" {
		out.RefreshToken = stored.RefreshToken
	}
	if stored.DeviceID != "" {
		out.DeviceID = stored.DeviceID
	}
	if stored.UserID != "" {
		out.UserID = stored.UserID
	}
	if stored.Scope != "" {
		out.Scope = stored.Scope
	}
	if stored.LastSyncedAt != nil && (out.LastSyncedAt == nil || stored.LastSyncedAt.After(*out.LastSyncedAt)) {
		t := *stored.LastSyncedAt
		out.LastSyncedAt = &t
	}
	out.Communities = mergeCommunities(stored.Communities, in.Communities)
	return out
}

func mergeCommunities(base, overlay []models.VKCommunity) []models.VKCommunity {
	byID := make(map[int64]models.VKCommunity, len(base)+len(overlay))
	for _, c := range base {
		if c.GroupID <= 0 {
			continue
		}
		byID[c.GroupID] = c.Clone()
	}
	for _, c := range overlay {
		if c.GroupID <= 0 {
			continue
		}
		if prev, ok := byID[c.GroupID]; ok {
			byID[c.GroupID] = normalize.OverlayCommunity(prev, c)
			continue
		}
		byID[c.GroupID] = c.Clone()
	}

	out := make([]models.VKCommunity, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.VKCommunity) int {
		switch {
		case a.GroupID < b.GroupID:
			return -1
		case a.GroupID > b.GroupID:
			return 1
		}
		return 0
	})
	return out
}

// Persist writes settings to the cache stamped with the current time. Empty
// settings clear the record instead.
func (s *Store) Persist(ctx context.Context, settings models.VKSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(ctx, settings)
}

func (s *Store) persist(ctx context.Context, settings models.VKSettings) {
	if settings.IsEmpty() {
		s.clear(ctx)
		return
	}

	settings = settings.Clone()
	rec := models.StoredVkToken{
		AccessToken:          settings.AccessToken,
		AccessTokenExpiresAt: settings.AccessTokenExpiresAt,
		RefreshToken:         settings.RefreshToken,
		DeviceID:             settings.DeviceID,
		UserID:               settings.UserID,
		Scope:                settings.Scope,
		Communities:          mergeCommunities(nil, settings.Communities),
		LastSyncedAt:         settings.LastSyncedAt,
		UpdatedAt:            s.now().UTC(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		s.log.Error(ctx, "vk token cache encode failed", "error", err)
		return
	}
	key, ok := s.key()
	if !ok {
		s.log.Debug(ctx, "vk token cache write skipped, no user")
		return
	}
	if err := s.repo.Set(ctx, key, data); err != nil {
		s.log.Warn(ctx, "vk token cache write failed", "error", err)
	}
}

// Clear removes the cached record.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear(ctx)
}

// ClearUser removes the record owned by userID. Session listeners call it
// after the session is gone, when the owner func no longer reports the user.
func (s *Store) ClearUser(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Delete(ctx, CacheKey(userID)); err != nil {
		s.log.Warn(ctx, "vk token cache clear failed", "error", err)
	}
}

// DropUnscoped removes a record stored under the bare key, which has no
// known owner.
func (s *Store) DropUnscoped(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Delete(ctx, common.VKTokenCacheKey); err != nil {
		s.log.Warn(ctx, "vk token cache clear failed", "error", err)
	}
}

func (s *Store) clear(ctx context.Context) {
	key, ok := s.key()
	if !ok {
		return
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		s.log.Warn(ctx, "vk token cache clear failed", "error", err)
	}
}

func (s *Store) load(ctx context.Context) (*models.StoredVkToken, bool) {
	key, ok := s.key()
	if !ok {
		return nil, false
	}
	data, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "vk token cache read failed", "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var rec models.StoredVkToken
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warn(ctx, "vk token cache record is corrupt", "error", err)
		return nil, false
	}
	return &rec, true
}

func (s *Store) key() (string, bool) {
	if s.owner == nil {
		return common.VKTokenCacheKey, true
	}
	userID, ok := s.owner()
	if !ok || userID == "" {
		return "", false
	}
	return CacheKey(userID), true
}

// IsExpired reports whether the user-level token is unusable: missing, or
// expiring within buffer. A token without an expiry never expires.
func (s *Store) IsExpired(settings models.VKSettings, buffer time.Duration) bool {
	return Expired(s.now(), settings.AccessToken, settings.AccessTokenExpiresAt, buffer)
}

// IsCommunityExpired applies the IsExpired rule to a community token.
func (s *Store) IsCommunityExpired(c models.VKCommunity, buffer time.Duration) bool {
	return Expired(s.now(), c.AccessToken, c.AccessTokenExpiresAt, buffer)
}

// Expired is true when token is empty or now >= expiresAt - buffer.
func Expired(now time.Time, token string, expiresAt *time.Time, buffer time.Duration) bool {
	if token == "" {
		return true
	}
	if expiresAt == nil {
		return false
	}
	return !now.Before(expiresAt.Add(-buffer))
}

// Refresh exchanges the refresh token (from settings, else from the cache)
// for a new access token, persists and returns the updated settings.
// On missing refresh credentials or a failed exchange the cache is cleared
// and ok is false; the caller has to re-authorize.
func (s *Store) Refresh(ctx context.Context, settings models.VKSettings) (models.VKSettings, bool) {
	refreshToken, deviceID := settings.RefreshToken, settings.DeviceID
	if refreshToken == "" || deviceID == "" {
		if stored, ok := s.Cached(ctx); ok {
			if refreshToken == "" {
				refreshToken = stored.RefreshToken
			}
			if deviceID == "" {
				deviceID = stored.DeviceID
			}
		}
	}

	if refreshToken == "" || deviceID == "" || s.refresher == nil {
		s.log.Warn(ctx, "vk token refresh skipped", "error", common.ErrNoRefreshCredentials)
		s.Clear(ctx)
		return models.VKSettings{}, false
	}

	grant, err := s.refresher.RefreshVKToken(ctx, refreshToken, deviceID)
	if err == nil && grant.AccessToken == "" {
		err = errors.New("empty access token in refresh grant")
	}
	if err != nil {
		s.log.Error(ctx, "vk token refresh failed", "error", err)
		s.Clear(ctx)
		return models.VKSettings{}, false
	}

	out := settings.Clone()
	out.AccessToken = grant.AccessToken
	out.RefreshToken = refreshToken
	if grant.RefreshToken != "" {
		out.RefreshToken = grant.RefreshToken
	}
	out.DeviceID = deviceID
	if grant.DeviceID != "" {
		out.DeviceID = grant.DeviceID
	}
	out.AccessTokenExpiresAt = nil
	if !grant.ExpiresAt.IsZero() {
		t := grant.ExpiresAt.UTC()
		out.AccessTokenExpiresAt = &t
	}
	if grant.Scope != "" {
		out.Scope = grant.Scope
	}
	if grant.UserID != "" {
		out.UserID = grant.UserID
	}
	now := s.now().UTC()
	out.LastSyncedAt = &now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(ctx, out)
	return out, true
}
