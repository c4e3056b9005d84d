package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newMemRepo() *memRepo { return &memRepo{data: map[string][]byte{}} }

func (m *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.data[key], nil
}

func (m *memRepo) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memRepo) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memRepo) Clear(_ context.Context) error {
	m.data = map[string][]byte{}
	return nil
}

type fakeRefresher struct {
	grant models.VKTokenGrant
	err   error
	calls int
	gotRT string
	gotD  string
}

func (f *fakeRefresher) RefreshVKToken(_ context.Context, rt, device string) (models.VKTokenGrant, error) {
	f.calls++
	f.gotRT, f.gotD = rt, device
	return f.grant, f.err
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(repo *memRepo, opts ...Option) *Store {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewStore(repo, logging.Nop(), opts...)
}

func ptr(t time.Time) *time.Time { return &t }

func TestMergeWithCache_NoRecordReturnsInput(t *testing.T) {
	s := newTestStore(newMemRepo())
	in := models.VKSettings{AccessToken: "in", Communities: []models.VKCommunity{{GroupID: 2, OwnerID: "-2"}}}

	out := s.MergeWithCache(context.Background(), in)
	assert.Empty(t, cmp.Diff(in, out))
}

func TestMergeWithCache_CacheScalarsWinCommunitiesOverlay(t *testing.T) {
	repo := newMemRepo()
	s := newTestStore(repo)
	ctx := context.Background()

	s.Persist(ctx, models.VKSettings{
		AccessToken:  "cached-user",
		RefreshToken: "cached-rt",
		DeviceID:     "dev",
		Communities: []models.VKCommunity{
			{GroupID: 30, OwnerID: "-30", Name: "Cached only", AccessToken: "c30", IsSelected: true},
			{GroupID: 10, OwnerID: "-10", Name: "Old name", AccessToken: "fresh-from-oauth",
				AccessTokenExpiresAt: ptr(fixedNow.Add(time.Hour))},
		},
	})

	in := models.VKSettings{
		AccessToken: "stale-user",
		UserID:      "42",
		Communities: []models.VKCommunity{
			{GroupID: 20, OwnerID: "-20", AccessToken: "t20", IsSelected: true},
			{GroupID: 10, OwnerID: "-10", Name: "New name", IsSelected: true},
		},
	}

	out := s.MergeWithCache(ctx, in)

	assert.Equal(t, "cached-user", out.AccessToken)
	assert.Equal(t, "cached-rt", out.RefreshToken)
	assert.Equal(t, "dev", out.DeviceID)
	assert.Equal(t, "42", out.UserID, "input kept where the cache has nothing")

	require.Len(t, out.Communities, 3)
	assert.Equal(t, []int64{10, 20, 30}, []int64{out.Communities[0].GroupID, out.Communities[1].GroupID, out.Communities[2].GroupID})

	c10 := out.Communities[0]
	assert.Equal(t, "New name", c10.Name)
	assert.Equal(t, "fresh-from-oauth", c10.AccessToken, "cached token survives an input without one")
	require.NotNil(t, c10.AccessTokenExpiresAt)
	assert.True(t, c10.IsSelected)
}

func TestMergeWithCache_InputTokenReplacesCredentialGroup(t *testing.T) {
	s := newTestStore(newMemRepo())
	ctx := context.Background()
	s.Persist(ctx, models.VKSettings{Communities: []models.VKCommunity{
		{GroupID: 1, AccessToken: "old", AccessTokenExpiresAt: ptr(fixedNow), Scope: "wall", Permissions: []string{"wall"}},
	}})

	out := s.MergeWithCache(ctx, models.VKSettings{Communities: []models.VKCommunity{
		{GroupID: 1, AccessToken: "new", IsSelected: true},
	}})

	require.Len(t, out.Communities, 1)
	c := out.Communities[0]
	assert.Equal(t, "new", c.AccessToken)
	assert.Nil(t, c.AccessTokenExpiresAt)
	assert.Empty(t, c.Scope)
	assert.Empty(t, c.Permissions)
}

func TestMergeAndPersist_IsIdempotent(t *testing.T) {
	repo := newMemRepo()
	s := newTestStore(repo)
	ctx := context.Background()

	s.Persist(ctx, models.VKSettings{
		RefreshToken: "rt",
		Communities:  []models.VKCommunity{{GroupID: 5, AccessToken: "c5"}},
	})

	in := models.VKSettings{
		AccessToken: "u",
		Communities: []models.VKCommunity{
			{GroupID: 7, OwnerID: "-7", AccessToken: "c7", IsSelected: true},
			{GroupID: 5, OwnerID: "-5", Name: "five", IsSelected: true},
		},
	}

	s.Persist(ctx, s.MergeWithCache(ctx, in))
	once := append([]byte(nil), repo.data[common.VKTokenCacheKey]...)

	s.Persist(ctx, s.MergeWithCache(ctx, in))
	twice := repo.data[common.VKTokenCacheKey]

	assert.JSONEq(t, string(once), string(twice))
}

func TestPersist_EmptySettingsClearsRecord(t *testing.T) {
	repo := newMemRepo()
	s := newTestStore(repo)
	ctx := context.Background()

	s.Persist(ctx, models.VKSettings{AccessToken: "x"})
	require.Contains(t, repo.data, common.VKTokenCacheKey)

	s.Persist(ctx, models.VKSettings{DeviceID: "only-device"})
	assert.NotContains(t, repo.data, common.VKTokenCacheKey)
}

func TestPersist_StampsUpdatedAtAndSortsCommunities(t *testing.T) {
	repo := newMemRepo()
	s := newTestStore(repo)
	ctx := context.Background()

	s.Persist(ctx, models.VKSettings{Communities: []models.VKCommunity{{GroupID: 9}, {GroupID: 3}}})

	var rec models.StoredVkToken
	require.NoError(t, json.Unmarshal(repo.data[common.VKTokenCacheKey], &rec))
	assert.True(t, rec.UpdatedAt.Equal(fixedNow))
	require.Len(t, rec.Communities, 2)
	assert.Equal(t, int64(3), rec.Communities[0].GroupID)
}

func TestStore_StorageErrorsAreSwallowed(t *testing.T) {
	repo := newMemRepo()
	repo.getErr = errors.New("disk gone")
	repo.setErr = errors.New("disk gone")
	s := newTestStore(repo)
	ctx := context.Background()

	in := models.VKSettings{AccessToken: "a"}
	require.NotPanics(t, func() { s.Persist(ctx, in) })
	assert.Equal(t, in, s.MergeWithCache(ctx, in))
	_, ok := s.Cached(ctx)
	assert.False(t, ok)
}

func TestStore_CorruptRecordIsAMiss(t *testing.T) {
	repo := newMemRepo()
	repo.data[common.VKTokenCacheKey] = []byte("{not json")
	s := newTestStore(repo)

	in := models.VKSettings{AccessToken: "a"}
	assert.Equal(t, in, s.MergeWithCache(context.Background(), in))
}

func TestIsCommunityExpired_Boundary(t *testing.T) {
	s := newTestStore(newMemRepo())

	tests := []struct {
		name    string
		c       models.VKCommunity
		expired bool
	}{
		{name: "59s ahead", c: models.VKCommunity{AccessToken: "t", AccessTokenExpiresAt: ptr(fixedNow.Add(59 * time.Second))}, expired: true},
		{name: "exactly 60s ahead", c: models.VKCommunity{AccessToken: "t", AccessTokenExpiresAt: ptr(fixedNow.Add(60 * time.Second))}, expired: true},
		{name: "61s ahead", c: models.VKCommunity{AccessToken: "t", AccessTokenExpiresAt: ptr(fixedNow.Add(61 * time.Second))}, expired: false},
		{name: "in the past", c: models.VKCommunity{AccessToken: "t", AccessTokenExpiresAt: ptr(fixedNow.Add(-time.Hour))}, expired: true},
		{name: "no expiry", c: models.VKCommunity{AccessToken: "t"}, expired: false},
		{name: "no token", c: models.VKCommunity{}, expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, s.IsCommunityExpired(tt.c, DefaultExpiryBuffer))
		})
	}
}

func TestIsExpired_UserToken(t *testing.T) {
	s := newTestStore(newMemRepo())

	assert.True(t, s.IsExpired(models.VKSettings{}, DefaultExpiryBuffer))
	assert.False(t, s.IsExpired(models.VKSettings{AccessToken: "t"}, DefaultExpiryBuffer))
	assert.True(t, s.IsExpired(models.VKSettings{AccessToken: "t", AccessTokenExpiresAt: ptr(fixedNow.Add(10 * time.Second))}, DefaultExpiryBuffer))
	assert.False(t, s.IsExpired(models.VKSettings{AccessToken: "t", AccessTokenExpiresAt: ptr(fixedNow.Add(10 * time.Second))}, 0))
}

func TestRefresh_SuccessPersistsGrant(t *testing.T) {
	repo := newMemRepo()
	r := &fakeRefresher{grant: models.VKTokenGrant{
		AccessToken:  "new-at",
		RefreshToken: "new-rt",
		ExpiresAt:    fixedNow.Add(time.Hour),
		Scope:        "wall,photos",
	}}
	s := newTestStore(repo, WithRefresher(r))
	ctx := context.Background()

	out, ok := s.Refresh(ctx, models.VKSettings{RefreshToken: "rt", DeviceID: "dev", UserID: "1"})
	require.True(t, ok)
	assert.Equal(t, "rt", r.gotRT)
	assert.Equal(t, "dev", r.gotD)
	assert.Equal(t, "new-at", out.AccessToken)
	assert.Equal(t, "new-rt", out.RefreshToken)
	assert.Equal(t, "wall,photos", out.Scope)
	assert.Equal(t, "1", out.UserID)
	require.NotNil(t, out.LastSyncedAt)

	stored, hit := s.Cached(ctx)
	require.True(t, hit)
	assert.Equal(t, "new-at", stored.AccessToken)
}

func TestRefresh_FallsBackToCachedCredentials(t *testing.T) {
	repo := newMemRepo()
	r := &fakeRefresher{grant: models.VKTokenGrant{AccessToken: "at"}}
	s := newTestStore(repo, WithRefresher(r))
	ctx := context.Background()
	s.Persist(ctx, models.VKSettings{RefreshToken: "cached-rt", DeviceID: "cached-dev"})

	out, ok := s.Refresh(ctx, models.VKSettings{})
	require.True(t, ok)
	assert.Equal(t, "cached-rt", r.gotRT)
	assert.Equal(t, "cached-dev", r.gotD)
	assert.Equal(t, "cached-rt", out.RefreshToken)
	assert.Nil(t, out.AccessTokenExpiresAt)
}

func TestRefresh_MissingCredentialsClearsCache(t *testing.T) {
	repo := newMemRepo()
	r := &fakeRefresher{}
	s := newTestStore(repo, WithRefresher(r))
	ctx := context.Background()
	s.Persist(ctx, models.VKSettings{AccessToken: "a", RefreshToken: "rt"})

	_, ok := s.Refresh(ctx, models.VKSettings{})
	assert.False(t, ok)
	assert.Equal(t, 0, r.calls)
	assert.NotContains(t, repo.data, common.VKTokenCacheKey)
}

func TestRefresh_FailedExchangeClearsCacheWithoutRetry(t *testing.T) {
	repo := newMemRepo()
	r := &fakeRefresher{err: errors.New("invalid_grant")}
	s := newTestStore(repo, WithRefresher(r))
	ctx := context.Background()
	s.Persist(ctx, models.VKSettings{AccessToken: "a"})

	_, ok := s.Refresh(ctx, models.VKSettings{RefreshToken: "rt", DeviceID: "d"})
	assert.False(t, ok)
	assert.Equal(t, 1, r.calls)
	assert.NotContains(t, repo.data, common.VKTokenCacheKey)
}

func TestRefresh_NoRefresherConfigured(t *testing.T) {
	s := newTestStore(newMemRepo())

	_, ok := s.Refresh(context.Background(), models.VKSettings{RefreshToken: "rt", DeviceID: "d"})
	assert.False(t, ok)
}

func TestStore_OwnerScopesRecord(t *testing.T) {
	repo := newMemRepo()
	user := "alice"
	s := newTestStore(repo, WithOwner(func() (string, bool) { return user, user != "" }))
	ctx := context.Background()

	s.Persist(ctx, models.VKSettings{Communities: []models.VKCommunity{{GroupID: 111, AccessToken: "alice-secret", IsSelected: true}}})
	require.Contains(t, repo.data, CacheKey("alice"))
	assert.NotContains(t, repo.data, common.VKTokenCacheKey)

	user = "bob"
	_, ok := s.Cached(ctx)
	assert.False(t, ok)
	in := models.VKSettings{Communities: []models.VKCommunity{{GroupID: 222, OwnerID: "-222"}}}
	assert.Equal(t, in, s.MergeWithCache(ctx, in))

	user = ""
	s.Persist(ctx, models.VKSettings{AccessToken: "nobody"})
	assert.Len(t, repo.data, 1)

	user = "alice"
	stored, ok := s.Cached(ctx)
	require.True(t, ok)
	require.Len(t, stored.Communities, 1)
	assert.Equal(t, "alice-secret", stored.Communities[0].AccessToken)
}

func TestStore_ClearUserAndDropUnscoped(t *testing.T) {
	repo := newMemRepo()
	repo.data[common.VKTokenCacheKey] = []byte(`{"accessToken":"legacy"}`)
	repo.data[CacheKey("alice")] = []byte(`{"accessToken":"a"}`)
	repo.data[CacheKey("bob")] = []byte(`{"accessToken":"b"}`)
	s := newTestStore(repo, WithOwner(func() (string, bool) { return "", false }))
	ctx := context.Background()

	s.DropUnscoped(ctx)
	assert.NotContains(t, repo.data, common.VKTokenCacheKey)

	s.ClearUser(ctx, "alice")
	s.ClearUser(ctx, "")
	assert.NotContains(t, repo.data, CacheKey("alice"))
	assert.Contains(t, repo.data, CacheKey("bob"))
}
