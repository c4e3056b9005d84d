package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNormalize(t *testing.T, raw string) models.AppConfig {
	t.Helper()
	cfg, err := Normalize([]byte(raw))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNormalize_EmptyInputYieldsBothDisabledDefaults(t *testing.T) {
	for _, raw := range []string{"", "null", "{}", "[]"} {
		cfg := mustNormalize(t, raw)

		require.Len(t, cfg.Platforms, 2)
		assert.Equal(t, models.PlatformTelegram, cfg.Platforms[0].Platform)
		assert.Equal(t, models.PlatformVK, cfg.Platforms[1].Platform)
		assert.False(t, cfg.Platforms[0].Enabled)
		assert.False(t, cfg.Platforms[1].Enabled)

		_, tg := cfg.Telegram()
		require.Len(t, tg.Channels, 1, "placeholder row")
		assert.Equal(t, models.TelegramChannel{}, tg.Channels[0])
	}
}

func TestNormalize_MalformedJSON(t *testing.T) {
	_, err := Normalize([]byte(`{"platforms":`))
	require.ErrorIs(t, err, common.ErrMalformedConfig)
}

func TestNormalize_DropsUnknownPlatformsAndNonObjectSettings(t *testing.T) {
	cfg := mustNormalize(t, `{"platforms":[
		{"platform":"myspace","enabled":true,"settings":{}},
		{"platform":"telegram","enabled":true,"settings":"broken"},
		{"platform":"vk","enabled":true,"settings":{"communities":[7]}}
	]}`)

	tg, _ := cfg.Telegram()
	assert.False(t, tg.Enabled, "telegram entry with string settings is dropped and replaced by a default")

	vk, vks := cfg.VK()
	assert.True(t, vk.Enabled)
	require.Len(t, vks.Communities, 1)
	assert.Equal(t, int64(7), vks.Communities[0].GroupID)
}

func TestNormalize_TelegramChannelShapes(t *testing.T) {
	cfg := mustNormalize(t, `{"platforms":[{"platform":"telegram","enabled":true,"settings":{
		"bot_token":" 123:abc ",
		"channels":[
			"@chan1",
			-1001234,
			{"id":"@chan2","selected":false,"title":"Second"},
			{"channelId":"@chan1","enabled":true},
			{"chatId":""},
			"   ",
			true
		]}}]}`)

	_, s := cfg.Telegram()
	assert.Equal(t, "123:abc", s.BotToken)

	want := []models.TelegramChannel{
		{ChatID: "@chan1", IsSelected: true},
		{ChatID: "-1001234", IsSelected: true},
		{ChatID: "@chan2", IsSelected: false, Label: "Second"},
		{ChatID: "@chan1", IsSelected: true},
		{ChatID: "", IsSelected: true},
	}
	assert.Empty(t, cmp.Diff(want, s.Channels))
}

func TestNormalize_TelegramLegacyChatID(t *testing.T) {
	cfg := mustNormalize(t, `{"telegram":{"enabled":true,"botToken":"t","chatId":"@legacy"}}`)

	tg, s := cfg.Telegram()
	assert.True(t, tg.Enabled)
	assert.Equal(t, []models.TelegramChannel{{ChatID: "@legacy", IsSelected: true}}, s.Channels)
}

func TestNormalize_VKCommunities(t *testing.T) {
	cfg := mustNormalize(t, `{"platforms":{"vk":{"enabled":true,"settings":{
		"access_token":"user-tok",
		"refresh_token":"r",
		"device_id":"d",
		"user_id":555,
		"communities":[
			{"groupId":"-12","name":"Twelve","access_token":"c12","expiresAt":"2030-01-01T00:00:00Z","permissions":"wall, photos,wall"},
			{"id":"club34","ownerId":"-99","isSelected":false},
			{"group_id":0,"name":"zero"},
			{"name":"no id"},
			{"groupId":12,"screen_name":"twelve","isSelected":false}
		]}}}}`)

	_, s := cfg.VK()
	assert.Equal(t, "user-tok", s.AccessToken)
	assert.Equal(t, "555", s.UserID)
	require.Len(t, s.Communities, 2)

	c12 := s.Communities[0]
	assert.Equal(t, int64(12), c12.GroupID)
	assert.Equal(t, "-12", c12.OwnerID)
	assert.Equal(t, "Twelve", c12.Name)
	assert.Equal(t, "twelve", c12.ScreenName, "duplicate merged into first position")
	assert.Equal(t, "c12", c12.AccessToken)
	assert.False(t, c12.IsSelected, "selection comes from the later duplicate")
	assert.Equal(t, []string{"photos", "wall"}, c12.Permissions)
	require.NotNil(t, c12.AccessTokenExpiresAt)
	assert.True(t, c12.AccessTokenExpiresAt.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))

	c34 := s.Communities[1]
	assert.Equal(t, int64(34), c34.GroupID)
	assert.Equal(t, "-99", c34.OwnerID)
}

func TestNormalize_VKLegacyOwnerIDInheritsUserToken(t *testing.T) {
	cfg := mustNormalize(t, `{"vk":{"enabled":true,"accessToken":"tok","accessTokenExpiresAt":1893456000000,"ownerId":"-77"}}`)

	_, s := cfg.VK()
	require.Len(t, s.Communities, 1)
	c := s.Communities[0]
	assert.Equal(t, int64(77), c.GroupID)
	assert.Equal(t, "-77", c.OwnerID)
	assert.True(t, c.IsSelected)
	assert.Equal(t, "tok", c.AccessToken)
	require.NotNil(t, c.AccessTokenExpiresAt)
	assert.Equal(t, int64(1893456000), c.AccessTokenExpiresAt.Unix())
}

func TestNormalize_FirstEntryPerPlatformWins(t *testing.T) {
	cfg := mustNormalize(t, `[
		{"platform":"vk","enabled":true,"settings":{}},
		{"platform":"vk","enabled":false,"settings":{}},
		{"platform":"telegram","enabled":true,"settings":{}}
	]`)

	assert.Equal(t, models.PlatformTelegram, cfg.Platforms[0].Platform)
	vk, _ := cfg.VK()
	assert.True(t, vk.Enabled)
}

func TestConfig_RepairsTypedConfig(t *testing.T) {
	in := models.AppConfig{Platforms: []models.PlatformConfig{
		{Platform: models.PlatformVK, Enabled: true, Settings: models.VKSettings{Communities: []models.VKCommunity{
			{GroupID: -5, OwnerID: "garbage"},
			{GroupID: 0},
		}}},
		{Platform: models.PlatformTelegram, Enabled: true, Settings: models.VKSettings{}},
	}}

	out := Config(in)
	require.NoError(t, out.Validate())

	tg, tgs := out.Telegram()
	assert.False(t, tg.Enabled, "mismatched settings replaced by default")
	assert.Len(t, tgs.Channels, 1)

	_, vks := out.VK()
	require.Len(t, vks.Communities, 1)
	assert.Equal(t, int64(5), vks.Communities[0].GroupID)
	assert.Equal(t, "-5", vks.Communities[0].OwnerID)
}

func TestOverlayCommunity_CredentialsMoveTogether(t *testing.T) {
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	base := models.VKCommunity{GroupID: 1, Name: "Base", AccessToken: "old", AccessTokenExpiresAt: &old, Scope: "wall"}

	withToken := OverlayCommunity(base, models.VKCommunity{GroupID: 1, AccessToken: "new", IsSelected: true})
	assert.Equal(t, "new", withToken.AccessToken)
	assert.Nil(t, withToken.AccessTokenExpiresAt)
	assert.Empty(t, withToken.Scope)
	assert.Equal(t, "Base", withToken.Name)

	noToken := OverlayCommunity(base, models.VKCommunity{GroupID: 1, Name: "Renamed"})
	assert.Equal(t, "old", noToken.AccessToken)
	assert.Equal(t, &old, noToken.AccessTokenExpiresAt)
	assert.Equal(t, "Renamed", noToken.Name)
	assert.False(t, noToken.IsSelected)
}

func TestNormalize_VKDropsGroupIDsOutsideInt64(t *testing.T) {
	cfg := mustNormalize(t, `{"vk":{"communities":[
		{"groupId":1e30,"accessToken":"t"},
		{"groupId":-1e30,"accessToken":"t"},
		{"groupId":12.5},
		{"groupId":"-9223372036854775808"},
		{"groupId":77}
	]}}`)

	_, s := cfg.VK()
	require.Len(t, s.Communities, 1)
	assert.Equal(t, int64(77), s.Communities[0].GroupID)
	assert.Equal(t, "-77", s.Communities[0].OwnerID)
}

func TestVK_DropsNonPositiveGroupIDs(t *testing.T) {
	s := VK(models.VKSettings{Communities: []models.VKCommunity{
		{GroupID: math.MinInt64},
		{GroupID: -5},
	}})

	require.Len(t, s.Communities, 1)
	assert.Equal(t, int64(5), s.Communities[0].GroupID)
}
