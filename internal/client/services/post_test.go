package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	cfg     *models.AppConfig
	loadErr error

	saved      []models.AppConfig
	migrated   []string
	refreshed  int
	refreshErr error
}

func (f *fakeRemote) LoadConfig(context.Context) (*models.AppConfig, error) {
	return f.cfg, f.loadErr
}

func (f *fakeRemote) SaveConfig(_ context.Context, cfg models.AppConfig) (models.AppConfig, error) {
	cfg = normalize.Config(cfg)
	f.saved = append(f.saved, cfg)
	f.cfg = &cfg
	return cfg, nil
}

func (f *fakeRemote) MigrateLegacyLocalConfig(_ context.Context, path string) (bool, error) {
	f.migrated = append(f.migrated, path)
	return true, nil
}

func (f *fakeRemote) RefreshVK(context.Context) (models.AppConfig, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return models.AppConfig{}, f.refreshErr
	}
	return *f.cfg, nil
}

type fakeImages struct {
	refs []string
	err  error
}

func (f *fakeImages) Load(_ context.Context, refs []string) ([]models.Image, error) {
	f.refs = refs
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Image, 0, len(refs))
	for _, r := range refs {
		out = append(out, models.Image{Name: r, ContentType: "image/png", Data: []byte(r)})
	}
	return out, nil
}

type fakePublisher struct {
	drafts []models.PostDraft
	cfgs   []models.AppConfig
}

func (f *fakePublisher) Publish(_ context.Context, draft models.PostDraft, cfg models.AppConfig) (models.PublishResponse, error) {
	f.drafts = append(f.drafts, draft)
	f.cfgs = append(f.cfgs, cfg)
	return models.NewPublishResponse([]models.PostResult{{Platform: models.PlatformTelegram, Success: true}}), nil
}

func TestPostService_Publish(t *testing.T) {
	cfg := normalize.Value(nil)
	remote := &fakeRemote{cfg: &cfg}
	images := &fakeImages{}
	pub := &fakePublisher{}
	svc := NewPostService(remote, images, pub, logging.Nop())

	resp, err := svc.Publish(context.Background(), "  hello  ", []string{"a.png", "b.png"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalSuccess)

	require.Len(t, pub.drafts, 1)
	assert.Equal(t, "hello", pub.drafts[0].Content)
	assert.Len(t, pub.drafts[0].Images, 2)
	assert.Equal(t, cfg, pub.cfgs[0])
}

func TestPostService_Errors(t *testing.T) {
	ctx := context.Background()

	svc := NewPostService(&fakeRemote{}, &fakeImages{}, &fakePublisher{}, logging.Nop())
	_, err := svc.Publish(ctx, "  ", nil)
	require.ErrorContains(t, err, "post is empty")

	_, err = svc.Publish(ctx, "text", nil)
	require.ErrorIs(t, err, ErrNoConfig)

	svc = NewPostService(&fakeRemote{loadErr: errors.New("boom")}, &fakeImages{}, &fakePublisher{}, logging.Nop())
	_, err = svc.Publish(ctx, "text", nil)
	require.ErrorContains(t, err, "load config: boom")

	cfg := normalize.Value(nil)
	pub := &fakePublisher{}
	svc = NewPostService(&fakeRemote{cfg: &cfg}, &fakeImages{err: errors.New("too large")}, pub, logging.Nop())
	_, err = svc.Publish(ctx, "text", []string{"x.png"})
	require.ErrorContains(t, err, "load images: too large")
	assert.Empty(t, pub.drafts)
}

func TestConfigService_Import(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	doc := `{"telegram":{"enabled":true,"botToken":"bt","channels":[{"chatId":"@news","label":"News"}]}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	remote := &fakeRemote{}
	svc := NewConfigService(remote, logging.Nop())

	cfg, err := svc.Import(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, remote.saved, 1)

	pc, tg := cfg.Telegram()
	assert.True(t, pc.Enabled)
	assert.Equal(t, "bt", tg.BotToken)

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg, current)
}

func TestConfigService_ImportMissingFile(t *testing.T) {
	svc := NewConfigService(&fakeRemote{}, logging.Nop())
	_, err := svc.Import(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestConfigService_CurrentEmpty(t *testing.T) {
	svc := NewConfigService(&fakeRemote{}, logging.Nop())
	_, err := svc.Current(context.Background())
	require.ErrorIs(t, err, ErrNoConfig)
}

func TestConfigService_MigrateLegacy(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewConfigService(remote, logging.Nop())

	ok, err := svc.MigrateLegacy(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, remote.migrated)

	ok, err = svc.MigrateLegacy(context.Background(), "legacy.json")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"legacy.json"}, remote.migrated)
}

func TestSummary_HidesSecrets(t *testing.T) {
	cfg := models.AppConfig{Platforms: []models.PlatformConfig{
		{Platform: models.PlatformTelegram, Enabled: true, Settings: models.TelegramSettings{
			BotToken: "secret-bot",
			Channels: []models.TelegramChannel{{ChatID: "@a", Label: "A", IsSelected: true}, {ChatID: "@b"}},
		}},
		{Platform: models.PlatformVK, Settings: models.VKSettings{
			AccessToken: "secret-vk",
			Communities: []models.VKCommunity{{GroupID: 5, OwnerID: "-5", AccessToken: "secret-c"}},
		}},
	}}

	got := Summary(cfg)
	want := "telegram (enabled)\n" +
		"  [x] A\n" +
		"  [ ] @b\n" +
		"vk (disabled)\n" +
		"  [ ] Group 5 (-5)\n"
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "secret")
}
