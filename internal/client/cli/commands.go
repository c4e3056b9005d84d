package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/crossposter/internal/client/services"
	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/remoteconfig"
)

// getSimpleText, getPassword, getMultiline and getList are indirections used
// to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
	getList       = GetList
)

// Register prompts for a login and password and creates an account.
func (a *App) Register(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Register(ctx, login, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Registered. You can login now.")
	return nil
}

// Login authenticates and then migrates a legacy local config, if any.
func (a *App) Login(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, login, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged in.")

	migrated, err := a.configs.MigrateLegacy(ctx, a.config.LegacyConfigPath)
	if err != nil {
		a.log.Warn(ctx, "legacy config migration failed", "error", err)
		return nil
	}
	if migrated {
		fmt.Fprintf(a.out, "Imported local config %s.\n", a.config.LegacyConfigPath)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Publish reads the post text and image references and publishes the post
// to every enabled destination.
func (a *App) Publish(ctx context.Context) error {
	content, err := getMultiline(a.reader, "Enter post text", a.out)
	if err != nil {
		return err
	}
	refs, err := getList(a.reader, "Enter image paths or s3://bucket/key", a.out)
	if err != nil {
		return err
	}

	resp, err := a.posts.Publish(ctx, content, refs)
	if err != nil {
		if errors.Is(err, services.ErrNoConfig) {
			return fmt.Errorf("%w; run 'config import <file>' first", err)
		}
		return err
	}

	printResults(a, resp)
	return nil
}

func printResults(a *App, resp models.PublishResponse) {
	for _, r := range resp.Results {
		if r.Success {
			fmt.Fprintf(a.out, "  ok   %-8s %s\n", r.Platform, r.MessageID)
		} else {
			fmt.Fprintf(a.out, "  fail %-8s %s\n", r.Platform, r.Error)
		}
	}
	fmt.Fprintf(a.out, "Published: %d ok, %d failed\n", resp.TotalSuccess, resp.TotalFailure)
}

func (a *App) ConfigShow(ctx context.Context) error {
	cfg, err := a.configs.Current(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, services.Summary(cfg))
	return nil
}

func (a *App) ConfigImport(ctx context.Context, path string) error {
	cfg, err := a.configs.Import(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Config saved.")
	fmt.Fprint(a.out, services.Summary(cfg))
	return nil
}

func (a *App) VKRefresh(ctx context.Context) error {
	_, err := a.configs.RefreshVK(ctx)
	if errors.Is(err, remoteconfig.ErrReauthorize) {
		return fmt.Errorf("%w: import a config with a fresh VK token", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "VK token refreshed.")
	return nil
}
