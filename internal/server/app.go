// Package server wires the proxy: configuration, PostgreSQL storage and
// migrations, the upstream platform clients and the HTTP API, with graceful
// shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/server/config"
	"github.com/dmitrijs2005/crossposter/internal/server/httpapi"
	"github.com/dmitrijs2005/crossposter/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/crossposter/internal/server/services"
	"github.com/dmitrijs2005/crossposter/internal/server/upstream/telegram"
	"github.com/dmitrijs2005/crossposter/internal/server/upstream/vk"
)

const upstreamTimeout = 60 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, "json", c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	cs := services.NewConfigService(db, rm)

	upstream := &http.Client{Timeout: upstreamTimeout}
	tg := telegram.New(c.TelegramAPIEndpoint, c.TelegramBotToken, upstream)
	vkc := vk.New(vk.Config{
		APIURL:   c.VKAPIURL,
		Version:  c.VKAPIVersion,
		OAuthURL: c.VKOAuthURL,
		ClientID: c.VKClientID,
	}, upstream)

	if c.VKClientID == "" {
		logger.Warn(ctx, "VK client id not set, token refresh disabled")
	}

	hs := httpapi.NewServer(c.EndpointAddrHTTP, logger, us, cs, tg, vkc, c.MaxUploadBytes)

	return &App{config: c, logger: logger, db: db, http: hs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until the context is cancelled or the server fails, then
// closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
