package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/crossposter/internal/adapters/telegram"
	"github.com/dmitrijs2005/crossposter/internal/adapters/vk"
	"github.com/dmitrijs2005/crossposter/internal/cache"
	"github.com/dmitrijs2005/crossposter/internal/client/config"
	"github.com/dmitrijs2005/crossposter/internal/client/services"
	"github.com/dmitrijs2005/crossposter/internal/credentials"
	"github.com/dmitrijs2005/crossposter/internal/filex"
	"github.com/dmitrijs2005/crossposter/internal/imagesource"
	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/proxyclient"
	"github.com/dmitrijs2005/crossposter/internal/publish"
	"github.com/dmitrijs2005/crossposter/internal/remoteconfig"
	"github.com/dmitrijs2005/crossposter/internal/session"

	_ "modernc.org/sqlite"
)

type authService interface {
	Register(ctx context.Context, login string, password []byte) error
	Login(ctx context.Context, login string, password []byte) error
	Logout(ctx context.Context)
	IsLoggedIn() bool
}

type postService interface {
	Publish(ctx context.Context, content string, imageRefs []string) (models.PublishResponse, error)
}

type configService interface {
	Import(ctx context.Context, path string) (models.AppConfig, error)
	Current(ctx context.Context) (models.AppConfig, error)
	MigrateLegacy(ctx context.Context, path string) (bool, error)
	RefreshVK(ctx context.Context) (models.AppConfig, error)
}

type App struct {
	config  *config.Config
	auth    authService
	posts   postService
	configs configService
	session *session.Session
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	db      *sql.DB
}

// NewApp wires the client: local cache, credential store, session, proxy
// client, remote config, image loader, platform adapters and coordinator.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(os.Stderr, "text", c.LogLevel)

	if _, err := filex.EnsureParentDir(c.CachePath); err != nil {
		return nil, err
	}
	db, err := cache.Open(ctx, c.CachePath)
	if err != nil {
		return nil, err
	}

	sess := session.New()
	proxy := proxyclient.New(c.ProxyURL, sess, log,
		proxyclient.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}))

	store := credentials.NewStore(cache.NewSQLiteRepository(db), log,
		credentials.WithRefresher(proxy),
		credentials.WithOwner(sess.UserID))
	sess.OnSessionChanged(func(ev session.Event) {
		switch ev.Kind {
		case session.Started:
			store.DropUnscoped(context.Background())
		case session.Ended:
			store.ClearUser(context.Background(), ev.UserID)
		}
	})

	loader, err := newImageLoader(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	remote := remoteconfig.NewService(proxy, sess, store, log)
	coordinator := publish.NewService(
		telegram.NewAdapter(proxy, log),
		vk.NewAdapter(proxy, store, log),
		log,
	)

	return &App{
		config:  c,
		auth:    services.NewAuthService(proxy, sess, log),
		posts:   services.NewPostService(remote, loader, coordinator, log),
		configs: services.NewConfigService(remote, log),
		session: sess,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		db:      db,
	}, nil
}

func newImageLoader(ctx context.Context, c *config.Config) (*imagesource.Loader, error) {
	if c.S3Endpoint == "" && c.S3AccessKey == "" {
		return imagesource.NewLoader(nil), nil
	}
	client, err := imagesource.NewS3Client(ctx, imagesource.S3Config{
		Region:       c.S3Region,
		Endpoint:     c.S3Endpoint,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		UsePathStyle: c.S3Endpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return imagesource.NewLoader(client), nil
}

// Run blocks in the REPL until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	printlnFn("Welcome to crossposter (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}

func (a *App) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "close cache failed", "error", err)
	}
}

func (a *App) status() string {
	if a.session == nil || !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.session.Login())
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsLoggedIn()
}
