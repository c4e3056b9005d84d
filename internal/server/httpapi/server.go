// Package httpapi is the proxy's HTTP surface. Every response is a
// proxyapi.Envelope; upstream platform calls require a bearer token issued
// at login.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
	srvmodels "github.com/dmitrijs2005/crossposter/internal/server/models"
	"github.com/dmitrijs2005/crossposter/internal/server/services"
	"github.com/dmitrijs2005/crossposter/internal/server/upstream/telegram"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Register(ctx context.Context, login string, salt, verifier []byte) (*srvmodels.User, error)
	GetSalt(ctx context.Context, login string) ([]byte, error)
	Login(ctx context.Context, login string, verifier []byte) (string, *services.AccessToken, error)
	Authenticate(token string) (string, error)
}

type ConfigService interface {
	Get(ctx context.Context, userID string) (*srvmodels.ConfigBlob, error)
	Put(ctx context.Context, userID string, nonce, ciphertext []byte) (*srvmodels.ConfigBlob, error)
}

type TelegramClient interface {
	SendMessage(m telegram.Message) (int, error)
	SendPhoto(m telegram.Message) (int, error)
	SendMediaGroup(m telegram.Message) ([]int, error)
}

type VKClient interface {
	UploadWallPhoto(ctx context.Context, token, ownerID string, img models.Image) (string, error)
	Post(ctx context.Context, token, ownerID, message string, attachments []string) (int64, error)
	RefreshToken(ctx context.Context, refreshToken, deviceID string) (models.VKTokenGrant, error)
}

type Server struct {
	address        string
	users          UserService
	configs        ConfigService
	telegram       TelegramClient
	vk             VKClient
	logger         logging.Logger
	maxUploadBytes int64
}

func NewServer(address string, l logging.Logger, us UserService, cs ConfigService, tg TelegramClient, vk VKClient, maxUploadBytes int64) *Server {
	return &Server{
		address:        address,
		users:          us,
		configs:        cs,
		telegram:       tg,
		vk:             vk,
		logger:         l.With("module", "http_server"),
		maxUploadBytes: maxUploadBytes,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, proxyapi.Fail(proxyapi.CodeNotFound, "no such route"))
	})

	r.POST(proxyapi.RouteRegister, s.register)
	r.GET(proxyapi.RouteSalt, s.salt)
	r.POST(proxyapi.RouteLogin, s.login)

	authed := r.Group("/", s.authRequired())
	authed.GET(proxyapi.RouteConfig, s.getConfig)
	authed.PUT(proxyapi.RouteConfig, s.putConfig)

	authed.POST(proxyapi.RouteTelegramSendMessage, s.telegramSendMessage)
	authed.POST(proxyapi.RouteTelegramSendPhoto, s.limitUpload(), s.telegramSendPhoto)
	authed.POST(proxyapi.RouteTelegramSendMediaGroup, s.limitUpload(), s.telegramSendMediaGroup)

	authed.POST(proxyapi.RouteVKUploadPhoto, s.limitUpload(), s.vkUploadPhoto)
	authed.POST(proxyapi.RouteVKPost, s.vkPost)
	authed.POST(proxyapi.RouteVKRefreshToken, s.vkRefreshToken)

	return r
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
