// Package services contains the CLI's application services: authentication
// against the proxy and composing/publishing posts.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/cryptox"
	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
	"github.com/dmitrijs2005/crossposter/internal/session"
)

// AuthAPI is the proxy's account surface.
type AuthAPI interface {
	Register(ctx context.Context, login string, salt, verifier []byte) (string, error)
	Salt(ctx context.Context, login string) ([]byte, error)
	Login(ctx context.Context, login string, verifier []byte) (proxyapi.LoginResponse, error)
}

// AuthService registers users and manages the session. The password never
// leaves the client: the proxy only sees the salt and a verifier of the
// derived master key.
type AuthService struct {
	api     AuthAPI
	session *session.Session
	log     logging.Logger
}

func NewAuthService(api AuthAPI, s *session.Session, log logging.Logger) *AuthService {
	return &AuthService{api: api, session: s, log: log}
}

// Register creates an account with a fresh random salt.
func (a *AuthService) Register(ctx context.Context, login string, password []byte) error {
	login = strings.TrimSpace(login)
	if login == "" || len(password) == 0 {
		return fmt.Errorf("login and password are required")
	}

	salt := common.GenerateRandByteArray(32)
	key := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)

	if _, err := a.api.Register(ctx, login, salt, cryptox.MakeVerifier(key)); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	a.log.Info(ctx, "user registered", "login", login)
	return nil
}

// Login derives the master key, authenticates and starts the session.
func (a *AuthService) Login(ctx context.Context, login string, password []byte) error {
	login = strings.TrimSpace(login)

	salt, err := a.api.Salt(ctx, login)
	if err != nil {
		return fmt.Errorf("get salt: %w", err)
	}

	key := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)

	resp, err := a.api.Login(ctx, login, cryptox.MakeVerifier(key))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	a.session.Start(login, resp.UserID, resp.AccessToken, resp.ExpiresAt, key)
	a.log.Info(ctx, "logged in", "login", login)
	return nil
}

// Logout ends the session; session listeners clear local credentials.
func (a *AuthService) Logout(ctx context.Context) {
	a.session.End()
	a.log.Info(ctx, "logged out")
}

func (a *AuthService) IsLoggedIn() bool {
	_, ok := a.session.AccessToken()
	return ok
}
