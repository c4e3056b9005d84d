package proxyclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
)

func (c *Client) Register(ctx context.Context, login string, salt, verifier []byte) (string, error) {
	var out proxyapi.RegisterResponse
	err := c.doJSON(ctx, http.MethodPost, proxyapi.RouteRegister, proxyapi.RegisterRequest{
		Login:    login,
		Salt:     salt,
		Verifier: verifier,
	}, &out, true)
	return out.UserID, err
}

func (c *Client) Salt(ctx context.Context, login string) ([]byte, error) {
	var out proxyapi.SaltResponse
	path := proxyapi.RouteSalt + "?" + url.Values{"login": {login}}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Salt, nil
}

func (c *Client) Login(ctx context.Context, login string, verifier []byte) (proxyapi.LoginResponse, error) {
	var out proxyapi.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, proxyapi.RouteLogin, proxyapi.LoginRequest{
		Login:    login,
		Verifier: verifier,
	}, &out, true)
	if err == nil && out.AccessToken == "" {
		err = errEmptyResponse
	}
	return out, err
}

// GetConfig returns the stored encrypted config, or nil when the user has
// none yet.
func (c *Client) GetConfig(ctx context.Context) (*proxyapi.ConfigBlob, error) {
	var out proxyapi.ConfigBlob
	err := c.doJSON(ctx, http.MethodGet, proxyapi.RouteConfig, nil, &out, false)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(out.Ciphertext) == 0 {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) PutConfig(ctx context.Context, blob proxyapi.ConfigBlob) error {
	return c.doJSON(ctx, http.MethodPut, proxyapi.RouteConfig, blob, nil, false)
}
