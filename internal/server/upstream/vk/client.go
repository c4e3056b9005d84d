// Package vk calls the VK API on behalf of proxy users: wall photo upload,
// wall posts and VK ID token refresh.
package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/netx"
)

const maxResponseBytes = 1 << 20

type Config struct {
	APIURL   string
	Version  string
	OAuthURL string
	ClientID string
}

type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func New(cfg Config, h *http.Client) *Client {
	if h == nil {
		h = http.DefaultClient
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &Client{cfg: cfg, http: h, now: time.Now}
}

// APIError is a VK API error object.
type APIError struct {
	Method  string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", e.Method, e.Message, e.Code)
}

type apiEnvelope struct {
	Response json.RawMessage `json:"response"`
	Error    *struct {
		Code    int    `json:"error_code"`
		Message string `json:"error_msg"`
	} `json:"error"`
}

// call posts params to an API method and decodes the "response" member.
func (c *Client) call(ctx context.Context, method, token string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", token)
	params.Set("v", c.cfg.Version)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := c.send(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: malformed response: %w", method, err)
	}
	if env.Error != nil {
		return &APIError{Method: method, Code: env.Error.Code, Message: env.Error.Message}
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("%s: malformed response: %w", method, err)
	}
	return nil
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	return raw, nil
}

// groupID turns "-123" into 123.
func groupID(ownerID string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(ownerID), 10, 64)
	if err != nil || n >= 0 {
		return 0, fmt.Errorf("%w: invalid owner id %q", common.ErrBadRequest, ownerID)
	}
	return -n, nil
}

// UploadWallPhoto runs the three-step wall photo upload and returns an
// attachment reference such as "photo-123_456".
func (c *Client) UploadWallPhoto(ctx context.Context, token, ownerID string, img models.Image) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: access token is required", common.ErrBadRequest)
	}
	gid, err := groupID(ownerID)
	if err != nil {
		return "", err
	}
	group := strconv.FormatInt(gid, 10)

	var server struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.call(ctx, "photos.getWallUploadServer", token, url.Values{"group_id": {group}}, &server); err != nil {
		return "", err
	}

	name := img.Name
	if name == "" {
		name = "photo.jpg"
	}
	raw, err := netx.UploadFile(ctx, c.http, server.UploadURL, "photo", name, img.Data)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	var uploaded struct {
		Server int    `json:"server"`
		Photo  string `json:"photo"`
		Hash   string `json:"hash"`
	}
	if err := json.Unmarshal(raw, &uploaded); err != nil {
		return "", fmt.Errorf("upload: malformed response: %w", err)
	}
	if uploaded.Photo == "" || uploaded.Photo == "[]" {
		return "", errors.New("upload: server accepted no photo")
	}

	var saved []struct {
		ID      int64 `json:"id"`
		OwnerID int64 `json:"owner_id"`
	}
	err = c.call(ctx, "photos.saveWallPhoto", token, url.Values{
		"group_id": {group},
		"server":   {strconv.Itoa(uploaded.Server)},
		"photo":    {uploaded.Photo},
		"hash":     {uploaded.Hash},
	}, &saved)
	if err != nil {
		return "", err
	}
	if len(saved) == 0 {
		return "", errors.New("photos.saveWallPhoto: empty response")
	}
	return fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID), nil
}

// Post publishes to the community wall as the community and returns the
// post id.
func (c *Client) Post(ctx context.Context, token, ownerID, message string, attachments []string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: access token is required", common.ErrBadRequest)
	}
	if _, err := groupID(ownerID); err != nil {
		return 0, err
	}

	params := url.Values{
		"owner_id":   {ownerID},
		"from_group": {"1"},
		"message":    {message},
	}
	if len(attachments) > 0 {
		params.Set("attachments", strings.Join(attachments, ","))
	}

	var out struct {
		PostID int64 `json:"post_id"`
	}
	if err := c.call(ctx, "wall.post", token, params, &out); err != nil {
		return 0, err
	}
	return out.PostID, nil
}

// OAuthError is a VK ID token endpoint failure.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return "token refresh: " + e.Code
	}
	return "token refresh: " + e.Description
}

// RefreshToken exchanges a VK ID refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken, deviceID string) (models.VKTokenGrant, error) {
	if c.cfg.ClientID == "" {
		return models.VKTokenGrant{}, fmt.Errorf("vk client id: %w", common.ErrNotConfigured)
	}
	if refreshToken == "" || deviceID == "" {
		return models.VKTokenGrant{}, fmt.Errorf("%w: refresh token and device id are required", common.ErrBadRequest)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"device_id":     {deviceID},
		"client_id":     {c.cfg.ClientID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return models.VKTokenGrant{}, fmt.Errorf("token refresh: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := c.send(req)
	if err != nil {
		return models.VKTokenGrant{}, fmt.Errorf("token refresh: %w", err)
	}

	var out struct {
		AccessToken      string          `json:"access_token"`
		RefreshToken     string          `json:"refresh_token"`
		ExpiresIn        int64           `json:"expires_in"`
		UserID           json.RawMessage `json:"user_id"`
		Scope            string          `json:"scope"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.VKTokenGrant{}, fmt.Errorf("token refresh: malformed response: %w", err)
	}
	if out.Error != "" {
		return models.VKTokenGrant{}, &OAuthError{Code: out.Error, Description: out.ErrorDescription}
	}
	if out.AccessToken == "" {
		return models.VKTokenGrant{}, errors.New("token refresh: no access token in response")
	}

	grant := models.VKTokenGrant{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		Scope:        out.Scope,
		UserID:       strings.Trim(string(out.UserID), `"`),
		DeviceID:     deviceID,
	}
	if out.ExpiresIn > 0 {
		grant.ExpiresAt = c.now().Add(time.Duration(out.ExpiresIn) * time.Second).UTC().Truncate(time.Second)
	}
	return grant, nil
}
