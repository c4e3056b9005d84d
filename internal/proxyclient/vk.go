package proxyclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/crossposter/internal/adapters/vk"
	"github.com/dmitrijs2005/crossposter/internal/credentials"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
)

var (
	_ vk.Client             = (*Client)(nil)
	_ credentials.Refresher = (*Client)(nil)
)

func (c *Client) UploadPhoto(ctx context.Context, req vk.UploadRequest) (string, error) {
	f := newForm()
	f.field(proxyapi.FieldAccessToken, req.AccessToken)
	f.field(proxyapi.FieldOwnerID, req.OwnerID)
	f.file(proxyapi.FieldPhoto, req.Image.Name, req.Image.Data)

	r, err := f.request(http.MethodPost, proxyapi.RouteVKUploadPhoto)
	if err != nil {
		return "", err
	}

	var out proxyapi.VKUploadResponse
	if err := c.do(ctx, r, &out); err != nil {
		return "", err
	}
	if out.Attachment == "" {
		return "", errors.New("proxy returned no attachment")
	}
	return out.Attachment, nil
}

// Post returns 0 without an error when the proxy answers without a post id;
// the caller decides what that means.
func (c *Client) Post(ctx context.Context, req vk.PostRequest) (int64, error) {
	var out proxyapi.VKPostResponse
	err := c.doJSON(ctx, http.MethodPost, proxyapi.RouteVKPost, proxyapi.VKPostRequest{
		AccessToken: req.AccessToken,
		OwnerID:     req.OwnerID,
		Message:     req.Message,
		Attachments: req.Attachments,
	}, &out, false)
	if err != nil {
		return 0, err
	}
	return out.PostID, nil
}

func (c *Client) RefreshVKToken(ctx context.Context, refreshToken, deviceID string) (models.VKTokenGrant, error) {
	var out models.VKTokenGrant
	err := c.doJSON(ctx, http.MethodPost, proxyapi.RouteVKRefreshToken, proxyapi.VKRefreshRequest{
		RefreshToken: refreshToken,
		DeviceID:     deviceID,
	}, &out, false)
	return out, err
}
