// Package vk publishes a post draft to the selected VK communities, each with
// its own community-scoped token.
package vk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/models"
)

type UploadRequest struct {
	AccessToken string
	OwnerID     string
	Image       models.Image
}

type PostRequest struct {
	AccessToken string
	OwnerID     string
	Message     string
	Attachments []string
}

// Client performs the upstream calls. UploadPhoto returns an attachment
// reference ("photo{owner}_{id}"), Post returns the wall post id.
type Client interface {
	UploadPhoto(ctx context.Context, req UploadRequest) (string, error)
	Post(ctx context.Context, req PostRequest) (int64, error)
}

// Credentials is the part of the credential store the adapter relies on.
type Credentials interface {
	MergeWithCache(ctx context.Context, settings models.VKSettings) models.VKSettings
	Persist(ctx context.Context, settings models.VKSettings)
	IsCommunityExpired(c models.VKCommunity, buffer time.Duration) bool
}

const (
	msgNoCommunities = "no communities selected for publishing"
	msgUnauthorized  = "community is not authorized"
	msgExpired       = "token has expired"
	msgBadOwner      = "invalid owner id"

	expiryBuffer = 60 * time.Second
)

var errNoPostID = errors.New("no post id in response")

type Adapter struct {
	client Client
	creds  Credentials
	log    logging.Logger
}

func NewAdapter(client Client, creds Credentials, log logging.Logger) *Adapter {
	return &Adapter{client: client, creds: creds, log: log.With("platform", models.PlatformVK)}
}

type target struct {
	community models.VKCommunity
	ownerID   string
	token     string
}

// Publish syncs settings with the credential cache, then posts draft to
// every selected community that has a live token, in order. Images are
// uploaded first; a failed upload aborts that community's post.
func (a *Adapter) Publish(ctx context.Context, draft models.PostDraft, settings models.VKSettings) []models.PostResult {
	settings = a.creds.MergeWithCache(ctx, settings)
	a.creds.Persist(ctx, settings)

	var (
		ready   []target
		results []models.PostResult
	)

	for _, c := range settings.Communities {
		if !c.IsSelected {
			continue
		}
		name := c.DisplayName()
		id := strconv.FormatInt(c.GroupID, 10)

		switch {
		case c.AccessToken == "":
			results = append(results, models.Failure(models.PlatformVK, id, name+": "+msgUnauthorized))
		case a.creds.IsCommunityExpired(c, expiryBuffer):
			results = append(results, models.Failure(models.PlatformVK, id, name+": "+msgExpired))
		default:
			owner := c.DerivedOwnerID()
			if n, err := strconv.ParseInt(owner, 10, 64); err != nil || n == 0 {
				results = append(results, models.Failure(models.PlatformVK, id, name+": "+msgBadOwner))
				continue
			}
			ready = append(ready, target{community: c, ownerID: owner, token: c.AccessToken})
		}
	}

	if len(ready) == 0 && len(results) == 0 {
		return []models.PostResult{models.Failure(models.PlatformVK, "", msgNoCommunities)}
	}

	for _, t := range ready {
		results = append(results, a.post(ctx, draft, t))
	}
	return results
}

func (a *Adapter) post(ctx context.Context, draft models.PostDraft, t target) models.PostResult {
	name := t.community.DisplayName()
	id := strconv.FormatInt(t.community.GroupID, 10)

	attachments := make([]string, 0, len(draft.Images))
	for i, img := range draft.Images {
		att, err := a.client.UploadPhoto(ctx, UploadRequest{AccessToken: t.token, OwnerID: t.ownerID, Image: img})
		if err != nil {
			a.log.Warn(ctx, "vk photo upload failed", "owner_id", t.ownerID, "image", i, "error", err)
			return models.Failure(models.PlatformVK, id, fmt.Sprintf("%s: photo upload failed: %v", name, err))
		}
		attachments = append(attachments, att)
	}

	postID, err := a.client.Post(ctx, PostRequest{
		AccessToken: t.token,
		OwnerID:     t.ownerID,
		Message:     draft.Content,
		Attachments: attachments,
	})
	if err == nil && postID == 0 {
		err = errNoPostID
	}
	if err != nil {
		a.log.Warn(ctx, "vk wall post failed", "owner_id", t.ownerID, "error", err)
		return models.Failure(models.PlatformVK, id, fmt.Sprintf("%s: %v", name, err))
	}

	a.log.Debug(ctx, "vk wall post created", "owner_id", t.ownerID, "post_id", postID)
	return models.PostResult{
		Platform:  models.PlatformVK,
		Success:   true,
		TargetID:  id,
		MessageID: t.ownerID + "_" + strconv.FormatInt(postID, 10),
	}
}
