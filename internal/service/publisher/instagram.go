package publisher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

const instagramGraphURL = "https://graph.facebook.com/v18.0"

// InstagramPublisher runs the two-step container flow: create a media
// container from a public image URL, then publish it. Instagram fetches the
// image itself, so the asset must carry a URL the Graph servers can reach.
type InstagramPublisher struct {
	cfg    config.InstagramConfig
	logger *zap.Logger
	client *http.Client
}

type instagramMediaResponse struct {
	ID    string `json:"id"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewInstagramPublisher(cfg config.InstagramConfig, logger *zap.Logger) *InstagramPublisher {
	return &InstagramPublisher{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *InstagramPublisher) Platform() models.Platform {
	return models.PlatformInstagram
}

func (p *InstagramPublisher) Publish(ctx context.Context, caption string, asset Asset) (*Result, error) {
	if p.cfg.AccountID == "" || p.cfg.AccessToken == "" {
		return nil, fmt.Errorf("instagram: %w", ErrCredentialsMissing)
	}

	// Instagram cannot pull from a non-public host; failing early here beats
	// a cryptic Graph error after the container call.
	if asset.URL == "" || strings.Contains(asset.URL, "localhost") || strings.Contains(asset.URL, "127.0.0.1") {
		return nil, &APIError{
			Platform: models.PlatformInstagram,
			Message:  "requires a publicly accessible image URL; set storage.public_base_url to a reachable host",
		}
	}

	containerID, err := p.createContainer(ctx, caption, asset.URL)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Instagram container created", zap.String("container_id", containerID))

	publishID, err := p.publishContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Platform:    models.PlatformInstagram,
		Success:     true,
		ExternalID:  publishID,
		PublishedAt: time.Now(),
	}, nil
}

func (p *InstagramPublisher) createContainer(ctx context.Context, caption, imageURL string) (string, error) {
	var containerResp instagramMediaResponse
	err := requests.URL(fmt.Sprintf("%s/%s/media", instagramGraphURL, p.cfg.AccountID)).
		Method(http.MethodPost).
		Client(p.client).
		Param("image_url", imageURL).
		Param("caption", caption).
		Param("access_token", p.cfg.AccessToken).
		ToJSON(&containerResp).
		Fetch(ctx)
	if err != nil {
		msg := "container creation failed"
		if containerResp.Error.Message != "" {
			msg = containerResp.Error.Message
		}
		return "", &APIError{Platform: models.PlatformInstagram, Message: msg, Err: err}
	}
	if containerResp.ID == "" {
		return "", &APIError{Platform: models.PlatformInstagram, Message: "container creation returned no id"}
	}
	return containerResp.ID, nil
}

func (p *InstagramPublisher) publishContainer(ctx context.Context, containerID string) (string, error) {
	// Images are usually ready immediately; videos would need a FINISHED
	// status poll before this call.
	var publishResp instagramMediaResponse
	err := requests.URL(fmt.Sprintf("%s/%s/media_publish", instagramGraphURL, p.cfg.AccountID)).
		Method(http.MethodPost).
		Client(p.client).
		Param("creation_id", containerID).
		Param("access_token", p.cfg.AccessToken).
		ToJSON(&publishResp).
		Fetch(ctx)
	if err != nil {
		msg := "container publish failed"
		if publishResp.Error.Message != "" {
			msg = publishResp.Error.Message
		}
		return "", &APIError{Platform: models.PlatformInstagram, Message: msg, Err: err}
	}
	if publishResp.ID == "" {
		return "", &APIError{Platform: models.PlatformInstagram, Message: "container publish returned no id"}
	}
	return publishResp.ID, nil
}
