package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

const (
	twitterMediaUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	twitterTweetURL       = "https://api.twitter.com/2/tweets"
)

// TwitterPublisher posts an image tweet: v1.1 chunked-less media upload
// followed by a v2 tweet referencing the media id. Both calls are signed
// with OAuth 1.0a user context.
type TwitterPublisher struct {
	cfg    config.TwitterConfig
	logger *zap.Logger
}

type twitterMediaResponse struct {
	MediaIDString string `json:"media_id_string"`
}

type twitterTweetRequest struct {
	Text  string            `json:"text"`
	Media twitterTweetMedia `json:"media"`
}

type twitterTweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type twitterTweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func NewTwitterPublisher(cfg config.TwitterConfig, logger *zap.Logger) *TwitterPublisher {
	return &TwitterPublisher{cfg: cfg, logger: logger}
}

func (p *TwitterPublisher) Platform() models.Platform {
	return models.PlatformTwitter
}

func (p *TwitterPublisher) Publish(ctx context.Context, caption string, asset Asset) (*Result, error) {
	if p.cfg.AppKey == "" || p.cfg.AppSecret == "" || p.cfg.AccessToken == "" || p.cfg.AccessSecret == "" {
		return nil, fmt.Errorf("twitter: %w", ErrCredentialsMissing)
	}

	oauthCfg := oauth1.NewConfig(p.cfg.AppKey, p.cfg.AppSecret)
	token := oauth1.NewToken(p.cfg.AccessToken, p.cfg.AccessSecret)
	client := oauthCfg.Client(ctx, token)
	client.Timeout = 60 * time.Second

	mediaID, err := p.uploadMedia(ctx, client, asset)
	if err != nil {
		return nil, err
	}

	tweetID, err := p.createTweet(ctx, client, caption, mediaID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Platform:    models.PlatformTwitter,
		Success:     true,
		ExternalID:  tweetID,
		PublishedAt: time.Now(),
	}, nil
}

func (p *TwitterPublisher) uploadMedia(ctx context.Context, client *http.Client, asset Asset) (string, error) {
	// Create multipart form
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("media", asset.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, bytes.NewReader(asset.Bytes)); err != nil {
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", twitterMediaUploadURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return "", &APIError{Platform: models.PlatformTwitter, Message: "media upload request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{
			Platform: models.PlatformTwitter,
			Message:  fmt.Sprintf("media upload returned %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var mediaResp twitterMediaResponse
	if err := json.Unmarshal(respBody, &mediaResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if mediaResp.MediaIDString == "" {
		return "", &APIError{Platform: models.PlatformTwitter, Message: "media upload returned no media id"}
	}

	return mediaResp.MediaIDString, nil
}

func (p *TwitterPublisher) createTweet(ctx context.Context, client *http.Client, caption, mediaID string) (string, error) {
	payload, err := json.Marshal(twitterTweetRequest{
		Text:  caption,
		Media: twitterTweetMedia{MediaIDs: []string{mediaID}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", twitterTweetURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", &APIError{Platform: models.PlatformTwitter, Message: "tweet request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var tweetResp twitterTweetResponse
	if err := json.Unmarshal(respBody, &tweetResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || tweetResp.Data.ID == "" {
		detail := tweetResp.Detail
		if detail == "" {
			detail = string(respBody)
		}
		return "", &APIError{
			Platform: models.PlatformTwitter,
			Message:  fmt.Sprintf("tweet returned %d: %s", resp.StatusCode, detail),
		}
	}

	return tweetResp.Data.ID, nil
}
