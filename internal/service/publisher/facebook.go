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

	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

const facebookGraphURL = "https://graph.facebook.com"

// FacebookPublisher uploads a photo post to a Facebook page in a single
// multipart call against the Graph API.
type FacebookPublisher struct {
	cfg    config.FacebookConfig
	logger *zap.Logger
	client *http.Client
}

type facebookPhotoResponse struct {
	ID    string `json:"id"`
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func NewFacebookPublisher(cfg config.FacebookConfig, logger *zap.Logger) *FacebookPublisher {
	return &FacebookPublisher{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *FacebookPublisher) Platform() models.Platform {
	return models.PlatformFacebook
}

func (p *FacebookPublisher) Publish(ctx context.Context, caption string, asset Asset) (*Result, error) {
	if p.cfg.AccessToken == "" || p.cfg.PageID == "" {
		return nil, fmt.Errorf("facebook: %w", ErrCredentialsMissing)
	}

	// Create multipart form
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("message", caption); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("access_token", p.cfg.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}

	part, err := writer.CreateFormFile("source", asset.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(asset.Bytes)); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/%s/photos", facebookGraphURL, p.cfg.PageID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &APIError{Platform: models.PlatformFacebook, Message: "photo upload request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var photoResp facebookPhotoResponse
	if err := json.Unmarshal(respBody, &photoResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if photoResp.Error.Message != "" || photoResp.ID == "" {
		msg := photoResp.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("photo upload returned %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, &APIError{Platform: models.PlatformFacebook, Message: msg}
	}

	return &Result{
		Platform:    models.PlatformFacebook,
		Success:     true,
		ExternalID:  photoResp.ID,
		PublishedAt: time.Now(),
	}, nil
}
