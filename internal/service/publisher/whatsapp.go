package publisher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

const whatsappGraphURL = "https://graph.facebook.com/v18.0"

// WhatsAppPublisher sends the post as an image message through the WhatsApp
// Cloud API. Like Instagram, delivery is by link reference, so the asset
// must expose a public URL.
type WhatsAppPublisher struct {
	cfg    config.WhatsAppConfig
	logger *zap.Logger
	client *http.Client
}

type whatsappMessageRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Image            whatsappImage `json:"image"`
}

type whatsappImage struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type whatsappMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewWhatsAppPublisher(cfg config.WhatsAppConfig, logger *zap.Logger) *WhatsAppPublisher {
	return &WhatsAppPublisher{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *WhatsAppPublisher) Platform() models.Platform {
	return models.PlatformWhatsApp
}

func (p *WhatsAppPublisher) Publish(ctx context.Context, caption string, asset Asset) (*Result, error) {
	if p.cfg.AccessToken == "" || p.cfg.PhoneNumberID == "" || p.cfg.ToPhone == "" {
		return nil, fmt.Errorf("whatsapp: %w", ErrCredentialsMissing)
	}

	if asset.URL == "" {
		return nil, &APIError{
			Platform: models.PlatformWhatsApp,
			Message:  "requires a publicly accessible image URL; set storage.public_base_url",
		}
	}

	var msgResp whatsappMessageResponse
	err := requests.URL(fmt.Sprintf("%s/%s/messages", whatsappGraphURL, p.cfg.PhoneNumberID)).
		Method(http.MethodPost).
		Client(p.client).
		Header("Authorization", "Bearer "+p.cfg.AccessToken).
		BodyJSON(whatsappMessageRequest{
			MessagingProduct: "whatsapp",
			To:               p.cfg.ToPhone,
			Type:             "image",
			Image: whatsappImage{
				Link:    asset.URL,
				Caption: caption,
			},
		}).
		ToJSON(&msgResp).
		Fetch(ctx)
	if err != nil {
		msg := "message send failed"
		if msgResp.Error.Message != "" {
			msg = msgResp.Error.Message
		}
		return nil, &APIError{Platform: models.PlatformWhatsApp, Message: msg, Err: err}
	}

	if len(msgResp.Messages) == 0 || msgResp.Messages[0].ID == "" {
		return nil, &APIError{Platform: models.PlatformWhatsApp, Message: "message send returned no id"}
	}

	return &Result{
		Platform:    models.PlatformWhatsApp,
		Success:     true,
		ExternalID:  msgResp.Messages[0].ID,
		PublishedAt: time.Now(),
	}, nil
}
