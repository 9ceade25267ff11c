package publisher

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

// TelegramPublisher sends the image as a photo message to a fixed chat
// through the Bot API.
type TelegramPublisher struct {
	cfg    config.TelegramConfig
	logger *zap.Logger
}

func NewTelegramPublisher(cfg config.TelegramConfig, logger *zap.Logger) *TelegramPublisher {
	return &TelegramPublisher{cfg: cfg, logger: logger}
}

func (p *TelegramPublisher) Platform() models.Platform {
	return models.PlatformTelegram
}

func (p *TelegramPublisher) Publish(ctx context.Context, caption string, asset Asset) (*Result, error) {
	if p.cfg.BotToken == "" || p.cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram: %w", ErrCredentialsMissing)
	}

	// NewBotAPI performs a getMe call, so a bad token surfaces here.
	bot, err := tgbotapi.NewBotAPI(p.cfg.BotToken)
	if err != nil {
		return nil, &APIError{Platform: models.PlatformTelegram, Message: "bot authentication failed", Err: err}
	}

	photo := tgbotapi.NewPhoto(p.cfg.ChatID, tgbotapi.FileBytes{
		Name:  asset.Filename,
		Bytes: asset.Bytes,
	})
	photo.Caption = caption

	msg, err := bot.Send(photo)
	if err != nil {
		return nil, &APIError{Platform: models.PlatformTelegram, Message: "sendPhoto failed", Err: err}
	}

	return &Result{
		Platform:    models.PlatformTelegram,
		Success:     true,
		ExternalID:  strconv.Itoa(msg.MessageID),
		PublishedAt: time.Now(),
	}, nil
}
