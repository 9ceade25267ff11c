package publisher

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

// Registry holds one Publisher per supported platform, built once at startup
// and handed to the dispatcher. Lookup is keyed by the Platform enum, so an
// unknown platform can only come from unvalidated input.
type Registry struct {
	publishers map[models.Platform]Publisher
	logger     *zap.Logger
}

func NewRegistry(cfg *config.PlatformsConfig, logger *zap.Logger) *Registry {
	r := &Registry{
		publishers: make(map[models.Platform]Publisher),
		logger:     logger,
	}

	r.register(NewTwitterPublisher(cfg.Twitter, logger))
	r.register(NewFacebookPublisher(cfg.Facebook, logger))
	r.register(NewInstagramPublisher(cfg.Instagram, logger))
	r.register(NewTelegramPublisher(cfg.Telegram, logger))
	r.register(NewWhatsAppPublisher(cfg.WhatsApp, logger))

	return r
}

func (r *Registry) register(p Publisher) {
	r.publishers[p.Platform()] = p
	r.logger.Info("Publisher registered", zap.String("platform", string(p.Platform())))
}

func (r *Registry) Get(platform models.Platform) (Publisher, error) {
	p, exists := r.publishers[platform]
	if !exists {
		return nil, fmt.Errorf("publisher for platform %s not found", platform)
	}
	return p, nil
}
