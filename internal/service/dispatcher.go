package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/service/publisher"
)

// PublisherRegistry is the lookup the dispatcher fans out over. Satisfied by
// *publisher.Registry; tests substitute their own.
type PublisherRegistry interface {
	Get(platform models.Platform) (publisher.Publisher, error)
}

// Dispatcher fans one post out to every platform it targets. It never
// touches the durable store; the caller owns status persistence.
type Dispatcher struct {
	registry PublisherRegistry
	assets   AssetStore
	logger   *zap.Logger
}

func NewDispatcher(registry PublisherRegistry, assets AssetStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		assets:   assets,
		logger:   logger,
	}
}

// DispatchAll publishes the post to each of its platforms in list order,
// collecting one outcome per platform. A platform failing never aborts the
// others. Missing credentials and remote API rejections are downgraded to a
// mocked success so the pipeline keeps moving in unconfigured environments;
// the mocked flag and a warn log keep them distinguishable from real
// delivery. A missing asset is the one non-recoverable case: it returns an
// error and no outcomes.
func (d *Dispatcher) DispatchAll(ctx context.Context, post *models.Post) ([]publisher.Result, error) {
	if len(post.Platforms) == 0 {
		return nil, nil
	}

	data, contentType, err := d.assets.FetchBytes(ctx, post.ImagePath, post.SourceMode)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", post.ID, err)
	}

	asset := publisher.Asset{
		Ref:         post.ImagePath,
		Filename:    post.ImagePath,
		Bytes:       data,
		ContentType: contentType,
		URL:         d.assets.ResolveURL(post.ImagePath, post.SourceMode),
	}

	results := make([]publisher.Result, 0, len(post.Platforms))
	for _, platform := range post.Platforms {
		results = append(results, d.publishOne(ctx, post, platform, asset))
	}

	return results, nil
}

func (d *Dispatcher) publishOne(ctx context.Context, post *models.Post, platform models.Platform, asset publisher.Asset) publisher.Result {
	caption := post.CaptionFor(platform)

	pub, err := d.registry.Get(platform)
	if err == nil {
		var result *publisher.Result
		result, err = pub.Publish(ctx, caption, asset)
		if err == nil {
			d.logger.Info("Published to platform",
				zap.Uint("post_id", post.ID),
				zap.String("platform", string(platform)),
				zap.String("external_id", result.ExternalID))
			return *result
		}
	}

	var apiErr *publisher.APIError
	if errors.Is(err, publisher.ErrCredentialsMissing) || errors.As(err, &apiErr) {
		// Development affordance, not a delivery guarantee. The mocked flag
		// is the audit trail; callers needing true confirmation must check it.
		d.logger.Warn("Mock publish: platform unavailable, substituting synthetic success",
			zap.Uint("post_id", post.ID),
			zap.String("platform", string(platform)),
			zap.Error(err))
		return publisher.Result{
			Platform:    platform,
			Success:     true,
			ExternalID:  "mock-id-" + uuid.NewString(),
			Mocked:      true,
			PublishedAt: time.Now(),
		}
	}

	d.logger.Error("Publish failed",
		zap.Uint("post_id", post.ID),
		zap.String("platform", string(platform)),
		zap.Error(err))
	return publisher.Result{
		Platform:    platform,
		Success:     false,
		PublishedAt: time.Now(),
	}
}
