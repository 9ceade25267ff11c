package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/service/publisher"
)

type fakePublisher struct {
	platform models.Platform
	err      error
	calls    atomic.Int32
}

func (f *fakePublisher) Platform() models.Platform { return f.platform }

func (f *fakePublisher) Publish(ctx context.Context, caption string, asset publisher.Asset) (*publisher.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &publisher.Result{
		Platform:    f.platform,
		Success:     true,
		ExternalID:  fmt.Sprintf("%s-ext-1", f.platform),
		PublishedAt: time.Now(),
	}, nil
}

type fakeRegistry struct {
	pubs map[models.Platform]publisher.Publisher
}

func newFakeRegistry(pubs ...publisher.Publisher) *fakeRegistry {
	r := &fakeRegistry{pubs: make(map[models.Platform]publisher.Publisher)}
	for _, p := range pubs {
		r.pubs[p.Platform()] = p
	}
	return r
}

func (r *fakeRegistry) Get(platform models.Platform) (publisher.Publisher, error) {
	p, ok := r.pubs[platform]
	if !ok {
		return nil, fmt.Errorf("publisher for platform %s not found", platform)
	}
	return p, nil
}

type fakeAssets struct {
	missing map[string]bool
	baseURL string
}

func (f *fakeAssets) FetchBytes(ctx context.Context, ref string, mode models.SourceMode) ([]byte, string, error) {
	if f.missing[ref] {
		return nil, "", fmt.Errorf("%w: %s", ErrAssetNotFound, ref)
	}
	return []byte("image-bytes"), "image/jpeg", nil
}

func (f *fakeAssets) ResolveURL(ref string, mode models.SourceMode) string {
	if f.baseURL == "" {
		return ""
	}
	return f.baseURL + "/uploads/" + ref
}

func (f *fakeAssets) Store(data []byte, suggestedName, contentType string) (string, error) {
	return "stored_" + suggestedName, nil
}

func testDispatcher(registry PublisherRegistry, assets AssetStore) *Dispatcher {
	return NewDispatcher(registry, assets, zap.NewNop())
}

func pendingPost(scheduled time.Time, platforms ...models.Platform) *models.Post {
	return &models.Post{
		ImagePath:     "photo.jpg",
		Caption:       "hello world",
		Platforms:     platforms,
		ScheduledTime: scheduled,
		Status:        models.StatusPending,
	}
}
