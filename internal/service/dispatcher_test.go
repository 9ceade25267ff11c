package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/service/publisher"
)

func TestDispatchAllSuccess(t *testing.T) {
	telegram := &fakePublisher{platform: models.PlatformTelegram}
	d := testDispatcher(newFakeRegistry(telegram), &fakeAssets{})

	post := pendingPost(time.Now(), models.PlatformTelegram)
	post.ID = 1

	results, err := d.DispatchAll(context.Background(), post)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.False(t, results[0].Mocked)
	assert.Equal(t, models.PlatformTelegram, results[0].Platform)
	assert.Equal(t, int32(1), telegram.calls.Load())
}

func TestDispatchAllFailureIsolation(t *testing.T) {
	// A rejects, B succeeds: both outcomes must come back, A as a mocked
	// success, and B's publisher must still have been invoked.
	twitter := &fakePublisher{
		platform: models.PlatformTwitter,
		err:      &publisher.APIError{Platform: models.PlatformTwitter, Message: "rate limited"},
	}
	facebook := &fakePublisher{platform: models.PlatformFacebook}
	d := testDispatcher(newFakeRegistry(twitter, facebook), &fakeAssets{})

	post := pendingPost(time.Now(), models.PlatformTwitter, models.PlatformFacebook)
	post.ID = 2

	results, err := d.DispatchAll(context.Background(), post)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Mocked)
	assert.True(t, results[0].Success)
	assert.Contains(t, results[0].ExternalID, "mock-id-")

	assert.False(t, results[1].Mocked)
	assert.True(t, results[1].Success)
	assert.Equal(t, int32(1), facebook.calls.Load())
}

func TestDispatchAllMocksMissingCredentials(t *testing.T) {
	whatsapp := &fakePublisher{
		platform: models.PlatformWhatsApp,
		err:      publisher.ErrCredentialsMissing,
	}
	d := testDispatcher(newFakeRegistry(whatsapp), &fakeAssets{})

	post := pendingPost(time.Now(), models.PlatformWhatsApp)

	results, err := d.DispatchAll(context.Background(), post)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Mocked)
	assert.True(t, results[0].Success)
}

func TestDispatchAllAssetNotFoundPropagates(t *testing.T) {
	telegram := &fakePublisher{platform: models.PlatformTelegram}
	d := testDispatcher(newFakeRegistry(telegram), &fakeAssets{missing: map[string]bool{"photo.jpg": true}})

	post := pendingPost(time.Now(), models.PlatformTelegram)

	results, err := d.DispatchAll(context.Background(), post)
	require.ErrorIs(t, err, ErrAssetNotFound)
	assert.Nil(t, results)
	assert.Equal(t, int32(0), telegram.calls.Load(), "no publisher should run without the asset")
}

func TestDispatchAllEmptyPlatformsIsNoop(t *testing.T) {
	d := testDispatcher(newFakeRegistry(), &fakeAssets{})

	post := pendingPost(time.Now())

	results, err := d.DispatchAll(context.Background(), post)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDispatchAllCaptionOverride(t *testing.T) {
	var captured string
	telegram := &capturingPublisher{platform: models.PlatformTelegram, captured: &captured}
	d := testDispatcher(newFakeRegistry(telegram), &fakeAssets{})

	post := pendingPost(time.Now(), models.PlatformTelegram)
	post.Caption = "default caption"
	post.PlatformSettings = models.SettingsMap{
		models.PlatformTelegram: {Caption: "telegram-specific caption"},
	}

	_, err := d.DispatchAll(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, "telegram-specific caption", captured)
}

type capturingPublisher struct {
	platform models.Platform
	captured *string
}

func (p *capturingPublisher) Platform() models.Platform { return p.platform }

func (p *capturingPublisher) Publish(ctx context.Context, caption string, asset publisher.Asset) (*publisher.Result, error) {
	*p.captured = caption
	return &publisher.Result{Platform: p.platform, Success: true, PublishedAt: time.Now()}, nil
}
