package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

func testPostService(store PostStore, d *Dispatcher) *PostService {
	return NewPostService(zap.NewNop(), store, &fakeAssets{}, d)
}

func validCreateInput() CreateInput {
	return CreateInput{
		ImagePath:     "photo.jpg",
		Caption:       "hello",
		Platforms:     []string{"telegram"},
		ScheduledTime: time.Now().Add(time.Hour),
	}
}

func TestCreateValidation(t *testing.T) {
	store := NewMemoryPostStore()
	svc := testPostService(store, testDispatcher(newFakeRegistry(), &fakeAssets{}))

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing image", func(in *CreateInput) { in.ImagePath = "" }},
		{"missing scheduled time", func(in *CreateInput) { in.ScheduledTime = time.Time{} }},
		{"no platforms", func(in *CreateInput) { in.Platforms = nil }},
		{"unknown platform", func(in *CreateInput) { in.Platforms = []string{"myspace"} }},
		{"recurring without frequency", func(in *CreateInput) { in.IsRecurring = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)

			posts, err := store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, posts, "nothing may be persisted on validation failure")
		})
	}
}

func TestCreateScheduledPost(t *testing.T) {
	store := NewMemoryPostStore()
	svc := testPostService(store, testDispatcher(newFakeRegistry(), &fakeAssets{}))

	in := validCreateInput()
	in.Platforms = []string{"Telegram", "twitter"}

	post, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, post.Status)
	assert.Equal(t, models.PlatformList{models.PlatformTelegram, models.PlatformTwitter}, post.Platforms)
	assert.NotZero(t, post.ID)
}

func TestCreateStoresUploadedImage(t *testing.T) {
	store := NewMemoryPostStore()
	svc := testPostService(store, testDispatcher(newFakeRegistry(), &fakeAssets{}))

	in := validCreateInput()
	in.ImagePath = ""
	in.ImageData = []byte("fake-jpeg")
	in.ImageFilename = "holiday.jpg"
	in.ImageContentType = "image/jpeg"

	post, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "stored_holiday.jpg", post.ImagePath)
}

func TestImmediatePublishConverges(t *testing.T) {
	store := NewMemoryPostStore()
	telegram := &fakePublisher{platform: models.PlatformTelegram}
	svc := testPostService(store, testDispatcher(newFakeRegistry(telegram), &fakeAssets{}))

	in := validCreateInput()
	in.IsImmediate = true

	post, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, post.Status, "immediate posts bypass the Pending queue")

	require.Eventually(t, func() bool {
		current, err := store.Get(context.Background(), post.ID)
		return err == nil && current.Status == models.StatusPublished
	}, 2*time.Second, 10*time.Millisecond, "background publish must finalize the post")
}

func TestImmediatePublishFailsOnMissingAsset(t *testing.T) {
	store := NewMemoryPostStore()
	svc := NewPostService(zap.NewNop(), store, &fakeAssets{},
		testDispatcher(newFakeRegistry(), &fakeAssets{missing: map[string]bool{"photo.jpg": true}}))

	in := validCreateInput()
	in.IsImmediate = true

	post, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, err := store.Get(context.Background(), post.ID)
		return err == nil && current.Status == models.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUpdateWhitelist(t *testing.T) {
	store := NewMemoryPostStore()
	svc := testPostService(store, testDispatcher(newFakeRegistry(), &fakeAssets{}))

	post, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	caption := "updated"
	paused := models.StatusPaused
	require.NoError(t, svc.Update(context.Background(), post.ID, UpdateInput{
		Caption: &caption,
		Status:  &paused,
	}))

	current, err := store.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", current.Caption)
	assert.Equal(t, models.StatusPaused, current.Status)
}

func TestRescheduleFailedPostResetsToPending(t *testing.T) {
	store := NewMemoryPostStore()
	svc := testPostService(store, testDispatcher(newFakeRegistry(), &fakeAssets{}))

	post, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	require.NoError(t, store.UpdateFields(context.Background(), post.ID, map[string]any{"status": models.StatusFailed}))

	newTime := time.Now().Add(2 * time.Hour)
	require.NoError(t, svc.Update(context.Background(), post.ID, UpdateInput{ScheduledTime: &newTime}))

	current, err := store.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, current.Status, "reschedule is the retry path")
	assert.WithinDuration(t, newTime, current.ScheduledTime, time.Second)
}

func TestStopRecurrence(t *testing.T) {
	store := NewMemoryPostStore()
	svc := testPostService(store, testDispatcher(newFakeRegistry(), &fakeAssets{}))

	in := validCreateInput()
	in.IsRecurring = true
	in.RecurrenceFrequency = "Daily"

	post, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	off := false
	require.NoError(t, svc.Update(context.Background(), post.ID, UpdateInput{IsRecurring: &off}))

	current, err := store.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.False(t, current.IsRecurring)
	assert.Equal(t, models.StatusPending, current.Status, "stop-recurrence keeps the current status")
}

func TestDeletePost(t *testing.T) {
	store := NewMemoryPostStore()
	svc := testPostService(store, testDispatcher(newFakeRegistry(), &fakeAssets{}))

	post, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), post.ID))

	_, err = store.Get(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}
