package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

func testScheduler(store PostStore, d *Dispatcher) *Scheduler {
	return NewScheduler(&config.SchedulerConfig{Interval: "1m", Enabled: true}, zap.NewNop(), store, d)
}

func insertPost(t *testing.T, store PostStore, post *models.Post) *models.Post {
	t.Helper()
	require.NoError(t, store.Insert(context.Background(), post))
	return post
}

func getPost(t *testing.T, store PostStore, id uint) *models.Post {
	t.Helper()
	post, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return post
}

func TestTickLeavesFuturePostsAlone(t *testing.T) {
	store := NewMemoryPostStore()
	s := testScheduler(store, testDispatcher(newFakeRegistry(&fakePublisher{platform: models.PlatformTelegram}), &fakeAssets{}))

	post := insertPost(t, store, pendingPost(time.Now().Add(time.Hour), models.PlatformTelegram))

	require.NoError(t, s.RunTick(context.Background()))

	assert.Equal(t, models.StatusPending, getPost(t, store, post.ID).Status)
}

func TestTickPublishesDuePost(t *testing.T) {
	store := NewMemoryPostStore()
	telegram := &fakePublisher{platform: models.PlatformTelegram}
	s := testScheduler(store, testDispatcher(newFakeRegistry(telegram), &fakeAssets{}))

	post := insertPost(t, store, pendingPost(time.Now().Add(-time.Minute), models.PlatformTelegram))

	require.NoError(t, s.RunTick(context.Background()))

	final := getPost(t, store, post.ID).Status
	assert.Contains(t, []models.Status{models.StatusPublished, models.StatusFailed}, final)
	assert.Equal(t, models.StatusPublished, final)
	assert.Equal(t, int32(1), telegram.calls.Load())
}

func TestTickSkipsPausedAndFailedPosts(t *testing.T) {
	store := NewMemoryPostStore()
	telegram := &fakePublisher{platform: models.PlatformTelegram}
	s := testScheduler(store, testDispatcher(newFakeRegistry(telegram), &fakeAssets{}))

	paused := pendingPost(time.Now().Add(-time.Minute), models.PlatformTelegram)
	paused.Status = models.StatusPaused
	insertPost(t, store, paused)

	failed := pendingPost(time.Now().Add(-time.Minute), models.PlatformTelegram)
	failed.Status = models.StatusFailed
	insertPost(t, store, failed)

	require.NoError(t, s.RunTick(context.Background()))

	assert.Equal(t, models.StatusPaused, getPost(t, store, paused.ID).Status)
	assert.Equal(t, models.StatusFailed, getPost(t, store, failed.ID).Status)
	assert.Equal(t, int32(0), telegram.calls.Load())
}

func TestClaimConflictOnSecondScanner(t *testing.T) {
	store := NewMemoryPostStore()
	post := insertPost(t, store, pendingPost(time.Now().Add(-time.Minute), models.PlatformTelegram))

	require.NoError(t, store.ClaimPending(context.Background(), post.ID))
	err := store.ClaimPending(context.Background(), post.ID)
	require.ErrorIs(t, err, ErrLockConflict)

	assert.Equal(t, models.StatusProcessing, getPost(t, store, post.ID).Status)
}

func TestStartupRecoveryResetsProcessing(t *testing.T) {
	store := NewMemoryPostStore()

	for i := 0; i < 3; i++ {
		p := pendingPost(time.Now(), models.PlatformTelegram)
		p.Status = models.StatusProcessing
		insertPost(t, store, p)
	}
	published := pendingPost(time.Now(), models.PlatformTelegram)
	published.Status = models.StatusPublished
	insertPost(t, store, published)

	reset, err := store.ResetProcessing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), reset)

	posts, err := store.List(context.Background())
	require.NoError(t, err)
	for _, p := range posts {
		assert.NotEqual(t, models.StatusProcessing, p.Status)
	}
}

func TestDailyRecurrenceSpawnsOneSuccessor(t *testing.T) {
	store := NewMemoryPostStore()
	s := testScheduler(store, testDispatcher(newFakeRegistry(&fakePublisher{platform: models.PlatformTelegram}), &fakeAssets{}))

	scheduled := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	post := pendingPost(scheduled, models.PlatformTelegram)
	post.Caption = "recurring caption"
	post.Hashtags = "#daily"
	post.InternalNotes = "operator note"
	post.IsRecurring = true
	post.RecurrenceFrequency = models.FrequencyDaily
	insertPost(t, store, post)

	require.NoError(t, s.RunTick(context.Background()))

	posts, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// List is newest-first, so the successor comes first.
	successor := posts[0]
	assert.Equal(t, models.StatusPending, successor.Status)
	assert.Equal(t, scheduled.AddDate(0, 0, 1), successor.ScheduledTime)
	assert.Equal(t, post.Caption, successor.Caption)
	assert.Equal(t, post.Hashtags, successor.Hashtags)
	assert.Equal(t, post.InternalNotes, successor.InternalNotes)
	assert.Equal(t, post.Platforms, successor.Platforms)
	assert.True(t, successor.IsRecurring)

	original := posts[1]
	assert.Equal(t, models.StatusPublished, original.Status)
	assert.Equal(t, scheduled, original.ScheduledTime)
}

func TestNonRecurringPostSpawnsNothing(t *testing.T) {
	store := NewMemoryPostStore()
	s := testScheduler(store, testDispatcher(newFakeRegistry(&fakePublisher{platform: models.PlatformTelegram}), &fakeAssets{}))

	insertPost(t, store, pendingPost(time.Now().Add(-time.Minute), models.PlatformTelegram))

	require.NoError(t, s.RunTick(context.Background()))

	posts, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestWeeklyRecurrenceHonorsEndDate(t *testing.T) {
	store := NewMemoryPostStore()
	s := testScheduler(store, testDispatcher(newFakeRegistry(&fakePublisher{platform: models.PlatformTelegram}), &fakeAssets{}))

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	post := pendingPost(start, models.PlatformTelegram)
	post.IsRecurring = true
	post.RecurrenceFrequency = models.FrequencyWeekly
	post.RecurrenceEndDate = &end
	insertPost(t, store, post)

	require.NoError(t, s.RunTick(context.Background()))

	posts, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2, "2024-01-08 is within the end date")
	successor := posts[0]
	assert.Equal(t, time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC), successor.ScheduledTime)

	// Publish the successor too: 2024-01-15 exceeds the end date, so the
	// chain must stop here.
	require.NoError(t, store.ClaimPending(context.Background(), successor.ID))
	s.processClaimed(context.Background(), &successor)

	posts, err = store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 2, "no successor past the recurrence end date")
}

func TestTickFinalizesFailedOnMissingAsset(t *testing.T) {
	store := NewMemoryPostStore()
	assets := &fakeAssets{missing: map[string]bool{"photo.jpg": true}}
	s := testScheduler(store, testDispatcher(newFakeRegistry(&fakePublisher{platform: models.PlatformTelegram}), assets))

	post := insertPost(t, store, pendingPost(time.Now().Add(-time.Minute), models.PlatformTelegram))

	require.NoError(t, s.RunTick(context.Background()))

	assert.Equal(t, models.StatusFailed, getPost(t, store, post.ID).Status)
}

func TestTickProcessesBatchIndependently(t *testing.T) {
	store := NewMemoryPostStore()
	assets := &fakeAssets{missing: map[string]bool{"broken.jpg": true}}
	s := testScheduler(store, testDispatcher(newFakeRegistry(&fakePublisher{platform: models.PlatformTelegram}), assets))

	broken := pendingPost(time.Now().Add(-time.Minute), models.PlatformTelegram)
	broken.ImagePath = "broken.jpg"
	insertPost(t, store, broken)

	healthy := insertPost(t, store, pendingPost(time.Now().Add(-time.Minute), models.PlatformTelegram))

	require.NoError(t, s.RunTick(context.Background()))

	assert.Equal(t, models.StatusFailed, getPost(t, store, broken.ID).Status)
	assert.Equal(t, models.StatusPublished, getPost(t, store, healthy.ID).Status)
}
