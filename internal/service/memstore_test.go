package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

func TestMemoryUpdateFieldsRejectsMistypedValues(t *testing.T) {
	store := NewMemoryPostStore()
	post := pendingPost(time.Now().Add(time.Hour), models.PlatformTelegram)
	require.NoError(t, store.Insert(context.Background(), post))

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"caption as int", map[string]any{"caption": 42}},
		{"scheduled_time as string", map[string]any{"scheduled_time": "2024-01-01"}},
		{"is_recurring as string", map[string]any{"is_recurring": "yes"}},
		{"status as int", map[string]any{"status": 1}},
		{"unknown column", map[string]any{"image_path": "other.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.UpdateFields(context.Background(), post.ID, tt.fields)
			assert.Error(t, err)
		})
	}

	// The row must be untouched after the rejected updates.
	current, err := store.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Caption, current.Caption)
	assert.Equal(t, models.StatusPending, current.Status)
}

func TestMemoryUpdateFieldsAcceptsStatusString(t *testing.T) {
	store := NewMemoryPostStore()
	post := pendingPost(time.Now(), models.PlatformTelegram)
	require.NoError(t, store.Insert(context.Background(), post))

	require.NoError(t, store.UpdateFields(context.Background(), post.ID, map[string]any{"status": "Paused"}))

	current, err := store.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, current.Status)
}
