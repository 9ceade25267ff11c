package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

// ValidationError is returned synchronously for a malformed create request;
// nothing is persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// CreateInput is the decoded create-post request.
type CreateInput struct {
	ImagePath           string
	ImageData           []byte
	ImageFilename       string
	ImageContentType    string
	Caption             string
	Hashtags            string
	InternalNotes       string
	Platforms           []string
	PlatformSettings    map[string]models.PlatformSetting
	ScheduledTime       time.Time
	IsRecurring         bool
	RecurrenceFrequency string
	RecurrenceEndDate   *time.Time
	SourceMode          string
	IsImmediate         bool
}

// UpdateInput carries the whitelist-limited PATCH fields. Nil means
// "not supplied"; anything outside the whitelist was dropped upstream.
type UpdateInput struct {
	Caption       *string
	ScheduledTime *time.Time
	Status        *models.Status
	IsRecurring   *bool
}

// PostService owns the user-facing post operations: create (including the
// immediate-publish path), list, partial update, and delete.
type PostService struct {
	logger     *zap.Logger
	store      PostStore
	assets     AssetStore
	dispatcher *Dispatcher
}

func NewPostService(logger *zap.Logger, store PostStore, assets AssetStore, dispatcher *Dispatcher) *PostService {
	return &PostService{
		logger:     logger,
		store:      store,
		assets:     assets,
		dispatcher: dispatcher,
	}
}

func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	return s.store.List(ctx)
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.store.Get(ctx, id)
}

// Create validates and persists a new post. For a future schedule the post
// enters the Pending queue; with the immediate flag it is stored as
// Processing and published by a background task, so the caller gets its
// response before delivery finishes.
func (s *PostService) Create(ctx context.Context, in CreateInput) (*models.Post, error) {
	post, err := s.buildPost(in)
	if err != nil {
		return nil, err
	}

	if in.IsImmediate {
		post.Status = models.StatusProcessing
	}

	if err := s.store.Insert(ctx, post); err != nil {
		return nil, err
	}

	if in.IsImmediate {
		// Fire-and-forget; converges on the same state machine as the
		// scanner. Detached from the request context on purpose: the HTTP
		// response does not wait for platform delivery.
		background := *post
		go func() {
			publishAndFinalize(context.Background(), s.store, s.dispatcher, s.logger, &background)
		}()
	}

	return post, nil
}

func (s *PostService) buildPost(in CreateInput) (*models.Post, error) {
	imagePath := in.ImagePath
	if len(in.ImageData) > 0 {
		ref, err := s.assets.Store(in.ImageData, in.ImageFilename, in.ImageContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		imagePath = ref
	}

	if imagePath == "" {
		return nil, &ValidationError{Message: "image file or image_path is required"}
	}
	if in.ScheduledTime.IsZero() {
		return nil, &ValidationError{Message: "scheduled_time is required"}
	}
	if len(in.Platforms) == 0 {
		return nil, &ValidationError{Message: "at least one platform is required"}
	}

	platforms := make(models.PlatformList, 0, len(in.Platforms))
	for _, name := range in.Platforms {
		platform, err := models.ParsePlatform(name)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		platforms = append(platforms, platform)
	}

	settings := models.SettingsMap{}
	for name, setting := range in.PlatformSettings {
		platform, err := models.ParsePlatform(name)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		settings[platform] = setting
	}

	sourceMode := models.SourceModeManual
	if in.SourceMode == string(models.SourceModeAuto) {
		sourceMode = models.SourceModeAuto
	}

	var frequency models.Frequency
	if in.IsRecurring {
		parsed, ok := models.ParseFrequency(in.RecurrenceFrequency)
		if !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid recurrence_frequency: %s", in.RecurrenceFrequency)}
		}
		frequency = parsed
	}

	return &models.Post{
		ImagePath:           imagePath,
		Caption:             in.Caption,
		Hashtags:            in.Hashtags,
		InternalNotes:       in.InternalNotes,
		Platforms:           platforms,
		PlatformSettings:    settings,
		ScheduledTime:       in.ScheduledTime,
		Status:              models.StatusPending,
		IsRecurring:         in.IsRecurring,
		RecurrenceFrequency: frequency,
		RecurrenceEndDate:   in.RecurrenceEndDate,
		SourceMode:          sourceMode,
	}, nil
}

// Update applies the whitelist-limited partial update: caption, reschedule,
// status (pause/resume, reset to Pending), stop-recurrence.
func (s *PostService) Update(ctx context.Context, id uint, in UpdateInput) error {
	fields := map[string]any{}
	if in.Caption != nil {
		fields["caption"] = *in.Caption
	}
	if in.ScheduledTime != nil {
		fields["scheduled_time"] = *in.ScheduledTime
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	if in.IsRecurring != nil {
		fields["is_recurring"] = *in.IsRecurring
	}

	// Rescheduling a finished occurrence is the retry mechanism: it goes
	// back into the Pending queue unless the caller set a status explicitly.
	if in.ScheduledTime != nil && in.Status == nil {
		post, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if post.Status == models.StatusPublished || post.Status == models.StatusFailed {
			fields["status"] = models.StatusPending
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return s.store.UpdateFields(ctx, id, fields)
}

// UpdateStatus is the dedicated status endpoint's backing operation.
func (s *PostService) UpdateStatus(ctx context.Context, id uint, status models.Status) error {
	return s.store.UpdateFields(ctx, id, map[string]any{"status": status})
}

func (s *PostService) Delete(ctx context.Context, id uint) error {
	return s.store.Delete(ctx, id)
}
