package models

import (
	"time"
)

// Status is the post lifecycle state. Transitions are owned by the scheduler
// and the user-facing edit operations; Processing must never survive a
// process restart.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusPublished  Status = "Published"
	StatusFailed     Status = "Failed"
	StatusPaused     Status = "Paused"
)

// ParseStatus validates a status string from the API layer.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusPublished, StatusFailed, StatusPaused:
		return Status(s), true
	}
	return "", false
}

// Frequency is the recurrence cadence of a recurring post.
type Frequency string

const (
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
)

// ParseFrequency validates a recurrence frequency string.
func ParseFrequency(s string) (Frequency, bool) {
	switch Frequency(s) {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return Frequency(s), true
	}
	return "", false
}

// SourceMode controls how the image reference is resolved to bytes at publish
// time: Manual posts point into the uploads area, Auto posts into the dated
// source-content folders.
type SourceMode string

const (
	SourceModeManual SourceMode = "Manual"
	SourceModeAuto   SourceMode = "Auto"
)

// Post is one scheduled occurrence. Recurring posts spawn a fresh row per
// occurrence; a row is never rewound to represent its successor.
type Post struct {
	ID                  uint         `gorm:"primaryKey" json:"id"`
	ImagePath           string       `gorm:"size:500" json:"image_path"`
	Caption             string       `gorm:"type:text" json:"caption"`
	Hashtags            string       `gorm:"type:text" json:"hashtags"`
	InternalNotes       string       `gorm:"type:text" json:"internal_notes"`
	Platforms           PlatformList `gorm:"type:text[]" json:"platforms"`
	PlatformSettings    SettingsMap  `gorm:"type:jsonb" json:"platform_settings"`
	ScheduledTime       time.Time    `gorm:"index" json:"scheduled_time"`
	Status              Status       `gorm:"size:50;default:'Pending';index" json:"status"`
	IsRecurring         bool         `json:"is_recurring"`
	RecurrenceFrequency Frequency    `gorm:"size:20" json:"recurrence_frequency"`
	RecurrenceEndDate   *time.Time   `json:"recurrence_end_date"`
	SourceMode          SourceMode   `gorm:"size:20;default:'Manual'" json:"source_mode"`
	CreatedAt           time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// CaptionFor returns the caption to send to the given platform, honoring a
// per-platform override when one is set. InternalNotes never leaves the
// operator's view.
func (p *Post) CaptionFor(platform Platform) string {
	if s, ok := p.PlatformSettings[platform]; ok && s.Caption != "" {
		return s.Caption
	}
	return p.Caption
}

// NextOccurrence computes the scheduled time of the next occurrence, or
// ok=false when the post is not recurring, the frequency is unknown, or the
// next occurrence would fall past the recurrence end date. An occurrence
// landing exactly on the end date still runs.
func (p *Post) NextOccurrence() (time.Time, bool) {
	if !p.IsRecurring {
		return time.Time{}, false
	}

	var next time.Time
	switch p.RecurrenceFrequency {
	case FrequencyDaily:
		next = p.ScheduledTime.AddDate(0, 0, 1)
	case FrequencyWeekly:
		next = p.ScheduledTime.AddDate(0, 0, 7)
	case FrequencyMonthly:
		next = p.ScheduledTime.AddDate(0, 1, 0)
	default:
		return time.Time{}, false
	}

	if p.RecurrenceEndDate != nil && next.After(*p.RecurrenceEndDate) {
		return time.Time{}, false
	}

	return next, true
}

// Successor builds the next occurrence row: identical content, advanced
// schedule, status reset to Pending. The ID is left zero for the store to
// assign. Platforms and settings are copied so the rows never share
// mutable state.
func (p *Post) Successor(next time.Time) *Post {
	platforms := make(PlatformList, len(p.Platforms))
	copy(platforms, p.Platforms)

	var settings SettingsMap
	if p.PlatformSettings != nil {
		settings = make(SettingsMap, len(p.PlatformSettings))
		for platform, setting := range p.PlatformSettings {
			settings[platform] = setting
		}
	}

	return &Post{
		ImagePath:           p.ImagePath,
		Caption:             p.Caption,
		Hashtags:            p.Hashtags,
		InternalNotes:       p.InternalNotes,
		Platforms:           platforms,
		PlatformSettings:    settings,
		ScheduledTime:       next,
		Status:              StatusPending,
		IsRecurring:         true,
		RecurrenceFrequency: p.RecurrenceFrequency,
		RecurrenceEndDate:   p.RecurrenceEndDate,
		SourceMode:          p.SourceMode,
	}
}
