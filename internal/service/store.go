package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

// ErrLockConflict is returned by ClaimPending when the post is no longer
// Pending — another scanner claimed it first, or it was edited or deleted.
var ErrLockConflict = errors.New("post is no longer pending")

// ErrPostNotFound is returned when an id does not resolve to a stored post.
var ErrPostNotFound = errors.New("post not found")

// PostStore is the durable store contract the engine runs against. The
// conditional update inside ClaimPending is the only operation that must be
// atomic at the store level; it is the whole concurrency-control story.
type PostStore interface {
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id uint) (*models.Post, error)
	Insert(ctx context.Context, post *models.Post) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error

	// ListDue returns Pending posts whose scheduled time is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]models.Post, error)
	// ClaimPending flips Pending -> Processing, or ErrLockConflict.
	ClaimPending(ctx context.Context, id uint) error
	// ResetProcessing returns every Processing post to Pending and reports
	// how many were reset. Run once at startup, before the first tick.
	ResetProcessing(ctx context.Context) (int64, error)
}

func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port, cfg.SSLMode, cfg.TimeZone)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schema
	if err := db.AutoMigrate(&models.Post{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// GormPostStore implements PostStore on the gorm connection.
type GormPostStore struct {
	db *gorm.DB
}

func NewGormPostStore(db *gorm.DB) *GormPostStore {
	return &GormPostStore{db: db}
}

func (s *GormPostStore) List(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *GormPostStore) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return &post, nil
}

func (s *GormPostStore) Insert(ctx context.Context, post *models.Post) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

func (s *GormPostStore) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	tx := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return fmt.Errorf("failed to update post %d: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *GormPostStore) Delete(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	return nil
}

func (s *GormPostStore) ListDue(ctx context.Context, now time.Time) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_time <= ?", models.StatusPending, now).
		Order("scheduled_time ASC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due posts: %w", err)
	}
	return posts, nil
}

func (s *GormPostStore) ClaimPending(ctx context.Context, id uint) error {
	tx := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Update("status", models.StatusProcessing)
	if tx.Error != nil {
		return fmt.Errorf("failed to claim post %d: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrLockConflict
	}
	return nil
}

func (s *GormPostStore) ResetProcessing(ctx context.Context) (int64, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("status = ?", models.StatusProcessing).
		Update("status", models.StatusPending)
	if tx.Error != nil {
		return 0, fmt.Errorf("failed to reset processing posts: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}
