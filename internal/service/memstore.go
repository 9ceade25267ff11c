package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

// MemoryPostStore is the in-process PostStore used in dev/demo mode
// (database.type: memory) and by the test suite. Semantics mirror the gorm
// store; the mutex stands in for the database's row-level atomicity on the
// claim update.
type MemoryPostStore struct {
	mu     sync.Mutex
	posts  map[uint]*models.Post
	nextID uint
}

func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{
		posts:  make(map[uint]*models.Post),
		nextID: 1,
	}
}

func (s *MemoryPostStore) List(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	return posts, nil
}

func (s *MemoryPostStore) Get(ctx context.Context, id uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryPostStore) Insert(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = s.nextID
	s.nextID++
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *MemoryPostStore) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return ErrPostNotFound
	}

	for column, value := range fields {
		switch column {
		case "status":
			switch v := value.(type) {
			case models.Status:
				p.Status = v
			case string:
				p.Status = models.Status(v)
			default:
				return fmt.Errorf("invalid type %T for status", value)
			}
		case "caption":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid type %T for caption", value)
			}
			p.Caption = v
		case "scheduled_time":
			v, ok := value.(time.Time)
			if !ok {
				return fmt.Errorf("invalid type %T for scheduled_time", value)
			}
			p.ScheduledTime = v
		case "is_recurring":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid type %T for is_recurring", value)
			}
			p.IsRecurring = v
		default:
			return fmt.Errorf("unsupported column %q", column)
		}
	}

	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryPostStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.posts, id)
	return nil
}

func (s *MemoryPostStore) ListDue(ctx context.Context, now time.Time) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []models.Post
	for _, p := range s.posts {
		if p.Status == models.StatusPending && !p.ScheduledTime.After(now) {
			due = append(due, *p)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledTime.Before(due[j].ScheduledTime) })
	return due, nil
}

func (s *MemoryPostStore) ClaimPending(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok || p.Status != models.StatusPending {
		return ErrLockConflict
	}
	p.Status = models.StatusProcessing
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryPostStore) ResetProcessing(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reset int64
	for _, p := range s.posts {
		if p.Status == models.StatusProcessing {
			p.Status = models.StatusPending
			p.UpdatedAt = time.Now()
			reset++
		}
	}
	return reset, nil
}
