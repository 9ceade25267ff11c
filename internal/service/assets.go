package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

// ErrAssetNotFound marks an image reference that cannot be resolved to
// bytes. The dispatcher never mocks over it; the post fails.
var ErrAssetNotFound = errors.New("asset not found")

// AssetStore abstracts the blob storage behind the image references posts
// carry. The local implementation keeps manual uploads and dated
// source-content folders on disk.
type AssetStore interface {
	// FetchBytes resolves a reference to raw bytes and a content type.
	FetchBytes(ctx context.Context, ref string, mode models.SourceMode) ([]byte, string, error)
	// ResolveURL returns a publicly retrievable URL for the reference, or
	// "" when no public base URL is configured.
	ResolveURL(ref string, mode models.SourceMode) string
	// Store persists uploaded bytes under a unique name and returns the
	// new reference.
	Store(data []byte, suggestedName, contentType string) (string, error)
}

// LocalAssetStore serves assets from the uploads and source-content
// directories, which the HTTP server also exposes statically so platforms
// that ingest by URL can fetch them.
type LocalAssetStore struct {
	cfg    *config.StorageConfig
	logger *zap.Logger
}

func NewLocalAssetStore(cfg *config.StorageConfig, logger *zap.Logger) (*LocalAssetStore, error) {
	for _, dir := range []string{cfg.UploadsDir, cfg.SourceContentDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
		}
	}
	return &LocalAssetStore{cfg: cfg, logger: logger}, nil
}

func (s *LocalAssetStore) FetchBytes(ctx context.Context, ref string, mode models.SourceMode) ([]byte, string, error) {
	path, err := s.resolvePath(ref, mode)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrAssetNotFound, ref)
		}
		return nil, "", fmt.Errorf("failed to read asset %s: %w", ref, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return data, contentType, nil
}

func (s *LocalAssetStore) resolvePath(ref string, mode models.SourceMode) (string, error) {
	if mode != models.SourceModeAuto {
		return filepath.Join(s.cfg.UploadsDir, filepath.Base(ref)), nil
	}

	path := filepath.Join(s.cfg.SourceContentDir, filepath.FromSlash(ref))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	// The client sometimes sends a bare filename or a stale date folder.
	// Scan the date folders newest first for the basename before giving up.
	found, err := s.searchSourceFolders(filepath.Base(ref))
	if err != nil {
		return "", err
	}

	s.logger.Debug("Auto-mode asset found via folder scan",
		zap.String("ref", ref),
		zap.String("path", found))
	return found, nil
}

func (s *LocalAssetStore) searchSourceFolders(basename string) (string, error) {
	entries, err := os.ReadDir(s.cfg.SourceContentDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, basename)
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			dates = append(dates, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	for _, date := range dates {
		candidate := filepath.Join(s.cfg.SourceContentDir, date, basename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s not in any source folder", ErrAssetNotFound, basename)
}

func (s *LocalAssetStore) ResolveURL(ref string, mode models.SourceMode) string {
	base := strings.TrimSuffix(s.cfg.PublicBaseURL, "/")
	if base == "" {
		return ""
	}
	if mode == models.SourceModeAuto {
		return base + "/source_content/" + strings.TrimPrefix(filepath.ToSlash(ref), "/")
	}
	return base + "/uploads/" + filepath.Base(ref)
}

func (s *LocalAssetStore) Store(data []byte, suggestedName, contentType string) (string, error) {
	name := fmt.Sprintf("%d_%s_%s", time.Now().UnixMilli(), uuid.NewString()[:8], sanitizeFilename(suggestedName))
	path := filepath.Join(s.cfg.UploadsDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Info("Stored uploaded asset",
		zap.String("ref", name),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)))
	return name, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "upload"
	}
	return out
}
