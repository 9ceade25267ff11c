package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/service"
)

func (s *Server) handleListPosts(c *gin.Context) {
	posts, err := s.Posts.List(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list posts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) handleCreatePost(c *gin.Context) {
	in := service.CreateInput{
		ImagePath:     c.PostForm("image_path"),
		Caption:       c.PostForm("caption"),
		Hashtags:      c.PostForm("hashtags"),
		InternalNotes: c.PostForm("internal_notes"),
		SourceMode:    c.PostForm("source_mode"),
		IsRecurring:   parseFormBool(c.PostForm("is_recurring")),
		IsImmediate:   parseFormBool(c.PostForm("is_immediate")),
	}

	if raw := c.PostForm("platforms"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Platforms); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "platforms must be a JSON array"})
			return
		}
	}
	if raw := c.PostForm("platform_settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.PlatformSettings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "platform_settings must be a JSON object"})
			return
		}
	}

	if raw := c.PostForm("scheduled_time"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_time must be ISO-8601"})
			return
		}
		in.ScheduledTime = t.UTC()
	}
	if raw := c.PostForm("recurrence_end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recurrence_end_date must be ISO-8601"})
			return
		}
		end := t.UTC()
		in.RecurrenceEndDate = &end
	}
	in.RecurrenceFrequency = c.PostForm("recurrence_frequency")

	if file, err := c.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded image"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded image"})
			return
		}
		in.ImageData = data
		in.ImageFilename = file.Filename
		in.ImageContentType = file.Header.Get("Content-Type")
	}

	post, err := s.Posts.Create(c.Request.Context(), in)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
			return
		}
		s.Logger.Error("Failed to create post", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	if in.IsImmediate {
		// The background task may still be in flight; the optimistic status
		// here mirrors what it converges to in the common case.
		optimistic := *post
		optimistic.Status = models.StatusPublished
		c.JSON(http.StatusOK, gin.H{
			"message": "Post published immediately",
			"post":    optimistic,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post scheduled successfully",
		"post":    post,
	})
}

func (s *Server) handleDeletePost(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.Posts.Delete(c.Request.Context(), id); err != nil {
		s.Logger.Error("Failed to delete post", zap.Uint("post_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// handleUpdatePost accepts the whitelist-limited field set; anything else in
// the body is silently dropped.
func (s *Server) handleUpdatePost(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var body struct {
		Caption       *string `json:"caption"`
		ScheduledTime *string `json:"scheduled_time"`
		Status        *string `json:"status"`
		IsRecurring   *bool   `json:"is_recurring"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := service.UpdateInput{
		Caption:     body.Caption,
		IsRecurring: body.IsRecurring,
	}
	if body.ScheduledTime != nil {
		t, err := time.Parse(time.RFC3339, *body.ScheduledTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_time must be ISO-8601"})
			return
		}
		utc := t.UTC()
		in.ScheduledTime = &utc
	}
	if body.Status != nil {
		status, valid := models.ParseStatus(*body.Status)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		in.Status = &status
	}

	if err := s.Posts.Update(c.Request.Context(), id, in); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.Logger.Error("Failed to update post", zap.Uint("post_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post updated"})
}

func (s *Server) handleUpdatePostStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	status, valid := models.ParseStatus(body.Status)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	if err := s.Posts.UpdateStatus(c.Request.Context(), id, status); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.Logger.Error("Failed to update post status", zap.Uint("post_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post status updated to " + string(status)})
}

var sourceDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
var imageExtRe = regexp.MustCompile(`(?i)\.(jpg|jpeg|png)$`)

// handleListSourceImages lists droppable images for one date folder of the
// source-content area, creating the folder on first access.
func (s *Server) handleListSourceImages(c *gin.Context) {
	date := c.Query("date")
	if !sourceDateRe.MatchString(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date query param required (YYYY-MM-DD)"})
		return
	}

	dir := filepath.Join(s.Config.Storage.SourceContentDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.Logger.Error("Failed to create source folder", zap.String("dir", dir), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to access source folder"})
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	images := []string{}
	for _, e := range entries {
		if !e.IsDir() && imageExtRe.MatchString(e.Name()) {
			images = append(images, e.Name())
		}
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (s *Server) handleCronTick(c *gin.Context) {
	if err := s.Scheduler.RunTick(c.Request.Context()); err != nil {
		s.Logger.Error("Cron tick failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cron job executed successfully"})
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return uint(id), true
}

func parseFormBool(v string) bool {
	return v == "true" || v == "1"
}
