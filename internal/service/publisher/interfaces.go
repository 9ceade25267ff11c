package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/models"
)

// Asset is a resolved image ready for upload: raw bytes plus, when the
// storage layer can serve it, a publicly retrievable URL. Platforms that
// ingest by URL reference (Instagram, WhatsApp) use URL; the rest use Bytes.
type Asset struct {
	Ref         string
	Filename    string
	Bytes       []byte
	ContentType string
	URL         string
}

// Result is the outcome of one publish attempt against one platform.
type Result struct {
	Platform    models.Platform `json:"platform"`
	Success     bool            `json:"success"`
	ExternalID  string          `json:"external_id,omitempty"`
	Mocked      bool            `json:"mocked,omitempty"`
	PublishedAt time.Time       `json:"published_at"`
}

// ErrCredentialsMissing marks a platform that has no usable credentials
// configured. The dispatcher treats it as mockable.
var ErrCredentialsMissing = errors.New("credentials not configured")

// APIError wraps a rejection from the platform's remote API. Also mockable
// at the dispatcher boundary, unlike programming or asset errors.
type APIError struct {
	Platform models.Platform
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error: %s: %v", e.Platform.DisplayName(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error: %s", e.Platform.DisplayName(), e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Publisher is the uniform publishing capability over one platform's native
// ingestion protocol. A call makes exactly one attempt; retry policy, if
// any, belongs to the caller.
type Publisher interface {
	Platform() models.Platform
	Publish(ctx context.Context, caption string, asset Asset) (*Result, error)
}
