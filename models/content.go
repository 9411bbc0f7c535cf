package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/lectern/pkg/validate"
)

// ContentKind is the closed set of item types a module can hold.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
	ContentFile  ContentKind = "file"
	ContentVideo ContentKind = "video"
)

var contentKinds = map[string]ContentKind{
	"text":  ContentText,
	"image": ContentImage,
	"file":  ContentFile,
	"video": ContentVideo,
}

// ParseContentKind resolves a kind name as it appears in URLs.
func ParseContentKind(name string) (ContentKind, error) {
	kind, ok := contentKinds[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown content kind %q", name)
	}
	return kind, nil
}

// ContentKinds lists every kind in a fixed order.
func ContentKinds() []ContentKind {
	return []ContentKind{ContentText, ContentImage, ContentFile, ContentVideo}
}

// HasUpload reports whether items of this kind carry an uploaded file.
func (k ContentKind) HasUpload() bool {
	return k == ContentImage || k == ContentFile
}

// ContentScope is the ordering partition of contents: one module.
type ContentScope struct {
	ModuleID string
}

// Item is the payload behind a content entry. Which of Body, FileURL and
// VideoURL is set depends on Kind.
type Item struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"owner_id"`
	Kind      ContentKind `json:"kind"`
	Title     string      `json:"title"`
	Body      *string     `json:"body,omitempty"`
	FileURL   *string     `json:"file_url,omitempty"`
	FileName  *string     `json:"file_name,omitempty"`
	VideoURL  *string     `json:"video_url,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Rendered is the HTML fragment for the item, set only by read paths
	// that render content.
	Rendered string `json:"rendered,omitempty"`
}

// Content places one item inside a module at a position.
type Content struct {
	ID        string    `json:"id"`
	ModuleID  string    `json:"module_id"`
	ItemID    string    `json:"item_id"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	Item      *Item     `json:"item,omitempty"`
}

func (c *Content) OrderScope() ContentScope { return ContentScope{ModuleID: c.ModuleID} }
func (c *Content) SetPosition(p int)        { c.Position = p }

// ContentRequest carries the non-file fields for creating or updating an
// item. Uploaded files travel separately as multipart parts.
type ContentRequest struct {
	Title    string `json:"title" validate:"required,max=250"`
	Body     string `json:"body" validate:"max=100000"`
	VideoURL string `json:"video_url" validate:"omitempty,url,max=2000"`
	Position *int   `json:"position" validate:"omitempty,min=0"`
}

// Validate checks the fields every kind needs, then the kind-specific ones.
// hasFile tells whether the request came with an uploaded file.
func (r *ContentRequest) Validate(kind ContentKind, hasFile bool) error {
	r.Title = strings.TrimSpace(r.Title)
	r.VideoURL = strings.TrimSpace(r.VideoURL)
	if err := validate.Struct(r); err != nil {
		return err
	}

	switch kind {
	case ContentText:
		if strings.TrimSpace(r.Body) == "" {
			return fmt.Errorf("body is required for text content")
		}
	case ContentVideo:
		if r.VideoURL == "" {
			return fmt.Errorf("video_url is required for video content")
		}
		if !strings.HasPrefix(r.VideoURL, "http://") && !strings.HasPrefix(r.VideoURL, "https://") {
			return fmt.Errorf("video_url must be an http or https URL")
		}
	case ContentImage, ContentFile:
		if !hasFile {
			return fmt.Errorf("file is required for %s content", kind)
		}
	}
	return nil
}
