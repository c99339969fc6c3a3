// Package content provides the platform-agnostic publishing payload for publishhub
package content

import "time"

// Type represents the kind of content being published
type Type string

const (
	TypeVideo   Type = "video"
	TypeImage   Type = "image"
	TypeAudio   Type = "audio"
	TypeText    Type = "text"
	TypeArticle Type = "article"
)

// Content is the content-type-agnostic publishing payload. It is shared by
// reference across all target platforms of one publish request; adapters
// must treat it as read-only.
type Content struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	CoverImageURL string   `json:"cover_image_url,omitempty" yaml:"cover_image_url,omitempty"`
	VideoURL      string   `json:"video_url,omitempty" yaml:"video_url,omitempty"`
	AudioURL      string   `json:"audio_url,omitempty" yaml:"audio_url,omitempty"`
	Images        []string `json:"images,omitempty" yaml:"images,omitempty"`

	Type Type `json:"type" yaml:"type"`

	// Duration is the media length in seconds, zero when not applicable.
	Duration int    `json:"duration,omitempty" yaml:"duration,omitempty"`
	FileSize int64  `json:"file_size,omitempty" yaml:"file_size,omitempty"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"`
	Quality  string `json:"quality,omitempty" yaml:"quality,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// New creates content of the given type with default values
func New(contentType Type) *Content {
	return &Content{
		Type:      contentType,
		Tags:      make([]string, 0),
		CreatedAt: time.Now(),
	}
}

// SetTitle sets the content title
func (c *Content) SetTitle(title string) *Content {
	c.Title = title
	return c
}

// SetDescription sets the content description
func (c *Content) SetDescription(description string) *Content {
	c.Description = description
	return c
}

// SetVideoURL sets the video URL
func (c *Content) SetVideoURL(url string) *Content {
	c.VideoURL = url
	return c
}

// SetCoverImageURL sets the cover image URL
func (c *Content) SetCoverImageURL(url string) *Content {
	c.CoverImageURL = url
	return c
}

// SetImages sets the image URL list
func (c *Content) SetImages(urls ...string) *Content {
	c.Images = urls
	return c
}

// AddTag appends a tag
func (c *Content) AddTag(tag string) *Content {
	c.Tags = append(c.Tags, tag)
	return c
}

// SetTags sets all tags
func (c *Content) SetTags(tags ...string) *Content {
	c.Tags = tags
	return c
}

// SetDuration sets the media duration in seconds
func (c *Content) SetDuration(seconds int) *Content {
	c.Duration = seconds
	return c
}

// ContentUpdate describes a partial edit of already-published content.
// Nil pointer fields leave the corresponding value unchanged.
type ContentUpdate struct {
	Title         *string  `json:"title,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	CoverImageURL *string  `json:"cover_image_url,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *ContentUpdate) IsEmpty() bool {
	return u == nil || (u.Title == nil && u.Description == nil && len(u.Tags) == 0 && u.CoverImageURL == nil)
}
