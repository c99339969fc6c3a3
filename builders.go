package publishhub

import (
	"time"

	"github.com/kart-io/publishhub/pkg/config"
	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/platform"
)

// NewContent creates content of the given type
func NewContent(contentType ContentType) *Content {
	return content.New(contentType)
}

// NewPublishParams creates publish params for the given content and targets
func NewPublishParams(c *Content, targets ...Platform) *PublishParams {
	return platform.NewPublishParams(c, targets...)
}

// NewPlatformConfig creates an enabled platform configuration with defaults
func NewPlatformConfig(platform, appID, appSecret string) *PlatformConfig {
	return config.NewPlatformConfig(platform, appID, appSecret)
}

// Immediate publishes as soon as the platform accepts
func Immediate() *Schedule {
	return content.Immediate()
}

// At schedules publication for a specific time in the given timezone
func At(t time.Time, timezone string) *Schedule {
	return content.At(t, timezone)
}

// Draft saves content on the platform without publishing
func Draft() *Schedule {
	return content.Draft()
}
