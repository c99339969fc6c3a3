package platform

import (
	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/errors"
)

// PublishParams carries everything one publish request needs
type PublishParams struct {
	Content *content.Content `json:"content"`

	// Schedule is nil for immediate publication.
	Schedule *content.Schedule `json:"schedule,omitempty"`

	// Targets selects the platforms for manager fan-out. Adapters
	// ignore it, they always publish to their own platform.
	Targets []Type `json:"targets,omitempty"`

	// PlatformParams carries per-platform extras keyed by platform,
	// for example wechat's author or douyin's poi id.
	PlatformParams map[Type]map[string]interface{} `json:"platform_params,omitempty"`
}

// NewPublishParams creates publish params for the given content and targets
func NewPublishParams(c *content.Content, targets ...Type) *PublishParams {
	return &PublishParams{Content: c, Targets: targets}
}

// ParamsFor returns the per-platform extras for t, nil when absent
func (p *PublishParams) ParamsFor(t Type) map[string]interface{} {
	if p.PlatformParams == nil {
		return nil
	}
	return p.PlatformParams[t]
}

// SetParam sets a per-platform extra for t
func (p *PublishParams) SetParam(t Type, key string, value interface{}) *PublishParams {
	if p.PlatformParams == nil {
		p.PlatformParams = make(map[Type]map[string]interface{})
	}
	if p.PlatformParams[t] == nil {
		p.PlatformParams[t] = make(map[string]interface{})
	}
	p.PlatformParams[t][key] = value
	return p
}

// Validate checks the params are usable
func (p *PublishParams) Validate() error {
	if p == nil || p.Content == nil {
		return errors.New(errors.ErrMissingContent, "publish params carry no content")
	}
	return nil
}
