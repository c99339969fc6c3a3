package content

import "time"

// ScheduleMode controls when content is published
type ScheduleMode string

const (
	// ModeImmediate publishes as soon as the request is accepted.
	ModeImmediate ScheduleMode = "immediate"
	// ModeScheduled defers publishing to PublishAt.
	ModeScheduled ScheduleMode = "scheduled"
	// ModeDraft stages content without publishing it.
	ModeDraft ScheduleMode = "draft"
)

// Schedule carries the publishing schedule of one request
type Schedule struct {
	Mode      ScheduleMode `json:"schedule_type" yaml:"schedule_type"`
	PublishAt *time.Time   `json:"publish_time,omitempty" yaml:"publish_time,omitempty"`
	Timezone  string       `json:"timezone,omitempty" yaml:"timezone,omitempty"`

	// AutoRepublish re-queues content that failed its scheduled publish.
	AutoRepublish bool `json:"auto_republish,omitempty" yaml:"auto_republish,omitempty"`
}

// Immediate returns an immediate-publish schedule
func Immediate() *Schedule {
	return &Schedule{Mode: ModeImmediate}
}

// At returns a schedule deferring publication to the given time
func At(t time.Time, timezone string) *Schedule {
	return &Schedule{Mode: ModeScheduled, PublishAt: &t, Timezone: timezone}
}

// Draft returns a draft-only schedule
func Draft() *Schedule {
	return &Schedule{Mode: ModeDraft}
}

// IsScheduled reports whether the schedule defers publication
func (s *Schedule) IsScheduled() bool {
	return s != nil && s.Mode == ModeScheduled && s.PublishAt != nil
}
