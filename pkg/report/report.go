// Package report aggregates the per-platform results of one publish fan-out
package report

import (
	"time"

	"github.com/kart-io/publishhub/pkg/platform"
)

// Status is the rollup over all platform results
type Status string

const (
	// StatusSuccess means every platform accepted the content.
	StatusSuccess Status = "success"
	// StatusPartial means some platforms accepted and some failed.
	StatusPartial Status = "partial"
	// StatusFailed means every platform failed.
	StatusFailed Status = "failed"
	// StatusEmpty means no platform produced a result.
	StatusEmpty Status = "empty"
)

// Report summarizes one fan-out across platforms
type Report struct {
	Results    []*platform.PublishResult `json:"results"`
	Successful int                       `json:"successful"`
	Failed     int                       `json:"failed"`
	Total      int                       `json:"total"`
	Status     Status                    `json:"status"`
	Timestamp  time.Time                 `json:"timestamp"`
}

// New builds a report from fan-out results. Nil entries are skipped.
func New(results []*platform.PublishResult) *Report {
	r := &Report{
		Results:   make([]*platform.PublishResult, 0, len(results)),
		Timestamp: time.Now(),
	}
	for _, result := range results {
		if result == nil {
			continue
		}
		r.Results = append(r.Results, result)
		if result.Success {
			r.Successful++
		} else {
			r.Failed++
		}
	}
	r.Total = len(r.Results)

	switch {
	case r.Total == 0:
		r.Status = StatusEmpty
	case r.Failed == 0:
		r.Status = StatusSuccess
	case r.Successful == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}
	return r
}

// IsSuccess reports whether every platform accepted
func (r *Report) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// IsPartial reports whether results were mixed
func (r *Report) IsPartial() bool {
	return r.Status == StatusPartial
}

// IsFailed reports whether every platform failed
func (r *Report) IsFailed() bool {
	return r.Status == StatusFailed
}

// SuccessRate returns the share of successful platforms as a percentage
func (r *Report) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Successful) / float64(r.Total) * 100
}

// Errors returns the error messages of all failed results
func (r *Report) Errors() []string {
	errs := make([]string, 0, r.Failed)
	for _, result := range r.Results {
		if !result.Success && result.Error != "" {
			errs = append(errs, result.Error)
		}
	}
	return errs
}

// SuccessfulPlatforms returns the platforms that accepted
func (r *Report) SuccessfulPlatforms() []platform.Type {
	platforms := make([]platform.Type, 0, r.Successful)
	for _, result := range r.Results {
		if result.Success {
			platforms = append(platforms, result.Platform)
		}
	}
	return platforms
}

// FailedPlatforms returns the platforms that failed
func (r *Report) FailedPlatforms() []platform.Type {
	platforms := make([]platform.Type, 0, r.Failed)
	for _, result := range r.Results {
		if !result.Success {
			platforms = append(platforms, result.Platform)
		}
	}
	return platforms
}

// ResultFor returns the result of one platform
func (r *Report) ResultFor(p platform.Type) (*platform.PublishResult, bool) {
	for _, result := range r.Results {
		if result.Platform == p {
			return result, true
		}
	}
	return nil, false
}
