// Package publishhub provides a unified publishing layer over multiple
// social content platforms including Douyin, WeChat, Xiaohongshu, Bilibili
// and Weibo, with fan-out publishing, scheduling and engagement queries.
//
// Basic usage:
//
//	hub, err := publishhub.New(ctx,
//		publishhub.WithBaseURL("https://publish-proxy.internal"),
//		publishhub.WithHTTPSource("https://admin.internal"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer hub.Close()
//
//	c := publishhub.NewContent(publishhub.ContentTypeVideo).
//		SetTitle("launch day").
//		SetVideoURL("https://cdn.example.com/v/1.mp4").
//		SetCoverImageURL("https://cdn.example.com/c/1.jpg")
//
//	report := hub.PublishReport(ctx, publishhub.NewPublishParams(c,
//		publishhub.Douyin, publishhub.Weibo))
//	if !report.IsSuccess() {
//		log.Printf("partial publish: %v", report.Errors())
//	}
package publishhub

import (
	"context"

	"github.com/kart-io/publishhub/pkg/config"
	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/platform"
	"github.com/kart-io/publishhub/pkg/publisher"
	"github.com/kart-io/publishhub/pkg/report"
	"github.com/kart-io/publishhub/pkg/taskstore"
)

type (
	// Manager fans publish operations out across the configured platforms
	Manager = publisher.Manager

	// StatusQuery names one published post for a batch status lookup
	StatusQuery = publisher.StatusQuery

	// Platform identifies a publishing platform
	Platform = platform.Type

	// Adapter is the per-platform publishing interface
	Adapter = platform.Adapter

	// Capabilities describes platform constraints and feature support
	Capabilities = platform.Capabilities

	// PublishParams carries everything one publish request needs
	PublishParams = platform.PublishParams

	// PublishResult is the outcome of one publish attempt on one platform
	PublishResult = platform.PublishResult

	// ValidationResult carries the outcome of a content validation pass
	ValidationResult = platform.ValidationResult

	// TokenPair holds OAuth credentials
	TokenPair = platform.TokenPair

	// TaskStatus is the platform-side status of a published post
	TaskStatus = platform.TaskStatus

	// TaskState is the lifecycle state of a stored scheduled task
	TaskState = platform.TaskState

	// Content is one piece of publishable content
	Content = content.Content

	// ContentType classifies content
	ContentType = content.Type

	// ContentUpdate is a partial update for a published post
	ContentUpdate = content.ContentUpdate

	// Schedule controls when content is published
	Schedule = content.Schedule

	// Report summarizes one fan-out across platforms
	Report = report.Report

	// Task is a stored scheduled-publish record
	Task = taskstore.Task

	// TaskFilter narrows task listings
	TaskFilter = taskstore.Filter

	// Config holds publishhub configuration
	Config = config.Config

	// Option is a functional configuration option
	Option = config.Option

	// PlatformConfig holds one platform's credentials and policy
	PlatformConfig = config.PlatformConfig

	// Logger is the leveled key/value logging interface
	Logger = logger.Logger
)

// Platform identifiers
const (
	Douyin      = platform.TypeDouyin
	WeChat      = platform.TypeWeChat
	Xiaohongshu = platform.TypeXiaohongshu
	Bilibili    = platform.TypeBilibili
	Weibo       = platform.TypeWeibo
	Kuaishou    = platform.TypeKuaishou
)

// Content types
const (
	ContentTypeVideo   = content.TypeVideo
	ContentTypeImage   = content.TypeImage
	ContentTypeAudio   = content.TypeAudio
	ContentTypeText    = content.TypeText
	ContentTypeArticle = content.TypeArticle
)

// Publish statuses
const (
	StatusPublished = platform.StatusPublished
	StatusPending   = platform.StatusPending
	StatusFailed    = platform.StatusFailed
	StatusDraft     = platform.StatusDraft
)

// Scheduled-task states
const (
	TaskPending    = platform.TaskPending
	TaskProcessing = platform.TaskProcessing
	TaskPublished  = platform.TaskPublished
	TaskFailed     = platform.TaskFailed
	TaskCancelled  = platform.TaskCancelled
)

// Normalized engagement metric keys
const (
	MetricViews     = platform.MetricViews
	MetricLikes     = platform.MetricLikes
	MetricComments  = platform.MetricComments
	MetricShares    = platform.MetricShares
	MetricFavorites = platform.MetricFavorites
	MetricCoins     = platform.MetricCoins
)

// Log levels
const (
	LogLevelSilent = logger.Silent
	LogLevelError  = logger.Error
	LogLevelWarn   = logger.Warn
	LogLevelInfo   = logger.Info
	LogLevelDebug  = logger.Debug
)

// New creates a publish manager from the given options
func New(ctx context.Context, opts ...Option) (*Manager, error) {
	return publisher.New(ctx, opts...)
}
