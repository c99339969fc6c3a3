// publishctl publishes content across the configured platforms from the
// command line. Platform credentials come from an admin config endpoint, a
// YAML file, or PUBLISHHUB_* environment variables (a .env file is honored).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kart-io/publishhub"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using process environment")
	}

	var (
		baseURL      = flag.String("base-url", envOr("PUBLISHHUB_BASE_URL", "http://localhost:8080"), "publishing proxy base URL")
		configURL    = flag.String("config-url", os.Getenv("PUBLISHHUB_CONFIG_URL"), "admin backend serving platform configs")
		configFile   = flag.String("config-file", os.Getenv("PUBLISHHUB_CONFIG_FILE"), "YAML file with platform configs")
		targets      = flag.String("targets", "", "comma-separated target platforms, empty means all enabled")
		contentType  = flag.String("type", "video", "content type: video, image, text, article")
		title        = flag.String("title", "", "content title")
		description  = flag.String("desc", "", "content description")
		videoURL     = flag.String("video", "", "video URL")
		coverURL     = flag.String("cover", "", "cover image URL")
		images       = flag.String("images", "", "comma-separated image URLs")
		tags         = flag.String("tags", "", "comma-separated tags")
		logLevel     = flag.String("log-level", envOr("PUBLISHHUB_LOG_LEVEL", "warn"), "log level: silent, error, warn, info, debug")
		timeout      = flag.Duration("timeout", 30*time.Second, "proxy call timeout")
		healthOnly   = flag.Bool("health", false, "check platform connectivity and exit")
		validateOnly = flag.Bool("validate", false, "validate content against platform rules without publishing")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	opts := []publishhub.Option{
		publishhub.WithBaseURL(*baseURL),
		publishhub.WithTimeout(*timeout),
		publishhub.WithLogLevel(*logLevel),
	}
	switch {
	case *configURL != "":
		opts = append(opts, publishhub.WithHTTPSource(*configURL))
	case *configFile != "":
		opts = append(opts, publishhub.WithFileSource(*configFile))
	default:
		opts = append(opts, publishhub.WithPlatforms(platformsFromEnv()...))
	}

	hub, err := publishhub.New(ctx, opts...)
	if err != nil {
		log.Fatalf("initializing publishhub: %v", err)
	}
	defer func() {
		if err := hub.Close(); err != nil {
			log.Printf("closing publishhub: %v", err)
		}
	}()

	available := hub.AvailablePlatforms()
	if len(available) == 0 {
		log.Fatal("no platforms enabled, check the config source or PUBLISHHUB_* variables")
	}
	fmt.Printf("enabled platforms: %s\n", joinPlatforms(available))

	if *healthOnly {
		runHealth(ctx, hub)
		return
	}

	c := buildContent(*contentType, *title, *description, *videoURL, *coverURL, *images, *tags)
	targetList := parseTargets(*targets)

	if *validateOnly {
		runValidate(hub, c, targetList)
		return
	}

	report := hub.PublishReport(ctx, publishhub.NewPublishParams(c, targetList...))
	printReport(report)
	if report.IsFailed() {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// platformsFromEnv builds configs from PUBLISHHUB_<PLATFORM>_APP_ID and
// friends, one platform per prefix
func platformsFromEnv() []*publishhub.PlatformConfig {
	var configs []*publishhub.PlatformConfig
	for _, name := range []string{"douyin", "wechat", "xiaohongshu", "bilibili", "weibo"} {
		prefix := "PUBLISHHUB_" + strings.ToUpper(name)
		appID := os.Getenv(prefix + "_APP_ID")
		if appID == "" {
			continue
		}
		pc := publishhub.NewPlatformConfig(name, appID, os.Getenv(prefix+"_APP_SECRET"))
		pc.AccessToken = os.Getenv(prefix + "_ACCESS_TOKEN")
		pc.RefreshToken = os.Getenv(prefix + "_REFRESH_TOKEN")
		pc.RedirectURI = os.Getenv(prefix + "_REDIRECT_URI")
		configs = append(configs, pc)
	}
	return configs
}

func buildContent(contentType, title, description, videoURL, coverURL, images, tags string) *publishhub.Content {
	c := publishhub.NewContent(publishhub.ContentType(contentType)).
		SetTitle(title).
		SetDescription(description)
	if videoURL != "" {
		c.SetVideoURL(videoURL)
	}
	if coverURL != "" {
		c.SetCoverImageURL(coverURL)
	}
	if images != "" {
		c.SetImages(splitList(images)...)
	}
	if tags != "" {
		c.SetTags(splitList(tags)...)
	}
	return c
}

func parseTargets(raw string) []publishhub.Platform {
	var targets []publishhub.Platform
	for _, name := range splitList(raw) {
		targets = append(targets, publishhub.Platform(name))
	}
	return targets
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinPlatforms(platforms []publishhub.Platform) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

func runHealth(ctx context.Context, hub *publishhub.Manager) {
	for p, reachable := range hub.Health(ctx) {
		if reachable {
			fmt.Printf("  %-12s ok\n", p)
		} else {
			fmt.Printf("  %-12s unreachable\n", p)
		}
	}
}

func runValidate(hub *publishhub.Manager, c *publishhub.Content, targets []publishhub.Platform) {
	verdicts := hub.ValidateContent(c, targets...)
	if len(verdicts) == 0 {
		log.Fatal("none of the requested platforms are enabled")
	}

	invalid := false
	for p, verdict := range verdicts {
		if verdict.Valid {
			fmt.Printf("  %-12s ok\n", p)
			continue
		}
		invalid = true
		fmt.Printf("  %-12s invalid\n", p)
		for _, msg := range verdict.Errors {
			fmt.Printf("    - %s\n", msg)
		}
	}
	if invalid {
		os.Exit(1)
	}
}

func printReport(report *publishhub.Report) {
	for _, r := range report.Results {
		if r.Success {
			fmt.Printf("  %-12s published post_id=%s", r.Platform, r.PostID)
			if r.URL != "" {
				fmt.Printf(" url=%s", r.URL)
			}
			fmt.Println()
		} else {
			fmt.Printf("  %-12s failed: %s\n", r.Platform, r.Error)
		}
	}
	fmt.Printf("%d/%d platforms succeeded (%.0f%%), status %s\n",
		report.Successful, report.Total, report.SuccessRate(), report.Status)
}
