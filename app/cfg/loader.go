package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	ConnectionString string `long:"connection-string" env:"CONNECTION_STRING" description:"SQLite database path or DSN (required)" required:"true"`

	// Ingestion
	ChannelsDir        string `long:"channels-dir" env:"CHANNELS_DIR" default:"./channels" description:"Directory containing channel configuration files"`
	ChannelID          string `long:"channel-id" env:"CHANNEL_ID" description:"Channel to archive when no channel files are present"`
	YouTubeAPIKey      string `long:"youtube-api-key" env:"YOUTUBE_API_KEY" description:"YouTube Data API key; ingestion is disabled without it"`
	WorkerCount        int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of background ingestion workers"`
	SchedulerInterval  int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	CaptionConcurrency int    `long:"caption-concurrency" env:"CAPTION_CONCURRENCY" default:"4" description:"Parallel caption track downloads per sync"`
	UserAgent          string `long:"user-agent" env:"USER_AGENT" default:"Starchives/1.0" description:"User agent string for outgoing HTTP requests"`

	// HTTP
	Port      string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SiteTitle string `long:"site-title" env:"SITE_TITLE" default:"Starchives" description:"Initial title shown on the search page"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// ErrHelp is returned when the user asked for usage output and nothing should run.
var ErrHelp = errors.New("help requested")

// Load reads an optional .env file, then parses flags and environment.
func Load(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ConnectionString:   strings.TrimSpace(raw.ConnectionString),
		ChannelsDir:        raw.ChannelsDir,
		ChannelID:          strings.TrimSpace(raw.ChannelID),
		YouTubeAPIKey:      strings.TrimSpace(raw.YouTubeAPIKey),
		WorkerCount:        raw.WorkerCount,
		SchedulerInterval:  raw.SchedulerInterval,
		CaptionConcurrency: raw.CaptionConcurrency,
		UserAgent:          raw.UserAgent,
		Port:               raw.Port,
		SiteTitle:          raw.SiteTitle,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.ConnectionString == "" {
		return fmt.Errorf("connection string for the Starchives database not found")
	}
	if cfg.WorkerCount < 1 {
		return fmt.Errorf("worker count must be positive, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval < 1 {
		return fmt.Errorf("scheduler interval must be positive, got %d", cfg.SchedulerInterval)
	}
	if cfg.CaptionConcurrency < 1 {
		cfg.CaptionConcurrency = 1
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
