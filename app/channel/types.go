package channel

// Config describes one ingested channel. Name is derived from the filename.
type Config struct {
	Name      string   `validate:"required"`
	ChannelID string   `yaml:"channel_id" validate:"required"`
	Settings  Settings `yaml:"settings"`
	Filters   []Filter `yaml:"filters" validate:"dive"`
}

type Settings struct {
	Enabled         bool   `yaml:"enabled"`
	RefreshInterval int    `yaml:"refresh_interval" validate:"gte=0"` // seconds
	FullSync        string `yaml:"full_sync"`                         // cron spec
	CaptionLanguage string `yaml:"caption_language"`
	Timeout         int    `yaml:"timeout" validate:"gte=0"` // seconds
}

type Filter struct {
	Field    string   `yaml:"field" validate:"oneof=title description"`
	Includes []string `yaml:"includes" validate:"required_without=Excludes"`
	Excludes []string `yaml:"excludes" validate:"required_without=Includes"`
}

const (
	DefaultRefreshInterval = 3600
	DefaultFullSync        = "@daily"
	DefaultCaptionLanguage = "en"
	DefaultTimeout         = 30
)

// ImplicitName is the name of the channel configured through --channel-id
const ImplicitName = "default"

func (c *Config) applyDefaults() {
	if c.Settings.RefreshInterval == 0 {
		c.Settings.RefreshInterval = DefaultRefreshInterval
	}
	if c.Settings.FullSync == "" {
		c.Settings.FullSync = DefaultFullSync
	}
	if c.Settings.CaptionLanguage == "" {
		c.Settings.CaptionLanguage = DefaultCaptionLanguage
	}
	if c.Settings.Timeout == 0 {
		c.Settings.Timeout = DefaultTimeout
	}
}
