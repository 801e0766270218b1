package cfg

type Cfg struct {
	// Storage
	ConnectionString string

	// Ingestion
	ChannelsDir        string
	ChannelID          string
	YouTubeAPIKey      string
	WorkerCount        int
	SchedulerInterval  int
	CaptionConcurrency int
	UserAgent          string

	// HTTP
	Port      string
	SiteTitle string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// IngestionEnabled reports whether the background scheduler can talk to the Data API.
func (c *Cfg) IngestionEnabled() bool {
	return c.YouTubeAPIKey != ""
}
