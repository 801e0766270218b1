package database

import (
	"time"
)

// Video is an archived upload, keyed by the platform's video ID
type Video struct {
	VideoID           string
	PublishedAt       time.Time
	ChannelID         string
	Title             string
	Description       string
	Duration          string // ISO-8601, e.g. PT15M33S
	DurationSeconds   int64
	ViewCount         int64
	LikeCount         int64
	CommentCount      int64
	EmbedHTML         string
	CaptionsAvailable bool
	CaptionsFetchedAt *time.Time
	UpdatedAt         time.Time
	Captions          []Caption // ordered by offset; only loaded by GetVideo and Search
}

// Caption is a single timed segment of a video's caption track
type Caption struct {
	CaptionID int64
	VideoID   string
	Offset    time.Duration
	Duration  time.Duration
	Text      string
}

// Channel tracks ingestion state for a configured channel
type Channel struct {
	Name              string // derived from the configuration filename
	ChannelID         string
	UploadsPlaylistID string
	Title             string
	LastSyncedAt      *time.Time
	NextPollAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type SortField string

const (
	SortPublishedAt  SortField = "publishedAt"
	SortViewCount    SortField = "viewCount"
	SortLikeCount    SortField = "likeCount"
	SortCommentCount SortField = "commentCount"
	SortTitle        SortField = "title"
	SortDuration     SortField = "duration"
)

// VideoQuery is a fully normalised search request. Zero values disable a filter.
type VideoQuery struct {
	Keywords           string
	PublishYear        int
	MinDurationSeconds int64
	MaxDurationSeconds int64 // exclusive
	SortField          SortField
	Descending         bool
	Limit              int
	Offset             int
}
