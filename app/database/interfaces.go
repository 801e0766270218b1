package database

import (
	"context"
	"time"
)

type VideoRepository interface {
	UpsertVideo(ctx context.Context, video Video) error
	DeleteVideo(ctx context.Context, videoID string) error

	GetVideo(ctx context.Context, videoID string) (*Video, error)
	ListVideos(ctx context.Context) ([]Video, error)
	GetVideoCount(ctx context.Context) (int, error)
	ExistingVideoIDs(ctx context.Context, videoIDs []string) (map[string]bool, error)
	VideoIDsWithoutCaptions(ctx context.Context, channelID string, limit int) ([]string, error)

	Search(ctx context.Context, query VideoQuery) ([]Video, int, error)
}

type CaptionRepository interface {
	ReplaceCaptions(ctx context.Context, videoID string, captions []Caption) error
	GetCaptions(ctx context.Context, videoID string) ([]Caption, error)
	GetCaptionCount(ctx context.Context) (int, error)
}

type ChannelRepository interface {
	UpsertChannel(ctx context.Context, name, channelID string) error
	GetChannel(ctx context.Context, name string) (*Channel, error)
	GetChannelCount(ctx context.Context) (int, error)

	UpdateChannelSync(ctx context.Context, name, uploadsPlaylistID, title string, syncedAt time.Time) error
	UpdateNextPoll(ctx context.Context, name string, nextPoll time.Time) error
}

var (
	_ VideoRepository   = (*SQLVideoRepository)(nil)
	_ CaptionRepository = (*SQLCaptionRepository)(nil)
	_ ChannelRepository = (*SQLChannelRepository)(nil)
)
