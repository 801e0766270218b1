package tasks

import (
	"context"
	"errors"

	"github.com/starchives/starchives/app/database"
	"github.com/starchives/starchives/app/youtube"
)

var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrAlreadyPending = errors.New("task already pending")
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to run ingestion and by the API to trigger
// on-demand channel syncs.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerSync(channelName string) (TaskInterface, error)
}

// VideoSource lists a channel's uploads and fetches video details
type VideoSource interface {
	UploadsPlaylistID(ctx context.Context, channelID string) (string, string, error)
	UploadIDPages(ctx context.Context, playlistID string, fn func(ids []string) error) error
	Videos(ctx context.Context, ids []string) ([]database.Video, error)
}

// FeedSource returns the most recent uploads of a channel
type FeedSource interface {
	RecentVideoIDs(ctx context.Context, channelID string) ([]string, error)
}

// TranscriptSource returns the caption track of a video
type TranscriptSource interface {
	Captions(ctx context.Context, videoID, lang string) ([]database.Caption, error)
}

var (
	_ VideoSource      = (*youtube.Client)(nil)
	_ FeedSource       = (*youtube.FeedReader)(nil)
	_ TranscriptSource = (*youtube.TranscriptFetcher)(nil)
)
