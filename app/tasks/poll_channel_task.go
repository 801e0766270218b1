package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
)

// PollChannelTask picks up new uploads from the channel's public feed
type PollChannelTask struct {
	Task
	Config      *channel.Config
	feeds       FeedSource
	videos      VideoSource
	filterer    *channel.Filterer
	channelRepo database.ChannelRepository
	videoRepo   database.VideoRepository
	enqueue     func(TaskInterface) error
	newCaptions func(config *channel.Config, videoID string) TaskInterface
}

func NewPollChannelTask(config *channel.Config, feeds FeedSource, videos VideoSource, filterer *channel.Filterer,
	channelRepo database.ChannelRepository, videoRepo database.VideoRepository,
	enqueue func(TaskInterface) error, newCaptions func(config *channel.Config, videoID string) TaskInterface) *PollChannelTask {
	return &PollChannelTask{
		Task:        NewTask(TaskTypePollChannel, config.Name),
		Config:      config,
		feeds:       feeds,
		videos:      videos,
		filterer:    filterer,
		channelRepo: channelRepo,
		videoRepo:   videoRepo,
		enqueue:     enqueue,
		newCaptions: newCaptions,
	}
}

func (t *PollChannelTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Config.Settings.Enabled {
		slog.Debug("Channel disabled, skipping", "channel", t.ChannelName)
		return nil
	}

	callCtx, cancel := remoteTimeout(ctx, t.Config)
	ids, err := t.feeds.RecentVideoIDs(callCtx, t.Config.ChannelID)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to read uploads feed: %w", err)
	}

	existing, err := t.videoRepo.ExistingVideoIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check existing videos: %w", err)
	}

	var newIDs []string
	for _, id := range ids {
		if !existing[id] {
			newIDs = append(newIDs, id)
		}
	}

	stored := 0
	if len(newIDs) > 0 {
		callCtx, cancel := remoteTimeout(ctx, t.Config)
		details, err := t.videos.Videos(callCtx, newIDs)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to get video details: %w", err)
		}

		accepted, err := storeVideos(ctx, t.videoRepo, t.filterer, t.Config, details)
		if err != nil {
			return fmt.Errorf("failed to store videos: %w", err)
		}
		stored = len(accepted)

		for _, video := range accepted {
			if err := t.enqueue(t.newCaptions(t.Config, video.VideoID)); err != nil {
				slog.Warn("Failed to enqueue FetchCaptionsTask", "channel", t.ChannelName, "video_id", video.VideoID, "error", err)
			}
		}
	}

	nextPoll := time.Now().UTC().Add(time.Duration(t.Config.Settings.RefreshInterval) * time.Second)
	if err := t.channelRepo.UpdateNextPoll(ctx, t.Config.Name, nextPoll); err != nil {
		return fmt.Errorf("failed to update next poll time: %w", err)
	}

	slog.Info("Task completed",
		"type", "PollChannel",
		"channel", t.ChannelName,
		"duration", t.GetDuration(),
		"total", len(ids),
		"new", len(newIDs),
		"stored", stored)

	return nil
}
