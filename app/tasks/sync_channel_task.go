package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
)

// captionBacklogSize bounds how many caption tracks one sync fetches
const captionBacklogSize = 200

// SyncChannelTask re-pulls every upload of a channel. Stored videos that the
// channel filters now reject are removed.
type SyncChannelTask struct {
	Task
	Config             *channel.Config
	videos             VideoSource
	transcripts        TranscriptSource
	filterer           *channel.Filterer
	channelRepo        database.ChannelRepository
	videoRepo          database.VideoRepository
	captionRepo        database.CaptionRepository
	captionConcurrency int
}

func NewSyncChannelTask(config *channel.Config, videos VideoSource, transcripts TranscriptSource,
	filterer *channel.Filterer, channelRepo database.ChannelRepository, videoRepo database.VideoRepository,
	captionRepo database.CaptionRepository, captionConcurrency int) *SyncChannelTask {
	return &SyncChannelTask{
		Task:               NewTask(TaskTypeSyncChannel, config.Name),
		Config:             config,
		videos:             videos,
		transcripts:        transcripts,
		filterer:           filterer,
		channelRepo:        channelRepo,
		videoRepo:          videoRepo,
		captionRepo:        captionRepo,
		captionConcurrency: captionConcurrency,
	}
}

func (t *SyncChannelTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Config.Settings.Enabled {
		slog.Debug("Channel disabled, skipping", "channel", t.ChannelName)
		return nil
	}

	if err := t.channelRepo.UpsertChannel(ctx, t.Config.Name, t.Config.ChannelID); err != nil {
		return fmt.Errorf("failed to register channel: %w", err)
	}

	callCtx, cancel := remoteTimeout(ctx, t.Config)
	playlistID, title, err := t.videos.UploadsPlaylistID(callCtx, t.Config.ChannelID)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to resolve uploads playlist: %w", err)
	}

	total, stored, removed := 0, 0, 0

	err = t.videos.UploadIDPages(ctx, playlistID, func(ids []string) error {
		callCtx, cancel := remoteTimeout(ctx, t.Config)
		defer cancel()

		details, err := t.videos.Videos(callCtx, ids)
		if err != nil {
			return err
		}
		total += len(details)

		accepted, err := storeVideos(ctx, t.videoRepo, t.filterer, t.Config, details)
		if err != nil {
			return err
		}
		stored += len(accepted)

		r, err := t.removeRejected(ctx, details)
		if err != nil {
			return err
		}
		removed += r

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sync uploads: %w", err)
	}

	if err := t.channelRepo.UpdateChannelSync(ctx, t.Config.Name, playlistID, title, time.Now()); err != nil {
		return fmt.Errorf("failed to record channel sync: %w", err)
	}

	pending, err := t.videoRepo.VideoIDsWithoutCaptions(ctx, t.Config.ChannelID, captionBacklogSize)
	if err != nil {
		return fmt.Errorf("failed to list videos without captions: %w", err)
	}

	fetched, failed := FetchCaptionsForVideos(ctx, t.transcripts, t.captionRepo, t.Config, pending, t.captionConcurrency)

	slog.Info("Task completed",
		"type", "SyncChannel",
		"channel", t.ChannelName,
		"duration", t.GetDuration(),
		"total", total,
		"stored", stored,
		"removed", removed,
		"captions", fetched,
		"caption_errors", failed)

	return nil
}

func (t *SyncChannelTask) removeRejected(ctx context.Context, videos []database.Video) (int, error) {
	var rejectedIDs []string
	for _, video := range videos {
		if excluded, reason := t.filterer.Excluded(video, t.Config); excluded {
			slog.Debug("Video filtered", "channel", t.ChannelName, "video_id", video.VideoID, "reason", reason)
			rejectedIDs = append(rejectedIDs, video.VideoID)
		}
	}
	if len(rejectedIDs) == 0 {
		return 0, nil
	}

	existing, err := t.videoRepo.ExistingVideoIDs(ctx, rejectedIDs)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range rejectedIDs {
		if !existing[id] {
			continue
		}
		if err := t.videoRepo.DeleteVideo(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}

	return removed, nil
}

// storeVideos upserts the videos the channel filters accept and returns them
func storeVideos(ctx context.Context, videoRepo database.VideoRepository, filterer *channel.Filterer,
	config *channel.Config, videos []database.Video) ([]database.Video, error) {
	accepted, _ := filterer.Run(videos, config)

	for _, video := range accepted {
		if err := videoRepo.UpsertVideo(ctx, video); err != nil {
			return nil, err
		}
	}

	return accepted, nil
}
