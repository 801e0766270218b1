package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
)

// FetchCaptionsTask downloads and stores the caption track of one video
type FetchCaptionsTask struct {
	Task
	Config      *channel.Config
	VideoID     string
	transcripts TranscriptSource
	captionRepo database.CaptionRepository
}

func NewFetchCaptionsTask(config *channel.Config, videoID string, transcripts TranscriptSource,
	captionRepo database.CaptionRepository) *FetchCaptionsTask {
	return &FetchCaptionsTask{
		Task:        NewTask(TaskTypeFetchCaptions, config.Name),
		Config:      config,
		VideoID:     videoID,
		transcripts: transcripts,
		captionRepo: captionRepo,
	}
}

func (t *FetchCaptionsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	count, err := fetchCaptions(ctx, t.transcripts, t.captionRepo, t.Config, t.VideoID)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "FetchCaptions",
		"channel", t.ChannelName,
		"video_id", t.VideoID,
		"duration", t.GetDuration(),
		"captions", count)

	return nil
}

// FetchCaptionsForVideos fetches caption tracks for many videos with at most
// concurrency requests in flight. Failures are logged and counted; one failed
// video does not stop the others.
func FetchCaptionsForVideos(ctx context.Context, transcripts TranscriptSource, captionRepo database.CaptionRepository,
	config *channel.Config, videoIDs []string, concurrency int) (fetched int, failed int) {
	var fetchedCount, failedCount atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for _, videoID := range videoIDs {
		g.Go(func() error {
			if _, err := fetchCaptions(gctx, transcripts, captionRepo, config, videoID); err != nil {
				slog.Warn("Failed to fetch captions", "channel", config.Name, "video_id", videoID, "error", err)
				failedCount.Add(1)
				return nil
			}
			fetchedCount.Add(1)
			return nil
		})
	}

	_ = g.Wait()

	return int(fetchedCount.Load()), int(failedCount.Load())
}

func fetchCaptions(ctx context.Context, transcripts TranscriptSource, captionRepo database.CaptionRepository,
	config *channel.Config, videoID string) (int, error) {
	callCtx, cancel := remoteTimeout(ctx, config)
	captions, err := transcripts.Captions(callCtx, videoID, config.Settings.CaptionLanguage)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch captions for %s: %w", videoID, err)
	}

	if err := captionRepo.ReplaceCaptions(ctx, videoID, captions); err != nil {
		return 0, fmt.Errorf("failed to store captions for %s: %w", videoID, err)
	}

	return len(captions), nil
}
