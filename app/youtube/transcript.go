package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ytdl "github.com/kkdai/youtube/v2"

	"github.com/starchives/starchives/app/database"
)

// TranscriptFetcher downloads caption tracks through the public player endpoints
type TranscriptFetcher struct {
	client ytdl.Client
}

func NewTranscriptFetcher(httpClient *http.Client) *TranscriptFetcher {
	return &TranscriptFetcher{client: ytdl.Client{HTTPClient: httpClient}}
}

// Captions returns the caption track of a video in the given language.
// A video without a transcript, or one that can never be played anonymously,
// yields an empty track and no error so it is not retried on every sync.
func (f *TranscriptFetcher) Captions(ctx context.Context, videoID, lang string) ([]database.Caption, error) {
	video, err := f.client.GetVideoContext(ctx, videoID)
	if permanentlyUnavailable(err) {
		slog.Debug("Video is not publicly playable, storing empty caption track", "video_id", videoID, "error", err)
		return []database.Caption{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load video %s: %w", videoID, err)
	}

	transcript, err := f.client.GetTranscriptCtx(ctx, video, lang)
	if errors.Is(err, ytdl.ErrTranscriptDisabled) {
		return []database.Caption{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript for %s: %w", videoID, err)
	}

	return convertTranscript(videoID, transcript), nil
}

func permanentlyUnavailable(err error) bool {
	return errors.Is(err, ytdl.ErrVideoPrivate) || errors.Is(err, ytdl.ErrLoginRequired)
}

func convertTranscript(videoID string, transcript ytdl.VideoTranscript) []database.Caption {
	captions := make([]database.Caption, 0, len(transcript))
	for _, segment := range transcript {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		captions = append(captions, database.Caption{
			VideoID:  videoID,
			Offset:   time.Duration(segment.StartMs) * time.Millisecond,
			Duration: time.Duration(segment.Duration) * time.Millisecond,
			Text:     text,
		})
	}
	return captions
}
