package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
)

type repos struct {
	channels *database.SQLChannelRepository
	videos   *database.SQLVideoRepository
	captions *database.SQLCaptionRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, _, err = database.RunMigrations(db)
	require.NoError(t, err)

	return repos{
		channels: database.NewChannelRepository(db),
		videos:   database.NewVideoRepository(db),
		captions: database.NewCaptionRepository(db),
	}
}

func testConfig(filters ...channel.Filter) *channel.Config {
	return &channel.Config{
		Name:      "starbase",
		ChannelID: "UC123",
		Settings: channel.Settings{
			Enabled:         true,
			RefreshInterval: 600,
			FullSync:        "@daily",
			CaptionLanguage: "en",
			Timeout:         5,
		},
		Filters: filters,
	}
}

type fakeVideoSource struct {
	mu       sync.Mutex
	pages    [][]string
	videos   map[string]database.Video
	err      error
	requests [][]string
}

func newFakeVideoSource(pages [][]string, titles map[string]string) *fakeVideoSource {
	src := &fakeVideoSource{pages: pages, videos: map[string]database.Video{}}
	day := 0
	for id, title := range titles {
		day++
		src.videos[id] = database.Video{
			VideoID:         id,
			ChannelID:       "UC123",
			Title:           title,
			PublishedAt:     time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
			Duration:        "PT1M",
			DurationSeconds: 60,
		}
	}
	return src
}

func (f *fakeVideoSource) UploadsPlaylistID(_ context.Context, channelID string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "UU" + channelID[2:], "Starbase", nil
}

func (f *fakeVideoSource) UploadIDPages(_ context.Context, _ string, fn func(ids []string) error) error {
	for _, page := range f.pages {
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeVideoSource) Videos(_ context.Context, ids []string) ([]database.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, ids)
	var out []database.Video
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeFeedSource struct {
	ids []string
	err error
}

func (f *fakeFeedSource) RecentVideoIDs(context.Context, string) ([]string, error) {
	return f.ids, f.err
}

type fakeTranscripts struct {
	mu       sync.Mutex
	calls    []string
	failing  map[string]bool
	empty    map[string]bool
	inflight int
	peak     int
	delay    time.Duration
}

func (f *fakeTranscripts) Captions(ctx context.Context, videoID, lang string) ([]database.Caption, error) {
	f.mu.Lock()
	f.calls = append(f.calls, videoID)
	f.inflight++
	f.peak = max(f.peak, f.inflight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if f.failing[videoID] {
		return nil, fmt.Errorf("transcript unavailable")
	}
	if f.empty[videoID] {
		return []database.Caption{}, nil
	}
	return []database.Caption{{Text: "captions for " + videoID + " in " + lang, Duration: time.Second}}, nil
}
