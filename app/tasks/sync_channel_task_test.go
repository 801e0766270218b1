package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
)

func TestSyncChannelTaskStoresUploads(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	source := newFakeVideoSource([][]string{{"a", "b"}, {"c"}}, map[string]string{
		"a": "Flight 1", "b": "Flight 2", "c": "Flight 3",
	})
	transcripts := &fakeTranscripts{}
	config := testConfig()

	task := NewSyncChannelTask(config, source, transcripts, channel.NewFilterer(), r.channels, r.videos, r.captions, 2)
	require.NoError(t, task.Execute(ctx))

	count, err := r.videos.GetVideoCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, source.requests)

	ch, err := r.channels.GetChannel(ctx, "starbase")
	require.NoError(t, err)
	require.NotNil(t, ch)
	assert.Equal(t, "UU123", ch.UploadsPlaylistID)
	assert.Equal(t, "Starbase", ch.Title)
	assert.NotNil(t, ch.LastSyncedAt)

	assert.ElementsMatch(t, []string{"a", "b", "c"}, transcripts.calls)

	video, err := r.videos.GetVideo(ctx, "a")
	require.NoError(t, err)
	assert.True(t, video.CaptionsAvailable)
	require.Len(t, video.Captions, 1)
	assert.Equal(t, "captions for a in en", video.Captions[0].Text)
}

func TestSyncChannelTaskRemovesNewlyFilteredVideos(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	source := newFakeVideoSource([][]string{{"keep", "drop"}}, map[string]string{
		"keep": "Starship flight", "drop": "Launch #shorts",
	})

	first := NewSyncChannelTask(testConfig(), source, &fakeTranscripts{}, channel.NewFilterer(), r.channels, r.videos, r.captions, 1)
	require.NoError(t, first.Execute(ctx))

	count, err := r.videos.GetVideoCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	filtered := testConfig(channel.Filter{Field: "title", Excludes: []string{"#shorts"}})
	second := NewSyncChannelTask(filtered, source, &fakeTranscripts{}, channel.NewFilterer(), r.channels, r.videos, r.captions, 1)
	require.NoError(t, second.Execute(ctx))

	existing, err := r.videos.ExistingVideoIDs(ctx, []string{"keep", "drop"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"keep": true}, existing)

	captions, err := r.captions.GetCaptionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, captions)
}

func TestSyncChannelTaskDisabledChannel(t *testing.T) {
	r := newRepos(t)
	config := testConfig()
	config.Settings.Enabled = false

	source := newFakeVideoSource([][]string{{"a"}}, map[string]string{"a": "Flight"})
	task := NewSyncChannelTask(config, source, &fakeTranscripts{}, channel.NewFilterer(), r.channels, r.videos, r.captions, 1)
	require.NoError(t, task.Execute(context.Background()))

	assert.Empty(t, source.requests)
}

func TestSyncChannelTaskUnknownChannel(t *testing.T) {
	r := newRepos(t)

	source := newFakeVideoSource(nil, nil)
	source.err = errors.New("channel not found")

	task := NewSyncChannelTask(testConfig(), source, &fakeTranscripts{}, channel.NewFilterer(), r.channels, r.videos, r.captions, 1)
	err := task.Execute(context.Background())
	assert.ErrorContains(t, err, "uploads playlist")
}

func TestSyncChannelTaskCancelled(t *testing.T) {
	r := newRepos(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := NewSyncChannelTask(testConfig(), newFakeVideoSource(nil, nil), &fakeTranscripts{}, channel.NewFilterer(), r.channels, r.videos, r.captions, 1)
	assert.ErrorIs(t, task.Execute(ctx), context.Canceled)
}

func TestStoreVideosReturnsAccepted(t *testing.T) {
	r := newRepos(t)
	config := testConfig(channel.Filter{Field: "title", Includes: []string{"flight"}})

	accepted, err := storeVideos(context.Background(), r.videos, channel.NewFilterer(), config, []database.Video{
		{VideoID: "x", ChannelID: "UC123", Title: "Flight 7"},
		{VideoID: "y", ChannelID: "UC123", Title: "Tour"},
	})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "x", accepted[0].VideoID)
}
