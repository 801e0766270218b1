package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starchives/starchives/app/channel"
)

func newTestScheduler(t *testing.T, r repos, configs map[string]string) *Scheduler {
	t.Helper()

	dir := t.TempDir()
	for name, content := range configs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644))
	}

	configCache := channel.NewConfigCache(dir)
	require.NoError(t, configCache.Run())

	source := newFakeVideoSource([][]string{{"a", "b"}}, map[string]string{"a": "Flight 1", "b": "Flight 2"})

	return NewScheduler(configCache, r.channels, r.videos, r.captions,
		source, &fakeFeedSource{ids: []string{"a", "b"}}, &fakeTranscripts{},
		channel.NewFilterer(), Options{Interval: 20 * time.Millisecond, WorkerCount: 2, CaptionConcurrency: 2})
}

func TestSchedulerStartupSync(t *testing.T) {
	r := newRepos(t)
	s := newTestScheduler(t, r, map[string]string{
		"starbase": "channel_id: UC123\nsettings:\n  enabled: true\n",
		"archive":  "channel_id: UC456\nsettings:\n  enabled: false\n",
	})

	s.Start()
	defer s.Stop()

	ctx := context.Background()
	assert.Eventually(t, func() bool {
		count, err := r.videos.GetVideoCount(ctx)
		return err == nil && count == 2
	}, 5*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		ch, err := r.channels.GetChannel(ctx, "starbase")
		return err == nil && ch != nil && ch.LastSyncedAt != nil && ch.NextPollAt != nil
	}, 5*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		ch, err := r.channels.GetChannel(ctx, "archive")
		return err == nil && ch != nil
	}, 5*time.Second, 20*time.Millisecond, "disabled channels are still registered")
}

func TestSchedulerTriggerSyncUnknownChannel(t *testing.T) {
	r := newRepos(t)
	s := newTestScheduler(t, r, nil)

	_, err := s.TriggerSync("nope")
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestSchedulerTriggerSyncDeduplicates(t *testing.T) {
	r := newRepos(t)
	s := newTestScheduler(t, r, map[string]string{
		"starbase": "channel_id: UC123\nsettings:\n  enabled: true\n",
	})

	task, err := s.TriggerSync("starbase")
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSyncChannel, task.GetType())
	assert.Equal(t, "starbase", task.GetChannelName())

	_, err = s.TriggerSync("starbase")
	assert.ErrorIs(t, err, ErrAlreadyPending)

	s.release(task)
	_, err = s.TriggerSync("starbase")
	assert.NoError(t, err)
}

func TestSchedulerEnqueueTaskQueueFull(t *testing.T) {
	r := newRepos(t)
	s := newTestScheduler(t, r, nil)
	config := testConfig()

	for i := 0; i < cap(s.taskQueue); i++ {
		require.NoError(t, s.EnqueueTask(NewSyncChannelConfigTask(config, r.channels)))
	}

	assert.ErrorContains(t, s.EnqueueTask(NewSyncChannelConfigTask(config, r.channels)), "queue is full")
}

func TestSchedulerEnqueueAfterStop(t *testing.T) {
	r := newRepos(t)
	s := newTestScheduler(t, r, nil)

	s.Start()
	s.Stop()

	assert.ErrorIs(t, s.EnqueueTask(NewSyncChannelConfigTask(testConfig(), r.channels)), context.Canceled)
}

func TestSchedulerRegistersFullSyncSchedules(t *testing.T) {
	r := newRepos(t)
	s := newTestScheduler(t, r, map[string]string{
		"starbase": "channel_id: UC123\nsettings:\n  enabled: true\n  full_sync: \"@every 1h\"\n",
		"archive":  "channel_id: UC456\nsettings:\n  enabled: false\n",
	})

	s.scheduleFullSyncs()
	assert.Len(t, s.cron.Entries(), 1)
}
