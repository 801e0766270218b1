package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const taskTimeout = 5 * time.Minute

type Options struct {
	Interval           time.Duration
	WorkerCount        int
	CaptionConcurrency int
}

type Scheduler struct {
	configCache        *channel.ConfigCache
	channelRepo        database.ChannelRepository
	videoRepo          database.VideoRepository
	captionRepo        database.CaptionRepository
	videos             VideoSource
	feeds              FeedSource
	transcripts        TranscriptSource
	filterer           *channel.Filterer
	interval           time.Duration
	workerCount        int
	captionConcurrency int
	cron               *cron.Cron
	ctx                context.Context
	cancel             context.CancelFunc
	wg                 sync.WaitGroup
	taskQueue          chan TaskInterface
	mu                 sync.Mutex
	inflight           map[string]bool
}

func NewScheduler(configCache *channel.ConfigCache, channelRepo database.ChannelRepository,
	videoRepo database.VideoRepository, captionRepo database.CaptionRepository,
	videos VideoSource, feeds FeedSource, transcripts TranscriptSource,
	filterer *channel.Filterer, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache:        configCache,
		channelRepo:        channelRepo,
		videoRepo:          videoRepo,
		captionRepo:        captionRepo,
		videos:             videos,
		feeds:              feeds,
		transcripts:        transcripts,
		filterer:           filterer,
		interval:           opts.Interval,
		workerCount:        max(opts.WorkerCount, 1),
		captionConcurrency: max(opts.CaptionConcurrency, 1),
		cron:               cron.New(),
		ctx:                ctx,
		cancel:             cancel,
		taskQueue:          make(chan TaskInterface, 300),
		inflight:           make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.scheduleFullSyncs()
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// TriggerSync enqueues a full sync of a configured channel
func (s *Scheduler) TriggerSync(channelName string) (TaskInterface, error) {
	config, err := s.configCache.GetConfig(channelName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channelName)
	}

	task := s.newSyncTask(config)
	if err := s.enqueueOnce(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Scheduler) newSyncTask(config *channel.Config) TaskInterface {
	return NewSyncChannelTask(config, s.videos, s.transcripts, s.filterer,
		s.channelRepo, s.videoRepo, s.captionRepo, s.captionConcurrency)
}

func (s *Scheduler) newPollTask(config *channel.Config) TaskInterface {
	return NewPollChannelTask(config, s.feeds, s.videos, s.filterer, s.channelRepo, s.videoRepo,
		s.EnqueueTask, s.newCaptionsTask)
}

func (s *Scheduler) newCaptionsTask(config *channel.Config, videoID string) TaskInterface {
	return NewFetchCaptionsTask(config, videoID, s.transcripts, s.captionRepo)
}

// enqueueOnce skips channel syncs and polls that are already queued or running
func (s *Scheduler) enqueueOnce(task TaskInterface) error {
	key := inflightKey(task)

	s.mu.Lock()
	if s.inflight[key] {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s for channel %s", ErrAlreadyPending, task.GetType(), task.GetChannelName())
	}
	s.inflight[key] = true
	s.mu.Unlock()

	if err := s.EnqueueTask(task); err != nil {
		s.release(task)
		return err
	}
	return nil
}

func (s *Scheduler) release(task TaskInterface) {
	s.mu.Lock()
	delete(s.inflight, inflightKey(task))
	s.mu.Unlock()
}

func inflightKey(task TaskInterface) string {
	return string(task.GetType()) + "/" + task.GetChannelName()
}

func (s *Scheduler) scheduleFullSyncs() {
	for _, config := range s.configCache.GetEnabledConfigs() {
		_, err := s.cron.AddFunc(config.Settings.FullSync, func() {
			if err := s.enqueueOnce(s.newSyncTask(config)); err != nil {
				slog.Warn("Failed to enqueue SyncChannelTask", "channel", config.Name, "error", err)
			}
		})
		if err != nil {
			slog.Error("Invalid full sync schedule", "channel", config.Name, "full_sync", config.Settings.FullSync, "error", err)
		}
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	configs := s.configCache.GetConfigs()
	if len(configs) == 0 {
		slog.Debug("No channel configurations found")
		return
	}

	slog.Debug("Processing channel configurations", "count", len(configs))

	for _, config := range configs {
		syncConfigTask := NewSyncChannelConfigTask(config, s.channelRepo)
		if err := s.EnqueueTask(syncConfigTask); err != nil {
			slog.Warn("Failed to enqueue SyncChannelConfigTask", "channel", config.Name, "error", err)
			continue
		}

		if !config.Settings.Enabled {
			slog.Debug("Channel disabled, skipping SyncChannelTask", "channel", config.Name)
			continue
		}

		if err := s.enqueueOnce(s.newSyncTask(config)); err != nil {
			slog.Warn("Failed to enqueue SyncChannelTask", "channel", config.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	configs := s.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		slog.Debug("No enabled channel configurations found")
		return
	}

	for _, config := range configs {
		ch, err := s.channelRepo.GetChannel(s.ctx, config.Name)
		if err != nil {
			slog.Warn("Failed to get channel from database, skipping", "channel", config.Name, "error", err)
			continue
		}
		if ch == nil {
			slog.Debug("Channel not registered yet, skipping", "channel", config.Name)
			continue
		}

		now := time.Now().UTC()
		if ch.NextPollAt != nil && ch.NextPollAt.After(now) {
			slog.Debug("Channel not due for polling yet", "channel", config.Name, "next_poll_at", ch.NextPollAt)
			continue
		}

		if err := s.enqueueOnce(s.newPollTask(config)); err != nil {
			slog.Debug("Skipping PollChannelTask", "channel", config.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		s.release(task)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		s.release(task)
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "channel", task.GetChannelName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			s.release(task)
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				s.release(task)
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
