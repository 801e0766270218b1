package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/starchives/starchives/app/channel"
)

type TaskType string

const (
	TaskTypeSyncChannelConfig TaskType = "sync_channel_config"
	TaskTypeSyncChannel       TaskType = "sync_channel"
	TaskTypePollChannel       TaskType = "poll_channel"
	TaskTypeFetchCaptions     TaskType = "fetch_captions"
)

const (
	DefaultMaxRetries = 3
	maxRetryDelay     = 30 * time.Second
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetChannelName() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID          string
	Type        TaskType
	ChannelName string
	RetryCount  int
	MaxRetries  int
	StartedAt   *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetChannelName() string {
	return t.ChannelName
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, channelName string) Task {
	return Task{
		ID:          uuid.NewString(),
		Type:        taskType,
		ChannelName: channelName,
		RetryCount:  0,
		MaxRetries:  DefaultMaxRetries,
	}
}

// retryDelay doubles per attempt: 1s, 2s, 4s, ... capped at 30s
func retryDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > 6 {
		return maxRetryDelay
	}
	return min(time.Duration(1<<uint(retryCount-1))*time.Second, maxRetryDelay)
}

// remoteTimeout bounds a single call to the video platform
func remoteTimeout(ctx context.Context, config *channel.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(config.Settings.Timeout)*time.Second)
}
