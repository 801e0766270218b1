package tasks

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypePollChannel, "starbase")

	_, err := uuid.Parse(task.GetID())
	assert.NoError(t, err)
	assert.Equal(t, TaskTypePollChannel, task.GetType())
	assert.Equal(t, "starbase", task.GetChannelName())
	assert.Equal(t, DefaultMaxRetries, task.GetMaxRetries())

	other := NewTask(TaskTypePollChannel, "starbase")
	assert.NotEqual(t, task.GetID(), other.GetID())
}

func TestTaskRetries(t *testing.T) {
	task := NewTask(TaskTypeSyncChannel, "starbase")

	for i := 0; i < DefaultMaxRetries; i++ {
		assert.True(t, task.CanRetry())
		task.IncrementRetryCount()
	}
	assert.False(t, task.CanRetry())
}

func TestTaskDuration(t *testing.T) {
	task := NewTask(TaskTypeSyncChannel, "starbase")
	assert.Zero(t, task.GetDuration())

	task.Start()
	assert.GreaterOrEqual(t, task.GetDuration(), time.Duration(0))
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Second, retryDelay(1))
	assert.Equal(t, 2*time.Second, retryDelay(2))
	assert.Equal(t, 4*time.Second, retryDelay(3))
	assert.Equal(t, 16*time.Second, retryDelay(5))
	assert.Equal(t, 30*time.Second, retryDelay(6))
	assert.Equal(t, 30*time.Second, retryDelay(40))
}
