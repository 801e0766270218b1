package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
)

// SyncChannelConfigTask registers a configured channel in the database
type SyncChannelConfigTask struct {
	Task
	Config      *channel.Config
	channelRepo database.ChannelRepository
}

func NewSyncChannelConfigTask(config *channel.Config, channelRepo database.ChannelRepository) *SyncChannelConfigTask {
	return &SyncChannelConfigTask{
		Task:        NewTask(TaskTypeSyncChannelConfig, config.Name),
		Config:      config,
		channelRepo: channelRepo,
	}
}

func (t *SyncChannelConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.channelRepo.UpsertChannel(ctx, t.Config.Name, t.Config.ChannelID); err != nil {
		return fmt.Errorf("failed to sync channel config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncChannelConfig",
		"channel", t.ChannelName,
		"duration", t.GetDuration())

	return nil
}
