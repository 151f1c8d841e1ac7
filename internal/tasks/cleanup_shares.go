package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ShareActivityCleaner provides the ability to delete old share rows.
type ShareActivityCleaner interface {
	DeleteOldShares(retention time.Duration) (int64, error)
}

// CleanupShareActivitiesTask removes share activity rows older than the
// configured retention period.
type CleanupShareActivitiesTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for share cleanup tasks.
func (t CleanupShareActivitiesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_share_activities",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupShareActivitiesProcessor creates a processor function for
// CleanupShareActivitiesTask.
func CleanupShareActivitiesProcessor(cleaner ShareActivityCleaner) backlite.QueueProcessor[CleanupShareActivitiesTask] {
	return func(ctx context.Context, task CleanupShareActivitiesTask) error {
		if cleaner == nil {
			return fmt.Errorf("share activity cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 90
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := cleaner.DeleteOldShares(retention)
		if err != nil {
			return fmt.Errorf("cleanup share activities: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d share activities older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewCleanupShareActivitiesQueue creates a backlite queue for share
// cleanup tasks.
func NewCleanupShareActivitiesQueue(cleaner ShareActivityCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupShareActivitiesProcessor(cleaner))
}
