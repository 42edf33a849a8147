package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPublishScheduled promotes review posts whose publication time
	// has passed.
	TaskPublishScheduled = "blog:publish_scheduled"
	// TaskPurgeSessions removes expired session rows.
	TaskPurgeSessions = "sessions:purge"
)

// ScheduledPayload carries scheduling metadata common to cron tasks.
type ScheduledPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewPublishScheduledTask constructs an Asynq task for scheduled publishing.
func NewPublishScheduledTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScheduledPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPublishScheduled, body, asynq.Queue(QueueDefault)), nil
}

// NewPurgeSessionsTask constructs an Asynq task for session cleanup.
func NewPurgeSessionsTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScheduledPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPurgeSessions, body, asynq.Queue(QueueDefault)), nil
}

// PublisherPort is the slice of the blog service the worker needs.
type PublisherPort interface {
	PublishDue(ctx context.Context) (int, error)
}

// Tasks bundles the task handlers with their dependencies.
type Tasks struct {
	publisher PublisherPort
	pool      *pgxpool.Pool
	logger    *slog.Logger
}

// NewTasks constructs the handler set.
func NewTasks(publisher PublisherPort, pool *pgxpool.Pool, logger *slog.Logger) *Tasks {
	return &Tasks{publisher: publisher, pool: pool, logger: logger}
}

// HandlePublishScheduled processes TaskPublishScheduled tasks.
func (t *Tasks) HandlePublishScheduled(ctx context.Context, task *asynq.Task) error {
	var payload ScheduledPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	n, err := t.publisher.PublishDue(ctx)
	if err != nil {
		if t.logger != nil {
			t.logger.Error("publish scheduled posts", slog.Any("error", err))
		}
		return err
	}
	if t.logger != nil && n > 0 {
		t.logger.Info("published scheduled posts", slog.Int("count", n))
	}
	return nil
}

// HandlePurgeSessions processes TaskPurgeSessions tasks.
func (t *Tasks) HandlePurgeSessions(ctx context.Context, task *asynq.Task) error {
	var payload ScheduledPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if t.pool == nil {
		return nil
	}
	tag, err := t.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		if t.logger != nil {
			t.logger.Error("purge sessions", slog.Any("error", err))
		}
		return err
	}
	if t.logger != nil && tag.RowsAffected() > 0 {
		t.logger.Info("purged expired sessions", slog.Int64("count", tag.RowsAffected()))
	}
	return nil
}
