package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/quotedesk/internal/jobs"
)

// Pruner deletes archived quotations older than a retention window.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// PruneJob enforces history retention on a schedule.
type PruneJob struct {
	History Pruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPruneJob wires dependencies for the prune handler.
func NewPruneJob(history Pruner, logger *slog.Logger, metrics *jobmetrics.Metrics) *PruneJob {
	return &PruneJob{History: history, Logger: logger, Metrics: metrics}
}

// Handle processes TaskHistoryPrune tasks.
func (j *PruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.History == nil {
		return errors.New("history prune: handler not configured")
	}
	var payload PrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.Metrics.Skip(TaskHistoryPrune, "payload")
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		return nil
	}

	tracker := j.Metrics.Track(TaskHistoryPrune)
	deleted, err := j.History.Prune(ctx, time.Duration(payload.RetentionDays)*24*time.Hour)
	if err := tracker.End(err); err != nil {
		j.logger().Error("prune history", slog.Any("error", err))
		return err
	}
	j.logger().Info("history prune finished",
		slog.Int("retention_days", payload.RetentionDays), slog.Int64("deleted", deleted))
	return nil
}

func (j *PruneJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
