package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueRender carries document renders so they do not starve maintenance tasks.
	QueueRender = "render"

	// TaskQuotationRender renders a quotation and archives the result.
	TaskQuotationRender = "quotation:render"
	// TaskHistoryPrune deletes archived quotations past the retention window.
	TaskHistoryPrune = "history:prune"
)

// RenderPayload is the body of a TaskQuotationRender task.
type RenderPayload struct {
	Request     quotation.Request `json:"request"`
	RequestedAt time.Time         `json:"requested_at"`
}

// NewRenderTask constructs a render task.
func NewRenderTask(payload RenderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotationRender, data, asynq.MaxRetry(5), asynq.Timeout(2*time.Minute)), nil
}

// PrunePayload is the body of a TaskHistoryPrune task.
type PrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewPruneTask constructs a prune task.
func NewPruneTask(payload PrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHistoryPrune, data, asynq.MaxRetry(1)), nil
}
