package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskOutboxDrain publishes pending outbox events.
	TaskOutboxDrain = "outbox:drain"

	// TaskLowStockScan looks for products at or below their minimum stock.
	TaskLowStockScan = "stock:low_scan"
)

// LowStockScanPayload narrows the scan to one location; empty scans all.
type LowStockScanPayload struct {
	LocationID string `json:"location_id"`
}

// NewOutboxDrainTask constructs a drain task. The payload is empty; the
// handler always processes the oldest pending batch.
func NewOutboxDrainTask() *asynq.Task {
	return asynq.NewTask(TaskOutboxDrain, nil)
}

// NewLowStockScanTask constructs a low-stock scan task.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}
