package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Drainer publishes one batch of pending outbox events.
type Drainer interface {
	Drain(ctx context.Context) error
}

// OutboxDrainJob pushes pending outbox events through the publisher on
// demand, in addition to the publisher's own polling loop.
type OutboxDrainJob struct {
	Drainer Drainer
	Logger  *slog.Logger
}

// NewOutboxDrainJob initialises the drain handler.
func NewOutboxDrainJob(drainer Drainer, logger *slog.Logger) *OutboxDrainJob {
	return &OutboxDrainJob{Drainer: drainer, Logger: logger}
}

// Handle executes one drain pass.
func (j *OutboxDrainJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Drainer == nil {
		return errors.New("outbox drain: handler not configured")
	}

	if err := j.Drainer.Drain(ctx); err != nil {
		j.logger().Error("drain failed", slog.Any("error", err))
		return err
	}

	j.logger().Debug("drain completed")
	return nil
}

func (j *OutboxDrainJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOutboxDrain))
	}
	return slog.Default().With(slog.String("job", TaskOutboxDrain))
}
