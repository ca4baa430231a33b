package content

import (
	"context"
	"time"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
)

// PollingJob is a long-running server job: Start creates it, Check reads its
// status and IsComplete decides when to stop. The two legs fail with distinct
// kinds so callers can tell which one broke.
type PollingJob[T any] struct {
	start      func(ctx context.Context) (*T, error)
	check      func(ctx context.Context, current *T) (*T, error)
	isComplete func(*T) bool
	interval   time.Duration
}

// NewPollingJob assembles a job from its legs.
func NewPollingJob[T any](
	start func(ctx context.Context) (*T, error),
	check func(ctx context.Context, current *T) (*T, error),
	isComplete func(*T) bool,
	interval time.Duration,
) *PollingJob[T] {
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}

	return &PollingJob[T]{start: start, check: check, isComplete: isComplete, interval: interval}
}

// Start creates the job.
func (j *PollingJob[T]) Start(ctx context.Context) (*T, error) {
	status, err := j.start(ctx)
	if err != nil {
		return nil, wrapError(KindPollingJobNotCreated, err, "failed to start job")
	}

	return status, nil
}

// Check reads the job status once.
func (j *PollingJob[T]) Check(ctx context.Context, current *T) (*T, error) {
	status, err := j.check(ctx, current)
	if err != nil {
		return nil, wrapError(KindPollingJobStatusFailed, err, "failed to read job status")
	}

	return status, nil
}

// IsComplete applies the completion predicate.
func (j *PollingJob[T]) IsComplete(status *T) bool {
	return status != nil && j.isComplete(status)
}

// Run starts the job and polls it until it completes or ctx ends. When ctx
// ends first the last known status is returned with KindPollingNotCompleted.
func (j *PollingJob[T]) Run(ctx context.Context) (*T, error) {
	status, err := j.Start(ctx)
	if err != nil {
		return nil, err
	}

	return j.PollUntilComplete(ctx, status)
}

// PollUntilComplete polls from status until completion.
func (j *PollingJob[T]) PollUntilComplete(ctx context.Context, status *T) (*T, error) {
	if j.IsComplete(status) {
		return status, nil
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return status, wrapError(KindPollingNotCompleted, ctx.Err(), "job did not complete")
		case <-ticker.C:
			next, err := j.Check(ctx, status)
			if err != nil {
				if ctx.Err() != nil {
					return status, wrapError(KindPollingNotCompleted, ctx.Err(), "job did not complete")
				}

				return nil, err
			}

			status = next

			if j.IsComplete(status) {
				return status, nil
			}
		}
	}
}

// RunFunc runs the job on a worker goroutine and delivers the result through d.
func (j *PollingJob[T]) RunFunc(ctx context.Context, d Dispatcher, cb func(*T, error)) *Operation {
	return Go(ctx, d, j.Run, cb)
}

// RunFuture returns a cold future for the completed job.
func (j *PollingJob[T]) RunFuture(ctx context.Context, d Dispatcher) *Future[*T] {
	return NewFuture(ctx, d, j.Run)
}
