package retry

import (
	"context"
	"time"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// Executor runs an operation, retrying transient failures with backoff.
type Executor struct {
	classifier neoload.ErrorClassifier
	strategy   neoload.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier neoload.ErrorClassifier, strategy neoload.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// NewDefaultExecutor builds an executor with the neoload retry defaults.
func NewDefaultExecutor(classifier neoload.ErrorClassifier) *Executor {
	return NewExecutor(classifier, NewExponentialBackoff(neoload.DefaultRetryMaxAttempts,
		WithInitialDelay(neoload.DefaultRetryInitialDelay),
		WithMaxDelay(neoload.DefaultRetryMaxDelay),
	))
}

// WithOnRetry returns a copy of the executor that calls callback before each retry.
// The receiver is not modified.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithLogger returns a copy that reports each retry through logger at verbose level.
func (e *Executor) WithLogger(logger neoload.Logger, what string) *Executor {
	return e.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("%s failed (attempt %d), retrying in %v: %v", what, attempt+1, delay, err)
	})
}

// Execute runs operation until it succeeds, fails with a non-transient error,
// the attempts are exhausted, or ctx is done. The last error is returned.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	maxAttempts := e.strategy.MaxAttempts()

	err := operation(ctx)
	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
	}
	return err
}
