// Package retry retries connection establishment with exponential backoff.
//
// Only connecting is retried. A bulk load never retries a partition on its
// own; failures are reported to the caller, which may rerun an idempotent
// load.
//
//	executor := retry.NewExecutor(retry.NewNeo4jErrorClassifier(), retry.NewExponentialBackoff(3))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return driver.VerifyConnectivity(ctx)
//	})
//
// Executor instances are safe for concurrent use. WithOnRetry returns a
// copy, so callers can attach their own callback without sharing state.
package retry
