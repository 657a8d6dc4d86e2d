// Package retry runs an operation again after transient failures, pausing
// between attempts according to a backoff strategy.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return client.Ping(ctx).Err()
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		Logger:      log,
//	})
//
// Cancellation, validation and duplicate-page errors are never retried.
package retry
