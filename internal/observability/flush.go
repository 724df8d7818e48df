package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry syncs the logger before process exit, giving up when ctx ends.
// Metrics are pull-based and need no flush. Call after in-flight requests drain.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- logger.Sync() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("flush logs: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush logs: %w", ctx.Err())
	}
}
