//go:build nometrics

package obs

import (
	"context"
	"time"
)

func ObserveAggregateRequest(string, time.Duration, string) {}

func RecordStrategyDuration(string, time.Duration) {}

func RecordUpstreamError(string, string) {}

func RecordDocumentsReturned(int) {}

func RecordCacheEvent(string) {}

func InitTracer(string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
