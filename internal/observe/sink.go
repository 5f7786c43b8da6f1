// Package observe provides the fire-and-forget observability sink used by
// the submission pipeline. The sink is an interface so the pipeline stays
// testable without a telemetry backend; reports are dispatched through the
// worker pool and never block or alter a request.
package observe

import (
	"context"

	"go.uber.org/zap"

	"cleanedge.io/forms/internal/pkg/logger"
	"cleanedge.io/forms/internal/pkg/worker"
)

// Level classifies a reported event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Sink receives diagnostics from the pipeline. Implementations must be
// safe for concurrent use and must never panic into the caller.
type Sink interface {
	// ReportError records an error with classification tags.
	ReportError(err error, tags map[string]string)

	// ReportEvent records a named event with structured extras.
	ReportEvent(name string, level Level, extra map[string]interface{})
}

// LogSink reports to the structured log only. It is the baseline sink and
// the fallback when no error-reporting DSN is configured.
type LogSink struct {
	pools *worker.Pools
}

// NewLogSink creates a LogSink. pools may be nil, in which case reports
// are written synchronously (tests).
func NewLogSink(pools *worker.Pools) *LogSink {
	return &LogSink{pools: pools}
}

// ReportError implements Sink.
func (s *LogSink) ReportError(err error, tags map[string]string) {
	s.dispatch(func(context.Context) {
		logger.Error("reported error",
			zap.Error(err),
			zap.Any("tags", tags),
		)
	})
}

// ReportEvent implements Sink.
func (s *LogSink) ReportEvent(name string, level Level, extra map[string]interface{}) {
	s.dispatch(func(context.Context) {
		fields := []zap.Field{
			zap.String("event", name),
			zap.Any("extra", extra),
		}
		switch level {
		case LevelError:
			logger.Error("reported event", fields...)
		case LevelWarning:
			logger.Warn("reported event", fields...)
		default:
			logger.Info("reported event", fields...)
		}
	})
}

func (s *LogSink) dispatch(fn func(context.Context)) {
	if s.pools == nil {
		fn(context.Background())
		return
	}
	if err := s.pools.SubmitDetached("general", fn); err != nil {
		// Pool saturated or shutting down: drop to synchronous logging
		// rather than losing the report.
		fn(context.Background())
	}
}

var _ Sink = (*LogSink)(nil)
