package observe

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"cleanedge.io/forms/internal/config"
	"cleanedge.io/forms/internal/pkg/worker"
)

// SentrySink forwards reports to Sentry and mirrors them to the log sink,
// so local logs stay complete even when the Sentry transport drops events.
type SentrySink struct {
	log *LogSink
}

// NewSentrySink initializes the Sentry SDK and returns the sink.
func NewSentrySink(cfg config.SentryConfig, pools *worker.Pools) (*SentrySink, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	}); err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	return &SentrySink{log: NewLogSink(pools)}, nil
}

// ReportError implements Sink.
func (s *SentrySink) ReportError(err error, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
	s.log.ReportError(err, tags)
}

// ReportEvent implements Sink.
func (s *SentrySink) ReportEvent(name string, level Level, extra map[string]interface{}) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevel(level))
		scope.SetExtras(extra)
		sentry.CaptureMessage(name)
	})
	s.log.ReportEvent(name, level, extra)
}

// Close flushes buffered events before shutdown.
func (s *SentrySink) Close() {
	sentry.Flush(2 * time.Second)
}

func sentryLevel(level Level) sentry.Level {
	switch level {
	case LevelError:
		return sentry.LevelError
	case LevelWarning:
		return sentry.LevelWarning
	default:
		return sentry.LevelInfo
	}
}

var _ Sink = (*SentrySink)(nil)
