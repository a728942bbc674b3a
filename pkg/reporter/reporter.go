package reporter

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/timeline-fanout/config"
)

var enabled bool

// Init configures sentry. An empty DSN leaves reporting disabled.
func Init(cfg config.SentryConfig) error {
	if cfg.DSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.DSN, Environment: cfg.Environment}); err != nil {
		return err
	}
	enabled = true
	return nil
}

// Capture reports err with the given tags.
func Capture(err error, tags map[string]string) {
	if !enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events.
func Flush() {
	if enabled {
		sentry.Flush(2 * time.Second)
	}
}
