package config

import (
	"time"

	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// InitSentry initializes Sentry when SENTRY_DSN is set. It reports whether
// Sentry is active; the returned flush func is always safe to defer.
func (c *Config) InitSentry(release string) (bool, func(), error) {
	noop := func() {}
	if c.SentryDSN == "" {
		return false, noop, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              c.SentryDSN,
		Environment:      c.Environment,
		Release:          "birdomatic@" + release,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            !c.IsProduction(),
	})
	if err != nil {
		return false, noop, err
	}
	return true, func() { sentry.Flush(sentryFlushTimeout) }, nil
}

// Report sends err to Sentry if it is initialized. It is a no-op otherwise.
func Report(err error) {
	if err == nil || sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.CaptureException(err)
}
