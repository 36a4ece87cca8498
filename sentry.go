package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry initializes the Sentry client with the given DSN
func InitSentry(dsn string) error {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      getEnvironment(),
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	if user, err := os.UserCacheDir(); err == nil {
		sentry.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetUser(sentry.User{
				ID: user,
			})
		})
	}

	return nil
}

// getEnvironment determines the environment (dev or production)
func getEnvironment() string {
	if _, err := os.Stat(".git"); err == nil {
		return "development"
	}
	if os.Getenv("SELQ_ENV") == "dev" {
		return "development"
	}
	return "production"
}

// FlushAndShutdown flushes pending Sentry events
func FlushAndShutdown() {
	sentry.Flush(5 * time.Second)
}

// CaptureError sends an error to Sentry along with any pending breadcrumbs
func CaptureError(err error) {
	if err == nil {
		return
	}

	if breadcrumbs != nil {
		breadcrumbs.Flush()
	}

	sentry.CaptureException(err)
}
