// Package utils holds startup helpers for main.
package utils

import (
	"context"
	"errors"
	"net/http"
	"time"

	"meditrack/internal/logger"
)

var log = logger.New("main")

// Must aborts the process when a startup step fails.
func Must(err error, step string) {
	if err != nil {
		log.Fatal().Err(err).Msg(step)
	}
}

// Closer is anything main tears down on exit.
type Closer func(ctx context.Context) error

// Shutdown runs closers in order within timeout and joins their errors.
func Shutdown(timeout time.Duration, closers ...Closer) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, c := range closers {
		if err := c(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
