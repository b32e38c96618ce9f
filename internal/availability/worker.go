package availability

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// StartRefreshWorker rebuilds the cache every interval until ctx is cancelled.
// The returned channel is closed once the worker has stopped.
func StartRefreshWorker(ctx context.Context, svc Service, interval time.Duration, daysAhead int, logger logrus.FieldLogger) <-chan struct{} {
	done := make(chan struct{})
	logger.WithFields(logrus.Fields{
		"interval":   interval.String(),
		"days_ahead": daysAhead,
	}).Info("starting availability refresh worker")

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("availability refresh worker stopped")
				return
			case <-ticker.C:
				runRefresh(ctx, svc, daysAhead, logger)
			}
		}
	}()
	return done
}

func runRefresh(ctx context.Context, svc Service, daysAhead int, logger logrus.FieldLogger) {
	_, err := svc.Refresh(ctx, daysAhead)
	switch {
	case err == nil:
	case errors.Is(err, ErrRefreshInProgress):
		logger.Debug("availability refresh skipped, another refresh is running")
	case errors.Is(err, context.Canceled):
		logger.Warn("availability refresh interrupted, cache partly rebuilt")
	default:
		logger.WithError(err).Error("availability refresh failed")
	}
}
