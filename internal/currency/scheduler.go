// internal/currency/scheduler.go
package currency

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const scheduledRefreshTimeout = 30 * time.Second

// StartRefresher runs Refresh on the given cron schedule ("@daily", "0 3 * * *").
// The caller stops the returned cron on shutdown.
func StartRefresher(reg *Registry, schedule string, log *logrus.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledRefreshTimeout)
		defer cancel()
		if _, err := reg.Refresh(ctx); err != nil {
			log.WithError(err).Error("Scheduled currency registry refresh failed")
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "invalid refresh schedule %q", schedule)
	}
	c.Start()
	return c, nil
}
