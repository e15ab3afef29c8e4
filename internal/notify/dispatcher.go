// internal/notify/dispatcher.go
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Sink delivers one event to the user through a single channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event domain.Event) error
}

// Dispatcher fans committed events out to every sink in the background.
// Delivery failures are logged and never reach the caller.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	metrics *metrics.Metrics
	log     *logrus.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher; each delivery gets its own timeout.
func NewDispatcher(timeout time.Duration, m *metrics.Metrics, log *logrus.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, timeout: timeout, metrics: m, log: log}
}

// Publish returns immediately.
func (d *Dispatcher) Publish(events ...domain.Event) {
	for _, event := range events {
		for _, sink := range d.sinks {
			d.wg.Add(1)
			go d.deliver(sink, event)
		}
	}
}

// Wait blocks until every published event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(sink Sink, event domain.Event) {
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("sink panicked: %v", r)
			}
		}()
		return sink.Deliver(ctx, event)
	}()

	d.metrics.RecordNotification(sink.Name(), err)
	if err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"sink":     sink.Name(),
			"event_id": event.ID.String(),
			"kind":     event.Kind,
			"user_id":  event.UserID,
		}).Warn("Notification delivery failed")
	}
}
