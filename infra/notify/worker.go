package notify

import (
	"context"
	"sync"

	"github.com/oficiosya/dispatch/core/events"
	corenotify "github.com/oficiosya/dispatch/core/notify"
	"github.com/oficiosya/dispatch/infra/logger"
	"github.com/oficiosya/dispatch/internal/eventbus"
)

// Worker consumes NotificationRequested events from the bus and delivers
// them through the notifier. Each delivery runs in its own goroutine so
// a slow or failing channel never blocks the others or the orchestrator.
// Failures are logged; delivery is at-least-once best-effort and never
// feeds back into dispatch state.
type Worker struct {
	notifier corenotify.Notifier
	bus      eventbus.EventBus
	log      logger.Logger
	wg       sync.WaitGroup
}

// NewWorker creates a Worker.
func NewWorker(notifier corenotify.Notifier, bus eventbus.EventBus, log logger.Logger) *Worker {
	return &Worker{notifier: notifier, bus: bus, log: log}
}

// Run consumes events until the context is canceled, then waits for
// in-flight deliveries.
func (w *Worker) Run(ctx context.Context) {
	sub := w.bus.Subscribe()
	defer w.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return
		case ev, ok := <-sub:
			if !ok {
				w.wg.Wait()
				return
			}
			req, isNotification := ev.(events.NotificationRequested)
			if !isNotification {
				continue
			}
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.deliver(ctx, req)
			}()
		}
	}
}

func (w *Worker) deliver(ctx context.Context, req events.NotificationRequested) {
	if err := w.notifier.Notify(ctx, req.ProfessionalID, req.Title, req.Body, req.Metadata); err != nil {
		w.log.Errorf("notify %s: %v", req.ProfessionalID, err)
		return
	}
	w.log.Debugf("notified %s: %s", req.ProfessionalID, req.Title)
}
