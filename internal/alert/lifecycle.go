package alert

import (
	"context"
	"sync"

	"coinpaprika-price-alerts/internal/metrics"
	log "github.com/sirupsen/logrus"
)

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller starts and stops the monitor. At most one monitor loop runs at a
// time; Start while running and Stop while idle are no-ops.
type Controller struct {
	store   *Store
	monitor *Monitor
	metrics *metrics.Metrics

	mu      sync.Mutex
	current *run
}

func NewController(store *Store, monitor *Monitor, m *metrics.Metrics) *Controller {
	return &Controller{store: store, monitor: monitor, metrics: m}
}

// Start launches the monitor loop when it is idle and at least one alert
// exists. It reports whether a new loop was started. The loop is detached
// from ctx, which only bounds the emptiness check.
func (c *Controller) Start(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return false, nil
	}

	empty, err := c.store.IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	if empty {
		log.Debug("No alerts stored, alert monitor stays idle.")
		return false, nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel, done: make(chan struct{})}
	c.current = r
	c.metrics.SetRunning(true)

	go func() {
		defer close(r.done)
		defer cancel()

		if err := c.monitor.Run(runCtx, func() bool { return c.goIdle(r) }); err != nil && runCtx.Err() == nil {
			log.Errorf("❌ Alert monitor stopped: %v", err)
		}
		c.release(r)
	}()

	log.Info("🚀 Alert monitor started.")
	return true, nil
}

// goIdle is asked by the loop once it sees no alerts left. The store is
// checked again under the lock so an alert added by a concurrent Start is not
// left unwatched.
func (c *Controller) goIdle(r *run) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != r {
		return true
	}

	empty, err := c.store.IsEmpty(context.Background())
	if err != nil || !empty {
		return false
	}

	c.current = nil
	c.metrics.SetRunning(false)
	return true
}

func (c *Controller) release(r *run) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == r {
		c.current = nil
		c.metrics.SetRunning(false)
	}
}

// Stop cancels the running loop and waits for it to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	r := c.current
	c.current = nil
	if r != nil {
		c.metrics.SetRunning(false)
	}
	c.mu.Unlock()

	if r == nil {
		return
	}

	r.cancel()
	<-r.done
	log.Info("🛑 Alert monitor stopped.")
}

// Wait blocks until the current loop, if any, has exited.
func (c *Controller) Wait() {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()

	if r != nil {
		<-r.done
	}
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// HasActiveAlerts is used at boot to decide whether to Start.
func (c *Controller) HasActiveAlerts(ctx context.Context) (bool, error) {
	empty, err := c.store.IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}
