package server

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HealthLoop periodically probes a dependency and logs failures. It satisfies
// Service so it can be managed by a Lifecycle alongside the components it
// watches.
type HealthLoop struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	check    func(ctx context.Context, timeout time.Duration) error
	logger   *zap.Logger
	done     chan struct{}
}

// NewHealthLoop creates a health probe that runs check every interval with
// the given per-probe timeout.
//
// Precondition: interval and timeout must be positive; check and logger must
// be non-nil.
func NewHealthLoop(name string, interval, timeout time.Duration, check func(ctx context.Context, timeout time.Duration) error, logger *zap.Logger) *HealthLoop {
	return &HealthLoop{
		name:     name,
		interval: interval,
		timeout:  timeout,
		check:    check,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start blocks, probing until Stop is called. Probe failures are logged at
// warn level; they never terminate the loop.
func (h *HealthLoop) Start() error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return nil
		case <-ticker.C:
			if err := h.check(context.Background(), h.timeout); err != nil {
				h.logger.Warn("health check failed",
					zap.String("target", h.name),
					zap.Error(err),
				)
			}
		}
	}
}

// Stop ends the probe loop.
func (h *HealthLoop) Stop() {
	close(h.done)
}
