package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// PollerConfig holds configuration for the pending-shift poller.
type PollerConfig struct {
	// Interval is how often pending shifts are re-processed (default: 30s)
	Interval time.Duration
}

func DefaultPollerConfig() PollerConfig {
	return PollerConfig{Interval: 30 * time.Second}
}

// Poller periodically runs a batch function until stopped.
type Poller struct {
	batch  func(context.Context) error
	config PollerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPoller(batch func(context.Context) error, config PollerConfig) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollerConfig().Interval
	}
	return &Poller{batch: batch, config: config}
}

// Start launches the loop. It returns an error if already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("poller is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Pending shift poller started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for the in-flight batch to finish.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Pending shift poller stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Pending shift poller stop timed out")
		return ctx.Err()
	}
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.batch(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending shift batch failed", "error", err)
			}
		}
	}
}
