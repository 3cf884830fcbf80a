package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/okholm/feedwatch/internal/logging"
)

// Poller errors.
var (
	ErrPollerAlreadyRunning = errors.New("poller already running")
	ErrPollerNotRunning     = errors.New("poller not running")
)

// Refresher is the subset of the orchestrator the poller drives.
type Refresher interface {
	RefreshAll(ctx context.Context, focusedID string) error
}

// PollerConfig contains configuration for the refresh poller.
type PollerConfig struct {
	// Interval is how often all scopes are refreshed.
	// Default: 60s
	Interval time.Duration
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: 60 * time.Second,
	}
}

// Poller periodically refreshes every scope, focused scope first.
type Poller struct {
	config    PollerConfig
	refresher Refresher
	focused   func() string
	logger    zerolog.Logger

	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPoller creates a refresh Poller. focused supplies the currently
// focused scope ID, empty for none.
func NewPoller(config PollerConfig, refresher Refresher, focused func() string) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollerConfig().Interval
	}
	if focused == nil {
		focused = func() string { return "" }
	}

	return &Poller{
		config:    config,
		refresher: refresher,
		focused:   focused,
		logger:    logging.Component("refresh-poller"),
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPollerAlreadyRunning
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	p.logger.Info().
		Dur("interval", p.config.Interval).
		Msg("refresh poller starting")

	p.wg.Add(1)
	go p.runLoop()

	return nil
}

// Stop halts the polling loop.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrPollerNotRunning
	}

	p.logger.Info().Msg("refresh poller stopping")
	p.cancel()
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info().Msg("refresh poller stopped")
	return nil
}

// IsRunning returns true if the poller is running.
func (p *Poller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// runLoop is the main polling loop.
func (p *Poller) runLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollTick()
		}
	}
}

// pollTick performs one refresh cycle.
func (p *Poller) pollTick() {
	ctx := p.ctx

	if err := p.refresher.RefreshAll(ctx, p.focused()); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.logger.Warn().Err(err).Msg("refresh sweep failed")
		return
	}

	p.logger.Debug().Msg("refresh sweep completed")
}

// PollNow triggers an immediate refresh sweep.
func (p *Poller) PollNow() error {
	p.mu.RLock()
	running := p.running
	ctx := p.ctx
	p.mu.RUnlock()

	if !running {
		return ErrPollerNotRunning
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.refresher.RefreshAll(ctx, p.focused()); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn().Err(err).Msg("manual refresh sweep failed")
		}
	}()
	return nil
}
