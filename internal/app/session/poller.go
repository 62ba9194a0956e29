package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"monetchat/internal/pkg/logx"
)

// Poller invokes a tick function on a fixed period until it is stopped.
// A failing tick never stops the loop; the tick function owns its own error handling.
type Poller struct {
	// interval is the tick period.
	interval time.Duration

	// tick is called once per period with the poller's context.
	tick func(ctx context.Context)

	// cancel stops the run loop.
	cancel context.CancelFunc

	// done is closed when the run loop has exited.
	done chan struct{}

	stopOnce sync.Once
	ticks    atomic.Uint64
	logger   zerolog.Logger
}

// StartPoller starts a run loop bound to ctx and returns its handle.
func StartPoller(ctx context.Context, interval time.Duration, tick func(ctx context.Context)) *Poller {
	ctx, cancel := context.WithCancel(ctx)

	p := &Poller{
		interval: interval,
		tick:     tick,
		cancel:   cancel,
		done:     make(chan struct{}),
		logger:   logx.Component("poller"),
	}

	go p.run(ctx)

	return p
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug().Dur("interval", p.interval).Msg("Polling loop started.")

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug().Uint64("ticks", p.ticks.Load()).Msg("Polling loop stopped.")
			return
		case <-ticker.C:
			p.ticks.Add(1)
			p.tick(ctx)
		}
	}
}

// Stop cancels the loop and waits for it to exit. It is safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(p.cancel)
	<-p.done
}

// Ticks returns how many ticks have started.
func (p *Poller) Ticks() uint64 {
	return p.ticks.Load()
}
