package market

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// The marketplace allows 3 requests per second.
const DefaultMinInterval = 333 * time.Millisecond

// Gate spaces out request dispatches by a minimum interval. All requests of a
// client pass through the same gate regardless of endpoint.
type Gate struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until the interval since the previous dispatch has passed and
// then records now as the dispatch time. It must be called right before the
// request is sent.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if elapsed := g.now().Sub(g.last); elapsed < g.interval {
			delay := g.interval - elapsed
			log.Debug().Dur("delay", delay).Msg("Rate limiting request")
			if err := g.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	g.last = g.now()
	return nil
}

// LastDispatch returns the time of the most recent dispatch, zero if none.
func (g *Gate) LastDispatch() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
