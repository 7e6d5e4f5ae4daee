package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/inningscast/pkg/metrics"
)

// gaugeLoop periodically publishes a store's user count.
type gaugeLoop struct {
	wg       sync.WaitGroup
	stopChan chan struct{}
	once     sync.Once
}

func newGaugeLoop() *gaugeLoop {
	return &gaugeLoop{stopChan: make(chan struct{})}
}

// start runs update every interval until ctx ends or stop is called.
// A zero interval disables the loop.
func (g *gaugeLoop) start(ctx context.Context, interval time.Duration, count func(context.Context) (int, error)) {
	if interval <= 0 {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-g.stopChan:
				return
			case <-ticker.C:
				if n, err := count(ctx); err == nil {
					metrics.UpdateUsersTotal(n)
				}
			}
		}
	}()
}

func (g *gaugeLoop) stop() {
	g.once.Do(func() { close(g.stopChan) })
	g.wg.Wait()
}
