package pool

import (
	"context"
	"sync"
)

// Tracker observes worker termination and signals when all workers are done.
type Tracker struct {
	wg   sync.WaitGroup
	done chan struct{}
	once sync.Once
}

func newTracker() *Tracker {
	return &Tracker{done: make(chan struct{})}
}

// Go runs fn on a new tracked goroutine.
func (t *Tracker) Go(fn func()) {
	t.wg.Go(fn)
}

// seal must be called once every worker has been started.
func (t *Tracker) seal() {
	t.once.Do(func() {
		go func() {
			t.wg.Wait()
			close(t.done)
		}()
	})
}

// Done returns a channel closed once every worker has terminated.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until every worker has terminated or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
