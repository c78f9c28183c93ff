package provider

import (
	"context"
	"sync"
	"time"

	"inlay/internal/logging"
)

// generateFunc produces one raw completion. Backends supply this; the shared
// fan-out owns goroutines, deadlines, and cleanup.
type generateFunc func(ctx context.Context) (string, error)

// fanOut runs n independent completion streams and merges their results into
// one channel preserving first-arrival order. The channel closes once every
// stream has finished. The first-completion timeout applies to each stream
// individually; a stream that misses it contributes nothing.
func fanOut(ctx context.Context, p Provider, req Request, timeout time.Duration, gen generateFunc) <-chan Batch {
	n := req.N
	if n < 1 {
		n = 1
	}

	out := make(chan Batch, n)
	var wg sync.WaitGroup
	log := logging.Get(logging.CategoryProvider)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			genCtx := ctx
			var cancel context.CancelFunc
			if timeout > 0 {
				genCtx, cancel = context.WithTimeoutCause(ctx, timeout, ErrTimeout)
				defer cancel()
			}

			text, err := gen(genCtx)
			if err != nil {
				if ctx.Err() == nil {
					// Real failure, not a superseded trigger.
					log.Warn("%s/%s completion failed: %v", p.ID(), p.Model(), err)
				}
				return
			}
			cand, ok := clean(p, req, text)
			if !ok {
				return
			}
			select {
			case out <- Batch{cand}:
			case <-ctx.Done():
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Merge fans N candidate channels into one, preserving first-arrival order.
// Used by callers that race several providers for the same trigger.
func Merge(ctx context.Context, channels ...<-chan Batch) <-chan Batch {
	out := make(chan Batch)
	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch <-chan Batch) {
			defer wg.Done()
			for b := range ch {
				select {
				case out <- b:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
