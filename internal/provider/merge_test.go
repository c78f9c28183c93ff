package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// go.opencensus.io (via google.golang.org/genai) starts a worker
	// goroutine in package init that can never be stopped.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func collect(ch <-chan Batch) []Candidate {
	var out []Candidate
	for b := range ch {
		out = append(out, b...)
	}
	return out
}

func TestFanOutProducesNCompletions(t *testing.T) {
	var calls atomic.Int32
	p := newFake()
	p.gen = func(ctx context.Context) (string, error) {
		n := calls.Add(1)
		return []string{"alpha", "beta", "gamma"}[n-1], nil
	}

	ch := fanOut(context.Background(), p, Request{N: 3, Multiline: true}, time.Second, p.gen)
	got := collect(ch)
	require.Len(t, got, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFanOutDropsFailedStreams(t *testing.T) {
	var calls atomic.Int32
	p := newFake()
	p.gen = func(ctx context.Context) (string, error) {
		if calls.Add(1)%2 == 0 {
			return "", errors.New("backend unavailable")
		}
		return "ok", nil
	}

	got := collect(fanOut(context.Background(), p, Request{N: 4, Multiline: true}, time.Second, p.gen))
	assert.Len(t, got, 2, "failed streams contribute nothing, channel still closes")
}

func TestFanOutPerStreamTimeout(t *testing.T) {
	p := newFake()
	p.gen = func(ctx context.Context) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", context.Cause(ctx)
		}
	}

	start := time.Now()
	got := collect(fanOut(context.Background(), p, Request{N: 2, Multiline: true}, 20*time.Millisecond, p.gen))
	assert.Empty(t, got)
	assert.Less(t, time.Since(start), time.Second, "timeout must not wait for the slow backend")
}

func TestFanOutCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newFake()
	p.gen = func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	ch := fanOut(ctx, p, Request{N: 2, Multiline: true}, 0, p.gen)
	cancel()
	assert.Empty(t, collect(ch), "cancelled streams never emit")
}

func TestMergePreservesArrivalAndCloses(t *testing.T) {
	a := make(chan Batch, 1)
	b := make(chan Batch, 1)
	a <- Batch{{InsertText: "from-a"}}
	b <- Batch{{InsertText: "from-b"}}
	close(a)
	close(b)

	var aCh, bCh <-chan Batch = a, b
	got := collect(Merge(context.Background(), aCh, bCh))
	require.Len(t, got, 2)
	texts := []string{got[0].InsertText, got[1].InsertText}
	assert.ElementsMatch(t, []string{"from-a", "from-b"}, texts)
}

func TestMergeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := make(chan Batch)

	var srcCh <-chan Batch = src
	out := Merge(ctx, srcCh)
	cancel()

	// The forwarder gives up on a cancelled context even with a pending send.
	select {
	case src <- Batch{{InsertText: "late"}}:
	case <-time.After(100 * time.Millisecond):
	}
	close(src)
	for range out {
	}
}
