// Package engine coordinates the completion pipeline: it debounces triggers,
// applies the adaptive delay, fans out context retrieval, dispatches to the
// active provider, and guarantees that a newer trigger always supersedes an
// older one for the same document.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"inlay/internal/config"
	"inlay/internal/delay"
	"inlay/internal/document"
	"inlay/internal/logging"
	"inlay/internal/prompt"
	"inlay/internal/provider"
	"inlay/internal/retrieval"
)

// State names a session's position in the pipeline.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateRetrieving
	StateDispatching
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateRetrieving:
		return "retrieving"
	case StateDispatching:
		return "dispatching"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrNoProvider means configuration resolved no usable provider. Surfaced
// once; completion stays disabled until the configuration changes.
var ErrNoProvider = errors.New("no completion provider configured")

// ErrDisabled means completion is switched off for the document's language.
var ErrDisabled = errors.New("completion disabled for language")

// Runtime is one immutable configuration snapshot: the provider, retrieval
// factory, and flags a session uses for its whole lifetime. Rebuilt as a
// unit on configuration change; in-flight sessions keep the snapshot they
// captured at trigger time.
type Runtime struct {
	Provider     provider.Provider
	Factory      *retrieval.Factory
	Flags        delay.Flags
	TriggerDelay time.Duration
	Completions  int
	Timeouts     *config.ProviderTimeouts
	// LanguageEnabled gates per-language completion.
	LanguageEnabled func(languageID string) bool

	// inflight delays resource release until every session using this
	// snapshot has finished.
	inflight sync.WaitGroup
}

// Result is what one trigger produced.
type Result struct {
	State      State
	Candidates []provider.Candidate
	// Err is set for Failed results. Cancellation is reported via State,
	// not Err: it is not a failure.
	Err error
}

// Coordinator owns the per-document session map and the shared delay engine.
// Safe for concurrent triggers across documents; triggers on one document
// strictly supersede each other.
type Coordinator struct {
	mu       sync.Mutex
	runtime  *Runtime
	sessions map[string]*session
	delays   *delay.Engine
}

// session identifies one in-flight request so a finished request can tell
// whether the map slot still belongs to it.
type session struct {
	cancel context.CancelFunc
}

// New creates a coordinator with the given initial runtime.
func New(rt *Runtime) *Coordinator {
	return &Coordinator{
		runtime:  rt,
		sessions: make(map[string]*session),
		delays:   delay.NewEngine(),
	}
}

// Rebuild atomically swaps the configuration snapshot. The previous
// snapshot's retrievers are released only after its last in-flight session
// finishes.
func (c *Coordinator) Rebuild(rt *Runtime) {
	c.mu.Lock()
	old := c.runtime
	c.runtime = rt
	c.mu.Unlock()

	if old != nil {
		go func() {
			old.inflight.Wait()
			if old.Factory != nil {
				old.Factory.Close()
			}
		}()
	}
	logging.Get(logging.CategoryConfig).Info("coordinator runtime rebuilt")
}

// Accept reports that the user accepted a suggestion. Resets the adaptive
// delay everywhere; acceptance is evidence the feature is wanted.
func (c *Coordinator) Accept() {
	c.delays.Reset()
}

// Reject reports an explicit rejection. The streak was already counted when
// the suggestion fired, so this only logs; the next trigger pays the ramp.
func (c *Coordinator) Reject(uri string) {
	logging.TriggerDebug("suggestion rejected for %s", uri)
}

// Cancel aborts any in-flight request for a document (focus lost, document
// closed). Not an error; the aborted session reports Cancelled.
func (c *Coordinator) Cancel(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[uri]; ok {
		s.cancel()
	}
}

// Trigger runs one completion request for a document snapshot. It cancels
// any in-flight request for the same URI, debounces, retrieves context,
// dispatches to the provider, and returns the first usable candidate batch.
//
// A trigger superseded by a newer one returns State Cancelled with no
// candidates; the superseded request's network calls are aborted.
func (c *Coordinator) Trigger(ctx context.Context, snap *document.Snapshot, trig document.TriggerContext) Result {
	c.mu.Lock()
	rt := c.runtime
	if rt == nil || rt.Provider == nil {
		c.mu.Unlock()
		return Result{State: StateFailed, Err: ErrNoProvider}
	}
	if rt.LanguageEnabled != nil && !rt.LanguageEnabled(snap.LanguageID) {
		c.mu.Unlock()
		return Result{State: StateFailed, Err: ErrDisabled}
	}
	// A newer trigger always cancels the previous one for this document.
	if prev, ok := c.sessions[snap.URI]; ok {
		prev.cancel()
	}
	sessCtx, cancel := context.WithCancel(ctx)
	sess := &session{cancel: cancel}
	c.sessions[snap.URI] = sess
	rt.inflight.Add(1)
	c.mu.Unlock()

	defer rt.inflight.Done()
	defer func() {
		c.mu.Lock()
		// Only clear the slot if it is still ours; a newer trigger may have
		// replaced it already.
		if c.sessions[snap.URI] == sess {
			delete(c.sessions, snap.URI)
		}
		c.mu.Unlock()
		cancel()
	}()

	sessionID := uuid.NewString()[:8]
	log := logging.Get(logging.CategoryTrigger)
	log.Debug("[%s] trigger %s on %s (%s, node=%s)", sessionID, trig.Kind, snap.URI, snap.LanguageID, trig.NodeType)

	// Debouncing. Manual invocation is deliberate and skips both delays.
	if trig.Kind == document.TriggerAutomatic {
		wait := rt.TriggerDelay
		if d := c.delays.Delay(rt.Flags, snap.URI, snap.LanguageID, trig.NodeType); d > wait {
			wait = d
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-sessCtx.Done():
				timer.Stop()
				log.Debug("[%s] cancelled during debounce", sessionID)
				return Result{State: StateCancelled}
			}
		}
	}

	// Retrieving.
	snippets := c.retrieve(sessCtx, rt, snap)
	if sessCtx.Err() != nil {
		log.Debug("[%s] cancelled during retrieval", sessionID)
		return Result{State: StateCancelled}
	}

	// Dispatching.
	pc := prompt.Build(snap, snippets, rt.Provider.Hints())
	req := provider.Request{
		Prompt:     pc,
		Multiline:  multilineAt(snap),
		N:          rt.Completions,
		LanguageID: snap.LanguageID,
	}
	ch, err := rt.Provider.GenerateCompletions(sessCtx, req)
	if err != nil {
		logging.Get(logging.CategoryProvider).Error("[%s] dispatch failed (%s/%s): %v",
			sessionID, rt.Provider.ID(), rt.Provider.Model(), err)
		return Result{State: StateFailed, Err: err}
	}

	// First usable batch wins; later arrivals for this trigger are discarded.
	for {
		select {
		case <-sessCtx.Done():
			return Result{State: StateCancelled}
		case batch, ok := <-ch:
			if !ok {
				if sessCtx.Err() != nil {
					return Result{State: StateCancelled}
				}
				logging.Get(logging.CategoryProvider).Warn("[%s] no suggestion from %s/%s",
					sessionID, rt.Provider.ID(), rt.Provider.Model())
				return Result{State: StateFailed, Err: provider.ErrEmptyCompletion}
			}
			if len(batch) == 0 {
				continue
			}
			log.Debug("[%s] completed with %d candidate(s)", sessionID, len(batch))
			return Result{State: StateCompleted, Candidates: batch}
		}
	}
}

// retrieve runs every retriever of the document's strategy concurrently,
// each under its own timeout. Retriever failure yields an empty contribution
// and never fails the request.
func (c *Coordinator) retrieve(ctx context.Context, rt *Runtime, snap *document.Snapshot) []retrieval.Snippet {
	if rt.Factory == nil {
		return nil
	}
	strategy := rt.Factory.GetStrategy(snap)
	if len(strategy.Retrievers) == 0 {
		return nil
	}

	perRetriever := rt.Timeouts.Retrieval()
	results := make([][]retrieval.Snippet, len(strategy.Retrievers))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range strategy.Retrievers {
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(gctx, perRetriever)
			defer cancel()
			snippets, err := r.Retrieve(rctx, snap)
			if err != nil {
				logging.Get(logging.CategoryRetrieval).Debug("%s retriever failed: %v", r.Kind(), err)
				return nil // partial results are fine
			}
			results[i] = snippets
			return nil
		})
	}
	g.Wait()

	// Strategy order is priority order: all of retriever 0's snippets rank
	// above retriever 1's.
	var out []retrieval.Snippet
	for _, rs := range results {
		out = append(out, rs...)
	}
	return out
}

// multilineAt allows multiline completions at an empty cursor line: the user
// is starting a block, not finishing an expression.
func multilineAt(snap *document.Snapshot) bool {
	line := snap.CurrentLine()
	for _, r := range line {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}
