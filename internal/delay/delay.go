// Package delay implements the adaptive debounce applied before a completion
// request fires. Two signals feed it: a fixed baseline for languages whose
// backends are empirically slow (and for comment positions, where suggestions
// are rarely wanted), and a per-document latency that ramps up while the user
// keeps ignoring suggestions.
package delay

import (
	"sync"
	"time"

	"inlay/internal/logging"
)

// Flags control which parts of the engine are active. They mirror the
// feature-flag surface of the host configuration.
type Flags struct {
	// Disable bypasses the engine entirely; Delay always returns 0 and no
	// state is touched.
	Disable bool
	// UserLatency enables the rejection-streak ramp.
	UserLatency bool
}

const (
	baselineLowPerformance = 1000 * time.Millisecond
	userLatencyStep        = 50 * time.Millisecond
	maxDelay               = 1400 * time.Millisecond

	// A document idle this long gets a fresh streak on its next trigger.
	idleReset = 5 * time.Minute

	// Suggestions shown before the ramp starts. The first few rejections
	// are normal browsing, not a signal.
	rampAfter = 5
)

// Languages whose completion backends are slow enough to warrant a baseline
// delay. Markup and config languages dominate; their suggestions also tend to
// be low value at high frequency.
var lowPerformanceLanguages = map[string]bool{
	"css":        true,
	"html":       true,
	"scss":       true,
	"less":       true,
	"vue":        true,
	"dart":       true,
	"json":       true,
	"jsonc":      true,
	"yaml":       true,
	"markdown":   true,
	"plaintext":  true,
	"xml":        true,
	"twig":       true,
	"handlebars": true,
}

// state tracks one document's suggestion streak.
type state struct {
	suggested int
	latency   time.Duration
	lastCall  time.Time
}

// Engine computes artificial delays. Safe for concurrent use; sessions for
// different documents share it.
type Engine struct {
	mu     sync.Mutex
	states map[string]*state
	now    func() time.Time // replaced in tests
}

// NewEngine creates an engine with empty per-document state.
func NewEngine() *Engine {
	return &Engine{
		states: make(map[string]*state),
		now:    time.Now,
	}
}

// Delay returns the artificial delay for a trigger and records the trigger
// as an un-accepted suggestion for the URI. Every call without an intervening
// Reset counts against the streak; acceptance is reported via Reset.
//
// The ramp starts after rampAfter consecutive un-accepted suggestions at
// userLatencyStep and doubles per further call, clamped so baseline plus
// ramp never exceeds maxDelay.
func (e *Engine) Delay(flags Flags, uri, languageID, nodeType string) time.Duration {
	if flags.Disable {
		return 0
	}

	var baseline time.Duration
	if lowPerformanceLanguages[languageID] || nodeType == "comment" {
		baseline = baselineLowPerformance
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	st := e.states[uri]
	if st == nil || now.Sub(st.lastCall) > idleReset {
		st = &state{}
		e.states[uri] = st
	}

	if flags.UserLatency && st.suggested >= rampAfter {
		if st.latency == 0 {
			st.latency = userLatencyStep
		} else {
			st.latency *= 2
		}
	}
	st.suggested++
	st.lastCall = now

	total := baseline + st.latency
	if total > maxDelay {
		total = maxDelay
	}
	if total > 0 {
		logging.Get(logging.CategoryDelay).Debug("delay %s for %s (lang=%s node=%s streak=%d)",
			total, uri, languageID, nodeType, st.suggested)
	}
	return total
}

// Reset clears the streaks of all documents. Called when the user accepts a
// suggestion: acceptance anywhere is evidence the feature is wanted again.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = make(map[string]*state)
}
