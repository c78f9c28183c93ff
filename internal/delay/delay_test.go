package delay

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDelayFastLanguageNoStreak(t *testing.T) {
	e := NewEngine()
	if d := e.Delay(Flags{}, "file:///a.go", "go", ""); d != 0 {
		t.Errorf("expected no delay for go, got %s", d)
	}
}

func TestDelayLowPerformanceBaseline(t *testing.T) {
	e := NewEngine()
	for _, lang := range []string{"css", "html", "yaml", "markdown", "plaintext"} {
		if d := e.Delay(Flags{}, "file:///x."+lang, lang, ""); d != 1000*time.Millisecond {
			t.Errorf("%s: expected 1s baseline, got %s", lang, d)
		}
	}
}

func TestDelayCommentNode(t *testing.T) {
	e := NewEngine()
	if d := e.Delay(Flags{}, "file:///a.go", "go", "comment"); d != 1000*time.Millisecond {
		t.Errorf("expected 1s baseline inside comments, got %s", d)
	}
}

// The ramp starts on the call after five un-accepted suggestions and doubles
// per further call, clamped at 1400ms total.
func TestDelayUserLatencyRamp(t *testing.T) {
	e := NewEngine()
	flags := Flags{UserLatency: true}
	uri := "file:///style.css"

	want := []time.Duration{
		1000 * time.Millisecond, // 1st
		1000 * time.Millisecond, // 2nd
		1000 * time.Millisecond, // 3rd
		1000 * time.Millisecond, // 4th
		1000 * time.Millisecond, // 5th
		1050 * time.Millisecond, // 6th: ramp begins at 50ms
		1100 * time.Millisecond, // 7th: 100ms
		1200 * time.Millisecond, // 8th: 200ms
		1400 * time.Millisecond, // 9th: 400ms clamped to max
		1400 * time.Millisecond, // 10th: stays clamped
	}
	got := make([]time.Duration, 0, len(want))
	for range want {
		got = append(got, e.Delay(flags, uri, "css", ""))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("delay sequence mismatch (-want +got):\n%s", diff)
	}

	e.Reset()
	if d := e.Delay(flags, uri, "css", ""); d != 1000*time.Millisecond {
		t.Errorf("after accept, expected baseline again, got %s", d)
	}
}

func TestDelayRampWithoutBaseline(t *testing.T) {
	e := NewEngine()
	flags := Flags{UserLatency: true}
	uri := "file:///main.go"

	for i := 0; i < 5; i++ {
		if d := e.Delay(flags, uri, "go", ""); d != 0 {
			t.Fatalf("call %d: expected 0, got %s", i+1, d)
		}
	}
	if d := e.Delay(flags, uri, "go", ""); d != 50*time.Millisecond {
		t.Errorf("6th call: expected 50ms, got %s", d)
	}
	if d := e.Delay(flags, uri, "go", ""); d != 100*time.Millisecond {
		t.Errorf("7th call: expected 100ms, got %s", d)
	}
}

func TestDelayStreakIsPerDocument(t *testing.T) {
	e := NewEngine()
	flags := Flags{UserLatency: true}

	for i := 0; i < 8; i++ {
		e.Delay(flags, "file:///busy.go", "go", "")
	}
	if d := e.Delay(flags, "file:///fresh.go", "go", ""); d != 0 {
		t.Errorf("new document should start with no latency, got %s", d)
	}
}

func TestDelayIdleResetsStreak(t *testing.T) {
	e := NewEngine()
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }

	flags := Flags{UserLatency: true}
	uri := "file:///main.go"
	for i := 0; i < 7; i++ {
		e.Delay(flags, uri, "go", "")
	}
	if d := e.Delay(flags, uri, "go", ""); d == 0 {
		t.Fatal("sanity: streak should be ramping")
	}

	clock = clock.Add(6 * time.Minute)
	if d := e.Delay(flags, uri, "go", ""); d != 0 {
		t.Errorf("idle document should reset its streak, got %s", d)
	}
}

func TestDelayDisabled(t *testing.T) {
	e := NewEngine()
	flags := Flags{Disable: true, UserLatency: true}
	for i := 0; i < 10; i++ {
		if d := e.Delay(flags, "file:///x.css", "css", "comment"); d != 0 {
			t.Fatalf("disabled engine returned %s", d)
		}
	}
}
