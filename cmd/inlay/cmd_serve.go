package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inlay/internal/config"
	"inlay/internal/delay"
	"inlay/internal/document"
	"inlay/internal/engine"
	"inlay/internal/logging"
	"inlay/internal/provider"
	"inlay/internal/retrieval"
)

// serveCmd runs the long-lived event loop an editor host talks to: JSON
// events in on stdin, candidate batches out on stdout.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor-host event loop (JSON over stdio)",
	Long: `Reads newline-delimited JSON events from stdin and writes completion
results to stdout. Events: trigger, edit, copy, accept, reject, cancel,
shutdown. The config file is watched; provider and retrieval strategy are
rebuilt on change without dropping in-flight requests.`,
	RunE: runServe,
}

// hostEvent is one inbound message from the editor host.
type hostEvent struct {
	Type       string `json:"type"`
	URI        string `json:"uri,omitempty"`
	LanguageID string `json:"language,omitempty"`
	Text       string `json:"text,omitempty"`
	Line       int    `json:"line,omitempty"`
	Col        int    `json:"col,omitempty"`
	Version    int    `json:"version,omitempty"`
	Kind       string `json:"kind,omitempty"`
	NodeType   string `json:"node_type,omitempty"`
}

// hostResult is one outbound message.
type hostResult struct {
	Type       string               `json:"type"`
	URI        string               `json:"uri"`
	Version    int                  `json:"version,omitempty"`
	Candidates []provider.Candidate `json:"candidates,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func runServe(cmd *cobra.Command, args []string) error {
	uc, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// In serve mode a provider is non-negotiable: the host depends on one
	// always being present, so fail hard instead of degrading silently.
	coord, history, cleanup, err := buildCoordinator(cmd, uc)
	if err != nil {
		return fmt.Errorf("serve mode requires a usable provider: %w", err)
	}
	defer cleanup()

	// Watch the config file and rebuild the runtime on change.
	watchPath := configPath
	if watchPath == "" {
		watchPath = config.DefaultConfigPath()
	}
	watcher := config.NewWatcher(watchPath, func(fresh *config.UserConfig) {
		rebuildRuntime(ctx, coord, history, fresh)
	})
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	var outMu sync.Mutex
	emit := func(r hostResult) {
		outMu.Lock()
		defer outMu.Unlock()
		data, err := json.Marshal(r)
		if err != nil {
			return
		}
		fmt.Println(string(data))
	}

	log := logging.Get(logging.CategorySession)
	log.Info("serve loop started")
	logger.Info("inlay serving on stdio",
		zap.String("provider", uc.Provider),
		zap.String("strategy", uc.ContextStrategy))

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<24) // documents can be large
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev hostEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Warn("unparseable event: %v", err)
			continue
		}

		switch ev.Type {
		case "trigger":
			go handleTrigger(ctx, coord, ev, emit)
		case "edit":
			history.RecordEdit(document.Edit{URI: ev.URI, LanguageID: ev.LanguageID, Content: ev.Text})
		case "copy":
			history.RecordCopy(document.Copy{URI: ev.URI, Content: ev.Text})
		case "accept":
			coord.Accept()
		case "reject":
			coord.Reject(ev.URI)
		case "cancel":
			coord.Cancel(ev.URI)
		case "shutdown":
			log.Info("shutdown requested")
			return nil
		default:
			log.Warn("unknown event type %q", ev.Type)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdin read failed: %w", err)
	}
	log.Info("serve loop ended")
	return nil
}

func handleTrigger(ctx context.Context, coord *engine.Coordinator, ev hostEvent, emit func(hostResult)) {
	kind := document.TriggerAutomatic
	if ev.Kind == "manual" {
		kind = document.TriggerManual
	}
	snap := document.NewSnapshot(ev.URI, ev.LanguageID, ev.Text,
		document.Position{Line: ev.Line, Character: ev.Col}, ev.Version)
	trig := document.TriggerContext{
		URI:        ev.URI,
		LanguageID: ev.LanguageID,
		Kind:       kind,
		Timestamp:  time.Now(),
		NodeType:   ev.NodeType,
	}

	result := coord.Trigger(ctx, snap, trig)
	switch result.State {
	case engine.StateCompleted:
		emit(hostResult{Type: "completion", URI: ev.URI, Version: ev.Version, Candidates: result.Candidates})
	case engine.StateCancelled:
		// Superseded; the newer trigger will answer.
	default:
		msg := "no suggestion"
		if result.Err != nil {
			msg = result.Err.Error()
		}
		emit(hostResult{Type: "none", URI: ev.URI, Version: ev.Version, Error: msg})
	}
}

// rebuildRuntime swaps the coordinator's configuration snapshot after a
// config file change. A config so broken it resolves no provider keeps the
// previous snapshot and logs once.
func rebuildRuntime(ctx context.Context, coord *engine.Coordinator, history *document.History, uc *config.UserConfig) {
	p, err := provider.FromUserConfig(ctx, uc)
	if err != nil {
		logger.Warn("config change resolved no provider; keeping previous", zap.Error(err))
		return
	}
	factory, err := retrieval.NewFactory(uc.ContextStrategy, history)
	if err != nil {
		logger.Warn("config change has invalid strategy; keeping previous", zap.Error(err))
		return
	}
	coord.Rebuild(&engine.Runtime{
		Provider: p,
		Factory:  factory,
		Flags: delay.Flags{
			Disable:     uc.DisableArtificialDelay,
			UserLatency: uc.UserLatencyEnabled,
		},
		TriggerDelay:    time.Duration(uc.TriggerDelay()) * time.Millisecond,
		Completions:     uc.Completions,
		Timeouts:        uc.Timeouts,
		LanguageEnabled: uc.LanguageEnabled,
	})
}
