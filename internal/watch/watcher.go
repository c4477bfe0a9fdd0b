// Package watch monitors directories for spreadsheets and runs a recipe on
// every file that lands there.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Rule defines which files to match and the recipe to run on them.
type Rule struct {
	ID         string   `yaml:"id" json:"id"`
	Pattern    string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`       // Glob on the base name, e.g. "clientes_*.xlsx"
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"` // File extensions to match
	Recipe     string   `yaml:"recipe" json:"recipe"`                             // Path of the recipe YAML
	Enabled    bool     `yaml:"enabled" json:"enabled"`
}

// Config holds the complete watcher configuration.
type Config struct {
	Directories []string `yaml:"directories" json:"directories"`
	Rules       []Rule   `yaml:"rules" json:"rules"`
	Recursive   bool     `yaml:"recursive" json:"recursive"`
	Debounce    int      `yaml:"debounce_ms" json:"debounceMs"` // Milliseconds to wait before processing
	OutputDir   string   `yaml:"output_dir" json:"outputDir"`
}

// Event represents a file event that was detected and processed.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	RuleID    string    `json:"ruleId,omitempty"`
	Output    string    `json:"output,omitempty"`
	Status    string    `json:"status"` // "processed", "error", "skipped"
	Error     string    `json:"error,omitempty"`
}

// EventHandler is called when a matching file event occurs. It returns
// the path of the file it produced, if any.
type EventHandler func(ctx context.Context, path string, rule Rule) (string, error)

// Watcher monitors directories for file changes and triggers actions.
type Watcher struct {
	Config  Config
	Handler EventHandler

	log      *zap.Logger
	mu       sync.Mutex
	events   []Event
	watcher  *fsnotify.Watcher
	debounce map[string]*time.Timer
	started  time.Time
	ctx      context.Context
}

// Status represents the current watcher status.
type Status struct {
	Running     bool     `json:"running"`
	Directories []string `json:"directories"`
	Rules       int      `json:"rules"`
	EventCount  int      `json:"eventCount"`
	StartedAt   string   `json:"startedAt,omitempty"`
}

// spreadsheetExtensions are the file types a recipe can load.
var spreadsheetExtensions = map[string]bool{
	".xlsx": true, ".xlsm": true, ".csv": true, ".json": true,
}

// DefaultDebounce is used when the config leaves Debounce unset.
const DefaultDebounce = 500

// New creates a new Watcher with the given configuration. A nil logger
// disables logging.
func New(config Config, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		Config:   config,
		log:      log,
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
		ctx:      context.Background(),
	}, nil
}

// Start begins watching the configured directories. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}
		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else if err := w.watcher.Add(absDir); err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}

	w.mu.Lock()
	w.started = time.Now()
	w.ctx = ctx
	w.mu.Unlock()
	w.log.Info("watching",
		zap.Strings("directories", w.Config.Directories),
		zap.Int("rules", len(w.Config.Rules)))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("stopping watcher")
			w.stopTimers()
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// Close releases the underlying watcher without starting it.
func (w *Watcher) Close() error {
	w.stopTimers()
	return w.watcher.Close()
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.debounce {
		t.Stop()
		delete(w.debounce, path)
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			if w.isOutput(path) {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

// isOutput reports whether path lies inside the output directory, so the
// watcher never reprocesses its own results.
func (w *Watcher) isOutput(path string) bool {
	if w.Config.OutputDir == "" {
		return false
	}
	out, err := filepath.Abs(w.Config.OutputDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(out, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := event.Name
	if !spreadsheetExtensions[strings.ToLower(filepath.Ext(path))] {
		return
	}
	// Office lock files and editor temp files
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return
	}
	if w.isOutput(path) {
		return
	}

	// Debounce: wait before processing to avoid rapid fire
	w.mu.Lock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	op := event.Op.String()
	w.debounce[path] = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, func() {
		w.processFile(path, op)
	})
	w.mu.Unlock()
}

func (w *Watcher) processFile(path string, operation string) {
	w.mu.Lock()
	delete(w.debounce, path)
	ctx := w.ctx
	w.mu.Unlock()

	evt := Event{Time: time.Now(), Path: path, Operation: operation, Status: "skipped"}
	for _, rule := range w.Config.Rules {
		if !rule.Enabled || !matchesRule(path, rule) {
			continue
		}
		evt.RuleID = rule.ID
		evt.Status = "processed"
		if w.Handler != nil {
			out, err := w.Handler(ctx, path, rule)
			evt.Output = out
			if err != nil {
				evt.Status = "error"
				evt.Error = err.Error()
				w.log.Error("processing failed", zap.String("path", path), zap.String("rule", rule.ID), zap.Error(err))
			} else {
				w.log.Info("processed", zap.String("path", path), zap.String("rule", rule.ID), zap.String("output", out))
			}
		}
		break
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

func matchesRule(path string, rule Rule) bool {
	ext := strings.ToLower(filepath.Ext(path))

	if len(rule.Extensions) > 0 {
		matched := false
		for _, e := range rule.Extensions {
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			if strings.ToLower(e) == ext {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if rule.Pattern != "" {
		matched, _ := filepath.Match(rule.Pattern, filepath.Base(path))
		if !matched {
			return false
		}
	}
	return true
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Status{
		Running:     !w.started.IsZero(),
		Directories: w.Config.Directories,
		Rules:       len(w.Config.Rules),
		EventCount:  len(w.events),
	}
	if s.Running {
		s.StartedAt = w.started.Format(time.RFC3339)
	}
	return s
}

// Events returns all recorded events.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

const pidFile = "sheetkit-watch.pid"

// WritePIDFile writes the current process ID to the PID file in the given directory.
func WritePIDFile(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, pidFile), []byte(fmt.Sprintf("%d", os.Getpid())), 0o644)
}

// ReadPIDFile reads the PID from the PID file.
func ReadPIDFile(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file.
func RemovePIDFile(dir string) error {
	return os.Remove(filepath.Join(dir, pidFile))
}

// LoadConfig reads a watcher config YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read watch config %s: %w", path, err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid watch config: %w", err)
	}
	if len(config.Directories) == 0 {
		return nil, fmt.Errorf("watch config %s lists no directories", path)
	}
	return &config, nil
}

// SaveConfig writes the watcher config as YAML.
func SaveConfig(path string, config Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
