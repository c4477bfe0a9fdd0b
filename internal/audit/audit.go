// Package audit keeps a local JSONL log of the sheetkit commands that were
// run, with personal data masked out of their arguments.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Entry is one logged command.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	User       string    `json:"user,omitempty"`
	Machine    string    `json:"machine"`
	Command    string    `json:"command"`
	Args       []string  `json:"args"`
	ExitCode   int       `json:"exit_code"`
	DurationMs int64     `json:"duration_ms"`
	InputFile  string    `json:"input_file,omitempty"`
	OutputFile string    `json:"output_file,omitempty"`
}

// MaxSize is the log size past which Log moves the file to <path>.1 and
// starts a new one.
const MaxSize = 10 * 1024 * 1024

// Logger appends entries to a log file.
type Logger struct {
	path    string
	enabled bool
}

// NewLogger returns a Logger writing to path. A disabled logger or an
// empty path makes Log a no-op.
func NewLogger(path string, enabled bool) *Logger {
	return &Logger{path: path, enabled: enabled}
}

// Path returns the log file location.
func (l *Logger) Path() string { return l.path }

// Log appends entry as one JSON line, filling in the timestamp and machine
// when they are unset.
func (l *Logger) Log(_ context.Context, entry Entry) error {
	if !l.enabled || l.path == "" {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Machine == "" {
		entry.Machine, _ = os.Hostname()
	}
	if entry.User == "" {
		entry.User = os.Getenv("USER")
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("could not create audit directory: %w", err)
	}
	if LogSize(l.path) > MaxSize {
		if err := os.Rename(l.path, l.path+".1"); err != nil {
			return fmt.Errorf("could not rotate audit log: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("could not open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// ReadEntries reads every entry of the log. A missing file has no entries;
// malformed lines are skipped.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

// Filter selects entries. Zero fields match everything.
type Filter struct {
	Since   time.Time
	Until   time.Time
	Command string
	User    string
	Failed  bool
}

// FilterEntries returns the entries matching f, in log order.
func FilterEntries(entries []Entry, f Filter) []Entry {
	var result []Entry
	for _, e := range entries {
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
			continue
		}
		if f.Command != "" && !strings.Contains(e.Command, f.Command) {
			continue
		}
		if f.User != "" && e.User != f.User {
			continue
		}
		if f.Failed && e.ExitCode == 0 {
			continue
		}
		result = append(result, e)
	}
	return result
}

// Last returns at most the n most recent entries.
func Last(entries []Entry, n int) []Entry {
	if n > 0 && len(entries) > n {
		return entries[len(entries)-n:]
	}
	return entries
}

// Stats aggregates a set of entries.
type Stats struct {
	Total       int            `json:"total_commands"`
	ByCommand   map[string]int `json:"by_command"`
	AvgDuration float64        `json:"avg_duration_ms"`
	Errors      int            `json:"error_count"`
	First       time.Time      `json:"first,omitzero"`
	Last        time.Time      `json:"last,omitzero"`
}

// Summarize counts entries per command, failures and mean duration.
func Summarize(entries []Entry) Stats {
	st := Stats{ByCommand: make(map[string]int)}
	var total int64
	for _, e := range entries {
		st.Total++
		st.ByCommand[e.Command]++
		total += e.DurationMs
		if e.ExitCode != 0 {
			st.Errors++
		}
		if st.First.IsZero() || e.Timestamp.Before(st.First) {
			st.First = e.Timestamp
		}
		if e.Timestamp.After(st.Last) {
			st.Last = e.Timestamp
		}
	}
	if st.Total > 0 {
		st.AvgDuration = float64(total) / float64(st.Total)
	}
	return st
}

// LogSize returns the size of the log in bytes, or 0 if it does not exist.
func LogSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Clear truncates the log. Clearing a missing log is not an error.
func Clear(path string) error {
	if err := os.Truncate(path, 0); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

var (
	emailPattern  = regexp.MustCompile(`[\w.+-]+@[\w-]+(\.[\w-]+)+`)
	digitsPattern = regexp.MustCompile(`\(?\d[\d.\-/() ]{6,}\d`)
)

// Redact masks e-mail addresses and long digit runs (CPF, CNPJ, phone
// numbers with area code) in args. A run needs ten digits once separators
// are dropped, so dates survive.
func Redact(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		arg = emailPattern.ReplaceAllString(arg, "[email]")
		arg = digitsPattern.ReplaceAllStringFunc(arg, func(m string) string {
			n := 0
			for _, r := range m {
				if r >= '0' && r <= '9' {
					n++
				}
			}
			if n < 10 {
				return m
			}
			return "[número]"
		})
		out[i] = arg
	}
	return out
}
