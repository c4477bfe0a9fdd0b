// Package logging builds the zap loggers used across sheetkit and keeps
// user data out of log lines.
package logging

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MaxCommandLen caps how much of a command is logged.
const MaxCommandLen = 120

// New returns a logger writing to stderr. format is "console" or "json";
// level is any zap level name ("debug", "info", "warn", "error").
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("invalid log format %q (use console or json)", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

var (
	// Runs of 8+ digits, optionally punctuated: phones, CPF, CNPJ.
	digitRun  = regexp.MustCompile(`\d[\d.\-/() ]{6,}\d`)
	emailLike = regexp.MustCompile(`[\w.+\-]+@[\w\-]+\.[\w.\-]+`)
)

// SanitizeCommand prepares a user command for logging: whitespace is
// collapsed, emails and long digit runs are masked and the result is
// truncated to MaxCommandLen.
func SanitizeCommand(cmd string) string {
	s := strings.Join(strings.Fields(cmd), " ")
	s = emailLike.ReplaceAllString(s, "[EMAIL]")
	s = digitRun.ReplaceAllString(s, "[NUM]")
	return Truncate(s, MaxCommandLen)
}
