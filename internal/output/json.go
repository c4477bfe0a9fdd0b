package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klytics/sheetkit/cmd/version"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, missing file, command not understood
	ExitSystemError = 2 // IO error, database failure, internal fault
)

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool   `json:"ok"`
	Command string `json:"command"`
	Version string `json:"version"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PrintJSONError writes a standard error JSON result to stdout.
func PrintJSONError(cmd string, err error, code int) error {
	return WriteJSONResult(os.Stdout, JSONResult{OK: false, Command: cmd, Error: err.Error(), Code: code})
}

// WriteJSONResult stamps the version on res and encodes it to w.
func WriteJSONResult(w io.Writer, res JSONResult) error {
	res.Version = version.Version
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("could not encode JSON result: %w", err)
	}
	return nil
}

// UserError marks an error caused by the user's input rather than the
// system; ExitCode maps it to ExitUserError.
type UserError struct{ Err error }

func (e *UserError) Error() string { return e.Err.Error() }
func (e *UserError) Unwrap() error { return e.Err }

// UserErrorf builds a UserError.
func UserErrorf(format string, args ...any) error {
	return &UserError{Err: fmt.Errorf(format, args...)}
}

// ExitCode picks the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ExitUserError
	}
	return ExitSystemError
}
