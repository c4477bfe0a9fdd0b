// Package app wires configuration, logging, the command processor and the
// store for the CLI commands.
package app

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/learning"
	"github.com/klytics/sheetkit/internal/logging"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/reshape"
	"github.com/klytics/sheetkit/internal/store"
)

// App holds what a command needs to run.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	JSON    bool
	Verbose bool
	Out     *output.Writer

	store    *store.Store
	learning learning.Store
	memory   *learning.Context
}

// FromCommand loads configuration and applies the root persistent flags
// (--config, --json, --verbose, --mode, --no-color) of cmd.
func FromCommand(cmd *cobra.Command) (*App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg}
	a.JSON, _ = cmd.Flags().GetBool("json")
	a.Verbose, _ = cmd.Flags().GetBool("verbose")
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		cfg.Engine.Mode = mode
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || !cfg.Output.Color {
		color.NoColor = true
	}

	level := cfg.Log.Level
	if a.Verbose {
		level = "debug"
	}
	if a.Log, err = logging.New(level, cfg.Log.Format); err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	if a.JSON {
		format = output.FormatJSON
		os.Setenv("SHEETKIT_JSON", "true")
	}
	a.Out = output.NewWriter(format)
	return a, nil
}

// Store opens the history store on first use. It fails when the store is
// disabled in the configuration.
func (a *App) Store() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if !a.Config.Store.Enabled {
		return nil, output.UserErrorf("the history store is disabled — enable it with 'sheetkit config set store.enabled true'")
	}
	s, err := store.Open(a.Config.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("could not open store %s: %w", a.Config.Store.Path, err)
	}
	a.store = s
	return s, nil
}

// Learning returns the store backing the learning loop: the SQLite store
// when enabled, otherwise an in-memory one that lives as long as the
// process.
func (a *App) Learning() learning.Store {
	if a.learning != nil {
		return a.learning
	}
	if s, err := a.Store(); err == nil {
		a.learning = s
	} else {
		a.learning = learning.NewMemoryStore()
	}
	return a.learning
}

// Memory returns the conversation memory of this process: recent commands
// and the ones that worked, per intent.
func (a *App) Memory() *learning.Context {
	if a.memory == nil {
		a.memory = learning.NewContext(learning.DefaultHistory)
	}
	return a.memory
}

// Processor builds the command processor from the engine settings. Its
// outcomes are recorded in the learning store and in Memory.
func (a *App) Processor() (*assistant.Processor, error) {
	mode, err := assistant.ParseMode(a.Config.Engine.Mode)
	if err != nil {
		return nil, output.UserErrorf("%v", err)
	}
	contacts := reshape.DefaultContactOptions()
	if a.Config.Engine.CountryCode != "" {
		contacts.CountryCode = a.Config.Engine.CountryCode
	}
	if a.Config.Engine.ContactPlaceholder != "" {
		contacts.Placeholder = a.Config.Engine.ContactPlaceholder
	}
	return assistant.New(
		assistant.WithMode(mode),
		assistant.WithLogger(a.Log),
		assistant.WithContactOptions(contacts),
		assistant.WithRecorder(learning.Multi{a.Memory(), a.Learning()}),
	), nil
}

// Close flushes the logger and closes the store.
func (a *App) Close() {
	_ = a.Log.Sync()
	if a.store != nil {
		_ = a.store.Close()
	}
}
