package pipeline

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klytics/sheetkit/internal/table"
)

// ActionFunc is the signature for step handlers. It receives the current
// table and returns the table for the next step plus a short description
// of what it did.
type ActionFunc func(ctx context.Context, step Step, t *table.Table) (*table.Table, string, error)

// Executor runs recipe steps sequentially, resolving variable
// interpolation between steps.
type Executor struct {
	actions map[string]ActionFunc
	results map[string]*StepResult
	vars    map[string]string
	log     *zap.Logger
	now     func() time.Time
	dryRun  bool
}

// NewExecutor creates an executor with no registered actions. A nil logger
// disables logging.
func NewExecutor(log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		actions: make(map[string]ActionFunc),
		results: make(map[string]*StepResult),
		vars:    make(map[string]string),
		log:     log,
		now:     time.Now,
	}
}

// SetDryRun enables dry-run mode: steps that write files are reported but
// not executed, everything else runs normally.
func (e *Executor) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// SetVar defines a value for ${{ vars.<name> }}.
func (e *Executor) SetVar(name, value string) {
	e.vars[name] = value
}

// SetClock fixes the time used by date interpolation.
func (e *Executor) SetClock(now func() time.Time) {
	e.now = now
}

// RegisterAction adds an action handler to the executor's registry.
func (e *Executor) RegisterAction(name string, fn ActionFunc) {
	e.actions[name] = fn
}

// Run executes all steps of r against t and returns the final table.
// A failing step stops the run unless it sets on_failure: skip, in which
// case the table is passed on unchanged.
func (e *Executor) Run(ctx context.Context, r *Recipe, t *table.Table) (*table.Table, []StepResult, error) {
	if t == nil {
		t = &table.Table{}
	}
	results := make([]StepResult, 0, len(r.Steps))
	e.log.Info("running recipe", zap.String("recipe", r.Name), zap.Int("steps", len(r.Steps)))

	for i, step := range r.Steps {
		if err := ctx.Err(); err != nil {
			return t, results, err
		}
		resolved := e.resolveStepVariables(step)
		log := e.log.With(
			zap.String("step", resolved.ID),
			zap.String("action", resolved.Action),
			zap.Int("index", i+1))

		if e.dryRun && isWriteAction(resolved.Action) {
			msg := fmt.Sprintf("[DRY-RUN] would %s %d rows to %s", resolved.Action, t.Len(), resolved.Path)
			log.Info("step skipped in dry run")
			results = e.keep(results, StepResult{StepID: resolved.ID, Action: resolved.Action, Output: msg, Rows: t.Len(), Skipped: true})
			continue
		}

		action, ok := e.actions[resolved.Action]
		if !ok {
			err := fmt.Errorf("unknown action %q in step %q — registered actions: %v",
				resolved.Action, resolved.ID, e.actionNames())
			if resolved.OnFailure == "skip" {
				log.Warn("step skipped", zap.Error(err))
				results = e.keep(results, StepResult{StepID: resolved.ID, Action: resolved.Action, Rows: t.Len(), Skipped: true, Error: err})
				continue
			}
			return t, results, err
		}

		start := e.now()
		next, output, err := action(ctx, resolved, t)
		result := StepResult{
			StepID:   resolved.ID,
			Action:   resolved.Action,
			Output:   output,
			Duration: e.now().Sub(start),
			Error:    err,
		}

		if err != nil {
			result.Rows = t.Len()
			if resolved.OnFailure == "skip" {
				log.Warn("step failed, skipping", zap.Error(err))
				result.Skipped = true
				results = e.keep(results, result)
				continue
			}
			results = e.keep(results, result)
			return t, results, fmt.Errorf("step %q failed: %w", resolved.ID, err)
		}

		if next != nil {
			t = next
		}
		result.Rows = t.Len()
		results = e.keep(results, result)
		log.Info("step completed",
			zap.Int("rows", t.Len()),
			zap.Duration("elapsed", result.Duration))
	}
	return t, results, nil
}

func (e *Executor) keep(results []StepResult, r StepResult) []StepResult {
	results = append(results, r)
	e.results[r.StepID] = &results[len(results)-1]
	return results
}

func isWriteAction(action string) bool {
	return action == "save" || action == "split"
}

var interpolationPattern = regexp.MustCompile(`\$\{\{\s*([^}]+)\s*\}\}`)

func (e *Executor) resolveStepVariables(step Step) Step {
	resolved := step
	resolved.Command = e.interpolate(step.Command)
	resolved.Template = e.interpolate(step.Template)
	resolved.Path = e.interpolate(step.Path)
	resolved.Sheet = e.interpolate(step.Sheet)

	if resolved.Options != nil {
		newOpts := make(map[string]string, len(resolved.Options))
		for k, v := range resolved.Options {
			newOpts[k] = e.interpolate(v)
		}
		resolved.Options = newOpts
	}
	return resolved
}

func (e *Executor) interpolate(s string) string {
	return interpolationPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := interpolationPattern.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		expr := strings.TrimSpace(inner[1])

		// steps.<id>.output and steps.<id>.rows
		if strings.HasPrefix(expr, "steps.") {
			parts := strings.Split(expr, ".")
			if len(parts) == 3 {
				if result, ok := e.results[parts[1]]; ok {
					switch parts[2] {
					case "output":
						return result.Output
					case "rows":
						return strconv.Itoa(result.Rows)
					}
				}
			}
		}

		switch expr {
		case "date.today":
			return e.now().Format("2006-01-02")
		case "date.now", "date.timestamp":
			return e.now().Format(time.RFC3339)
		}

		if name, ok := strings.CutPrefix(expr, "vars."); ok {
			if v, ok := e.vars[name]; ok {
				return v
			}
			return match
		}
		if name, ok := strings.CutPrefix(expr, "env."); ok {
			return os.Getenv(name)
		}
		return match
	})
}

func (e *Executor) actionNames() []string {
	names := make([]string, 0, len(e.actions))
	for name := range e.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
