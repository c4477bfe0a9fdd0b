// Package assistant is the single entry point for natural-language commands.
// It routes a command to a help answer, a whole-table reshape or a
// classified transformation, and reports every outcome to a learning
// recorder.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klytics/sheetkit/internal/glossary"
	"github.com/klytics/sheetkit/internal/intent"
	"github.com/klytics/sheetkit/internal/learning"
	"github.com/klytics/sheetkit/internal/reshape"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
	"github.com/klytics/sheetkit/internal/transform"
)

// Mode selects how commands are classified.
type Mode string

const (
	// ModeBaseline uses only the ordered rule table.
	ModeBaseline Mode = "baseline"
	// ModeAdvanced falls back to the pattern table when the rules find
	// nothing.
	ModeAdvanced Mode = "advanced"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeBaseline, ModeAdvanced:
		return m, nil
	default:
		return "", fmt.Errorf("unknown engine mode %q (use baseline or advanced)", s)
	}
}

// Kind tells a caller how to present a Response.
type Kind string

const (
	KindTransform Kind = "transform"
	KindHelp      Kind = "excel_help"
	KindInfo      Kind = "info"
	KindError     Kind = "error"
)

// Response is the outcome of one processed command.
type Response struct {
	Success     bool                `json:"success"`
	Kind        Kind                `json:"type"`
	Message     string              `json:"message"`
	Intent      intent.Intent       `json:"intent,omitempty"`
	Mode        Mode                `json:"mode,omitempty"`
	Table       *table.Table        `json:"data"`
	Affected    int                 `json:"affected,omitempty"`
	Details     map[string]any      `json:"info,omitempty"`
	References  []glossary.Function `json:"references,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

// Processor handles commands. It holds no per-request state and is safe
// for concurrent use as long as its recorder is.
type Processor struct {
	mode     Mode
	exec     *transform.Executor
	glossary *glossary.Glossary
	recorder learning.Recorder
	log      *zap.Logger
	now      func() time.Time
	contacts reshape.ContactOptions
}

// Option configures a Processor.
type Option func(*Processor)

// WithMode sets the classification mode.
func WithMode(m Mode) Option { return func(p *Processor) { p.mode = m } }

// WithRecorder sets where processed commands are reported.
func WithRecorder(r learning.Recorder) Option { return func(p *Processor) { p.recorder = r } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(p *Processor) { p.log = l } }

// WithGlossary replaces the embedded glossary.
func WithGlossary(g *glossary.Glossary) Option { return func(p *Processor) { p.glossary = g } }

// WithClock fixes the time source for dated columns.
func WithClock(now func() time.Time) Option { return func(p *Processor) { p.now = now } }

// WithContactOptions tunes contact-list normalization.
func WithContactOptions(o reshape.ContactOptions) Option {
	return func(p *Processor) { p.contacts = o }
}

// New returns a Processor in advanced mode with the embedded glossary, no
// recorder and a no-op logger.
func New(opts ...Option) *Processor {
	p := &Processor{
		mode:     ModeAdvanced,
		glossary: glossary.Default(),
		log:      zap.NewNop(),
		now:      time.Now,
		contacts: reshape.DefaultContactOptions(),
	}
	for _, o := range opts {
		o(p)
	}
	p.exec = transform.NewExecutor(transform.WithClock(p.now))
	return p
}

// Mode reports the classification mode.
func (p *Processor) Mode() Mode { return p.mode }

// Process applies command to t. A nil or empty t means no spreadsheet is
// loaded. The only error is an internal fault, in which case the input
// table is untouched.
func (p *Processor) Process(ctx context.Context, command string, t *table.Table) (*Response, error) {
	start := p.now()
	if t == nil {
		t = &table.Table{}
	}

	resp, err := p.route(command, t)
	if err != nil {
		p.log.Error("command failed",
			zap.String("command", command),
			zap.Error(err))
		p.record(ctx, command, intent.Unknown, false)
		return nil, err
	}
	resp.Mode = p.mode

	p.log.Debug("command processed",
		zap.String("command", command),
		zap.String("intent", string(resp.Intent)),
		zap.String("mode", string(p.mode)),
		zap.Bool("success", resp.Success),
		zap.Duration("elapsed", p.now().Sub(start)))

	if resp.Kind == KindTransform || resp.Kind == KindError {
		p.record(ctx, command, resp.Intent, resp.Success)
	}
	return resp, nil
}

func (p *Processor) route(command string, t *table.Table) (*Response, error) {
	normalized := textnorm.Normalize(command)
	if t.Empty() {
		return p.help(command, normalized, t), nil
	}
	for _, tr := range triggers {
		if tr.match(normalized) {
			return tr.run(p, command, t), nil
		}
	}
	return p.transform(command, t)
}

func (p *Processor) transform(command string, t *table.Table) (*Response, error) {
	c := intent.Classify(command)
	var suggestions []string
	if !c.Known() && p.mode == ModeAdvanced {
		pr := intent.ClassifyPatterns(command, t)
		c = pr.Classification
		suggestions = pr.Params.Suggestions
	}
	if !c.Known() {
		return p.unknown(command, t, suggestions), nil
	}

	res, err := p.exec.Execute(c, t)
	if err != nil {
		return nil, err
	}
	return &Response{
		Success:  res.Success,
		Kind:     KindTransform,
		Message:  res.Message,
		Intent:   res.Intent,
		Table:    res.Table,
		Affected: res.Affected,
		Details:  res.Details,
	}, nil
}

// record reports an outcome. Recording is observational, so failures are
// logged and otherwise ignored.
func (p *Processor) record(ctx context.Context, command string, in intent.Intent, success bool) {
	if p.recorder == nil {
		return
	}
	err := p.recorder.Record(ctx, learning.Interaction{
		Command: command,
		Intent:  string(in),
		Success: success,
		At:      p.now(),
	})
	if err != nil {
		p.log.Warn("recording interaction", zap.Error(err))
	}
}
