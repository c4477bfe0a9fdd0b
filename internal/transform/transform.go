// Package transform executes classified commands against a table. Every
// operation runs on a private clone of its input, so a caller's table is
// never modified and a failed operation hands back the original unchanged.
package transform

import (
	"errors"
	"fmt"
	"time"

	"github.com/klytics/sheetkit/internal/intent"
	"github.com/klytics/sheetkit/internal/resolve"
	"github.com/klytics/sheetkit/internal/table"
)

// ErrInternal marks an unexpected fault inside an operation. It is the only
// failure surfaced as a Go error; everything else is a Result.
var ErrInternal = errors.New("internal fault")

// Result is the outcome of one executed command.
type Result struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Table    *table.Table   `json:"data"`
	Intent   intent.Intent  `json:"intent"`
	Affected int            `json:"affected"`
	Details  map[string]any `json:"details,omitempty"`
}

// operation transforms t, which the executor already cloned and owns.
type operation func(e *Executor, t *table.Table, p intent.Params) *Result

// Executor dispatches intents to operations.
type Executor struct {
	now func() time.Time
	ops map[intent.Intent]operation
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock fixes the time source used by date-producing operations.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// NewExecutor returns an executor covering every supported intent.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{now: time.Now, ops: make(map[intent.Intent]operation)}
	for k, v := range baselineOps {
		e.ops[k] = v
	}
	for k, v := range patternOps {
		e.ops[k] = v
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Supports reports whether in has an operation that can run.
func (e *Executor) Supports(in intent.Intent) bool {
	_, ok := e.ops[in]
	return ok
}

// Execute applies c to in. A nil table is treated as empty. The returned
// Result always carries a table: the transformed one on success, in itself
// otherwise.
func (e *Executor) Execute(c intent.Classification, in *table.Table) (res *Result, err error) {
	if in == nil {
		in = &table.Table{}
	}

	op, ok := e.ops[c.Intent]
	if !ok {
		return e.unsupported(c.Intent, in), nil
	}

	defer func() {
		if r := recover(); r != nil {
			res = &Result{Message: "❌ Erro interno ao executar o comando", Table: in, Intent: c.Intent}
			err = fmt.Errorf("%w: %s: %v", ErrInternal, c.Intent, r)
		}
	}()

	res = op(e, in.Clone(), c.Params)
	res.Intent = c.Intent
	if !res.Success || res.Table == nil {
		res.Table = in
		return res, nil
	}
	res.Table.NormalizeNulls()
	return res, nil
}

func (e *Executor) unsupported(in intent.Intent, t *table.Table) *Result {
	if in == intent.Unknown {
		return &Result{Message: "❓ Comando não reconhecido", Table: t, Intent: in}
	}
	return &Result{
		Message: fmt.Sprintf("⚠️ Entendi o pedido (%s), mas essa operação ainda não é suportada", in),
		Table:   t,
		Intent:  in,
	}
}

func done(t *table.Table, affected int, format string, args ...any) *Result {
	return &Result{Success: true, Table: t, Affected: affected, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) *Result {
	return &Result{Message: "❌ " + fmt.Sprintf(format, args...)}
}

// mapColumn rewrites the named column in place with fn and returns how many
// cells changed.
func mapColumn(t *table.Table, name string, fn func(table.Value) table.Value) int {
	vals, _ := t.Column(name)
	changed := 0
	for i, v := range vals {
		nv := fn(v)
		if !nv.Equal(v) {
			changed++
		}
		vals[i] = nv
	}
	mustSet(t, name, vals)
	return changed
}

// derive builds a new column from src with fn and returns how many
// derived cells are non-null.
func derive(t *table.Table, src, dst string, fn func(table.Value) table.Value) int {
	vals, _ := t.Column(src)
	out := make([]table.Value, len(vals))
	n := 0
	for i, v := range vals {
		out[i] = fn(v)
		if !out[i].IsNull() {
			n++
		}
	}
	mustSet(t, dst, out)
	return n
}

// mustSet panics on a length mismatch, which only a bug can cause; Execute
// turns the panic into ErrInternal.
func mustSet(t *table.Table, name string, vals []table.Value) {
	if err := t.SetColumn(name, vals); err != nil {
		panic(err)
	}
}

// textColumns lists the columns holding at least one string cell.
func textColumns(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns() {
		for r := 0; r < t.Len(); r++ {
			if t.Cell(r, c).Kind() == table.KindString {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// onStrings adapts a string function to a cell function that leaves
// non-string cells alone.
func onStrings(fn func(string) string) func(table.Value) table.Value {
	return func(v table.Value) table.Value {
		s, ok := v.Str()
		if !ok {
			return v
		}
		return table.String(fn(s))
	}
}

func notFound(role resolve.Role) *Result {
	return fail("%s", resolve.NotFound(role))
}
