// Package diff compares two tables row by row and groups the changes into
// unified-diff hunks.
package diff

import (
	"fmt"
	"strings"

	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/table"
)

// MaxExactCells bounds the LCS table of an exact diff. Beyond it rows are
// matched as a multiset and reordering is not reported.
const MaxExactCells = 4_000_000

// Result holds the result of comparing two tables.
type Result struct {
	Original       string   `json:"original"`
	Revised        string   `json:"revised"`
	Columns        []string `json:"columns"`
	AddedColumns   []string `json:"addedColumns"`
	RemovedColumns []string `json:"removedColumns"`
	Insertions     int      `json:"insertions"`
	Deletions      int      `json:"deletions"`
	Unchanged      int      `json:"unchanged"`
	Exact          bool     `json:"exact"`
	Hunks          []Hunk   `json:"hunks"`
}

// Hunk represents a contiguous group of changed rows.
type Hunk struct {
	Header string `json:"header"`
	Lines  []Line `json:"lines"`
}

// Line is one row of a hunk.
type Line struct {
	Type    string `json:"type"` // "insert", "delete", "context"
	Content string `json:"content"`
	OldRow  int    `json:"oldRow,omitempty"`
	NewRow  int    `json:"newRow,omitempty"`
}

// Tables diffs the rows of a and b over the columns they share, in a's
// column order. Columns present on one side only are listed separately.
// A negative contextRows means 3.
func Tables(a, b *table.Table, aName, bName string, contextRows int) *Result {
	if contextRows < 0 {
		contextRows = 3
	}
	shared, removed := split(a.Columns(), b)
	_, added := split(b.Columns(), a)

	res := &Result{
		Original:       aName,
		Revised:        bName,
		Columns:        shared,
		AddedColumns:   nonNil(added),
		RemovedColumns: nonNil(removed),
	}

	rowsA, rowsB := render(a, shared), render(b, shared)
	var ops []editOp
	ops, res.Exact = editScript(rowsA, rowsB)

	for _, op := range ops {
		switch op.Op {
		case "=":
			res.Unchanged++
		case "+":
			res.Insertions++
		case "-":
			res.Deletions++
		}
	}
	res.Hunks = buildHunks(ops, contextRows)
	return res
}

// Changed reports whether the tables differ in rows or columns.
func (r *Result) Changed() bool {
	return r.Insertions+r.Deletions+len(r.AddedColumns)+len(r.RemovedColumns) > 0
}

// Stats returns a single-line summary.
func (r *Result) Stats() string {
	s := fmt.Sprintf("%d linhas inseridas, %d removidas, %d iguais", r.Insertions, r.Deletions, r.Unchanged)
	if n := len(r.AddedColumns) + len(r.RemovedColumns); n > 0 {
		s += fmt.Sprintf(", %d colunas alteradas", n)
	}
	return s
}

// Write prints the diff with deletions in red and insertions in green.
func (r *Result) Write(w *output.Writer) {
	w.Failure(fmt.Sprintf("--- %s  (%d linhas)", r.Original, r.Unchanged+r.Deletions))
	w.Success(fmt.Sprintf("+++ %s  (%d linhas)", r.Revised, r.Unchanged+r.Insertions))
	for _, c := range r.RemovedColumns {
		w.Failure("- coluna " + c)
	}
	for _, c := range r.AddedColumns {
		w.Success("+ coluna " + c)
	}
	if len(r.Columns) > 0 {
		w.Dim("  " + strings.Join(r.Columns, " | "))
	}

	for _, h := range r.Hunks {
		w.WriteLn("")
		w.Heading(h.Header)
		for _, l := range h.Lines {
			switch l.Type {
			case "context":
				w.Dim("  " + l.Content)
			case "delete":
				w.Failure("- " + l.Content)
			case "insert":
				w.Success("+ " + l.Content)
			}
		}
	}
	w.WriteLn("\n" + r.Stats())
	if !r.Exact {
		w.Warn("Tabelas grandes: linhas comparadas sem considerar a ordem.")
	}
}

// split partitions cols into those other has and those it lacks.
func split(cols []string, other *table.Table) (shared, missing []string) {
	for _, c := range cols {
		if other.Has(c) {
			shared = append(shared, c)
		} else {
			missing = append(missing, c)
		}
	}
	return shared, missing
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// render turns each row into one line of its cells in cols.
func render(t *table.Table, cols []string) []string {
	out := make([]string, t.Len())
	cells := make([]string, len(cols))
	for r := range out {
		for i, c := range cols {
			v := t.Cell(r, c)
			if v.IsNull() {
				cells[i] = "∅"
			} else {
				cells[i] = v.Text()
			}
		}
		out[r] = strings.Join(cells, " | ")
	}
	return out
}

type editOp struct {
	Op   string // "=", "+", "-"
	Text string
}

// editScript trims the common prefix and suffix, then runs an LCS diff on
// the rest when it fits in MaxExactCells. It reports whether the script is
// exact.
func editScript(a, b []string) ([]editOp, bool) {
	pre := 0
	for pre < len(a) && pre < len(b) && a[pre] == b[pre] {
		pre++
	}
	suf := 0
	for suf < len(a)-pre && suf < len(b)-pre && a[len(a)-1-suf] == b[len(b)-1-suf] {
		suf++
	}

	ops := make([]editOp, 0, len(a)+len(b))
	for _, s := range a[:pre] {
		ops = append(ops, editOp{Op: "=", Text: s})
	}
	midA, midB := a[pre:len(a)-suf], b[pre:len(b)-suf]
	exact := (len(midA)+1)*(len(midB)+1) <= MaxExactCells
	if exact {
		ops = append(ops, lcsDiff(midA, midB)...)
	} else {
		ops = append(ops, multisetDiff(midA, midB)...)
	}
	for _, s := range a[len(a)-suf:] {
		ops = append(ops, editOp{Op: "=", Text: s})
	}
	return ops, exact
}

// lcsDiff computes the shortest edit script between a and b.
func lcsDiff(a, b []string) []editOp {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return nil
	}

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			switch {
			case a[i-1] == b[j-1]:
				dp[i][j] = dp[i-1][j-1] + 1
			case dp[i-1][j] >= dp[i][j-1]:
				dp[i][j] = dp[i-1][j]
			default:
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	var ops []editOp
	i, j := n, m
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			ops = append(ops, editOp{Op: "=", Text: a[i-1]})
			i--
			j--
		case dp[i][j-1] >= dp[i-1][j]:
			// ops are reversed below, so on ties the delete ends up first
			ops = append(ops, editOp{Op: "+", Text: b[j-1]})
			j--
		default:
			ops = append(ops, editOp{Op: "-", Text: a[i-1]})
			i--
		}
	}
	for ; i > 0; i-- {
		ops = append(ops, editOp{Op: "-", Text: a[i-1]})
	}
	for ; j > 0; j-- {
		ops = append(ops, editOp{Op: "+", Text: b[j-1]})
	}

	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}

// multisetDiff keeps a's order: rows of a found in b are unchanged, the
// rest deleted, and rows of b left over are inserted at the end.
func multisetDiff(a, b []string) []editOp {
	counts := make(map[string]int, len(b))
	for _, s := range b {
		counts[s]++
	}
	ops := make([]editOp, 0, len(a)+len(b))
	for _, s := range a {
		if counts[s] > 0 {
			counts[s]--
			ops = append(ops, editOp{Op: "=", Text: s})
		} else {
			ops = append(ops, editOp{Op: "-", Text: s})
		}
	}
	for _, s := range b {
		if counts[s] > 0 {
			counts[s]--
			ops = append(ops, editOp{Op: "+", Text: s})
		}
	}
	return ops
}

// buildHunks groups edit operations into hunks with context rows.
func buildHunks(ops []editOp, contextRows int) []Hunk {
	type span struct{ start, end int }
	var changes []span
	for i, op := range ops {
		if op.Op == "=" {
			continue
		}
		if len(changes) > 0 && i-changes[len(changes)-1].end <= 2*contextRows {
			changes[len(changes)-1].end = i + 1
		} else {
			changes = append(changes, span{start: i, end: i + 1})
		}
	}

	var hunks []Hunk
	for _, c := range changes {
		start := max(c.start-contextRows, 0)
		end := min(c.end+contextRows, len(ops))

		oldStart, newStart := 1, 1
		for _, op := range ops[:start] {
			if op.Op != "+" {
				oldStart++
			}
			if op.Op != "-" {
				newStart++
			}
		}

		var lines []Line
		oldRow, newRow := oldStart, newStart
		for _, op := range ops[start:end] {
			switch op.Op {
			case "=":
				lines = append(lines, Line{Type: "context", Content: op.Text, OldRow: oldRow, NewRow: newRow})
				oldRow++
				newRow++
			case "-":
				lines = append(lines, Line{Type: "delete", Content: op.Text, OldRow: oldRow})
				oldRow++
			case "+":
				lines = append(lines, Line{Type: "insert", Content: op.Text, NewRow: newRow})
				newRow++
			}
		}

		hunks = append(hunks, Hunk{
			Header: fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldRow-oldStart, newStart, newRow-newStart),
			Lines:  lines,
		})
	}
	return hunks
}
