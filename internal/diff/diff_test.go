package diff

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/table"
)

func names(rows ...string) *table.Table {
	data := make([][]table.Value, len(rows))
	for i, r := range rows {
		data[i] = []table.Value{table.String(r)}
	}
	return table.MustFromRows([]string{"Nome"}, data)
}

func count(ops []editOp, op string) int {
	n := 0
	for _, o := range ops {
		if o.Op == op {
			n++
		}
	}
	return n
}

func TestLCSDiffIdentical(t *testing.T) {
	lines := []string{"alpha", "beta", "gamma"}
	ops := lcsDiff(lines, lines)
	require.Len(t, ops, 3)
	assert.Equal(t, 3, count(ops, "="))
}

func TestLCSDiffInsertion(t *testing.T) {
	ops := lcsDiff([]string{"alpha", "gamma"}, []string{"alpha", "beta", "gamma"})
	require.Equal(t, 1, count(ops, "+"))
	for _, op := range ops {
		if op.Op == "+" {
			assert.Equal(t, "beta", op.Text)
		}
	}
}

func TestLCSDiffDeletion(t *testing.T) {
	ops := lcsDiff([]string{"alpha", "beta", "gamma"}, []string{"alpha", "gamma"})
	require.Equal(t, 1, count(ops, "-"))
	assert.Equal(t, "-", ops[1].Op)
	assert.Equal(t, "beta", ops[1].Text)
}

func TestLCSDiffEmpty(t *testing.T) {
	assert.Empty(t, lcsDiff(nil, nil))
	assert.Equal(t, 2, count(lcsDiff(nil, []string{"a", "b"}), "+"))
	assert.Equal(t, 2, count(lcsDiff([]string{"a", "b"}, nil), "-"))
}

func TestLCSDiffDeterministic(t *testing.T) {
	a := []string{"a", "b", "c", "d"}
	b := []string{"a", "x", "c", "y"}
	assert.Equal(t, lcsDiff(a, b), lcsDiff(a, b))
}

func TestMultisetDiffIgnoresOrder(t *testing.T) {
	ops := multisetDiff([]string{"a", "b", "a"}, []string{"b", "a", "c"})
	assert.Equal(t, []editOp{
		{Op: "=", Text: "a"},
		{Op: "=", Text: "b"},
		{Op: "-", Text: "a"},
		{Op: "+", Text: "c"},
	}, ops)
}

func TestTablesIdentical(t *testing.T) {
	a := names("Ana", "Bruno", "Carla")
	res := Tables(a, a.Clone(), "a", "b", 3)
	assert.False(t, res.Changed())
	assert.Equal(t, 3, res.Unchanged)
	assert.Empty(t, res.Hunks)
	assert.True(t, res.Exact)
}

func TestTablesRemovedDuplicate(t *testing.T) {
	res := Tables(names("Ana", "Bruno", "Ana"), names("Ana", "Bruno"), "a", "b", 3)
	assert.Equal(t, 1, res.Deletions)
	assert.Equal(t, 0, res.Insertions)
	assert.Equal(t, 2, res.Unchanged)
	require.Len(t, res.Hunks, 1)
	assert.Equal(t, "@@ -1,3 +1,2 @@", res.Hunks[0].Header)
}

func TestTablesColumnChanges(t *testing.T) {
	a := table.MustFromRows([]string{"Nome", "CPF"}, [][]table.Value{
		{table.String("Ana"), table.String("123")},
	})
	b := table.MustFromRows([]string{"Nome", "Primeiro Nome"}, [][]table.Value{
		{table.String("Ana"), table.String("Ana")},
	})
	res := Tables(a, b, "a", "b", 3)
	assert.Equal(t, []string{"Nome"}, res.Columns)
	assert.Equal(t, []string{"CPF"}, res.RemovedColumns)
	assert.Equal(t, []string{"Primeiro Nome"}, res.AddedColumns)
	assert.Equal(t, 1, res.Unchanged)
	assert.True(t, res.Changed())
}

func TestTablesCompletelyReplaced(t *testing.T) {
	res := Tables(names("a", "b"), names("x", "y", "z"), "a", "b", 3)
	assert.Equal(t, 2, res.Deletions)
	assert.Equal(t, 3, res.Insertions)
	assert.Equal(t, 0, res.Unchanged)
}

func TestHunkContextAndRowNumbers(t *testing.T) {
	rows := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	changed := append([]string{}, rows...)
	changed[6] = "sete"
	res := Tables(names(rows...), names(changed...), "a", "b", 1)

	require.Len(t, res.Hunks, 1)
	h := res.Hunks[0]
	assert.Equal(t, "@@ -6,3 +6,3 @@", h.Header)
	require.Len(t, h.Lines, 4)
	assert.Equal(t, Line{Type: "context", Content: "6", OldRow: 6, NewRow: 6}, h.Lines[0])
	assert.Equal(t, Line{Type: "delete", Content: "7", OldRow: 7}, h.Lines[1])
	assert.Equal(t, Line{Type: "insert", Content: "sete", NewRow: 7}, h.Lines[2])
	assert.Equal(t, Line{Type: "context", Content: "8", OldRow: 8, NewRow: 8}, h.Lines[3])
}

func TestDistantChangesSplitHunks(t *testing.T) {
	rows := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	changed := append([]string{}, rows...)
	changed[0], changed[9] = "um", "dez"
	res := Tables(names(rows...), names(changed...), "a", "b", 1)
	assert.Len(t, res.Hunks, 2)
}

func TestNullCellsRendered(t *testing.T) {
	a := table.MustFromRows([]string{"Nome"}, [][]table.Value{{table.Null()}})
	b := names("")
	res := Tables(a, b, "a", "b", 0)
	assert.Equal(t, 1, res.Deletions)
	assert.Equal(t, "∅", res.Hunks[0].Lines[0].Content)
}

func TestStats(t *testing.T) {
	res := &Result{Insertions: 2, Deletions: 1, Unchanged: 5}
	assert.Equal(t, "2 linhas inseridas, 1 removidas, 5 iguais", res.Stats())

	res.AddedColumns = []string{"x"}
	assert.Contains(t, res.Stats(), "1 colunas alteradas")
}

func TestWrite(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	w := output.NewWriterTo(&buf, output.FormatText)

	res := Tables(names("Ana", "Bruno"), names("Ana", "Bia"), "antes.csv", "depois.csv", 3)
	res.Write(w)

	out := buf.String()
	assert.Contains(t, out, "--- antes.csv")
	assert.Contains(t, out, "+++ depois.csv")
	assert.Contains(t, out, "- Bruno")
	assert.Contains(t, out, "+ Bia")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "1 linhas inseridas, 1 removidas, 1 iguais"))
}
