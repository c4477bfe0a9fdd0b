// Package table provides the in-memory spreadsheet model: ordered, uniquely
// named columns of tagged cells aligned by row index.
package table

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Column is a named, ordered sequence of cells.
type Column struct {
	Name   string
	Values []Value
}

// Table is an ordered set of equal-length columns with unique names.
// Operations that change a table work on a Clone; callers treat a Table
// they hand out as immutable.
type Table struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New creates an empty table with the given column names and no rows.
func New(names ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(names))}
	for _, n := range names {
		if err := t.AddColumn(n, nil); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromRows builds a table from column names and row-major cells. Short rows
// are padded with nulls; long rows are an error.
func FromRows(names []string, rows [][]Value) (*Table, error) {
	t, err := New(names...)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("row %d has %d cells but the table has %d columns", i+1, len(row), len(names))
		}
		for c := range t.cols {
			v := Null()
			if c < len(row) {
				v = row[c]
			}
			t.cols[c].Values = append(t.cols[c].Values, v)
		}
	}
	t.rows = len(rows)
	return t, nil
}

// MustFromRows is FromRows for fixtures; it panics on invalid input.
func MustFromRows(names []string, rows [][]Value) *Table {
	t, err := FromRows(names, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the row count.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Width returns the column count.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.cols)
}

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool { return t.Len() == 0 || t.Width() == 0 }

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column named name exists.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, t.rows)
	copy(out, t.cols[i].Values)
	return out, true
}

// Cell returns the value at row r of the named column.
func (t *Table) Cell(r int, name string) Value {
	i, ok := t.index[name]
	if !ok || r < 0 || r >= t.rows {
		return Null()
	}
	return t.cols[i].Values[r]
}

// Row returns a copy of row r in column order.
func (t *Table) Row(r int) []Value {
	out := make([]Value, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Values[r]
	}
	return out
}

// Rows returns all rows in row-major order.
func (t *Table) Rows() [][]Value {
	out := make([][]Value, t.rows)
	for r := range out {
		out[r] = t.Row(r)
	}
	return out
}

// AddColumn appends a column. values may be nil, producing an all-null
// column; otherwise its length must match the row count. On a table without
// columns the first column defines the row count.
func (t *Table) AddColumn(name string, values []Value) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("column name cannot be empty")
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, dup := t.index[name]; dup {
		return fmt.Errorf("duplicate column name %q", name)
	}
	if len(t.cols) == 0 && values != nil {
		t.rows = len(values)
	}
	col, err := t.fit(values)
	if err != nil {
		return fmt.Errorf("column %q: %w", name, err)
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, Column{Name: name, Values: col})
	return nil
}

// SetColumn replaces the named column in place, or appends it when absent.
func (t *Table) SetColumn(name string, values []Value) error {
	i, ok := t.index[name]
	if !ok {
		return t.AddColumn(name, values)
	}
	col, err := t.fit(values)
	if err != nil {
		return fmt.Errorf("column %q: %w", name, err)
	}
	t.cols[i].Values = col
	return nil
}

// Fill sets every cell of the named column to v, appending it when absent.
func (t *Table) Fill(name string, v Value) error {
	vals := make([]Value, t.rows)
	for i := range vals {
		vals[i] = v
	}
	return t.SetColumn(name, vals)
}

func (t *Table) fit(values []Value) ([]Value, error) {
	if values == nil {
		return make([]Value, t.rows), nil
	}
	if len(values) != t.rows {
		return nil, fmt.Errorf("has %d values but the table has %d rows", len(values), t.rows)
	}
	out := make([]Value, len(values))
	copy(out, values)
	return out, nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{
		cols:  make([]Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
		rows:  t.rows,
	}
	for i, col := range t.cols {
		vals := make([]Value, len(col.Values))
		copy(vals, col.Values)
		c.cols[i] = Column{Name: col.Name, Values: vals}
		c.index[col.Name] = i
	}
	return c
}

// Select returns a new table holding the given row indexes in that order.
func (t *Table) Select(rows []int) *Table {
	c := &Table{
		cols:  make([]Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
		rows:  len(rows),
	}
	for i, col := range t.cols {
		vals := make([]Value, len(rows))
		for j, r := range rows {
			vals[j] = col.Values[r]
		}
		c.cols[i] = Column{Name: col.Name, Values: vals}
		c.index[col.Name] = i
	}
	return c
}

// Without returns a copy of t minus the named columns. Unknown names are
// ignored.
func (t *Table) Without(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	c := &Table{index: make(map[string]int, len(t.cols)), rows: t.rows}
	for _, col := range t.cols {
		if drop[col.Name] {
			continue
		}
		vals := make([]Value, len(col.Values))
		copy(vals, col.Values)
		c.index[col.Name] = len(c.cols)
		c.cols = append(c.cols, Column{Name: col.Name, Values: vals})
	}
	return c
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(r int) bool) *Table {
	var idx []int
	for r := 0; r < t.rows; r++ {
		if keep(r) {
			idx = append(idx, r)
		}
	}
	return t.Select(idx)
}

// Slice returns rows [from, to) clamped to the table bounds.
func (t *Table) Slice(from, to int) *Table {
	if from < 0 {
		from = 0
	}
	if to > t.rows {
		to = t.rows
	}
	var idx []int
	for r := from; r < to; r++ {
		idx = append(idx, r)
	}
	return t.Select(idx)
}

// RowKey returns an encoding of row r that is equal for two rows exactly
// when every cell is Equal.
func (t *Table) RowKey(r int) string {
	var b strings.Builder
	for _, c := range t.cols {
		b.WriteString(c.Values[r].key())
		b.WriteByte('|')
	}
	return b.String()
}

// NormalizeNulls collapses every null-equivalent cell (including a NaN or
// infinite number built by hand) to the canonical null, in place.
func (t *Table) NormalizeNulls() *Table {
	for _, c := range t.cols {
		for i, v := range c.Values {
			switch v.kind {
			case KindNull:
				c.Values[i] = Value{}
			case KindNumber:
				c.Values[i] = Number(v.n)
			}
		}
	}
	return t
}

// Equal reports whether two tables have identical columns, order and cells.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() || t.Width() != o.Width() {
		return false
	}
	for i, c := range t.cols {
		oc := o.cols[i]
		if c.Name != oc.Name {
			return false
		}
		for r := range c.Values {
			if !c.Values[r].Equal(oc.Values[r]) {
				return false
			}
		}
	}
	return true
}

// Records returns the rows as maps keyed by column name.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, t.rows)
	for r := range out {
		rec := make(map[string]any, len(t.cols))
		for _, c := range t.cols {
			rec[c.Name] = c.Values[r].Any()
		}
		out[r] = rec
	}
	return out
}

// FromRecords builds a table from record maps. columns fixes the column
// order; when empty the order of first appearance across records is used,
// with keys of each record taken in sorted order.
func FromRecords(columns []string, records []map[string]any) (*Table, error) {
	if len(columns) == 0 {
		columns = inferColumns(records)
	}
	rows := make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, len(columns))
		for c, name := range columns {
			v, err := FromAny(rec[name])
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i+1, name, err)
			}
			row[c] = v
		}
		rows[i] = row
	}
	return FromRows(columns, rows)
}

// Payload is the column-order-preserving wire form of a table.
type Payload struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// MarshalJSON encodes t as a Payload.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(Payload{Columns: t.Columns(), Data: t.Records()})
}

// UnmarshalJSON decodes a Payload into t.
func (t *Table) UnmarshalJSON(data []byte) error {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	decoded, err := FromRecords(p.Columns, p.Data)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

func inferColumns(records []map[string]any) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			cols = append(cols, k)
		}
	}
	return cols
}
