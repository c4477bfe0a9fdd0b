package table

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRowsPadsShortRows(t *testing.T) {
	tbl, err := FromRows([]string{"A", "B"}, [][]Value{{String("x")}, {String("y"), Number(2)}})
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Cell(0, "B").IsNull())
	assert.Equal(t, "2", tbl.Cell(1, "B").Text())
}

func TestFromRowsRejectsLongRows(t *testing.T) {
	_, err := FromRows([]string{"A"}, [][]Value{{String("x"), String("y")}})
	assert.Error(t, err)
}

func TestDuplicateColumnRejected(t *testing.T) {
	_, err := New("A", "A")
	assert.Error(t, err)
}

func TestAddColumnLengthMismatch(t *testing.T) {
	tbl := MustFromRows([]string{"A"}, [][]Value{{String("1")}, {String("2")}})
	err := tbl.AddColumn("B", []Value{String("only one")})
	assert.Error(t, err)
}

func TestSetColumnReplacesInPlace(t *testing.T) {
	tbl := MustFromRows([]string{"A", "B"}, [][]Value{{String("1"), String("2")}})
	require.NoError(t, tbl.SetColumn("A", []Value{String("z")}))

	assert.Equal(t, []string{"A", "B"}, tbl.Columns())
	assert.Equal(t, "z", tbl.Cell(0, "A").Text())
}

func TestCloneIsDeep(t *testing.T) {
	orig := MustFromRows([]string{"A"}, [][]Value{{String("1")}})
	c := orig.Clone()
	require.NoError(t, c.SetColumn("A", []Value{String("changed")}))

	assert.Equal(t, "1", orig.Cell(0, "A").Text())
}

func TestNumberRejectsNaN(t *testing.T) {
	assert.True(t, Number(math.NaN()).IsNull())
	assert.True(t, Number(math.Inf(1)).IsNull())
}

func TestValueFloatCoercion(t *testing.T) {
	tests := []struct {
		in   Value
		want float64
		ok   bool
	}{
		{Number(3.5), 3.5, true},
		{String(" 42 "), 42, true},
		{String("1.234,50"), 1234.5, true},
		{String("abc"), 0, false},
		{Null(), 0, false},
		{Bool(true), 1, true},
	}
	for _, tt := range tests {
		got, ok := tt.in.Float()
		assert.Equal(t, tt.ok, ok, "input %v", tt.in)
		if ok {
			assert.InDelta(t, tt.want, got, 1e-9)
		}
	}
}

func TestCompareOrdersNullLast(t *testing.T) {
	assert.Equal(t, 1, Null().Compare(String("a")))
	assert.Equal(t, -1, String("a").Compare(Null()))
	assert.Equal(t, -1, Number(1).Compare(String("0")))
	assert.Equal(t, -1, String("A").Compare(String("B")))
}

func TestRowKeyDistinguishesKinds(t *testing.T) {
	tbl := MustFromRows([]string{"A"}, [][]Value{{String("1")}, {Number(1)}, {Null()}, {String("")}})
	keys := map[string]bool{}
	for r := 0; r < tbl.Len(); r++ {
		keys[tbl.RowKey(r)] = true
	}
	assert.Len(t, keys, 4)
}

func TestJSONPreservesColumnOrderAndNulls(t *testing.T) {
	tbl := MustFromRows([]string{"Z", "A"}, [][]Value{{Null(), String("")}})
	data, err := json.Marshal(tbl)
	require.NoError(t, err)

	var back Table
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"Z", "A"}, back.Columns())
	assert.True(t, back.Cell(0, "Z").IsNull())
	s, ok := back.Cell(0, "A").Str()
	assert.True(t, ok)
	assert.Equal(t, "", s)
}

func TestFromRecordsInfersColumns(t *testing.T) {
	tbl, err := FromRecords(nil, []map[string]any{{"b": 1.0, "a": "x"}, {"c": true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns())
	assert.True(t, tbl.Cell(0, "c").IsNull())
}

func TestFromRecordsRejectsNestedValues(t *testing.T) {
	_, err := FromRecords([]string{"a"}, []map[string]any{{"a": []any{1}}})
	assert.Error(t, err)
}

func TestFilterAndSlice(t *testing.T) {
	tbl := MustFromRows([]string{"N"}, [][]Value{{Number(1)}, {Number(2)}, {Number(3)}})
	odd := tbl.Filter(func(r int) bool {
		f, _ := tbl.Cell(r, "N").Float()
		return int(f)%2 == 1
	})
	assert.Equal(t, 2, odd.Len())
	assert.Equal(t, 1, tbl.Slice(2, 10).Len())
	assert.Equal(t, 3, tbl.Len())
}

func TestHeadersFillsBlanksAndDeduplicates(t *testing.T) {
	got := Headers([]string{" Nome ", "", "Nome", "Nome_2", "Nome"})
	assert.Equal(t, []string{"Nome", "Coluna 2", "Nome_2", "Nome_2_2", "Nome_3"}, got)
}

func TestWithoutDropsColumns(t *testing.T) {
	tb := MustFromRows([]string{"a", "b", "c"}, [][]Value{{Number(1), Number(2), Number(3)}})
	got := tb.Without("b", "zz")
	assert.Equal(t, []string{"a", "c"}, got.Columns())
	assert.Equal(t, 1, got.Len())
	assert.True(t, got.Has("c"))
	assert.Equal(t, 3, tb.Width())
}
