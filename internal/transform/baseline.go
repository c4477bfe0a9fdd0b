package transform

import (
	"regexp"
	"sort"
	"strings"

	"github.com/klytics/sheetkit/internal/intent"
	"github.com/klytics/sheetkit/internal/resolve"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
)

// DefaultColumnName is used when a create command names no column.
const DefaultColumnName = "NOVA_COLUNA"

// Output column names.
const (
	ColFirstName = "primeiro_nome"
	ColLastName  = "ultimo_nome"
	ColTaxBase   = "cnpj_base"
	ColTaxBranch = "cnpj_filial"
	ColTaxCheck  = "cnpj_dv"
	ColAreaCode  = "DDD"
	ColDomain    = "dominio"
)

var areaCodePattern = regexp.MustCompile(`\(?(\d{2})\)?`)

var baselineOps = map[intent.Intent]operation{
	intent.CreateColumn:     createColumn,
	intent.SplitName:        splitName,
	intent.SplitTaxID:       splitTaxID,
	intent.CleanTaxID:       cleanTaxID,
	intent.CleanEmail:       cleanEmail,
	intent.CleanPhone:       cleanPhone,
	intent.RemoveDuplicates: removeDuplicates,
	intent.RemoveEmptyRows:  removeEmptyRows,
	intent.Sort:             sortRows,
	intent.ToUpper:          caseConvert(strings.ToUpper, "✅ Textos convertidos para MAIÚSCULA"),
	intent.ToLower:          caseConvert(strings.ToLower, "✅ Textos convertidos para minúscula"),
	intent.AddAreaCode:      addAreaCode,
	intent.AddEmailDomain:   addEmailDomain,
}

func createColumn(_ *Executor, t *table.Table, p intent.Params) *Result {
	name := p.ColumnName
	if name == "" {
		name = DefaultColumnName
	}
	v := table.Null()
	if p.Value != nil {
		v = table.String(*p.Value)
	}
	mustFill(t, name, v)
	if p.Value != nil {
		return done(t, t.Len(), "✅ Coluna '%s' criada com valor \"%s\"", name, *p.Value)
	}
	return done(t, t.Len(), "✅ Coluna '%s' criada (vazia)", name)
}

func mustFill(t *table.Table, name string, v table.Value) {
	if err := t.Fill(name, v); err != nil {
		panic(err)
	}
}

// SplitPersonName splits a full name into its first token and the rest.
func SplitPersonName(v table.Value) (first, rest table.Value) {
	if v.IsNull() {
		return table.Null(), table.Null()
	}
	parts := strings.Fields(v.Text())
	switch len(parts) {
	case 0:
		return table.Null(), table.Null()
	case 1:
		return table.String(parts[0]), table.Null()
	}
	return table.String(parts[0]), table.String(strings.Join(parts[1:], " "))
}

func splitName(_ *Executor, t *table.Table, _ intent.Params) *Result {
	col, ok := resolve.Column(resolve.PersonName, t.Columns())
	if !ok {
		return notFound(resolve.PersonName)
	}
	n := derive(t, col, ColFirstName, func(v table.Value) table.Value {
		first, _ := SplitPersonName(v)
		return first
	})
	derive(t, col, ColLastName, func(v table.Value) table.Value {
		_, rest := SplitPersonName(v)
		return rest
	})
	return done(t, n, "✅ Nomes separados em '%s' e '%s'", ColFirstName, ColLastName)
}

func digitsOf(v table.Value) string {
	if v.IsNull() {
		return ""
	}
	return textnorm.Digits(v.Text())
}

func splitTaxID(_ *Executor, t *table.Table, _ intent.Params) *Result {
	col, ok := resolve.Column(resolve.TaxID, t.Columns())
	if !ok {
		return notFound(resolve.TaxID)
	}
	part := func(from, to int, fallback bool) func(table.Value) table.Value {
		return func(v table.Value) table.Value {
			d := digitsOf(v)
			if len(d) == 14 {
				return table.String(d[from:to])
			}
			if fallback {
				return table.StringOrNull(d)
			}
			return table.Null()
		}
	}
	n := derive(t, col, ColTaxBase, part(0, 8, true))
	derive(t, col, ColTaxBranch, part(8, 12, false))
	derive(t, col, ColTaxCheck, part(12, 14, false))
	return done(t, n, "✅ CNPJ separado em base, filial e DV")
}

// FormatCNPJ renders 14 digits as NN.NNN.NNN/NNNN-NN. Any other digit count
// is returned as the bare digits, or null when there are none.
func FormatCNPJ(v table.Value) table.Value {
	d := digitsOf(v)
	if len(d) != 14 {
		return table.StringOrNull(d)
	}
	return table.String(d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:])
}

func cleanTaxID(_ *Executor, t *table.Table, _ intent.Params) *Result {
	col, ok := resolve.Column(resolve.CNPJ, t.Columns())
	if !ok {
		return notFound(resolve.CNPJ)
	}
	mapColumn(t, col, FormatCNPJ)
	valid := 0
	for r := 0; r < t.Len(); r++ {
		if !t.Cell(r, col).IsNull() {
			valid++
		}
	}
	return done(t, valid, "✅ %d CNPJs limpos e formatados", valid)
}

func cleanEmail(_ *Executor, t *table.Table, _ intent.Params) *Result {
	col, ok := resolve.Column(resolve.Email, t.Columns())
	if !ok {
		return notFound(resolve.Email)
	}
	n := mapColumn(t, col, func(v table.Value) table.Value {
		s, ok := v.Str()
		if !ok {
			return v
		}
		return table.StringOrNull(strings.ToLower(strings.TrimSpace(s)))
	})
	return done(t, n, "✅ %d emails padronizados", n)
}

func cleanPhone(_ *Executor, t *table.Table, _ intent.Params) *Result {
	col, ok := resolve.Column(resolve.Phone, t.Columns())
	if !ok {
		return notFound(resolve.Phone)
	}
	n := mapColumn(t, col, func(v table.Value) table.Value {
		if v.IsNull() {
			return v
		}
		return table.StringOrNull(digitsOf(v))
	})
	return done(t, n, "✅ %d telefones limpos", n)
}

// Dedupe keeps the first occurrence of every distinct row.
func Dedupe(t *table.Table) *table.Table {
	seen := make(map[string]bool, t.Len())
	return t.Filter(func(r int) bool {
		k := t.RowKey(r)
		if seen[k] {
			return false
		}
		seen[k] = true
		return true
	})
}

func removeDuplicates(_ *Executor, t *table.Table, _ intent.Params) *Result {
	out := Dedupe(t)
	removed := t.Len() - out.Len()
	return done(out, removed, "✅ %d duplicatas removidas. Restam %d linhas", removed, out.Len())
}

func removeEmptyRows(_ *Executor, t *table.Table, _ intent.Params) *Result {
	cols := t.Columns()
	out := t.Filter(func(r int) bool {
		for _, c := range cols {
			if !t.Cell(r, c).IsBlank() {
				return true
			}
		}
		return false
	})
	removed := t.Len() - out.Len()
	return done(out, removed, "✅ %d linhas vazias removidas. Restam %d linhas", removed, out.Len())
}

// SortBy returns t stably ordered by column. Nulls sort last in either
// direction.
func SortBy(t *table.Table, column string, ascending bool) *table.Table {
	vals, _ := t.Column(column)
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := vals[idx[i]], vals[idx[j]]
		if a.IsNull() || b.IsNull() {
			return !a.IsNull() && b.IsNull()
		}
		if ascending {
			return a.Compare(b) < 0
		}
		return a.Compare(b) > 0
	})
	return t.Select(idx)
}

func sortRows(_ *Executor, t *table.Table, p intent.Params) *Result {
	if p.Column == "" {
		return fail("Informe a coluna para ordenar, por exemplo: 'Ordenar por nome'")
	}
	col, ok := resolve.Column(resolve.Keyword(p.Column), t.Columns())
	if !ok {
		return fail("Coluna '%s' não encontrada", p.Column)
	}
	dir := "A-Z"
	if !p.IsAscending() {
		dir = "Z-A"
	}
	return done(SortBy(t, col, p.IsAscending()), t.Len(), "✅ Ordenado por '%s' %s", col, dir)
}

func caseConvert(fn func(string) string, msg string) operation {
	return func(_ *Executor, t *table.Table, _ intent.Params) *Result {
		n := 0
		for _, c := range textColumns(t) {
			n += mapColumn(t, c, onStrings(fn))
		}
		return done(t, n, "%s", msg)
	}
}

func addAreaCode(_ *Executor, t *table.Table, _ intent.Params) *Result {
	col, ok := resolve.Column(resolve.Phone, t.Columns())
	if !ok {
		return notFound(resolve.Phone)
	}
	n := derive(t, col, ColAreaCode, func(v table.Value) table.Value {
		if v.IsNull() {
			return v
		}
		if m := areaCodePattern.FindStringSubmatch(v.Text()); m != nil {
			return table.String(m[1])
		}
		return table.Null()
	})
	return done(t, n, "✅ %d DDDs extraídos", n)
}

// EmailDomain returns the part of an email between its first and second
// "@", or null when v is not a string containing one.
func EmailDomain(v table.Value) table.Value {
	s, ok := v.Str()
	if !ok {
		return table.Null()
	}
	parts := strings.Split(s, "@")
	if len(parts) < 2 {
		return table.Null()
	}
	return table.String(parts[1])
}

func addEmailDomain(_ *Executor, t *table.Table, _ intent.Params) *Result {
	col, ok := resolve.Column(resolve.Email, t.Columns())
	if !ok {
		return notFound(resolve.Email)
	}
	n := derive(t, col, ColDomain, EmailDomain)
	return done(t, n, "✅ %d domínios extraídos", n)
}
