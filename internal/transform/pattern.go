package transform

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/klytics/sheetkit/internal/intent"
	"github.com/klytics/sheetkit/internal/resolve"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
)

// Columns added by pattern operations.
const (
	ColToday     = "DATA_HOJE"
	ColYear      = "ANO"
	ColMonth     = "MES"
	ValidSuffix  = "_VALIDO"
	CopySuffix   = "_COPIA"
	maxValueRows = 10
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	dateLayouts  = []string{"2006-01-02", "02/01/2006", "2006-01-02 15:04:05", time.RFC3339, "02-01-2006", "2006/01/02"}
	dateRole     = resolve.Role{Name: "data", Keywords: []string{"data", "date", "nascimento"}}
)

var patternOps = map[intent.Intent]operation{
	intent.CountEmpty:       countEmpty,
	intent.Statistics:       statistics,
	intent.DetectDuplicates: detectDuplicates,
	intent.SumColumn:        aggregate("Soma", sum),
	intent.AverageColumn:    aggregate("Média", func(xs []float64) float64 { return sum(xs) / float64(len(xs)) }),
	intent.CountValues:      countValues,
	intent.ValidateEmail:    validate(resolve.Email, "emails", ValidEmail),
	intent.ValidateTaxID:    validate(resolve.CNPJ, "CNPJs", ValidCNPJ),
	intent.ValidatePhone:    validate(resolve.Phone, "telefones", ValidPhone),
	intent.TrimSpaces:       rewriteText(collapseSpaces, "✅ Espaços extras removidos"),
	intent.NormalizeText:    rewriteText(func(s string) string { return collapseSpaces(textnorm.Normalize(s)) }, "✅ Texto normalizado"),
	intent.Capitalize:       rewriteText(Capitalize, "✅ Textos capitalizados"),
	intent.AddTodayDate:     addToday,
	intent.ExtractYear:      extractDatePart(ColYear, func(d time.Time) float64 { return float64(d.Year()) }),
	intent.ExtractMonth:     extractDatePart(ColMonth, func(d time.Time) float64 { return float64(d.Month()) }),
	intent.DuplicateColumn:  duplicateColumn,
	intent.FormatCurrency:   formatNumbers(FormatCurrency, "moeda"),
	intent.FormatPercent:    formatNumbers(FormatPercent, "percentual"),
}

// target picks the column the command named, falling back to role.
func target(t *table.Table, p intent.Params, role resolve.Role) (string, bool) {
	if p.TargetColumn != "" && t.Has(p.TargetColumn) {
		return p.TargetColumn, true
	}
	return resolve.Column(role, t.Columns())
}

// numbers returns the numeric readings of a column's non-blank cells and
// whether every such cell was numeric.
func numbers(t *table.Table, col string) ([]float64, bool) {
	var out []float64
	all := true
	for r := 0; r < t.Len(); r++ {
		v := t.Cell(r, col)
		if v.IsBlank() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			all = false
			continue
		}
		out = append(out, f)
	}
	return out, all && len(out) > 0
}

func numericColumns(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns() {
		if _, ok := numbers(t, c); ok {
			out = append(out, c)
		}
	}
	return out
}

// numericTarget is the named column, or the first all-numeric one.
func numericTarget(t *table.Table, p intent.Params) (string, bool) {
	if p.TargetColumn != "" && t.Has(p.TargetColumn) {
		return p.TargetColumn, true
	}
	cols := numericColumns(t)
	if len(cols) == 0 {
		return "", false
	}
	return cols[0], true
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func countEmpty(_ *Executor, t *table.Table, _ intent.Params) *Result {
	counts := make(map[string]any, t.Width())
	var b strings.Builder
	b.WriteString("📊 Valores vazios por coluna:")
	total := 0
	for _, c := range t.Columns() {
		n := 0
		for r := 0; r < t.Len(); r++ {
			if t.Cell(r, c).IsBlank() {
				n++
			}
		}
		counts[c] = n
		total += n
		fmt.Fprintf(&b, "\n- %s: %d", c, n)
	}
	res := done(t, total, "%s", b.String())
	res.Details = counts
	return res
}

func statistics(_ *Executor, t *table.Table, p intent.Params) *Result {
	cols := numericColumns(t)
	if p.TargetColumn != "" && t.Has(p.TargetColumn) {
		cols = []string{p.TargetColumn}
	}
	if len(cols) == 0 {
		return fail("Nenhuma coluna numérica encontrada para calcular estatísticas")
	}

	details := make(map[string]any, len(cols))
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Estatísticas (%d linhas):", t.Len())
	for _, c := range cols {
		xs, _ := numbers(t, c)
		if len(xs) == 0 {
			continue
		}
		lo, hi := xs[0], xs[0]
		for _, x := range xs {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
		mean := sum(xs) / float64(len(xs))
		details[c] = map[string]any{"count": len(xs), "sum": sum(xs), "mean": mean, "min": lo, "max": hi}
		fmt.Fprintf(&b, "\n- %s: média %s, mín %s, máx %s", c, FormatDecimal(mean), FormatDecimal(lo), FormatDecimal(hi))
	}
	res := done(t, t.Len(), "%s", b.String())
	res.Details = details
	return res
}

func detectDuplicates(_ *Executor, t *table.Table, _ intent.Params) *Result {
	dups := t.Len() - Dedupe(t).Len()
	res := done(t, dups, "🔍 %d linhas duplicadas encontradas", dups)
	res.Details = map[string]any{"duplicadas": dups}
	return res
}

func aggregate(label string, fn func([]float64) float64) operation {
	return func(_ *Executor, t *table.Table, p intent.Params) *Result {
		col, ok := numericTarget(t, p)
		if !ok {
			return fail("Nenhuma coluna numérica encontrada")
		}
		xs, _ := numbers(t, col)
		if len(xs) == 0 {
			return fail("Coluna '%s' não tem valores numéricos", col)
		}
		v := fn(xs)
		res := done(t, len(xs), "📊 %s de '%s': %s", label, col, FormatDecimal(v))
		res.Details = map[string]any{"coluna": col, strings.ToLower(label): v}
		return res
	}
}

func countValues(_ *Executor, t *table.Table, p intent.Params) *Result {
	col := p.TargetColumn
	if col == "" || !t.Has(col) {
		cols := t.Columns()
		if len(cols) == 0 {
			return fail("A planilha não tem colunas")
		}
		col = cols[0]
	}

	counts := make(map[string]int)
	var order []string
	for r := 0; r < t.Len(); r++ {
		v := t.Cell(r, col)
		if v.IsBlank() {
			continue
		}
		k := v.Text()
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %d valores distintos em '%s':", len(order), col)
	details := make(map[string]any, len(order))
	for i, k := range order {
		details[k] = counts[k]
		if i < maxValueRows {
			fmt.Fprintf(&b, "\n- %s: %d", k, counts[k])
		}
	}
	res := done(t, len(order), "%s", b.String())
	res.Details = details
	return res
}

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidCNPJ checks length and both check digits.
func ValidCNPJ(s string) bool {
	d := textnorm.Digits(s)
	if len(d) != 14 || strings.Count(d, d[:1]) == 14 {
		return false
	}
	check := func(n int) byte {
		weight, total := n-7, 0
		for i := 0; i < n; i++ {
			total += int(d[i]-'0') * weight
			weight--
			if weight < 2 {
				weight = 9
			}
		}
		r := total % 11
		if r < 2 {
			return '0'
		}
		return byte('0' + 11 - r)
	}
	return d[12] == check(12) && d[13] == check(13)
}

// ValidPhone accepts Brazilian numbers with area code, optionally prefixed
// by the country code.
func ValidPhone(s string) bool {
	d := textnorm.Digits(s)
	if strings.HasPrefix(d, "55") && (len(d) == 12 || len(d) == 13) {
		return true
	}
	return len(d) == 10 || len(d) == 11
}

func validate(role resolve.Role, noun string, ok func(string) bool) operation {
	return func(_ *Executor, t *table.Table, p intent.Params) *Result {
		col, found := target(t, p, role)
		if !found {
			return notFound(role)
		}
		valid, checked := 0, 0
		derive(t, col, col+ValidSuffix, func(v table.Value) table.Value {
			if v.IsBlank() {
				return table.Null()
			}
			checked++
			if ok(v.Text()) {
				valid++
				return table.Bool(true)
			}
			return table.Bool(false)
		})
		return done(t, valid, "✅ %d de %d %s válidos (coluna '%s')", valid, checked, noun, col+ValidSuffix)
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Capitalize title-cases s using Portuguese rules. Casers hold state, so
// each call gets its own.
func Capitalize(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(strings.ToLower(s))
}

// rewriteText applies fn to the named column, or to every text column.
func rewriteText(fn func(string) string, msg string) operation {
	return func(_ *Executor, t *table.Table, p intent.Params) *Result {
		cols := textColumns(t)
		if p.TargetColumn != "" && t.Has(p.TargetColumn) {
			cols = []string{p.TargetColumn}
		}
		n := 0
		for _, c := range cols {
			n += mapColumn(t, c, onStrings(fn))
		}
		return done(t, n, "%s (%d células alteradas)", msg, n)
	}
}

func addToday(e *Executor, t *table.Table, _ intent.Params) *Result {
	today := e.now().Format("2006-01-02")
	mustFill(t, ColToday, table.String(today))
	return done(t, t.Len(), "✅ Coluna '%s' criada com %s", ColToday, today)
}

// ParseDate reads the date layouts common in Brazilian spreadsheets.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func extractDatePart(dst string, part func(time.Time) float64) operation {
	return func(_ *Executor, t *table.Table, p intent.Params) *Result {
		col, ok := target(t, p, dateRole)
		if !ok {
			return notFound(dateRole)
		}
		n := derive(t, col, dst, func(v table.Value) table.Value {
			d, ok := ParseDate(v.Text())
			if !ok {
				return table.Null()
			}
			return table.Number(part(d))
		})
		return done(t, n, "✅ Coluna '%s' criada a partir de '%s' (%d datas reconhecidas)", dst, col, n)
	}
}

func duplicateColumn(_ *Executor, t *table.Table, p intent.Params) *Result {
	if p.TargetColumn == "" || !t.Has(p.TargetColumn) {
		return fail("Diga qual coluna duplicar, por exemplo: 'Duplicar coluna NOME'")
	}
	vals, _ := t.Column(p.TargetColumn)
	dst := p.TargetColumn + CopySuffix
	mustSet(t, dst, vals)
	return done(t, t.Len(), "✅ Coluna '%s' copiada para '%s'", p.TargetColumn, dst)
}

// FormatDecimal renders f with two decimals in the Brazilian convention.
func FormatDecimal(f float64) string {
	return message.NewPrinter(language.BrazilianPortuguese).Sprintf("%.2f", f)
}

// FormatCurrency renders f as Brazilian reais, e.g. "R$ 1.234,56".
func FormatCurrency(f float64) string {
	return "R$ " + FormatDecimal(f)
}

// FormatPercent renders a fraction as a percentage, e.g. 0.125 as "12,5%".
func FormatPercent(f float64) string {
	return message.NewPrinter(language.BrazilianPortuguese).Sprintf("%.1f", f*100) + "%"
}

func formatNumbers(format func(float64) string, label string) operation {
	return func(_ *Executor, t *table.Table, p intent.Params) *Result {
		col, ok := numericTarget(t, p)
		if !ok {
			return fail("Nenhuma coluna numérica encontrada para formatar como %s", label)
		}
		n := mapColumn(t, col, func(v table.Value) table.Value {
			if v.IsBlank() {
				return v
			}
			f, ok := v.Float()
			if !ok {
				return v
			}
			return table.String(format(f))
		})
		return done(t, n, "✅ %d valores de '%s' formatados como %s", n, col, label)
	}
}
