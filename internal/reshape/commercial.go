// Package reshape rebuilds whole tables into fixed layouts: the commercial
// contact base, contact-list imports and sheet parts for export.
package reshape

import (
	"strings"
	"time"

	"github.com/klytics/sheetkit/internal/resolve"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
	"github.com/klytics/sheetkit/internal/transform"
)

// Commercial output columns, in output order.
const (
	ColCompany    = "EMPRESA"
	ColContact    = "NOME_CONTATO"
	ColEmail      = "EMAIL"
	ColPhone      = "TELEFONE"
	ColCNPJ       = "CNPJ"
	ColDomain     = "DOMINIO"
	ColAreaCode   = "DDD"
	ColStatus     = "STATUS"
	ColSignupDate = "DATA_CADASTRO"
)

// CommercialColumns is the fixed commercial schema.
var CommercialColumns = []string{
	ColCompany, ColContact, ColEmail, ColPhone, ColCNPJ,
	ColDomain, ColAreaCode, ColStatus, ColSignupDate,
}

// DefaultStatus fills the STATUS column.
const DefaultStatus = "ATIVO"

// sourceRule maps source columns to a commercial column. A source column is
// claimed by the first rule it satisfies.
type sourceRule struct {
	target string
	role   resolve.Role
	clean  func(table.Value) table.Value
}

var commercialRules = []sourceRule{
	{ColCompany, resolve.Company, trimmed(strings.ToUpper)},
	{ColContact, resolve.PersonName, trimmed(transform.Capitalize)},
	{ColEmail, resolve.Role{Name: "email", Keywords: []string{"email", "mail"}}, trimmed(strings.ToLower)},
	{ColPhone, resolve.Phone, digitsOrNull},
	{ColCNPJ, resolve.CNPJ, transform.FormatCNPJ},
}

// CommercialStats summarizes a commercial reshape.
type CommercialStats struct {
	Rows              int
	Columns           int
	DuplicatesRemoved int
	// Sources maps each filled commercial column to the column it came from.
	Sources map[string]string
}

// Commercial rebuilds t into the commercial schema. EMPRESA falls back to
// the first column when nothing looks like a company. Rows sharing an
// email keep only the first, and the result is sorted by EMPRESA.
func Commercial(t *table.Table, now time.Time) (*table.Table, CommercialStats) {
	stats := CommercialStats{Sources: make(map[string]string)}
	out := &table.Table{}
	rows := t.Len()
	for _, c := range CommercialColumns {
		mustSet(out, c, make([]table.Value, rows))
	}

	for _, src := range t.Columns() {
		for _, rule := range commercialRules {
			if !rule.role.Accepts(src) {
				continue
			}
			if _, taken := stats.Sources[rule.target]; !taken {
				stats.Sources[rule.target] = src
				mustSet(out, rule.target, mapValues(t, src, rule.clean))
			}
			break
		}
	}
	if _, ok := stats.Sources[ColCompany]; !ok && t.Width() > 0 {
		first := t.Columns()[0]
		stats.Sources[ColCompany] = first
		mustSet(out, ColCompany, mapValues(t, first, commercialRules[0].clean))
	}

	emails, _ := out.Column(ColEmail)
	domains := make([]table.Value, rows)
	for i, v := range emails {
		domains[i] = transform.EmailDomain(v)
	}
	mustSet(out, ColDomain, domains)

	phones, _ := out.Column(ColPhone)
	codes := make([]table.Value, rows)
	for i, v := range phones {
		if p, ok := v.Str(); ok && len(p) >= 2 {
			codes[i] = table.String(p[:2])
		}
	}
	mustSet(out, ColAreaCode, codes)

	mustFill(out, ColStatus, table.String(DefaultStatus))
	mustFill(out, ColSignupDate, table.String(now.Format("2006-01-02")))

	if _, ok := stats.Sources[ColEmail]; ok {
		before := out.Len()
		out = dedupeOn(out, ColEmail)
		stats.DuplicatesRemoved = before - out.Len()
	}
	out = transform.SortBy(out, ColCompany, true).NormalizeNulls()

	stats.Rows = out.Len()
	stats.Columns = out.Width()
	return out, stats
}

// dedupeOn keeps the first row for each non-null value of col. Rows where
// col is null are all kept.
func dedupeOn(t *table.Table, col string) *table.Table {
	seen := make(map[string]bool)
	return t.Filter(func(r int) bool {
		v := t.Cell(r, col)
		if v.IsNull() {
			return true
		}
		k := v.Text()
		if seen[k] {
			return false
		}
		seen[k] = true
		return true
	})
}

func mapValues(t *table.Table, col string, fn func(table.Value) table.Value) []table.Value {
	vals, _ := t.Column(col)
	for i, v := range vals {
		vals[i] = fn(v)
	}
	return vals
}

func trimmed(fn func(string) string) func(table.Value) table.Value {
	return func(v table.Value) table.Value {
		if v.IsNull() {
			return v
		}
		return table.StringOrNull(fn(strings.TrimSpace(v.Text())))
	}
}

func digitsOrNull(v table.Value) table.Value {
	if v.IsNull() {
		return v
	}
	return table.StringOrNull(textnorm.Digits(v.Text()))
}

func mustSet(t *table.Table, name string, vals []table.Value) {
	if err := t.SetColumn(name, vals); err != nil {
		panic(err)
	}
}

func mustFill(t *table.Table, name string, v table.Value) {
	if err := t.Fill(name, v); err != nil {
		panic(err)
	}
}
