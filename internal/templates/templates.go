// Package templates holds the named one-click cleanups that can be applied
// to a whole table, each reporting the changes it made.
package templates

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
	"github.com/klytics/sheetkit/internal/transform"
)

var (
	// ErrNotFound is returned for an unknown template ID.
	ErrNotFound = errors.New("Template não encontrado")
	// ErrNoData is returned when the table has no rows.
	ErrNoData = errors.New("Nenhum dado fornecido")
)

// Template describes one cleanup.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	apply func(t *table.Table) (*table.Table, []string)
}

// Result is the cleaned table and a human-readable change list.
type Result struct {
	Table   *table.Table `json:"data"`
	Changes []string     `json:"changes"`
}

var catalogue = []Template{
	{
		ID:          "normalize_contacts",
		Name:        "Normalizar Contatos",
		Description: "Remove duplicatas, padroniza emails e nomes",
		apply:       normalizeContacts,
	},
	{
		ID:          "commercial_base",
		Name:        "Base Comercial",
		Description: "Limpa CNPJ, padroniza empresas e ordena",
		apply:       commercialBase,
	},
	{
		ID:          "powerbi_ready",
		Name:        "Pronto para Power BI",
		Description: "Remove linhas e colunas vazias",
		apply:       powerBIReady,
	},
	{
		ID:          "clean_all",
		Name:        "Limpeza Completa",
		Description: "Remove vazios, duplicatas e caracteres especiais",
		apply:       cleanAll,
	},
}

// All lists the templates in display order.
func All() []Template {
	out := make([]Template, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a template by ID.
func Lookup(id string) (Template, bool) {
	for _, tpl := range catalogue {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return Template{}, false
}

// Apply runs the template id over a copy of t.
func Apply(id string, t *table.Table) (*Result, error) {
	tpl, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if t == nil || t.Len() == 0 {
		return nil, ErrNoData
	}
	out, changes := tpl.apply(t.Clone())
	if changes == nil {
		changes = []string{}
	}
	return &Result{Table: out.NormalizeNulls(), Changes: changes}, nil
}

func normalizeContacts(t *table.Table) (*table.Table, []string) {
	var changes []string
	before := t.Len()
	t = transform.Dedupe(t)
	if removed := before - t.Len(); removed > 0 {
		changes = append(changes, fmt.Sprintf("Removidas %d duplicatas", removed))
	}
	for _, col := range columnsContaining(t, "email") {
		rewrite(t, col, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })
		changes = append(changes, fmt.Sprintf("Emails normalizados em '%s'", col))
	}
	for _, col := range columnsContaining(t, "nome", "name") {
		rewrite(t, col, transform.Capitalize)
		changes = append(changes, fmt.Sprintf("Nomes padronizados em '%s'", col))
	}
	return t, changes
}

func commercialBase(t *table.Table) (*table.Table, []string) {
	var changes []string
	before := t.Len()
	for _, col := range columnsContaining(t, "cnpj") {
		vals, _ := t.Column(col)
		out := make([]table.Value, len(vals))
		for i, v := range vals {
			if v.IsNull() {
				continue
			}
			out[i] = table.String(textnorm.Digits(v.Text()))
		}
		_ = t.SetColumn(col, out)
		changes = append(changes, fmt.Sprintf("CNPJ limpo em '%s'", col))
	}
	companies := columnsContaining(t, "empresa", "company")
	for _, col := range companies {
		rewrite(t, col, func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) })
		changes = append(changes, fmt.Sprintf("Empresas padronizadas em '%s'", col))
	}
	for _, col := range t.Columns() {
		if strings.EqualFold(col, "empresa") {
			t = transform.SortBy(t, col, true)
			changes = append(changes, "Ordenado por empresa")
			break
		}
	}
	t = transform.Dedupe(t)
	if removed := before - t.Len(); removed > 0 {
		changes = append(changes, fmt.Sprintf("Removidas %d duplicatas", removed))
	}
	return t, changes
}

func powerBIReady(t *table.Table) (*table.Table, []string) {
	var changes []string
	before := t.Len()
	t = dropNullRows(t)
	if removed := before - t.Len(); removed > 0 {
		changes = append(changes, fmt.Sprintf("Removidas %d linhas vazias", removed))
	}

	var empty []string
	for _, col := range t.Columns() {
		vals, _ := t.Column(col)
		if allNull(vals) {
			empty = append(empty, col)
		}
	}
	if len(empty) > 0 {
		t = t.Without(empty...)
		changes = append(changes, fmt.Sprintf("Removidas %d colunas vazias", len(empty)))
	}
	return t, append(changes, "Dados prontos para Power BI")
}

// specialChars matches everything except letters (accented ones included),
// digits, whitespace and the characters common in emails.
var specialChars = regexp.MustCompile(`[^\p{L}\p{N}\s@._-]`)

func cleanAll(t *table.Table) (*table.Table, []string) {
	before := t.Len()
	t = dropNullRows(t)
	changes := []string{fmt.Sprintf("Removidas %d linhas vazias", before-t.Len())}

	before = t.Len()
	t = transform.Dedupe(t)
	changes = append(changes, fmt.Sprintf("Removidas %d duplicatas", before-t.Len()))

	for _, col := range t.Columns() {
		rewrite(t, col, func(s string) string { return specialChars.ReplaceAllString(s, "") })
	}
	return t, append(changes, "Caracteres especiais removidos")
}

// columnsContaining returns the columns whose lower-cased name contains any
// of the given fragments.
func columnsContaining(t *table.Table, fragments ...string) []string {
	var out []string
	for _, col := range t.Columns() {
		if textnorm.ContainsAny(strings.ToLower(col), fragments...) {
			out = append(out, col)
		}
	}
	return out
}

// rewrite applies fn to the string cells of col, leaving other kinds alone.
func rewrite(t *table.Table, col string, fn func(string) string) {
	vals, ok := t.Column(col)
	if !ok {
		return
	}
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		if s, ok := v.Str(); ok {
			out[i] = table.String(fn(s))
		} else {
			out[i] = v
		}
	}
	_ = t.SetColumn(col, out)
}

func dropNullRows(t *table.Table) *table.Table {
	cols := t.Columns()
	return t.Filter(func(r int) bool {
		for _, c := range cols {
			if !t.Cell(r, c).IsNull() {
				return true
			}
		}
		return false
	})
}

func allNull(vals []table.Value) bool {
	for _, v := range vals {
		if !v.IsNull() {
			return false
		}
	}
	return true
}
