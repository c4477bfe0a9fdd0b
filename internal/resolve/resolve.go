// Package resolve maps loose role hints such as "nome" or "cnpj" to concrete
// column names. Matching is substring containment over normalized text
// (case and accents folded), first match in column order. A miss is an
// ordinary outcome, never an error.
package resolve

import (
	"fmt"
	"strings"

	"github.com/klytics/sheetkit/internal/textnorm"
)

// Role is a semantic column role an operation needs.
type Role struct {
	// Name is how the role is reported when no column satisfies it.
	Name string
	// Keywords are substrings, any of which selects a column.
	Keywords []string
	// Exclude are substrings that disqualify an otherwise matching column.
	Exclude []string
}

// Known roles.
var (
	PersonName = Role{Name: "nome", Keywords: []string{"nome"}, Exclude: []string{"empresa"}}
	TaxID      = Role{Name: "CNPJ/CPF", Keywords: []string{"cnpj", "cpf"}}
	CNPJ       = Role{Name: "CNPJ", Keywords: []string{"cnpj"}}
	Phone      = Role{Name: "telefone", Keywords: []string{"telefone", "phone", "fone"}}
	Email      = Role{Name: "email", Keywords: []string{"email"}}
	Company    = Role{Name: "empresa", Keywords: []string{"empresa", "company", "razao"}}
)

// Keyword returns a single-keyword role, used for free-form targets like
// the sort column.
func Keyword(k string) Role {
	return Role{Name: k, Keywords: []string{k}}
}

// Column returns the first column satisfying role, in declaration order.
func Column(role Role, columns []string) (string, bool) {
	for _, c := range columns {
		if role.Accepts(c) {
			return c, true
		}
	}
	return "", false
}

// All returns every column satisfying role, in declaration order.
func All(role Role, columns []string) []string {
	var out []string
	for _, c := range columns {
		if role.Accepts(c) {
			out = append(out, c)
		}
	}
	return out
}

// Accepts reports whether column satisfies r.
func (r Role) Accepts(column string) bool {
	lc := textnorm.Normalize(column)
	for _, x := range r.Exclude {
		if strings.Contains(lc, textnorm.Normalize(x)) {
			return false
		}
	}
	for _, k := range r.Keywords {
		if k = textnorm.Normalize(k); k != "" && strings.Contains(lc, k) {
			return true
		}
	}
	return false
}

// NotFound is the message reported when role has no matching column.
func NotFound(role Role) string {
	return fmt.Sprintf("Coluna de %s não encontrada", role.Name)
}
