package intent

import (
	"fmt"
	"strings"

	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
)

// Role is the inferred semantic kind of a column.
type Role string

// Column roles.
const (
	RoleNumeric    Role = "numeric"
	RoleEmail      Role = "email"
	RoleIdentifier Role = "identifier"
	RoleText       Role = "text"
)

// roleSampleSize bounds how many non-blank cells InferRoles inspects.
const roleSampleSize = 5

// PatternResult is what the pattern classifier produced, along with the
// role map it computed for the table.
type PatternResult struct {
	Classification
	Roles map[string]Role
}

// ClassifyPatterns runs the pattern classifier over the normalized command.
// The first table entry with any matching expression wins. sample may be
// nil; it only feeds role inference and the suggestions attached to an
// Unknown result.
func ClassifyPatterns(raw string, sample *table.Table) PatternResult {
	normalized := textnorm.Normalize(raw)
	roles := InferRoles(sample)
	columns := sample.Columns()

	for _, entry := range patternTable {
		for _, re := range entry.Patterns {
			m := re.FindStringSubmatch(normalized)
			if m == nil {
				continue
			}
			p := Params{TargetColumn: mentionedColumn(raw, normalized, columns)}
			if len(m) > 1 {
				p.Extracted = append([]string(nil), m[1:]...)
			}
			return PatternResult{Classification{Intent: entry.Intent, Params: p}, roles}
		}
	}

	return PatternResult{
		Classification: Classification{
			Intent: Unknown,
			Params: Params{Suggestions: ContextSuggestions(normalized, columns, roles)},
		},
		Roles: roles,
	}
}

// mentionedColumn returns the first column whose lower-cased name occurs in
// the command.
func mentionedColumn(raw, normalized string, columns []string) string {
	lower := strings.ToLower(raw)
	for _, c := range columns {
		lc := strings.ToLower(c)
		if lc == "" {
			continue
		}
		if strings.Contains(lower, lc) || strings.Contains(normalized, lc) {
			return c
		}
	}
	return ""
}

// InferRoles guesses each column's role from up to five non-blank cells.
// Columns without any such cell are left out of the map.
func InferRoles(t *table.Table) map[string]Role {
	roles := make(map[string]Role)
	for _, col := range t.Columns() {
		var sample []table.Value
		for r := 0; r < t.Len() && len(sample) < roleSampleSize; r++ {
			if v := t.Cell(r, col); !v.IsBlank() {
				sample = append(sample, v)
			}
		}
		if len(sample) > 0 {
			roles[col] = roleOf(sample)
		}
	}
	return roles
}

func roleOf(sample []table.Value) Role {
	numeric := true
	for _, v := range sample {
		if v.Kind() != table.KindNumber {
			numeric = false
			break
		}
	}
	if numeric {
		return RoleNumeric
	}
	for _, v := range sample {
		if strings.Contains(v.Text(), "@") {
			return RoleEmail
		}
	}
	for _, v := range sample {
		stripped := strings.NewReplacer("-", "", "/", "", ".", "").Replace(v.Text())
		if stripped != "" && textnorm.Digits(stripped) == stripped {
			return RoleIdentifier
		}
	}
	return RoleText
}

// ContextSuggestions proposes actions for columns the command mentions,
// based on their inferred role. At most three are returned.
func ContextSuggestions(normalized string, columns []string, roles map[string]Role) []string {
	var out []string
	for _, col := range columns {
		if !strings.Contains(normalized, strings.ToLower(col)) {
			continue
		}
		switch roles[col] {
		case RoleEmail:
			out = append(out, fmt.Sprintf("Validar emails na coluna %s?", col), fmt.Sprintf("Extrair domínio de %s?", col))
		case RoleNumeric:
			out = append(out, fmt.Sprintf("Calcular média de %s?", col), fmt.Sprintf("Somar valores de %s?", col))
		case RoleIdentifier:
			out = append(out, fmt.Sprintf("Validar formato de %s?", col), fmt.Sprintf("Limpar %s?", col))
		}
	}
	return capAt(out, 3)
}

func capAt(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
