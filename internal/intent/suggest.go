package intent

import (
	"fmt"
	"strings"

	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
)

// correction is a hint offered when a command mentions a subject without a
// verb the baseline rules understand.
type correction struct {
	subject string
	verb    string
	hint    string
}

var corrections = []correction{
	{"coluna", "criar", "Você quis dizer: 'Criar coluna NOME'?"},
	{"nome", "separar", "Você quis separar nomes? Tente: 'Separar nome'"},
	{"cnpj", "limpar", "Você quer limpar CNPJ? Tente: 'Limpar CNPJ'"},
}

// Corrections returns hints for an unrecognized command, most specific
// first. The caller usually shows only the first one.
func Corrections(raw string) []string {
	normalized := textnorm.Normalize(raw)
	var out []string
	for _, c := range corrections {
		if strings.Contains(normalized, c.subject) && !strings.Contains(normalized, c.verb) {
			out = append(out, c.hint)
		}
	}
	return out
}

// SmartSuggestions looks at column names and the first row and proposes up
// to three baseline commands worth trying.
func SmartSuggestions(t *table.Table) []string {
	if t.Empty() {
		return nil
	}
	var out []string
	first := func(col string) string { return t.Cell(0, col).Text() }

	for _, col := range t.Columns() {
		if strings.Contains(strings.ToLower(col), "nome") && strings.Contains(first(col), " ") {
			out = append(out, fmt.Sprintf("💡 Detectei nomes completos em '%s'. Quer separar? → 'Separar nome'", col))
		}
	}
	for _, col := range t.Columns() {
		if strings.Contains(strings.ToLower(col), "cnpj") && strings.ContainsAny(first(col), "./-") {
			out = append(out, fmt.Sprintf("💡 CNPJ em '%s' tem formatação. Quer limpar? → 'Limpar CNPJ'", col))
		}
	}
	for _, col := range t.Columns() {
		if strings.Contains(strings.ToLower(col), "telefone") && strings.Contains(first(col), "(") {
			out = append(out, fmt.Sprintf("💡 Tem telefones em '%s'. Quer extrair DDD? → 'Adicionar coluna com DDD'", col))
		}
	}
	for _, col := range t.Columns() {
		if strings.Contains(strings.ToLower(col), "email") {
			out = append(out, fmt.Sprintf("💡 Tem emails em '%s'. Quer extrair domínios? → 'Adicionar coluna com domínio'", col))
		}
	}
	return capAt(out, 3)
}

// RoleSuggestions proposes up to five commands from inferred column roles
// and names.
func RoleSuggestions(t *table.Table) []string {
	roles := InferRoles(t)
	var out []string
	for _, col := range t.Columns() {
		role, ok := roles[col]
		if !ok {
			continue
		}
		lower := strings.ToLower(col)
		if role == RoleEmail && len(out) < 5 {
			out = append(out, fmt.Sprintf("💡 Validar emails em '%s'", col), fmt.Sprintf("💡 Extrair domínio de '%s'", col))
		}
		if role == RoleNumeric && len(out) < 5 {
			out = append(out, fmt.Sprintf("💡 Calcular estatísticas de '%s'", col))
		}
		if strings.Contains(lower, "nome") && len(out) < 5 {
			out = append(out, fmt.Sprintf("💡 Separar '%s' em partes", col))
		}
		if strings.Contains(lower, "cnpj") && len(out) < 5 {
			out = append(out, fmt.Sprintf("💡 Validar e formatar '%s'", col))
		}
	}
	return capAt(out, 5)
}
