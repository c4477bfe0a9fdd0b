package assistant

import (
	"fmt"
	"strings"

	"github.com/klytics/sheetkit/internal/intent"
	"github.com/klytics/sheetkit/internal/reshape"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
)

// Whole-table intents handled before classification.
const (
	CommercialFormat intent.Intent = "COMMERCIAL_FORMAT"
	ContactImport    intent.Intent = "CONTACT_IMPORT"
	SplitSheet       intent.Intent = "SPLIT_SHEET"
)

type trigger struct {
	match func(normalized string) bool
	run   func(p *Processor, command string, t *table.Table) *Response
}

// triggers are checked in order before the classifier.
var triggers = []trigger{
	{
		match: func(n string) bool { return strings.Contains(n, "comercial") },
		run:   (*Processor).commercial,
	},
	{
		match: func(n string) bool { return textnorm.ContainsAny(n, "multione", "google contacts") },
		run:   (*Processor).contactImport,
	},
	{
		match: func(n string) bool {
			return strings.Contains(n, "dividir") && textnorm.ContainsAny(n, "planilha", "partes")
		},
		run: (*Processor).split,
	},
}

func (p *Processor) commercial(_ string, t *table.Table) *Response {
	out, stats := reshape.Commercial(t, p.now())
	msg := fmt.Sprintf(`✅ **MODO COMERCIAL APLICADO!**

📊 **Resultados:**
- %d contatos formatados
- %d colunas estruturadas
- %d duplicatas removidas

🗂️ **Colunas:** %s

💡 **Próximo passo:** Digite "dividir em 8 planilhas" para separar`,
		stats.Rows, stats.Columns, stats.DuplicatesRemoved, strings.Join(out.Columns(), ", "))

	return &Response{
		Success:  true,
		Kind:     KindTransform,
		Intent:   CommercialFormat,
		Message:  msg,
		Table:    out,
		Affected: stats.DuplicatesRemoved,
		Details: map[string]any{
			"duplicatas_removidas": stats.DuplicatesRemoved,
			"origens":              stats.Sources,
		},
	}
}

func (p *Processor) contactImport(_ string, t *table.Table) *Response {
	out, stats, ok := reshape.Contacts(t, p.contacts)
	if !ok {
		return &Response{
			Kind:    KindTransform,
			Intent:  ContactImport,
			Message: "❌ Coluna de telefone não encontrada",
			Table:   t,
		}
	}
	msg := fmt.Sprintf(`✅ **CONTATOS PRONTOS PARA IMPORTAÇÃO!**

📊 **Resultados:**
- %d de %d contatos mantidos
- %d telefones inválidos descartados
- %d duplicatas removidas
- %d nomes substituídos por "%s"`,
		stats.Kept, stats.Input, stats.InvalidPhones, stats.DuplicatesRemoved, stats.Placeholders, p.contacts.Placeholder)

	return &Response{
		Success:  true,
		Kind:     KindTransform,
		Intent:   ContactImport,
		Message:  msg,
		Table:    out,
		Affected: stats.Input - stats.Kept,
		Details: map[string]any{
			"coluna_nome":     stats.NameSource,
			"coluna_telefone": stats.PhoneSource,
		},
	}
}

func (p *Processor) split(command string, t *table.Table) *Response {
	parts := reshape.PartsFromCommand(command)
	perPart := reshape.RowsPerPart(t.Len(), parts)
	pieces := reshape.Parts(t, parts)

	msg := fmt.Sprintf(`✅ **PLANILHA DIVIDIDA EM %d PARTES!**

📊 **Detalhes:**
- Total: %d linhas
- Por parte: ~%d linhas

💾 **Para baixar:** exporte cada parte com "sheetkit split"`, parts, t.Len(), perPart)

	return &Response{
		Success: true,
		Kind:    KindTransform,
		Intent:  SplitSheet,
		Message: msg,
		Table:   pieces[0],
		Details: map[string]any{
			"total_partes":     parts,
			"linhas_por_parte": perPart,
		},
	}
}
