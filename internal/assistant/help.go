package assistant

import (
	"fmt"
	"strings"

	"github.com/klytics/sheetkit/internal/glossary"
	"github.com/klytics/sheetkit/internal/intent"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
)

// questionWords mark a command as a spreadsheet question. They are
// matched against the normalized command.
var questionWords = []string{"como", "qual", "o que e", "funcao", "formula", "?"}

const (
	helpLimit    = 3
	unknownLimit = 2
)

// IsQuestion reports whether command reads like a spreadsheet question.
func IsQuestion(command string) bool {
	return textnorm.ContainsAny(textnorm.Normalize(command), questionWords...)
}

// help answers commands issued with no rows loaded.
func (p *Processor) help(command, normalized string, t *table.Table) *Response {
	if !textnorm.ContainsAny(normalized, questionWords...) {
		return &Response{
			Kind:    KindInfo,
			Intent:  intent.Unknown,
			Message: "📊 Carregue uma planilha primeiro!\n\nOu faça uma pergunta sobre Excel começando com 'Como...?'",
			Table:   t,
		}
	}

	found := p.glossary.Search(command)
	if len(found) == 0 {
		return &Response{
			Success: true,
			Kind:    KindHelp,
			Message: "📚 Exemplos de perguntas:\n" +
				"• Como fazer soma no Excel?\n" +
				"• Qual função para concatenar textos?\n" +
				"• Como extrair domínio de email?\n" +
				"• Fórmula para primeiro nome\n" +
				"• Como usar a função SE?",
			Table: t,
		}
	}

	var b strings.Builder
	b.WriteString("📚 **Funções Excel encontradas:**\n\n")
	for _, f := range capFuncs(found, helpLimit) {
		fmt.Fprintf(&b, "**%s**\n%s\n💡 Sintaxe: `%s`\n", f.Name, f.Description, f.Syntax)
		if len(f.Examples) > 0 {
			fmt.Fprintf(&b, "📌 Exemplo: `%s`\n", f.Examples[0])
		}
		b.WriteString("\n")
	}
	if s, ok := glossary.SuggestFormula(command, t.Columns()); ok && s.Column != "" {
		fmt.Fprintf(&b, "💡 **Para seus dados:**\n`%s`", s.Formula())
	}

	return &Response{
		Success:    true,
		Kind:       KindHelp,
		Message:    strings.TrimRight(b.String(), "\n"),
		Table:      t,
		References: found,
	}
}

// unknown explains a command nothing could classify. Glossary matches are
// offered first; otherwise a single correction hint.
func (p *Processor) unknown(command string, t *table.Table, suggestions []string) *Response {
	resp := &Response{
		Kind:        KindError,
		Intent:      intent.Unknown,
		Table:       t,
		Suggestions: suggestions,
	}

	if found := p.glossary.Search(command); len(found) > 0 {
		var b strings.Builder
		b.WriteString("📚 Encontrei estas funções Excel:\n\n")
		for _, f := range capFuncs(found, unknownLimit) {
			fmt.Fprintf(&b, "**%s**: %s\n💡 `%s`\n\n", f.Name, f.Description, f.Syntax)
		}
		b.WriteString("Para executar um comando, use:\n• Criar coluna NOME\n• Separar nome\n• Limpar CNPJ")
		resp.Kind = KindHelp
		resp.Message = b.String()
		resp.References = found
		return resp
	}

	hint := "Tente: 'Criar coluna STATUS' ou 'Como fazer soma?'"
	if c := intent.Corrections(command); len(c) > 0 {
		hint = c[0]
	}
	resp.Message = "❓ Não entendi. " + hint
	return resp
}

func capFuncs(fs []glossary.Function, n int) []glossary.Function {
	if len(fs) > n {
		return fs[:n]
	}
	return fs
}
