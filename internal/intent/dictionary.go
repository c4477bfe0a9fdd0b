package intent

import (
	"regexp"

	"github.com/klytics/sheetkit/internal/textnorm"
)

// Action names a synonym set in the coarse dictionary.
type Action string

// Synonym sets.
const (
	ActCreate     Action = "criar"
	ActRemove     Action = "remover"
	ActSplit      Action = "separar"
	ActClean      Action = "limpar"
	ActSort       Action = "ordenar"
	ActFilter     Action = "filtrar"
	ActDuplicates Action = "duplicatas"
	ActEmpty      Action = "vazio"
	ActUpper      Action = "maiuscula"
	ActLower      Action = "minuscula"
)

// synonyms is the coarse tier: surface forms per action, matched by
// substring against normalized text. Entries are normalized at init so
// accented forms like "maiúscula" still match.
var synonyms = normalizeSynonyms(map[Action][]string{
	ActCreate:     {"criar", "adicionar", "nova", "novo", "gerar", "incluir", "fazer"},
	ActRemove:     {"remover", "deletar", "excluir", "tirar", "apagar", "eliminar"},
	ActSplit:      {"separar", "dividir", "quebrar", "partir", "split"},
	ActClean:      {"limpar", "formatar", "padronizar", "normalizar", "arrumar"},
	ActSort:       {"ordenar", "organizar", "classificar", "sort", "sortear"},
	ActFilter:     {"filtrar", "selecionar", "escolher", "pegar"},
	ActDuplicates: {"duplicatas", "duplicados", "repetidos", "iguais"},
	ActEmpty:      {"vazio", "vazias", "nulo", "null", "em branco", "blank"},
	ActUpper:      {"maiúscula", "maiusculo", "upper", "caps", "caixa alta"},
	ActLower:      {"minúscula", "minusculo", "lower", "caixa baixa"},
})

func normalizeSynonyms(in map[Action][]string) map[Action][]string {
	out := make(map[Action][]string, len(in))
	for act, words := range in {
		norm := make([]string, len(words))
		for i, w := range words {
			norm[i] = textnorm.Normalize(w)
		}
		out[act] = norm
	}
	return out
}

// Synonyms returns the normalized surface forms for act.
func Synonyms(act Action) []string {
	return append([]string(nil), synonyms[act]...)
}

// mentions reports whether normalized text contains any synonym of act.
func mentions(normalized string, act Action) bool {
	return textnorm.ContainsAny(normalized, synonyms[act]...)
}

func isSynonym(word string, act Action) bool {
	for _, s := range synonyms[act] {
		if word == s {
			return true
		}
	}
	return false
}

// patternEntry is one row of the rich tier: an intent and the expressions
// that select it, tried in order.
type patternEntry struct {
	Intent   Intent
	Patterns []*regexp.Regexp
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// patternTable is evaluated top to bottom; the first intent with any
// matching expression wins. Expressions carry their own accent
// alternatives because they also see text normalized elsewhere.
var patternTable = []patternEntry{
	// validation
	{ValidateEmail, patterns(`valid[ao]r?\s+email`, `email.*v[aá]lid[oa]`, `check.*email`, `verificar.*email`)},
	{ValidateTaxID, patterns(`valid[ao]r?\s+cnpj`, `cnpj.*v[aá]lid[oa]`, `check.*cnpj`)},
	{ValidatePhone, patterns(`valid[ao]r?\s+telefone`, `telefone.*v[aá]lid[oa]`, `check.*telefone`)},

	// analysis
	{CountEmpty, patterns(`quant[oa]s?\s+vazi[oa]s?`, `contar.*vazi[oa]s?`, `count.*empty`)},
	{Statistics, patterns(`estat[ií]sticas?`, `resumo\s+dos?\s+dados?`, `an[aá]lise.*dados?`, `stats`)},
	{DetectDuplicates, patterns(`detect[ao]r?\s+duplicat[ao]s?`, `quais?\s+s[ãa]o.*duplicat[ao]s?`, `mostrar.*duplicat[ao]s?`)},

	// text transforms
	{FillEmpty, patterns(`preencher.*vazi[oa]s?`, `substituir.*vazio`, `fill.*empty`, `completar.*vazio`)},
	{NormalizeText, patterns(`normalizar.*texto`, `padronizar.*texto`, `limpar.*texto`, `normalize.*text`)},
	{TrimSpaces, patterns(`remover.*espa[çc]os?`, `tirar.*espa[çc]os?`, `trim`)},
	{Capitalize, patterns(`capitalizar`, `primeira.*mai[uú]scula`, `title\s+case`, `proper`)},

	// dates
	{AddTodayDate, patterns(`adicionar.*data.*hoje`, `coluna.*data.*atual`, `criar.*coluna.*hoje`)},
	{ExtractYear, patterns(`extrair.*ano`, `separar.*ano`, `get.*year`)},
	{ExtractMonth, patterns(`extrair.*m[eê]s`, `separar.*m[eê]s`, `get.*month`)},
	{ComputeAge, patterns(`calcular.*idade`, `idade.*data`, `quantos.*anos`)},

	// aggregates
	{SumColumn, patterns(`soma.*coluna`, `somar.*valores`, `total.*coluna`, `sum.*column`)},
	{AverageColumn, patterns(`m[ée]dia.*coluna`, `average.*column`, `calcular.*m[ée]dia`)},
	{CountValues, patterns(`contar.*valores`, `quantos.*valores`, `count.*values`)},

	// row filters
	{FilterByValue, patterns(`filtrar.*(?:por|onde|com)?\s*(\w+)`, `mostrar.*(?:apenas|somente|s[oó])?\s*(\w+)`, `selecionar.*(\w+)`)},
	{RemoveRowsWhere, patterns(`remover.*(?:onde|com|linhas)?\s*(\w+)`, `deletar.*(?:onde|quando)?\s*(\w+)`, `excluir.*(\w+)`)},

	// formulas
	{ApplyFormula, patterns(`aplicar.*f[oó]rmula`, `criar.*f[oó]rmula`, `calcular.*usando`)},

	// multi-column
	{CombineColumns, patterns(`combinar.*colunas?`, `juntar.*colunas?`, `unir.*colunas?`, `concat.*columns?`)},
	{DuplicateColumn, patterns(`duplicar.*coluna`, `copiar.*coluna`, `clonar.*coluna`)},
	{RenameColumn, patterns(`renomear.*coluna`, `mudar.*nome.*coluna`, `rename.*column`)},

	// formatting
	{FormatCurrency, patterns(`formatar.*(?:como\s+)?(?:moeda|dinheiro|real|r\$)`, `moeda`, `currency`)},
	{FormatPercent, patterns(`formatar.*(?:como\s+)?percent`, `transformar.*percent`, `em\s+percent`)},
	{AddPrefix, patterns(`adicionar.*prefixo`, `colocar.*antes`, `prefix`)},
	{AddSuffix, patterns(`adicionar.*sufixo`, `colocar.*depois`, `suffix`)},
}

// PatternIntents lists the rich-tier intents in evaluation order.
func PatternIntents() []Intent {
	out := make([]Intent, len(patternTable))
	for i, e := range patternTable {
		out[i] = e.Intent
	}
	return out
}
