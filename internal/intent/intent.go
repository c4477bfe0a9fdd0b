// Package intent classifies free-form Portuguese spreadsheet commands into a
// fixed set of canonical transformations and extracts their parameters.
//
// Two matching modes exist and are kept separate on purpose:
//
//   - Baseline (Classify): normalize-then-substring over an ordered rule table;
//     only the literal value of "criar coluna" is captured from the raw text.
//   - Pattern (ClassifyPatterns): regular expressions over the normalized
//     text, in table order, with capture groups.
package intent

// Intent is a canonical transformation identifier.
type Intent string

// Baseline intents.
const (
	CreateColumn     Intent = "CREATE_COLUMN"
	SplitName        Intent = "SPLIT_NAME"
	SplitTaxID       Intent = "SPLIT_CNPJ"
	CleanTaxID       Intent = "CLEAN_CNPJ"
	CleanEmail       Intent = "CLEAN_EMAIL"
	CleanPhone       Intent = "CLEAN_PHONE"
	RemoveDuplicates Intent = "REMOVE_DUPLICATES"
	RemoveEmptyRows  Intent = "REMOVE_EMPTY"
	Sort             Intent = "SORT"
	ToUpper          Intent = "TO_UPPER"
	ToLower          Intent = "TO_LOWER"
	AddAreaCode      Intent = "ADD_DDD"
	AddEmailDomain   Intent = "ADD_DOMAIN"
	Unknown          Intent = "UNKNOWN"
)

// Pattern-table intents.
const (
	ValidateEmail    Intent = "validar_email"
	ValidateTaxID    Intent = "validar_cnpj"
	ValidatePhone    Intent = "validar_telefone"
	CountEmpty       Intent = "contar_vazios"
	Statistics       Intent = "estatisticas"
	DetectDuplicates Intent = "detectar_duplicatas"
	FillEmpty        Intent = "preencher_vazios"
	NormalizeText    Intent = "normalizar_texto"
	TrimSpaces       Intent = "remover_espacos"
	Capitalize       Intent = "capitalizar"
	AddTodayDate     Intent = "adicionar_data_hoje"
	ExtractYear      Intent = "extrair_ano"
	ExtractMonth     Intent = "extrair_mes"
	ComputeAge       Intent = "calcular_idade"
	SumColumn        Intent = "somar_coluna"
	AverageColumn    Intent = "media_coluna"
	CountValues      Intent = "contar_valores"
	FilterByValue    Intent = "filtrar_por_valor"
	RemoveRowsWhere  Intent = "remover_linhas_condicao"
	ApplyFormula     Intent = "aplicar_formula"
	CombineColumns   Intent = "combinar_colunas"
	DuplicateColumn  Intent = "duplicar_coluna"
	RenameColumn     Intent = "renomear_coluna"
	FormatCurrency   Intent = "formatar_moeda"
	FormatPercent    Intent = "formatar_percentual"
	AddPrefix        Intent = "adicionar_prefixo"
	AddSuffix        Intent = "adicionar_sufixo"
)

// Params carries the values extracted during classification. Zero fields
// mean "use the default".
type Params struct {
	// ColumnName is the upper-cased name for CreateColumn.
	ColumnName string `json:"column_name,omitempty"`
	// Value is the literal for CreateColumn, verbatim from the raw command.
	Value *string `json:"value,omitempty"`
	// Column is the loose sort target.
	Column string `json:"column,omitempty"`
	// Ascending is the sort direction; nil means ascending.
	Ascending *bool `json:"ascending,omitempty"`
	// Extracted holds pattern capture groups.
	Extracted []string `json:"extracted,omitempty"`
	// TargetColumn is a column named verbatim in the command.
	TargetColumn string `json:"target_column,omitempty"`
	// Suggestions are context hints attached to an Unknown pattern result.
	Suggestions []string `json:"suggestions,omitempty"`
}

// IsAscending reports the sort direction, defaulting to ascending.
func (p Params) IsAscending() bool {
	return p.Ascending == nil || *p.Ascending
}

// Classification is the outcome of classifying one command.
type Classification struct {
	Intent Intent `json:"intent"`
	Params Params `json:"params"`
}

// Known reports whether c resolved to anything other than Unknown.
func (c Classification) Known() bool { return c.Intent != Unknown }
