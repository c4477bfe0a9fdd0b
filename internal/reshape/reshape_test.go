package reshape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/sheetkit/internal/table"
)

func s(v string) table.Value { return table.String(v) }

var fixedNow = time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

func TestCommercialSchemaAndDerivedColumns(t *testing.T) {
	in := table.MustFromRows(
		[]string{"Razao Social", "Nome", "E-mail", "Telefone", "CNPJ"},
		[][]table.Value{
			{s(" zeta ltda "), s("maria souza"), s(" Maria@Zeta.com "), s("(11) 98888-7777"), s("12345678000199")},
			{s("alfa sa"), s("joão"), s("joao@alfa.com"), s("21 3333-4444"), s("123")},
			{s("alfa sa"), s("outro"), s("JOAO@alfa.com"), table.Null(), table.Null()},
		},
	)
	out, stats := Commercial(in, fixedNow)

	assert.Equal(t, CommercialColumns, out.Columns())
	require.Equal(t, 2, out.Len())
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, "Razao Social", stats.Sources[ColCompany])

	assert.Equal(t, "ALFA SA", out.Cell(0, ColCompany).Text())
	assert.Equal(t, "ZETA LTDA", out.Cell(1, ColCompany).Text())
	assert.Equal(t, "Maria Souza", out.Cell(1, ColContact).Text())
	assert.Equal(t, "maria@zeta.com", out.Cell(1, ColEmail).Text())
	assert.Equal(t, "zeta.com", out.Cell(1, ColDomain).Text())
	assert.Equal(t, "11988887777", out.Cell(1, ColPhone).Text())
	assert.Equal(t, "11", out.Cell(1, ColAreaCode).Text())
	assert.Equal(t, "12.345.678/0001-99", out.Cell(1, ColCNPJ).Text())
	assert.Equal(t, "123", out.Cell(0, ColCNPJ).Text())
	assert.Equal(t, DefaultStatus, out.Cell(0, ColStatus).Text())
	assert.Equal(t, "2026-01-02", out.Cell(0, ColSignupDate).Text())
}

func TestCommercialFallsBackToFirstColumn(t *testing.T) {
	in := table.MustFromRows([]string{"Cliente", "Cidade"}, [][]table.Value{{s("acme"), s("Recife")}})
	out, stats := Commercial(in, fixedNow)

	assert.Equal(t, "ACME", out.Cell(0, ColCompany).Text())
	assert.Equal(t, "Cliente", stats.Sources[ColCompany])
	assert.True(t, out.Cell(0, ColEmail).IsNull())
	assert.True(t, out.Cell(0, ColDomain).IsNull())
	assert.Equal(t, 0, stats.DuplicatesRemoved)
}

func TestCommercialKeepsRowsWithoutEmail(t *testing.T) {
	in := table.MustFromRows([]string{"empresa", "email"}, [][]table.Value{
		{s("a"), table.Null()}, {s("b"), table.Null()},
	})
	out, _ := Commercial(in, fixedNow)
	assert.Equal(t, 2, out.Len())
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"(11) 98888-7777", "5511988887777", true},
		{"+55 11 98888-7777", "5511988887777", true},
		{"11 3333-4444", "551133334444", true},
		{"1234", "", false},
		{"", "", false},
		{"55119888877776666", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizePhone(tt.in, "55")
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in          string
		want        string
		placeholder bool
	}{
		{"maria SOUZA 😀", "Maria Souza", false},
		{"123 joão wpp", "João", false},
		{"Cliente 99887766", "Contato", true},
		{"🔥🔥", "Contato", true},
		{"x", "Contato", true},
		{"", "Contato", true},
		{"*** Ana Paula - zap", "Ana Paula", false},
	}
	for _, tt := range tests {
		got, placeholder := CleanName(tt.in, "Contato")
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.placeholder, placeholder, tt.in)
	}
}

func TestContactsFromExportHeaders(t *testing.T) {
	in := table.MustFromRows(
		[]string{"First Name", "Last Name", "Phone 1 - Value", "Notes"},
		[][]table.Value{
			{s("ana"), s("lima"), s("(81) 99999-0000"), table.Null()},
			{s("Ana"), s("Lima 2"), s("81 99999 0000"), table.Null()},
			{s("🙂"), table.Null(), s("11 98888-7777"), table.Null()},
			{s("Zé"), table.Null(), s("123"), table.Null()},
		},
	)
	out, stats, ok := Contacts(in, DefaultContactOptions())
	require.True(t, ok)

	assert.Equal(t, []string{ColContactName, ColContactPhone}, out.Columns())
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "Ana Lima", out.Cell(0, ColContactName).Text())
	assert.Equal(t, "5581999990000", out.Cell(0, ColContactPhone).Text())
	assert.Equal(t, "Contato", out.Cell(1, ColContactName).Text())
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 1, stats.InvalidPhones)
	assert.Equal(t, 1, stats.Placeholders)
}

func TestContactsGenericHeaders(t *testing.T) {
	in := table.MustFromRows([]string{"Nome Completo", "Celular"}, [][]table.Value{{s("bia"), s("(11) 91234-5678")}})
	out, stats, ok := Contacts(in, DefaultContactOptions())
	require.True(t, ok)
	assert.Equal(t, "Nome Completo", stats.NameSource)
	assert.Equal(t, "Celular", stats.PhoneSource)
	assert.Equal(t, "Bia", out.Cell(0, ColContactName).Text())
}

func TestContactsWithoutPhoneColumn(t *testing.T) {
	in := table.MustFromRows([]string{"Nome"}, [][]table.Value{{s("bia")}})
	_, _, ok := Contacts(in, DefaultContactOptions())
	assert.False(t, ok)
}

func TestPartsFromCommand(t *testing.T) {
	assert.Equal(t, 3, PartsFromCommand("dividir em 3 partes"))
	assert.Equal(t, DefaultParts, PartsFromCommand("dividir planilha"))
	assert.Equal(t, DefaultParts, PartsFromCommand("dividir em 0 partes"))
}

func TestPartsCoverEveryRow(t *testing.T) {
	rows := make([][]table.Value, 10)
	for i := range rows {
		rows[i] = []table.Value{table.Number(float64(i))}
	}
	tbl := table.MustFromRows([]string{"N"}, rows)

	parts := Parts(tbl, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, 4, parts[0].Len())
	assert.Equal(t, 2, parts[2].Len())

	total := 0
	for _, p := range parts {
		total += p.Len()
	}
	assert.Equal(t, 10, total)
	assert.Empty(t, Parts(tbl.Slice(0, 0), 3))
}
