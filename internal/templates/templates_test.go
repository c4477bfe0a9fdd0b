package templates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/sheetkit/internal/table"
)

var (
	s = table.String
	n = table.Number
	z = table.Null
)

func TestApplyUnknownAndEmpty(t *testing.T) {
	_, err := Apply("nope", table.MustFromRows([]string{"a"}, [][]table.Value{{s("x")}}))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = Apply("clean_all", table.MustFromRows([]string{"a"}, nil))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNormalizeContacts(t *testing.T) {
	in := table.MustFromRows([]string{"Nome Completo", "Email Pessoal", "Idade"}, [][]table.Value{
		{s("ana maria"), s("  Ana@X.COM "), n(30)},
		{s("ana maria"), s("  Ana@X.COM "), n(30)},
		{s("JOÃO DA SILVA"), z(), n(41)},
	})
	res, err := Apply("normalize_contacts", in)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Table.Len())
	assert.Equal(t, "Ana Maria", res.Table.Cell(0, "Nome Completo").Text())
	assert.Equal(t, "João Da Silva", res.Table.Cell(1, "Nome Completo").Text())
	assert.Equal(t, "ana@x.com", res.Table.Cell(0, "Email Pessoal").Text())
	assert.True(t, res.Table.Cell(1, "Email Pessoal").IsNull())
	assert.Equal(t, []string{
		"Removidas 1 duplicatas",
		"Emails normalizados em 'Email Pessoal'",
		"Nomes padronizados em 'Nome Completo'",
	}, res.Changes)

	assert.Equal(t, 3, in.Len(), "input must not change")
}

func TestCommercialBase(t *testing.T) {
	in := table.MustFromRows([]string{"empresa", "CNPJ"}, [][]table.Value{
		{s(" zeta ltda"), s("11.222.333/0001-81")},
		{s("Alfa SA"), s("44.555.666/0001-00")},
		{s("alfa sa "), s("44555666000100")},
	})
	res, err := Apply("commercial_base", in)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Table.Len())
	assert.Equal(t, "ALFA SA", res.Table.Cell(0, "empresa").Text())
	assert.Equal(t, "44555666000100", res.Table.Cell(0, "CNPJ").Text())
	assert.Equal(t, "ZETA LTDA", res.Table.Cell(1, "empresa").Text())
	assert.Equal(t, "11222333000181", res.Table.Cell(1, "CNPJ").Text())
	assert.Contains(t, res.Changes, "Ordenado por empresa")
	assert.Contains(t, res.Changes, "Removidas 1 duplicatas")
}

func TestPowerBIReady(t *testing.T) {
	in := table.MustFromRows([]string{"a", "vazia", "b"}, [][]table.Value{
		{s("x"), z(), n(1)},
		{z(), z(), z()},
		{s(""), z(), z()},
	})
	res, err := Apply("powerbi_ready", in)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, res.Table.Columns())
	assert.Equal(t, 2, res.Table.Len())
	assert.Equal(t, []string{
		"Removidas 1 linhas vazias",
		"Removidas 1 colunas vazias",
		"Dados prontos para Power BI",
	}, res.Changes)
}

func TestCleanAllKeepsAccentedLetters(t *testing.T) {
	in := table.MustFromRows([]string{"Cidade", "Email"}, [][]table.Value{
		{s("São Paulo!!"), s("a.b-c@d_e.com#")},
		{z(), z()},
		{s("São Paulo!!"), s("a.b-c@d_e.com#")},
	})
	res, err := Apply("clean_all", in)
	require.NoError(t, err)

	require.Equal(t, 1, res.Table.Len())
	assert.Equal(t, "São Paulo", res.Table.Cell(0, "Cidade").Text())
	assert.Equal(t, "a.b-c@d_e.com", res.Table.Cell(0, "Email").Text())
	assert.Equal(t, []string{
		"Removidas 1 linhas vazias",
		"Removidas 1 duplicatas",
		"Caracteres especiais removidos",
	}, res.Changes)
}

func TestCatalogue(t *testing.T) {
	ids := make([]string, 0, len(All()))
	for _, tpl := range All() {
		ids = append(ids, tpl.ID)
	}
	assert.Equal(t, []string{"normalize_contacts", "commercial_base", "powerbi_ready", "clean_all"}, ids)

	_, ok := Lookup("powerbi_ready")
	assert.True(t, ok)
}
