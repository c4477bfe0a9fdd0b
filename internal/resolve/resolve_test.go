package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnFirstMatchInOrder(t *testing.T) {
	cols := []string{"ID", "Telefone Fixo", "Celular", "fone2"}
	got, ok := Column(Phone, cols)
	assert.True(t, ok)
	assert.Equal(t, "Telefone Fixo", got)
}

func TestPersonNameSkipsCompany(t *testing.T) {
	cols := []string{"NOME_EMPRESA", "Nome Completo"}
	got, ok := Column(PersonName, cols)
	assert.True(t, ok)
	assert.Equal(t, "Nome Completo", got)
}

func TestPersonNameOnlyCompany(t *testing.T) {
	_, ok := Column(PersonName, []string{"nome empresa"})
	assert.False(t, ok)
}

func TestTaxIDAcceptsCPF(t *testing.T) {
	got, ok := Column(TaxID, []string{"Nome", "CPF"})
	assert.True(t, ok)
	assert.Equal(t, "CPF", got)

	_, ok = Column(CNPJ, []string{"Nome", "CPF"})
	assert.False(t, ok)
}

func TestKeywordCaseInsensitive(t *testing.T) {
	got, ok := Column(Keyword("nome"), []string{"Cidade", "NOME"})
	assert.True(t, ok)
	assert.Equal(t, "NOME", got)
}

func TestKeywordIgnoresAccents(t *testing.T) {
	got, ok := Column(Keyword("regiao"), []string{"Cidade", "Região"})
	assert.True(t, ok)
	assert.Equal(t, "Região", got)

	got, ok = Column(Company, []string{"Nome", "Razão Social"})
	assert.True(t, ok)
	assert.Equal(t, "Razão Social", got)
}

func TestEmptyKeywordNeverMatches(t *testing.T) {
	_, ok := Column(Keyword(""), []string{"A"})
	assert.False(t, ok)
}

func TestAll(t *testing.T) {
	assert.Equal(t, []string{"email", "Email Secundario"}, All(Email, []string{"email", "nome", "Email Secundario"}))
	assert.Nil(t, All(Email, nil))
}

func TestNotFoundNamesRole(t *testing.T) {
	assert.Equal(t, "Coluna de email não encontrada", NotFound(Email))
}
