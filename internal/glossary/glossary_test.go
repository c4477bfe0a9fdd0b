package glossary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(fs []Function) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

func TestDefaultLoads(t *testing.T) {
	g := Default()
	assert.Equal(t, 15, g.Len())
	assert.NotEmpty(t, g.Tips())
}

func TestSearchByKeyword(t *testing.T) {
	got := Default().Search("Como fazer soma no Excel?")
	require.NotEmpty(t, got)
	assert.Equal(t, "SOMA", got[0].Name)
	assert.Equal(t, "matematica", got[0].Category)
}

func TestSearchIgnoresAccents(t *testing.T) {
	got := Default().Search("como calcular a média")
	assert.Contains(t, names(got), "MÉDIA")
}

func TestSearchShortKeywordNeedsWholeWord(t *testing.T) {
	assert.NotContains(t, names(Default().Search("separar nome")), "SE")
	assert.Contains(t, names(Default().Search("como usar a função se")), "SE")
}

func TestSearchCapsAndDedupes(t *testing.T) {
	got := Default().Search("soma media concatenar procv hoje maiuscula minuscula")
	assert.Len(t, got, MaxResults)
	seen := map[string]bool{}
	for _, f := range got {
		assert.False(t, seen[f.Name], f.Name)
		seen[f.Name] = true
	}
}

func TestSearchNoMatch(t *testing.T) {
	assert.Empty(t, Default().Search("xyzabc"))
	assert.Empty(t, Default().Search("   "))
}

func TestParseRejectsNamelessFunction(t *testing.T) {
	_, err := Parse([]byte("categories:\n  - name: x\n    functions:\n      - description: y\n"))
	assert.Error(t, err)
}

func TestSuggestFormula(t *testing.T) {
	s, ok := SuggestFormula("como extrair o domínio do email?", []string{"Nome", "E-mail Comercial", "email"})
	require.True(t, ok)
	assert.Equal(t, "email", s.Column)
	assert.Equal(t, `=DIREITA(email; NÚM.CARACT(email) - LOCALIZAR("@"; email))`, s.Formula())

	s, ok = SuggestFormula("pegar o ddd", []string{"Cidade"})
	require.True(t, ok)
	assert.Empty(t, s.Column)

	_, ok = SuggestFormula("somar tudo", nil)
	assert.False(t, ok)
}

func TestExplain(t *testing.T) {
	got := Default().Explain(`=SE(SOMA(A1:A3)>10;"ok";"")`)
	assert.Contains(t, got, "SOMA")
	assert.Contains(t, got, "SE:")
	assert.Equal(t, "Não consegui identificar as funções nesta fórmula.", Default().Explain("=FOO(1)"))
}
