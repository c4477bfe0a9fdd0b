package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		logger, err := New("debug", format)
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}

	_, err := New("loud", "console")
	assert.Error(t, err)

	_, err = New("info", "xml")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ação...", Truncate("açãozinha longa", 7))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "abcdef", Truncate("abcdef", 0))
}

func TestSanitizeCommand(t *testing.T) {
	got := SanitizeCommand("  filtrar   cliente joao@x.com.br  cnpj 11.222.333/0001-81 ")
	assert.Equal(t, "filtrar cliente [EMAIL] cnpj [NUM]", got)

	assert.Equal(t, "ordenar por nome", SanitizeCommand("ordenar por nome"))
	assert.Equal(t, "dividir em 8 partes", SanitizeCommand("dividir em 8 partes"))

	long := SanitizeCommand(strings.Repeat("a ", 200))
	assert.Equal(t, MaxCommandLen, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
}
