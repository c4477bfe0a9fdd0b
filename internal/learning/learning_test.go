package learning

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords(t *testing.T) {
	got := Keywords("Como eu faço para limpar os e-mails da planilha?")
	assert.Equal(t, []string{"faço", "limpar", "emails", "planilha"}, got)
	assert.Empty(t, Keywords("a o de um"))
}

func TestAdjustBounds(t *testing.T) {
	assert.Equal(t, 0.8, Adjust(InitialConfidence, Positive))
	assert.Equal(t, 0.6, Adjust(InitialConfidence, Negative))
	assert.Equal(t, InitialConfidence, Adjust(InitialConfidence, Neutral))
	assert.Equal(t, MaxConfidence, Adjust(0.95, Positive))
	assert.Equal(t, MinConfidence, Adjust(0.15, Negative))

	c := InitialConfidence
	for i := 0; i < 20; i++ {
		c = Adjust(c, Negative)
	}
	assert.Equal(t, MinConfidence, c)
}

func TestTopic(t *testing.T) {
	tests := map[string]string{
		"Bom dia!":                  TopicGreeting,
		"valeu pela força":          TopicThanks,
		"quero exportar":            TopicDownload,
		"preciso limpar a planilha": TopicProcess,
		"converter google contacts": TopicContacts,
		"xyz":                       TopicGeneral,
		"tchau, obrigado":           TopicFarewell,
	}
	for in, want := range tests {
		assert.Equal(t, want, Topic(in), in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Limpar Emails", "limpar emails"))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.Equal(t, 1.0, Similarity("", ""))
	// "abcd" vs "bcde": block "bcd" gives 2*3/8.
	assert.InDelta(t, 0.75, Similarity("abcd", "bcde"), 1e-9)
}

func TestSimilarPicksBestAboveThreshold(t *testing.T) {
	patterns := []Pattern{
		{Input: "limpar telefones", Response: "a"},
		{Input: "limpar emails", Response: "b"},
	}
	p, ok := Similar(patterns, "limpar email", SimilarityThreshold)
	require.True(t, ok)
	assert.Equal(t, "b", p.Response)

	_, ok = Similar(patterns, "gerar relatório", SimilarityThreshold)
	assert.False(t, ok)
}

func TestResponderLearnsThenReuses(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewResponder(store)

	first, err := r.Respond(ctx, "oi, tudo bem?", "Ana")
	require.NoError(t, err)
	assert.False(t, first.Learned)
	assert.Equal(t, TopicGreeting, first.Topic)
	assert.Contains(t, []string{
		"Olá Ana! Como posso ajudar você hoje?",
		"Oi Ana! Pronto para trabalhar com suas planilhas?",
		"Bem-vindo Ana! O que você precisa?",
	}, first.Text)

	second, err := r.Respond(ctx, "oi, tudo bem?", "Bia")
	require.NoError(t, err)
	assert.True(t, second.Learned)
	assert.Equal(t, InitialConfidence, second.Confidence)
	assert.NotContains(t, second.Text, "[USER]")

	ps, err := store.Patterns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, 1, ps[0].SuccessCount)
}

func TestFeedbackAdjustsPattern(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SavePattern(ctx, Pattern{Input: "baixar csv", Topic: TopicDownload, Keywords: []string{"baixar", "csv"}}))

	require.NoError(t, store.AddFeedback(ctx, Feedback{Input: "baixar csv", Rating: Negative, At: time.Now()}))
	require.NoError(t, store.AddFeedback(ctx, Feedback{Input: "baixar csv", Rating: Negative}))
	require.NoError(t, store.AddFeedback(ctx, Feedback{Input: "desconhecido", Rating: Positive}))

	ps, _ := store.Patterns(ctx, 1)
	assert.Equal(t, 0.5, ps[0].Confidence)
	assert.Equal(t, 2, ps[0].FailCount)

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Feedback)
	assert.Equal(t, 1, st.Patterns)
	assert.Equal(t, 2, st.VocabularySize)
}

func TestStatsTopWords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, in := range []string{"limpar planilha", "limpar emails", "limpar dados"} {
		require.NoError(t, store.SavePattern(ctx, Pattern{Input: in, Topic: TopicProcess, Keywords: Keywords(in)}))
	}
	require.NoError(t, store.Record(ctx, Interaction{Command: "x", Success: true}))
	require.NoError(t, store.Record(ctx, Interaction{Command: "y"}))

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, st.TopWords)
	assert.Equal(t, "limpar", st.TopWords[0].Word)
	assert.Equal(t, 3, st.TopWords[0].Frequency)
	assert.Equal(t, []string{TopicProcess}, st.TopWords[0].Topics)
	assert.Equal(t, 0.5, st.SuccessRate)
}

func TestContextHistoryIsBounded(t *testing.T) {
	ctx := context.Background()
	c := NewContext(2)
	require.NoError(t, c.Record(ctx, Interaction{Command: "a", Intent: "x", Success: true}))
	require.NoError(t, c.Record(ctx, Interaction{Command: "b", Intent: "x"}))
	require.NoError(t, c.Record(ctx, Interaction{Command: "c", Intent: "x", Success: true}))

	h := c.History()
	require.Len(t, h, 2)
	assert.Equal(t, "b", h[0].Command)
	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "c", last.Command)
	assert.Equal(t, []string{"a", "c"}, c.Successful("x"))

	c.Reset()
	_, ok = c.Last()
	assert.False(t, ok)
}

func TestContextPatternsAreBounded(t *testing.T) {
	ctx := context.Background()
	c := NewContext(0)
	for i := 0; i < MaxPatterns+5; i++ {
		require.NoError(t, c.Record(ctx, Interaction{Command: fmt.Sprintf("ordenar por col%d", i), Intent: "sort", Success: true}))
	}
	require.NoError(t, c.Record(ctx, Interaction{Command: "ordenar por col10", Intent: "sort", Success: true}))
	require.NoError(t, c.Record(ctx, Interaction{Command: "sem intenção", Success: true}))

	got := c.Successful("sort")
	require.Len(t, got, MaxPatterns)
	assert.Equal(t, "ordenar por col5", got[0])
	assert.Equal(t, "ordenar por col10", got[len(got)-1])
	assert.Equal(t, 1, countOf(got, "ordenar por col10"))

	ps := c.Patterns()
	assert.Len(t, ps, 1)
	ps["sort"][0] = "changed"
	assert.Equal(t, "ordenar por col5", c.Successful("sort")[0])
}

func countOf(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}

func TestMultiRecordsEverywhere(t *testing.T) {
	ctx := context.Background()
	a, b := NewContext(0), NewMemoryStore()
	require.NoError(t, Multi{a, nil, b}.Record(ctx, Interaction{Command: "z", Success: true}))
	assert.Len(t, a.History(), 1)
	st, _ := b.Stats(ctx)
	assert.Equal(t, 1, st.Interactions)
}
