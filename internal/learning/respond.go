package learning

import (
	"context"
	"fmt"
	"strings"
)

const (
	// SimilarityThreshold is the minimum Similarity for a learned pattern
	// to be considered.
	SimilarityThreshold = 0.7
	// ReuseConfidence is the confidence a pattern needs before its
	// response is reused.
	ReuseConfidence = 0.6
	// candidateLimit bounds how many patterns are compared per reply.
	candidateLimit = 50
	// userToken is replaced with the user's name in stored responses.
	userToken = "[USER]"
)

// Topics of conversational input.
const (
	TopicGreeting   = "saudacao"
	TopicFarewell   = "despedida"
	TopicThanks     = "agradecimento"
	TopicSmallTalk  = "como_vai"
	TopicHelp       = "ajuda"
	TopicDownload   = "download"
	TopicProcess    = "processar"
	TopicContacts   = "multione"
	TopicCommercial = "comercial"
	TopicAnalysis   = "analise"
	TopicGeneral    = "geral"
)

type topicRule struct {
	topic string
	words []string
}

// topicRules is checked in order; the first substring hit wins.
var topicRules = []topicRule{
	{TopicGreeting, []string{"oi", "olá", "ola", "bom dia", "boa tarde", "boa noite", "hey", "hello"}},
	{TopicFarewell, []string{"tchau", "até", "adeus", "bye", "xau"}},
	{TopicThanks, []string{"obrigado", "obrigada", "valeu", "thanks"}},
	{TopicSmallTalk, []string{"tudo bem", "como vai", "como está", "beleza"}},
	{TopicHelp, []string{"ajuda", "help", "socorro", "como", "não sei"}},
	{TopicDownload, []string{"baixar", "download", "salvar", "exportar"}},
	{TopicProcess, []string{"processar", "formatar", "limpar", "organizar"}},
	{TopicContacts, []string{"multione", "google contacts", "contatos"}},
	{TopicCommercial, []string{"comercial", "empresa", "negócio"}},
	{TopicAnalysis, []string{"analisar", "verificar", "checar", "dados"}},
}

// Topic classifies conversational text. Matching is a plain lower-case
// substring test, so short words like "oi" also hit inside longer ones.
func Topic(text string) string {
	lower := strings.ToLower(text)
	for _, r := range topicRules {
		for _, w := range r.words {
			if strings.Contains(lower, w) {
				return r.topic
			}
		}
	}
	return TopicGeneral
}

var replies = map[string][]string{
	TopicGreeting: {
		"Olá [USER]! Como posso ajudar você hoje?",
		"Oi [USER]! Pronto para trabalhar com suas planilhas?",
		"Bem-vindo [USER]! O que você precisa?",
	},
	TopicFarewell: {
		"Até logo [USER]! Volte sempre.",
		"Tchau [USER]! Sua conversa foi salva.",
		"Até mais [USER]!",
	},
	TopicThanks: {
		"Por nada [USER]! Sempre que precisar.",
		"Disponha! Fico feliz em ajudar.",
		"De nada! Estou aqui para isso.",
	},
	TopicSmallTalk: {
		"Estou ótimo [USER]! Pronto para processar dados. E você?",
		"Tudo certo! Como posso ajudar?",
		"Muito bem! O que você precisa hoje?",
	},
	TopicHelp: {
		"Claro [USER]! Posso ajudar com:\n• multione - Google Contacts\n• comercial - dados comerciais\n• baixar - downloads\n\nO que você precisa?",
		"Estou aqui! Carregue uma planilha ou use os comandos rápidos.",
		"Sem problemas! Me diga o que você quer fazer.",
	},
	TopicDownload: {
		"Para baixar, você pode usar:\n• 'baixar' - Excel\n• 'baixar csv' - CSV\n• 'baixar zip' - Compactado",
		"Pronto para download! Qual formato você prefere?",
		"Posso preparar o download para você. Qual formato?",
	},
	TopicGeneral: {
		"Entendo [USER]. Pode me dar mais detalhes sobre o que você precisa?",
		"Interessante! Como posso ajudar com isso?",
		"Estou processando... Pode explicar melhor?",
	},
}

// Reply is the answer to a conversational message.
type Reply struct {
	Text       string  `json:"response"`
	Topic      string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Learned    bool    `json:"learned"`
}

// Responder answers conversational messages, reusing learned responses and
// learning new ones.
type Responder struct {
	store Store
	pick  func(input string, n int) int
}

// NewResponder returns a Responder backed by store.
func NewResponder(store Store) *Responder {
	return &Responder{store: store, pick: pickByLength}
}

func pickByLength(input string, n int) int {
	return len(input) % n
}

// Respond answers input on behalf of user. A sufficiently similar and
// trusted pattern is reused; otherwise a canned reply for the topic is
// given and learned.
func (r *Responder) Respond(ctx context.Context, input, user string) (Reply, error) {
	topic := Topic(input)

	patterns, err := r.store.Patterns(ctx, candidateLimit)
	if err != nil {
		return Reply{}, fmt.Errorf("loading patterns: %w", err)
	}
	if p, ok := Similar(patterns, input, SimilarityThreshold); ok && p.Confidence > ReuseConfidence {
		if err := r.store.MarkUsed(ctx, p.Input); err != nil {
			return Reply{}, fmt.Errorf("marking pattern used: %w", err)
		}
		return Reply{
			Text:       strings.ReplaceAll(p.Response, userToken, user),
			Topic:      topic,
			Confidence: p.Confidence,
			Learned:    true,
		}, nil
	}

	options, ok := replies[topic]
	if !ok {
		options = replies[TopicGeneral]
	}
	template := options[r.pick(input, len(options))]

	err = r.store.SavePattern(ctx, Pattern{
		Input:      input,
		Topic:      topic,
		Response:   template,
		Keywords:   Keywords(input),
		Confidence: InitialConfidence,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("learning pattern: %w", err)
	}
	return Reply{
		Text:       strings.ReplaceAll(template, userToken, user),
		Topic:      topic,
		Confidence: 0.5,
	}, nil
}

// Similar returns the pattern whose input is most similar to input, if any
// scores above threshold.
func Similar(patterns []Pattern, input string, threshold float64) (Pattern, bool) {
	var (
		best  Pattern
		score float64
		found bool
	)
	for _, p := range patterns {
		s := Similarity(input, p.Input)
		if s > threshold && s > score {
			best, score, found = p, s, true
		}
	}
	return best, found
}

// Similarity is the Ratcliff/Obershelp ratio of the lower-cased strings:
// twice the matched runes over the total runes, in [0, 1].
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matched(ra, rb)) / float64(total)
}

// matched counts runes in the longest common block of a and b plus,
// recursively, the blocks to its left and right.
func matched(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, n := longestBlock(a, b)
	if n == 0 {
		return 0
	}
	return n + matched(a[:ai], b[:bi]) + matched(a[ai+n:], b[bi+n:])
}

// longestBlock finds the longest common substring, earliest in a first.
func longestBlock(a, b []rune) (int, int, int) {
	var bestA, bestB, best int
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
					bestA, bestB = i-best, j-best
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestA, bestB, best
}
