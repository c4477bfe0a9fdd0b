package intent

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/klytics/sheetkit/internal/textnorm"
)

// command is a received command in both forms the rules need.
type command struct {
	raw        string
	normalized string
}

// Rule pairs an intent with the predicate that selects it.
type Rule struct {
	Intent Intent
	match  func(c command) (Params, bool)
}

// Matches runs the rule's predicate against a raw command.
func (r Rule) Matches(raw string) (Params, bool) {
	return r.match(command{raw: raw, normalized: textnorm.Normalize(raw)})
}

var (
	columnNamePattern = regexp.MustCompile(`(?:coluna|col)\s+([a-z_][a-z0-9_]*)`)
	// Matches on the raw command so the literal keeps its casing and
	// punctuation. "com valor" is tried before "com" so that
	// "com valor ATIVO" yields ATIVO.
	valuePattern = regexp.MustCompile(`(?i:\b(?:com\s+(?:o\s+)?valor|com|valor)\b|=)\s*["']?([^"']+)["']?`)
)

// connectives may follow "coluna" without naming it, as in
// "adicionar coluna com DDD".
var connectives = map[string]bool{"com": true, "de": true, "do": true, "da": true, "para": true}

// sortSkipWords are never taken as the sort target.
var sortSkipWords = map[string]bool{
	"por": true, "pela": true, "pelo": true, "coluna": true,
	"crescente": true, "decrescente": true, "desc": true, "asc": true,
}

// rules is the baseline priority order. The first matching rule wins, so
// intents that share trigger words are disambiguated by position here.
var rules = []Rule{
	{CreateColumn, matchCreateColumn},
	{SplitName, whenAll(ActSplit, "nome")},
	{SplitTaxID, whenAll(ActSplit, "cnpj", "cpf")},
	{CleanTaxID, whenAll(ActClean, "cnpj")},
	{CleanEmail, whenAll(ActClean, "email")},
	{CleanPhone, whenAll(ActClean, "telefone", "fone")},
	{RemoveDuplicates, whenBoth(ActRemove, ActDuplicates)},
	{RemoveEmptyRows, whenBoth(ActRemove, ActEmpty)},
	{Sort, matchSort},
	{ToUpper, whenAll(ActUpper)},
	{ToLower, whenAll(ActLower)},
	{AddAreaCode, whenKeyword("ddd")},
	{AddEmailDomain, whenKeyword("dominio", "domain")},
}

// Rules returns the baseline rules in priority order.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// Classify runs the baseline classifier. It never fails: a command that no
// rule accepts yields Unknown with empty parameters.
func Classify(raw string) Classification {
	c := command{raw: raw, normalized: textnorm.Normalize(raw)}
	for _, r := range rules {
		if p, ok := r.match(c); ok {
			return Classification{Intent: r.Intent, Params: p}
		}
	}
	return Classification{Intent: Unknown}
}

// whenAll matches when act is mentioned and, if keywords are given, at
// least one keyword is present.
func whenAll(act Action, keywords ...string) func(command) (Params, bool) {
	return func(c command) (Params, bool) {
		if !mentions(c.normalized, act) {
			return Params{}, false
		}
		if len(keywords) > 0 && !textnorm.ContainsAny(c.normalized, keywords...) {
			return Params{}, false
		}
		return Params{}, true
	}
}

func whenBoth(act, qualifier Action) func(command) (Params, bool) {
	return func(c command) (Params, bool) {
		return Params{}, mentions(c.normalized, act) && mentions(c.normalized, qualifier)
	}
}

func whenKeyword(keywords ...string) func(command) (Params, bool) {
	return func(c command) (Params, bool) {
		return Params{}, textnorm.ContainsAny(c.normalized, keywords...)
	}
}

func matchCreateColumn(c command) (Params, bool) {
	if !mentions(c.normalized, ActCreate) || !strings.Contains(c.normalized, "coluna") {
		return Params{}, false
	}

	var p Params
	if m := columnNamePattern.FindStringSubmatch(c.normalized); m != nil {
		if connectives[m[1]] {
			// "coluna com DDD" asks for a derived column, not a literal one.
			if textnorm.ContainsAny(c.normalized, "ddd", "dominio", "domain") {
				return Params{}, false
			}
		} else {
			p.ColumnName = strings.ToUpper(m[1])
		}
	}
	if m := valuePattern.FindStringSubmatch(c.raw); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			p.Value = &v
		}
	}
	return p, true
}

func matchSort(c command) (Params, bool) {
	if !mentions(c.normalized, ActSort) {
		return Params{}, false
	}

	var p Params
	for _, word := range strings.Fields(c.normalized) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		if len(word) <= 2 || isSynonym(word, ActSort) || sortSkipWords[word] {
			continue
		}
		p.Column = word
		break
	}

	asc := !textnorm.ContainsAny(c.normalized, "z-a", "decrescente", "desc")
	p.Ascending = &asc
	return p, true
}
