// Package glossary answers "how do I ... in Excel" questions from an embedded
// catalogue of spreadsheet functions with Portuguese keywords.
package glossary

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/klytics/sheetkit/internal/resolve"
	"github.com/klytics/sheetkit/internal/textnorm"
)

//go:embed knowledge.yaml
var knowledgeYAML []byte

// MaxResults caps Search.
const MaxResults = 5

// Function is one catalogue entry.
type Function struct {
	Name        string   `yaml:"name" json:"name"`
	Category    string   `yaml:"-" json:"category"`
	Description string   `yaml:"description" json:"description"`
	Syntax      string   `yaml:"syntax" json:"syntax"`
	Examples    []string `yaml:"examples" json:"examples"`
	Keywords    []string `yaml:"pt" json:"-"`
}

type category struct {
	Name      string     `yaml:"name"`
	Functions []Function `yaml:"functions"`
}

type document struct {
	Categories []category `yaml:"categories"`
	Tips       []string   `yaml:"tips"`
}

// entry is one index key pointing at a function.
type entry struct {
	keyword string
	fn      int
}

// Glossary is an immutable, ordered keyword index over the catalogue.
type Glossary struct {
	funcs []Function
	index []entry
	tips  []string
}

// Parse builds a glossary from YAML. Keys are indexed in document order:
// each function's name first, then its keywords.
func Parse(data []byte) (*Glossary, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing glossary: %w", err)
	}
	g := &Glossary{tips: doc.Tips}
	for _, c := range doc.Categories {
		for _, f := range c.Functions {
			if f.Name == "" {
				return nil, fmt.Errorf("glossary category %q has a function without a name", c.Name)
			}
			f.Category = c.Name
			i := len(g.funcs)
			g.funcs = append(g.funcs, f)
			g.index = append(g.index, entry{textnorm.Normalize(f.Name), i})
			for _, k := range f.Keywords {
				g.index = append(g.index, entry{textnorm.Normalize(k), i})
			}
		}
	}
	return g, nil
}

var (
	defaultOnce sync.Once
	defaultG    *Glossary
)

// Default returns the embedded glossary.
func Default() *Glossary {
	defaultOnce.Do(func() {
		g, err := Parse(knowledgeYAML)
		if err != nil {
			panic(err)
		}
		defaultG = g
	})
	return defaultG
}

// Len returns the number of functions.
func (g *Glossary) Len() int { return len(g.funcs) }

// Search returns up to MaxResults functions whose name or keyword occurs in
// query, or that contain the whole query, in index order. Keywords shorter
// than three letters only match as whole words.
func (g *Glossary) Search(query string) []Function {
	q := textnorm.Normalize(query)
	if q == "" {
		return nil
	}
	words := strings.FieldsFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.')
	})

	var out []Function
	seen := make(map[int]bool)
	for _, e := range g.index {
		if seen[e.fn] || !matches(e.keyword, q, words) {
			continue
		}
		seen[e.fn] = true
		out = append(out, g.funcs[e.fn])
		if len(out) == MaxResults {
			break
		}
	}
	return out
}

func matches(keyword, query string, words []string) bool {
	if len(keyword) < 3 {
		for _, w := range words {
			if w == keyword {
				return true
			}
		}
		return false
	}
	return strings.Contains(query, keyword) || strings.Contains(keyword, query)
}

// Explain names the catalogue functions used in formula.
func (g *Glossary) Explain(formula string) string {
	upper := strings.ToUpper(formula)
	var lines []string
	for _, f := range g.funcs {
		if strings.Contains(upper, f.Name+"(") {
			lines = append(lines, fmt.Sprintf("• %s: %s", f.Name, f.Description))
		}
	}
	if len(lines) == 0 {
		return "Não consegui identificar as funções nesta fórmula."
	}
	return "Essa fórmula usa:\n" + strings.Join(lines, "\n")
}

// Tips returns general spreadsheet tips.
func (g *Glossary) Tips() []string {
	return append([]string(nil), g.tips...)
}

// Suggestion is a ready-to-paste formula for the user's own columns.
type Suggestion struct {
	Description string `json:"description"`
	Template    string `json:"template"`
	Column      string `json:"column,omitempty"`
}

// Formula substitutes the suggested column into the template.
func (s Suggestion) Formula() string {
	return strings.ReplaceAll(s.Template, "{col}", s.Column)
}

type formulaRule struct {
	triggers []string
	role     resolve.Role
	s        Suggestion
}

var formulaRules = []formulaRule{
	{[]string{"dominio", "email"}, resolve.Email, Suggestion{
		Description: "Extrair domínio do email",
		Template:    `=DIREITA({col}; NÚM.CARACT({col}) - LOCALIZAR("@"; {col}))`,
	}},
	{[]string{"ddd"}, resolve.Keyword("telefone"), Suggestion{
		Description: "Extrair DDD do telefone",
		Template:    `=EXT.TEXTO({col}; LOCALIZAR("("; {col})+1; 2)`,
	}},
	{[]string{"primeiro nome"}, resolve.Keyword("nome"), Suggestion{
		Description: "Extrair primeiro nome",
		Template:    `=ESQUERDA({col}; LOCALIZAR(" "; {col})-1)`,
	}},
}

// SuggestFormula proposes a formula for a question, pointing it at the
// first fitting column. Column is empty when none fits.
func SuggestFormula(query string, columns []string) (Suggestion, bool) {
	q := textnorm.Normalize(query)
	for _, r := range formulaRules {
		if !textnorm.ContainsAny(q, r.triggers...) {
			continue
		}
		s := r.s
		s.Column, _ = resolve.Column(r.role, columns)
		return s, true
	}
	return Suggestion{}, false
}
