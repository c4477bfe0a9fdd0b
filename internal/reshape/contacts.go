package reshape

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/klytics/sheetkit/internal/resolve"
	"github.com/klytics/sheetkit/internal/table"
	"github.com/klytics/sheetkit/internal/textnorm"
	"github.com/klytics/sheetkit/internal/transform"
)

// Contact import output columns.
const (
	ColContactName  = "NOME"
	ColContactPhone = "TELEFONE"
)

// Contact export headers recognized verbatim.
const (
	headerFirstName = "First Name"
	headerLastName  = "Last Name"
	headerName      = "Name"
	headerPhone     = "Phone 1 - Value"
)

// ContactOptions tunes contact normalization.
type ContactOptions struct {
	// CountryCode is prefixed to numbers that do not carry it.
	CountryCode string
	// Placeholder replaces names that clean down to nothing useful.
	Placeholder string
}

// DefaultContactOptions targets Brazilian numbers.
func DefaultContactOptions() ContactOptions {
	return ContactOptions{CountryCode: "55", Placeholder: "Contato"}
}

// ContactStats summarizes a contact import.
type ContactStats struct {
	Input             int
	Kept              int
	InvalidPhones     int
	DuplicatesRemoved int
	Placeholders      int
	NameSource        string
	PhoneSource       string
}

// noiseTokens are dropped from display names wherever they appear.
var noiseTokens = map[string]bool{
	"whatsapp": true, "whats": true, "wpp": true, "zap": true,
	"cel": true, "celular": true, "tel": true, "telefone": true, "fone": true,
	"contato": true, "novo": true, "nova": true, "cliente": true,
}

var numericRun = regexp.MustCompile(`^[\d\s()+\-./]+$`)

// Contacts rebuilds t as a two-column NOME/TELEFONE list ready for import.
// Rows whose phone cannot be normalized are dropped, then rows repeating an
// earlier phone. It reports false when no phone column can be found.
func Contacts(t *table.Table, opts ContactOptions) (*table.Table, ContactStats, bool) {
	stats := ContactStats{Input: t.Len()}
	cols := t.Columns()

	phoneCol, ok := contactPhoneColumn(cols)
	if !ok {
		return nil, stats, false
	}
	stats.PhoneSource = phoneCol
	name := contactNameSource(t, cols, &stats)

	var names, phones []table.Value
	seen := make(map[string]bool)
	for r := 0; r < t.Len(); r++ {
		phone, valid := NormalizePhone(t.Cell(r, phoneCol).Text(), opts.CountryCode)
		if !valid {
			stats.InvalidPhones++
			continue
		}
		if seen[phone] {
			stats.DuplicatesRemoved++
			continue
		}
		seen[phone] = true

		clean, placeholder := CleanName(name(r), opts.Placeholder)
		if placeholder {
			stats.Placeholders++
		}
		names = append(names, table.String(clean))
		phones = append(phones, table.String(phone))
	}

	out := &table.Table{}
	mustSet(out, ColContactName, nonNil(names))
	mustSet(out, ColContactPhone, nonNil(phones))
	stats.Kept = out.Len()
	return out, stats, true
}

func nonNil(v []table.Value) []table.Value {
	if v == nil {
		return []table.Value{}
	}
	return v
}

func contactPhoneColumn(cols []string) (string, bool) {
	for _, c := range cols {
		if c == headerPhone {
			return c, true
		}
	}
	if c, ok := resolve.Column(resolve.Keyword("phone 1"), cols); ok {
		return c, true
	}
	return resolve.Column(resolve.Role{Name: "telefone", Keywords: []string{"phone", "telefone", "fone", "celular"}}, cols)
}

// contactNameSource returns a per-row name reader.
func contactNameSource(t *table.Table, cols []string, stats *ContactStats) func(r int) string {
	has := func(name string) bool {
		for _, c := range cols {
			if c == name {
				return true
			}
		}
		return false
	}
	switch {
	case has(headerFirstName):
		stats.NameSource = headerFirstName
		return func(r int) string {
			full := t.Cell(r, headerFirstName).Text()
			if has(headerLastName) {
				full += " " + t.Cell(r, headerLastName).Text()
			}
			return full
		}
	case has(headerName):
		stats.NameSource = headerName
		return func(r int) string { return t.Cell(r, headerName).Text() }
	}
	if c, ok := resolve.Column(resolve.Role{Name: "nome", Keywords: []string{"name", "nome"}}, cols); ok {
		stats.NameSource = c
		return func(r int) string { return t.Cell(r, c).Text() }
	}
	return func(int) string { return "" }
}

// NormalizePhone reduces raw to digits and prefixes countryCode unless the
// number already carries it. Only 12 or 13 digit results are valid.
func NormalizePhone(raw, countryCode string) (string, bool) {
	d := textnorm.Digits(raw)
	if d == "" {
		return "", false
	}
	if !(strings.HasPrefix(d, countryCode) && len(d) >= 12) {
		d = countryCode + d
	}
	if len(d) < 12 || len(d) > 13 {
		return "", false
	}
	return d, true
}

// CleanName strips noise words, emojis, leading digits or symbols and bare
// numbers from a display name, then title-cases it. When too little is left
// it returns placeholder and true.
func CleanName(raw, placeholder string) (string, bool) {
	kept := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case r == '\'', r == '-', r == '.':
			return r
		}
		return ' '
	}, raw)

	var words []string
	for _, w := range strings.Fields(kept) {
		bare := strings.Trim(w, "'-.")
		if bare == "" || noiseTokens[textnorm.Normalize(bare)] || numericRun.MatchString(bare) {
			continue
		}
		words = append(words, w)
	}
	name := strings.TrimLeftFunc(strings.Join(words, " "), func(r rune) bool { return !unicode.IsLetter(r) })
	name = strings.TrimSpace(name)

	if len([]rune(name)) < 2 || numericRun.MatchString(name) {
		return placeholder, true
	}
	return transform.Capitalize(name), false
}
