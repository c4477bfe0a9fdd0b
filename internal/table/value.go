package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindNull is the single canonical missing value.
	KindNull Kind = iota
	// KindBool is a boolean cell.
	KindBool
	// KindNumber is a float64 cell. NaN and Inf are never stored.
	KindNumber
	// KindString is a text cell. The empty string is not null.
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is a tagged spreadsheet cell. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
}

// Null returns the canonical null value.
func Null() Value { return Value{} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number returns a numeric value. NaN and infinities collapse to null.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, n: f}
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// StringOrNull returns null for the empty string and a text value otherwise.
func StringOrNull(s string) Value {
	if s == "" {
		return Null()
	}
	return String(s)
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the canonical null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBlank reports whether v is null or a whitespace-only string.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.s) == ""
	default:
		return false
	}
}

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Text renders v as text. Null renders as "", numbers use the shortest
// exact decimal form and booleans render as "true"/"false".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Float coerces v to a number. Strings are parsed after trimming and accept
// both "1234.5" and the Brazilian "1.234,5" forms.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		return parseNumber(v.s)
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f, true
	}
	if strings.Contains(s, ",") {
		br := strings.ReplaceAll(s, ".", "")
		br = strings.Replace(br, ",", ".", 1)
		if f, err := strconv.ParseFloat(br, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// Compare orders two non-null values: booleans before numbers before strings,
// numbers numerically, strings byte-wise. Null sorts after everything.
func (v Value) Compare(o Value) int {
	if v.kind == KindNull || o.kind == KindNull {
		switch {
		case v.kind == o.kind:
			return 0
		case v.kind == KindNull:
			return 1
		default:
			return -1
		}
	}
	if v.kind != o.kind {
		if v.kind < o.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindNumber:
		switch {
		case v.n < o.n:
			return -1
		case v.n > o.n:
			return 1
		}
		return 0
	case KindBool:
		switch {
		case v.b == o.b:
			return 0
		case !v.b:
			return -1
		}
		return 1
	default:
		return strings.Compare(v.s, o.s)
	}
}

// key is an unambiguous encoding used for row hashing.
func (v Value) key() string {
	switch v.kind {
	case KindString:
		return "s" + strconv.Itoa(len(v.s)) + ":" + v.s
	case KindNumber:
		return "n" + strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindBool:
		return "b" + strconv.FormatBool(v.b)
	default:
		return "_"
	}
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.Text()
}

// Any returns the Go representation used by JSON encoders and renderers.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return v.n
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// FromAny converts a decoded JSON scalar (or common Go scalar) into a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", t, err)
		}
		return Number(f), nil
	case Value:
		return t, nil
	default:
		return Null(), fmt.Errorf("unsupported cell type %T — cells must be string, number, boolean or null", x)
	}
}

// MarshalJSON encodes v as a JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a JSON scalar into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	var x any
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	val, err := FromAny(x)
	if err != nil {
		return err
	}
	*v = val
	return nil
}
