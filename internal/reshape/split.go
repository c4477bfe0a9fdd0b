package reshape

import (
	"regexp"
	"strconv"

	"github.com/klytics/sheetkit/internal/table"
)

// DefaultParts is used when a split command names no count.
const DefaultParts = 8

var firstInteger = regexp.MustCompile(`\d+`)

// PartsFromCommand reads the first integer in command, falling back to
// DefaultParts when there is none or it is zero.
func PartsFromCommand(command string) int {
	if m := firstInteger.FindString(command); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			return n
		}
	}
	return DefaultParts
}

// RowsPerPart is the part size that spreads total rows over parts with
// none left behind.
func RowsPerPart(total, parts int) int {
	if parts <= 0 || total <= 0 {
		return 0
	}
	return (total + parts - 1) / parts
}

// Parts splits t into at most parts consecutive pieces of RowsPerPart rows.
// Trailing pieces may be shorter; empty pieces are not returned.
func Parts(t *table.Table, parts int) []*table.Table {
	return Chunks(t, RowsPerPart(t.Len(), parts))
}

// Chunks splits t into consecutive pieces of size rows.
func Chunks(t *table.Table, size int) []*table.Table {
	if size <= 0 || t.Len() == 0 {
		return nil
	}
	var out []*table.Table
	for from := 0; from < t.Len(); from += size {
		out = append(out, t.Slice(from, from+size))
	}
	return out
}
