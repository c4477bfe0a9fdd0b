package table

import (
	"fmt"
	"strings"
)

// Headers turns a raw header row into usable column names: surrounding
// space is trimmed, blank headers become "Coluna N" (1-based position) and
// repeated names get a "_2", "_3"... suffix.
func Headers(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Coluna %d", i+1)
		}
		base := name
		for seen[name] > 0 {
			seen[base]++
			name = fmt.Sprintf("%s_%d", base, seen[base])
		}
		seen[name]++
		out[i] = name
	}
	return out
}
