package deps

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Render formats cs as one aligned line per change:
//
//	left-pad:   ^1.0.0 => ^1.3.0
//	typescript: 5.0.0  => 5.6.3
//
// Widths are counted in runes. An empty set renders as "".
func Render(cs ChangeSet) string {
	if len(cs.Changes) == 0 {
		return ""
	}

	nameWidth, declWidth := 0, 0
	for _, c := range cs.Changes {
		nameWidth = max(nameWidth, utf8.RuneCountInString(c.Name))
		declWidth = max(declWidth, utf8.RuneCountInString(c.Declared.String()))
	}

	var b strings.Builder
	for _, c := range cs.Changes {
		fmt.Fprintf(&b, "%-*s %-*s => %s\n", nameWidth+1, c.Name+":", declWidth, c.Declared, c.Target())
	}
	return b.String()
}
