package pysrc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Quote returns s as a double-quoted Python string literal.
// Non-ASCII printable text is kept as is; the emitted file is UTF-8.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case r < 0x20 || r == 0x7f:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r == unicode.ReplacementChar, r == 0x2028, r == 0x2029:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Bool returns the Python spelling of v.
func Bool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// Int returns the Python literal of v.
func Int(v int) string {
	return strconv.Itoa(v)
}

// Float returns the shortest Python literal of v.
func Float(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// OptString returns a quoted literal, or None when s is empty.
func OptString(s string) string {
	if s == "" {
		return "None"
	}
	return Quote(s)
}

// StrList returns a Python list literal of quoted strings.
func StrList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = Quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// StrTuple returns a Python tuple literal of quoted strings.
func StrTuple(items []string) string {
	if len(items) == 1 {
		return "(" + Quote(items[0]) + ",)"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = Quote(s)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// StrSet returns a Python set literal of quoted strings in input order.
// An empty input produces "set()".
func StrSet(items []string) string {
	if len(items) == 0 {
		return "set()"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = Quote(s)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true, "assert": true,
	"async": true, "await": true, "break": true, "class": true, "continue": true,
	"def": true, "del": true, "elif": true, "else": true, "except": true, "finally": true,
	"for": true, "from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true, "pass": true,
	"raise": true, "return": true, "try": true, "while": true, "with": true, "yield": true,
	"match": true, "case": true, "type": true,
}

// Ident turns arbitrary text into a valid Python identifier.
// Accents are folded (NFKD), anything else outside [A-Za-z0-9_] becomes "_".
func Ident(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range norm.NFKD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	id := strings.Trim(b.String(), "_")
	if id == "" {
		id = "node"
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "n_" + id
	}
	if keywords[id] {
		id += "_"
	}
	return id
}

// Names hands out unique identifiers within one generated module.
// It is not safe for concurrent use; build it before fanning out.
type Names struct {
	used map[string]bool
}

// NewNames returns a registry with the given identifiers already taken.
func NewNames(reserved ...string) *Names {
	n := &Names{used: make(map[string]bool, len(reserved))}
	for _, r := range reserved {
		n.used[r] = true
	}
	return n
}

// Unique returns base, or base_2, base_3... when base is taken, and marks it used.
func (n *Names) Unique(base string) string {
	name := base
	for i := 2; n.used[name]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	n.used[name] = true
	return name
}

// Taken lists the used identifiers, sorted.
func (n *Names) Taken() []string {
	out := make([]string, 0, len(n.used))
	for k := range n.used {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
