package module

import (
	"strings"
	"unicode"
)

// Kind classifies a single physical line of a script header.
type Kind int

const (
	Blank Kind = iota
	Comment
	Requires        // "#requires ..." pragma comment
	ModuleImport    // "using module <ref>"
	NamespaceImport // "using namespace <name>"
	ParamStart      // "param(" opening a parameter block
	Code
)

var kindNames = [...]string{
	Blank:           "blank",
	Comment:         "comment",
	Requires:        "requires",
	ModuleImport:    "module-import",
	NamespaceImport: "namespace-import",
	ParamStart:      "param-start",
	Code:            "code",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsImport reports whether k is a module or namespace directive.
func (k Kind) IsImport() bool {
	return k == ModuleImport || k == NamespaceImport
}

// IsHeader reports whether a line of kind k may appear in a header without
// ending it. Parameter block starts are handled separately by callers.
func (k Kind) IsHeader() bool {
	switch k {
	case Blank, Comment, Requires, ModuleImport, NamespaceImport:
		return true
	}
	return false
}

// Classify returns the kind of line. Classification is positional: it looks
// only at the leading keyword of the trimmed line. Keywords are matched
// case-insensitively.
func Classify(line string) Kind {
	t := strings.TrimSpace(line)
	switch {
	case t == "":
		return Blank
	case strings.HasPrefix(t, "#"):
		if len(t) > 1 && !unicode.IsSpace(rune(t[1])) && hasKeyword(t[1:], "requires") {
			return Requires
		}
		return Comment
	case IsParamStart(t):
		return ParamStart
	}
	if rest, ok := cutKeyword(t, "using"); ok {
		if _, ok := cutKeyword(rest, "module"); ok {
			return ModuleImport
		}
		if _, ok := cutKeyword(rest, "namespace"); ok {
			return NamespaceImport
		}
	}
	return Code
}

// ModuleRef returns the raw reference of a "using module" line with one pair
// of matching surrounding quotes removed.
func ModuleRef(line string) (string, bool) {
	rest, ok := directiveArg(line, "module")
	if !ok {
		return "", false
	}
	return unquote(rest), true
}

// NamespaceName returns the argument of a "using namespace" line.
func NamespaceName(line string) (string, bool) {
	return directiveArg(line, "namespace")
}

// IsParamStart reports whether the trimmed line opens a parameter block:
// "param(" or "param (".
func IsParamStart(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < len("param") || !strings.EqualFold(t[:len("param")], "param") {
		return false
	}
	return strings.HasPrefix(strings.TrimLeftFunc(t[len("param"):], unicode.IsSpace), "(")
}

// ClosesParam reports whether line ends an open parameter block.
func ClosesParam(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), ")")
}

// ParamBalanced reports whether a parameter block opened on line also closes
// on it, as in "param([string]$Name)".
func ParamBalanced(line string) bool {
	open := strings.Count(line, "(")
	return open > 0 && open == strings.Count(line, ")")
}

func directiveArg(line, keyword string) (string, bool) {
	rest, ok := cutKeyword(strings.TrimSpace(line), "using")
	if !ok {
		return "", false
	}
	rest, ok = cutKeyword(rest, keyword)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// cutKeyword strips a leading keyword from s. The keyword must be followed by
// whitespace or the end of s.
func cutKeyword(s, keyword string) (string, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if len(s) < len(keyword) || !strings.EqualFold(s[:len(keyword)], keyword) {
		return "", false
	}
	rest := s[len(keyword):]
	if rest != "" && !unicode.IsSpace(rune(rest[0])) {
		return "", false
	}
	return rest, true
}

func hasKeyword(s, keyword string) bool {
	_, ok := cutKeyword(s, keyword)
	return ok
}

func unquote(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '\'' || q == '"') && s[len(s)-1] == q {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
