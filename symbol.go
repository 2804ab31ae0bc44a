package syntaxis

import "strings"

// splitSymbol separates a grammar symbol into its category part and its
// literal suffix: "VMI*<comer>" -> ("VMI*", "<comer>"). The suffix is
// empty when the symbol carries no lemma or form literal.
func splitSymbol(s string) (category, suffix string) {
	i := strings.IndexAny(s, "<(")
	if i <= 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// suffixValue splits a literal suffix into its opening bracket and its
// content: "<comer>" -> ('<', "comer").
func suffixValue(suffix string) (byte, string) {
	if len(suffix) < 2 {
		return 0, ""
	}
	return suffix[0], suffix[1 : len(suffix)-1]
}

// quoted reports whether a suffix content is a quoted file name, and
// returns the unquoted name.
func quoted(content string) (string, bool) {
	if len(content) >= 2 && content[0] == '"' && content[len(content)-1] == '"' {
		return content[1 : len(content)-1], true
	}
	return "", false
}

// isWildcardSymbol reports whether a right-hand symbol needs pattern
// matching instead of exact lookup.
func isWildcardSymbol(s string) bool {
	category, suffix := splitSymbol(s)
	if strings.Contains(category, "*") {
		return true
	}
	_, content := suffixValue(suffix)
	_, ok := quoted(content)
	return ok
}

// Terminal specificity ranks, lower is more specific.
const (
	SpecificityForm     = 0
	SpecificityLemma    = 1
	SpecificityTag      = 2
	SpecificityWildcard = 3
)

// symbolSpecificity ranks how precisely a terminal symbol constrains a
// word.
func symbolSpecificity(s string) int {
	category, suffix := splitSymbol(s)
	switch {
	case strings.HasPrefix(suffix, "("):
		return SpecificityForm
	case strings.HasPrefix(suffix, "<"):
		return SpecificityLemma
	case strings.Contains(category, "*"):
		return SpecificityWildcard
	default:
		return SpecificityTag
	}
}

// terminalSymbols builds the three terminal symbols a chart creates for
// one reading of a word: bare tag, tag(form) and tag<lemma>.
func terminalSymbols(w *Word, a Analysis) [3]string {
	return [3]string{
		a.Tag,
		a.Tag + "(" + w.LcForm() + ")",
		a.Tag + "<" + a.Lemma + ">",
	}
}
