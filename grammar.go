package syntaxis

import (
	"math"
	"strings"
)

// NoGovernor marks a rule without a syntactic head.
const NoGovernor = -1

// DefaultPriority is the priority of nonterminals not listed in @PRIOR.
const DefaultPriority = math.MaxInt32

// Rule is a context-free rule head ==> right[0] ... right[n-1].
type Rule struct {
	Head  string
	Right []string
	// Governor is the index in Right of the syntactic head, or NoGovernor.
	Governor int
}

// Symbol flags set by grammar directives.
const (
	flagHidden = 1 << iota
	flagOnlyTop
	flagFlat
	flagNoTop
)

// Grammar is a read-only constituency grammar shared by all charts.
type Grammar struct {
	// rules lists every rule in file order.
	rules []*Rule

	// rulesRight maps a first right-hand symbol to the rules starting with it.
	rulesRight map[string][]*Rule

	// rulesWildcard maps the first character of a wildcard first
	// symbol to the rules starting with it.
	rulesWildcard map[byte][]*Rule

	// rulesHead maps a head symbol to the rules producing it.
	rulesHead map[string][]*Rule

	// nonterminals holds every rule head.
	nonterminals map[string]bool

	// flags holds @HIDDEN/@ONLYTOP/@FLAT/@NOTOP bits per symbol.
	flags map[string]int

	// priority holds @PRIOR ranks, 1 being the highest.
	priority map[string]int

	// filemap maps a file name used in a quoted literal to its items.
	filemap map[string]map[string]bool

	start string
}

func newGrammar() *Grammar {
	return &Grammar{
		rulesRight:    make(map[string][]*Rule),
		rulesWildcard: make(map[byte][]*Rule),
		rulesHead:     make(map[string][]*Rule),
		nonterminals:  make(map[string]bool),
		flags:         make(map[string]int),
		priority:      make(map[string]int),
		filemap:       make(map[string]map[string]bool),
	}
}

// Start returns the start symbol.
func (g *Grammar) Start() string { return g.start }

// addRule registers a rule in every index.
func (g *Grammar) addRule(r *Rule) {
	g.rules = append(g.rules, r)
	g.nonterminals[r.Head] = true
	g.rulesHead[r.Head] = append(g.rulesHead[r.Head], r)
	if len(r.Right) == 0 {
		return
	}
	first := r.Right[0]
	if isWildcardSymbol(first) {
		g.rulesWildcard[first[0]] = append(g.rulesWildcard[first[0]], r)
		return
	}
	g.rulesRight[first] = append(g.rulesRight[first], r)
}

// RulesRight returns the rules whose first right-hand symbol is exactly sym.
func (g *Grammar) RulesRight(sym string) []*Rule {
	return g.rulesRight[sym]
}

// RulesRightWildcard returns the wildcard rules indexed under the first
// character of a terminal category.
func (g *Grammar) RulesRightWildcard(c byte) []*Rule {
	return g.rulesWildcard[c]
}

// RulesHead returns the rules producing sym.
func (g *Grammar) RulesHead(sym string) []*Rule {
	return g.rulesHead[sym]
}

// IsTerminal reports whether sym is not produced by any rule.
func (g *Grammar) IsTerminal(sym string) bool {
	return !g.nonterminals[sym]
}

// IsHidden reports whether sym is spliced out of every tree.
func (g *Grammar) IsHidden(sym string) bool { return g.flags[sym]&flagHidden != 0 }

// IsOnlyTop reports whether sym may only appear as a tree root.
func (g *Grammar) IsOnlyTop(sym string) bool { return g.flags[sym]&flagOnlyTop != 0 }

// IsFlat reports whether nested occurrences of sym are flattened.
func (g *Grammar) IsFlat(sym string) bool { return g.flags[sym]&flagFlat != 0 }

// IsNoTop reports whether sym may not be chosen as a tree root.
func (g *Grammar) IsNoTop(sym string) bool { return g.flags[sym]&flagNoTop != 0 }

// Priority returns the @PRIOR rank of sym, DefaultPriority when unranked.
func (g *Grammar) Priority(sym string) int {
	if p, ok := g.priority[sym]; ok {
		return p
	}
	return DefaultPriority
}

// Specificity returns how precisely a terminal symbol matches a word.
func (g *Grammar) Specificity(sym string) int {
	return symbolSpecificity(sym)
}

// InFileMap reports whether item is listed in the set file name.
func (g *Grammar) InFileMap(name, item string) bool {
	return g.filemap[name][item]
}

// MatchCategory reports whether a grammar pattern accepts a concrete
// category. Exact equality always matches. Otherwise the category part
// of the pattern must carry a '*' whose prefix starts the candidate, or
// equal it when the pattern suffix names a set file; literal suffixes
// must then agree verbatim, or through the set file for quoted ones.
func (g *Grammar) MatchCategory(pattern, candidate string) bool {
	if pattern == candidate {
		return true
	}
	pcat, psuf := splitSymbol(pattern)
	ccat, csuf := splitSymbol(candidate)
	pkind, pval := suffixValue(psuf)
	file, isFile := quoted(pval)

	if star := strings.IndexByte(pcat, '*'); star >= 0 {
		if !strings.HasPrefix(ccat, pcat[:star]) {
			return false
		}
	} else if !isFile || pcat != ccat {
		return false
	}

	if psuf == "" && csuf == "" {
		return true
	}
	if isFile {
		ckind, cval := suffixValue(csuf)
		return ckind == pkind && g.InFileMap(file, cval)
	}
	return psuf == csuf
}

// GrammarStats summarizes a loaded grammar.
type GrammarStats struct {
	Rules         int    `json:"rules"`
	Nonterminals  int    `json:"nonterminals"`
	WildcardRules int    `json:"wildcard_rules"`
	SetFiles      int    `json:"set_files"`
	Start         string `json:"start"`
}

// Stats returns counts describing the grammar.
func (g *Grammar) Stats() GrammarStats {
	wild := 0
	for _, rs := range g.rulesWildcard {
		wild += len(rs)
	}
	return GrammarStats{
		Rules:         len(g.rules),
		Nonterminals:  len(g.nonterminals),
		WildcardRules: wild,
		SetFiles:      len(g.filemap),
		Start:         g.start,
	}
}
