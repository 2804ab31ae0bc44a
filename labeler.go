package syntaxis

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"
)

// Fixed relation labels.
const (
	// LabelTop is given to the root of every dependency tree.
	LabelTop = "top"
	// LabelNoRule marks dependents of a governor with no rule list.
	LabelNoRule = "modnorule"
	// LabelNoMatch marks dependents no rule of the list accepted.
	LabelNoMatch = "modnomatch"
)

// checkNode selects the node a check looks at.
type checkNode int

const (
	nodeParent checkNode = iota
	nodeDependent
)

// checkFunc is the property a check tests.
type checkFunc int

const (
	fnLabel checkFunc = iota
	fnSide
	fnLemma
	fnClass
	fnPos
	fnTonto
	fnSemFile
	fnSynon
	fnASynon
)

var checkFuncNames = map[string]checkFunc{
	"label":   fnLabel,
	"side":    fnSide,
	"lemma":   fnLemma,
	"class":   fnClass,
	"pos":     fnPos,
	"tonto":   fnTonto,
	"semfile": fnSemFile,
	"synon":   fnSynon,
	"asynon":  fnASynon,
}

// semantic reports whether the function needs a semantic database.
func (f checkFunc) semantic() bool {
	return f >= fnTonto
}

// check is one atomic, possibly negated, condition of a labeling rule.
type check struct {
	node    checkNode
	fn      checkFunc
	values  []string
	re      *regexp.Regexp
	negated bool
}

// LabelRule assigns Label to a dependent when every check holds.
type LabelRule struct {
	Ancestor string
	Label    string
	checks   []check
}

// Labeler assigns relation labels to dependency edges.
type Labeler struct {
	rules   map[string][]*LabelRule
	classes *WordClasses
	semdb   SemanticDB
	logger  *slog.Logger
	count   int
}

// NumRules returns the number of loaded rules.
func (l *Labeler) NumRules() int { return l.count }

// Label labels the root LabelTop and every other node with the first
// rule, keyed by its governor's linked parse label, that accepts it.
func (l *Labeler) Label(d *DepTree) {
	if d == nil || d.Root == nil {
		return
	}
	d.Root.Label = LabelTop
	l.labelChildren(d, d.Root)
}

func (l *Labeler) labelChildren(d *DepTree, anc *DepNode) {
	key := d.LinkLabel(anc)
	rules, ok := l.rules[key]
	for _, dep := range anc.Children {
		switch {
		case !ok:
			dep.Label = LabelNoRule
		default:
			dep.Label = LabelNoMatch
			for _, r := range rules {
				if l.matches(d, r, anc, dep) {
					dep.Label = r.Label
					break
				}
			}
		}
		l.labelChildren(d, dep)
	}
}

// matches evaluates the conjunction of the rule checks.
func (l *Labeler) matches(d *DepTree, r *LabelRule, anc, dep *DepNode) bool {
	for _, c := range r.checks {
		n, other := dep, anc
		if c.node == nodeParent {
			n, other = anc, dep
		}
		if l.eval(d, c, n, other) == c.negated {
			return false
		}
	}
	return true
}

func (l *Labeler) eval(d *DepTree, c check, n, other *DepNode) bool {
	w := n.Word
	switch c.fn {
	case fnLabel:
		return slices.Contains(c.values, d.LinkLabel(n))
	case fnSide:
		side := "right"
		if w != nil && other.Word != nil && w.Position < other.Word.Position {
			side = "left"
		}
		return slices.Contains(c.values, side)
	}
	if w == nil {
		return false
	}
	switch c.fn {
	case fnLemma:
		return slices.Contains(c.values, w.Lemma())
	case fnClass:
		return slices.ContainsFunc(c.values, func(cl string) bool { return l.classes.Contains(cl, w.Lemma()) })
	case fnPos:
		return c.re.MatchString(w.Tag())
	case fnTonto:
		for _, s := range wordSenses(l.semdb, w) {
			if slices.ContainsFunc(l.semdb.TopOntology(s), func(t string) bool { return slices.Contains(c.values, t) }) {
				return true
			}
		}
		return false
	case fnSemFile:
		for _, s := range wordSenses(l.semdb, w) {
			if slices.Contains(c.values, l.semdb.SemFile(s)) {
				return true
			}
		}
		return false
	case fnSynon, fnASynon:
		own := wordSenses(l.semdb, w)
		var mine map[string]bool
		if c.fn == fnASynon {
			mine = ancestors(l.semdb, own)
		} else {
			mine = make(map[string]bool, len(own))
			for _, s := range own {
				mine[s] = true
			}
		}
		pos := strings.ToLower(w.Tag()[:min(1, len(w.Tag()))])
		for _, lemma := range c.values {
			for _, s := range l.semdb.Senses(lemma, pos) {
				if mine[s] {
					return true
				}
			}
		}
		return false
	}
	return false
}
