package syntaxis

import (
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"
)

// Operation is the tree surgery performed by a completion rule.
type Operation int

const (
	// OpTopLeft hangs the right chunk under the left chunk root.
	OpTopLeft Operation = iota
	// OpTopRight hangs the left chunk under the right chunk root.
	OpTopRight
	// OpLastLeft hangs the right chunk under the deepest matching node
	// of the left chunk's right frontier.
	OpLastLeft
	// OpLastRight hangs the left chunk under the deepest matching node
	// of the right chunk's left frontier.
	OpLastRight
	// OpCoverLastLeft moves the matching node of the left chunk under
	// the right chunk root and puts the result in the node's place.
	OpCoverLastLeft
)

var operationNames = map[string]Operation{
	"top_left":        OpTopLeft,
	"top_right":       OpTopRight,
	"last_left":       OpLastLeft,
	"last_right":      OpLastRight,
	"cover_last_left": OpCoverLastLeft,
}

func (op Operation) String() string {
	for name, o := range operationNames {
		if o == op {
			return name
		}
	}
	return "unknown"
}

// locates reports whether the operation needs a node inside a chunk.
func (op Operation) locates() bool {
	return op == OpLastLeft || op == OpLastRight || op == OpCoverLastLeft
}

// anyLabel matches every chunk label in a rule pair.
const anyLabel = "*"

// Context pattern tokens.
const (
	contextPair = "$$"
	contextAny  = "*"
	contextOut  = "OUT"
)

// initFlag is active at the start of every completion.
const initFlag = "INIT"

// sideCondition constrains one chunk of a rule pair.
type sideCondition struct {
	label  string
	lemmas []string
	forms  []string
	class  string
	pos    *regexp.Regexp
}

// holds checks the extra conditions against the head word of a chunk.
func (sc *sideCondition) holds(w *Word, classes *WordClasses) bool {
	if w == nil {
		return sc.lemmas == nil && sc.forms == nil && sc.class == "" && sc.pos == nil
	}
	if sc.lemmas != nil && !slices.Contains(sc.lemmas, w.Lemma()) {
		return false
	}
	if sc.forms != nil && !slices.Contains(sc.forms, w.LcForm()) {
		return false
	}
	if sc.class != "" && !classes.Contains(sc.class, w.Lemma()) {
		return false
	}
	if sc.pos != nil && !sc.pos.MatchString(w.Tag()) {
		return false
	}
	return true
}

// contextPattern constrains the chunks around a pair. left holds the
// elements left of $$ nearest first.
type contextPattern struct {
	always  bool
	negated bool
	left    []string
	right   []string
}

// CompleterRule merges two adjacent chunks.
type CompleterRule struct {
	Weight int
	// Enabling lists flags of which one must be active; empty means
	// the rule is always enabled.
	Enabling []string
	Op       Operation
	// Relabel is set for RELABEL rules, unset for MATCHING rules.
	Relabel  bool
	NewLabel string
	FlagsOn  []string
	FlagsOff []string

	context     contextPattern
	left, right sideCondition
	index       int
}

// targetLabel returns the label a locating rule searches for.
func (r *CompleterRule) targetLabel(chunkRoot string) string {
	if r.Relabel || r.NewLabel == "-" {
		return chunkRoot
	}
	return r.NewLabel
}

// Completer joins the chunks of a partial parse into one tree using a
// weighted rule base. It holds no per-sentence state and may be shared.
type Completer struct {
	rules   map[[2]string][]*CompleterRule
	classes *WordClasses
	logger  *slog.Logger
	count   int
}

// NumRules returns the number of loaded rules.
func (c *Completer) NumRules() int { return c.count }

// completion is the process state of one Complete call.
type completion struct {
	tree   *ParseTree
	start  string
	chunks []NodeID
	flags  map[string]bool
}

// candidate is an applicable rule at pair position pos. located is the
// node found for locating operations.
type candidate struct {
	rule    *CompleterRule
	pos     int
	located NodeID
}

var defaultRule = &CompleterRule{Weight: math.MaxInt, Op: OpTopLeft, NewLabel: "-", index: math.MaxInt}

// Complete merges the chunks under a fictitious start root into a
// single tree and returns it. Trees whose root is not a headless start
// node are returned unchanged.
func (c *Completer) Complete(t *ParseTree, start string) *ParseTree {
	if t == nil || t.Root == NoNode {
		return t
	}
	root := t.Node(t.Root)
	if root.Label != start || t.IsLeaf(t.Root) || t.HeadChild(t.Root) != NoNode {
		return t
	}

	st := &completion{
		tree:   t,
		start:  start,
		chunks: append([]NodeID(nil), t.Children(t.Root)...),
		flags:  map[string]bool{initFlag: true},
	}
	for i, ch := range st.chunks {
		t.Detach(ch)
		t.Node(ch).ChunkID = i + 1
	}

	for len(st.chunks) > 1 {
		best := c.bestCandidate(st)
		c.apply(st, best)
	}

	t.Root = st.chunks[0]
	t.Node(t.Root).Head = true
	return t
}

// bestCandidate returns the lowest-weight applicable candidate over all pairs,
// the leftmost one on ties.
func (c *Completer) bestCandidate(st *completion) candidate {
	var best *candidate
	for i := 0; i+1 < len(st.chunks); i++ {
		found := false
		for _, r := range c.lookup(st, i) {
			located, ok := c.applicable(st, r, i)
			if !ok {
				continue
			}
			found = true
			if best == nil || r.Weight < best.rule.Weight {
				best = &candidate{rule: r, pos: i, located: located}
			}
		}
		if !found && best == nil {
			best = &candidate{rule: defaultRule, pos: i, located: NoNode}
		}
	}
	return *best
}

// lookup returns the rules keyed by the labels of pair i, in file order.
func (c *Completer) lookup(st *completion, i int) []*CompleterRule {
	l := st.tree.Node(st.chunks[i]).Label
	r := st.tree.Node(st.chunks[i+1]).Label
	var out []*CompleterRule
	for _, k := range [][2]string{{l, r}, {l, anyLabel}, {anyLabel, r}, {anyLabel, anyLabel}} {
		out = append(out, c.rules[k]...)
	}
	slices.SortStableFunc(out, func(a, b *CompleterRule) int { return a.index - b.index })
	return slices.CompactFunc(out, func(a, b *CompleterRule) bool { return a == b })
}

// applicable checks a rule against pair i and, for locating operations,
// returns the node found.
func (c *Completer) applicable(st *completion, r *CompleterRule, i int) (NodeID, bool) {
	t := st.tree
	left, right := st.chunks[i], st.chunks[i+1]
	if !r.left.holds(t.HeadWord(left), c.classes) || !r.right.holds(t.HeadWord(right), c.classes) {
		return NoNode, false
	}
	if !enabledRule(r, st.flags) {
		return NoNode, false
	}
	if !c.matchingContext(st, r.context, i) {
		return NoNode, false
	}
	if !r.Op.locates() {
		return NoNode, true
	}
	var node NodeID
	if r.Op == OpLastRight {
		node = lastNode(t, right, r.targetLabel(t.Node(right).Label), false)
	} else {
		node = lastNode(t, left, r.targetLabel(t.Node(left).Label), true)
	}
	return node, node != NoNode
}

// enabledRule reports whether r is unconditional or one of its enabling
// flags is active.
func enabledRule(r *CompleterRule, flags map[string]bool) bool {
	if len(r.Enabling) == 0 {
		return true
	}
	for _, f := range r.Enabling {
		if flags[f] {
			return true
		}
	}
	return false
}

// matchingContext checks the chunks left and right of pair i against the
// pattern.
func (c *Completer) matchingContext(st *completion, p contextPattern, i int) bool {
	if p.always {
		return true
	}
	ok := matchSide(st, p.left, i-1, -1) && matchSide(st, p.right, i+2, 1)
	return ok != p.negated
}

// matchSide scans chunks from pos in direction step. A '*' element skips
// chunks until the next element matches, or to the edge when the next
// element is OUT.
func matchSide(st *completion, elems []string, pos, step int) bool {
	in := func(p int) bool { return p >= 0 && p < len(st.chunks) }
	label := func(p int) string { return st.tree.Node(st.chunks[p]).Label }
	for k := 0; k < len(elems); k++ {
		switch e := elems[k]; e {
		case contextAny:
			if k == len(elems)-1 {
				return true
			}
			next := elems[k+1]
			if next == contextOut {
				for in(pos) {
					pos += step
				}
				continue
			}
			for in(pos) && !matchAlternatives(next, label(pos)) {
				pos += step
			}
			if !in(pos) {
				return false
			}
		case contextOut:
			if in(pos) {
				return false
			}
		default:
			if !in(pos) || !matchAlternatives(e, label(pos)) {
				return false
			}
			pos += step
		}
	}
	return true
}

// matchAlternatives reports whether value equals one of the '|'
// separated alternatives of pattern.
func matchAlternatives(pattern, value string) bool {
	for alt := range strings.SplitSeq(pattern, "|") {
		if alt == value {
			return true
		}
	}
	return false
}

// lastNode walks the right frontier of the subtree at id (left frontier
// when right is false) and returns the deepest inner node labeled label.
func lastNode(t *ParseTree, id NodeID, label string, right bool) NodeID {
	found := NoNode
	for !t.IsLeaf(id) {
		if t.Node(id).Label == label {
			found = id
		}
		ch := t.Children(id)
		if right {
			id = ch[len(ch)-1]
		} else {
			id = ch[0]
		}
	}
	return found
}

// apply toggles the rule flags, performs its operation on pair
// cand.pos and replaces the pair with the result.
func (c *Completer) apply(st *completion, cand candidate) {
	r := cand.rule
	for _, f := range r.FlagsOn {
		st.flags[f] = true
	}
	for _, f := range r.FlagsOff {
		delete(st.flags, f)
	}

	t := st.tree
	left, right := st.chunks[cand.pos], st.chunks[cand.pos+1]
	relabel := func(id NodeID) {
		if r.Relabel && r.NewLabel != "-" && r.NewLabel != "" {
			t.Node(id).Label = r.NewLabel
		}
	}

	var result NodeID
	switch r.Op {
	case OpTopLeft:
		left = wrapLeaf(t, left)
		if r == defaultRule {
			result = c.defaultMerge(t, left, right, st)
			break
		}
		relabel(left)
		t.Node(right).Head = false
		t.AppendChild(left, right)
		result = left
	case OpTopRight:
		right = wrapLeaf(t, right)
		relabel(right)
		t.Node(left).Head = false
		t.PrependChild(right, left)
		result = right
	case OpLastLeft:
		relabel(cand.located)
		t.Node(right).Head = false
		t.AppendChild(cand.located, right)
		result = left
	case OpLastRight:
		relabel(cand.located)
		t.Node(left).Head = false
		t.PrependChild(cand.located, left)
		result = right
	case OpCoverLastLeft:
		x := cand.located
		right = wrapLeaf(t, right)
		wasHead := t.Node(x).Head
		parent, idx := t.Detach(x)
		t.Node(x).Head = false
		t.PrependChild(right, x)
		relabel(right)
		result = left
		if parent == NoNode {
			result = right
		} else {
			t.Node(right).Head = wasHead
			t.InsertChild(parent, idx, right)
		}
	}
	t.Node(result).Head = true

	c.logger.Debug("chunks merged",
		slog.String("operation", r.Op.String()),
		slog.Int("weight", r.Weight),
		slog.Int("position", cand.pos),
		slog.String("result", t.Node(result).Label))

	st.chunks = slices.Replace(st.chunks, cand.pos, cand.pos+2, result)
}

// wrapLeaf returns id, or for a word leaf a new inner node with the
// same label that takes the leaf's place and heads it. Chunks are only
// ever attached to inner nodes.
func wrapLeaf(t *ParseTree, id NodeID) NodeID {
	if !t.IsLeaf(id) || t.Node(id).Word == nil {
		return id
	}
	n := t.Node(id)
	w := t.NewNode(n.Label, nil)
	wn := t.Node(w)
	wn.Head, wn.ChunkID = n.Head, n.ChunkID
	if parent, idx := t.Detach(id); parent != NoNode {
		t.InsertChild(parent, idx, w)
	}
	n.Head = true
	t.AppendChild(w, id)
	return w
}

// defaultMerge hangs the right chunk under the left root. A left root
// that is itself the start placeholder takes the right chunk's label
// and head instead.
func (c *Completer) defaultMerge(t *ParseTree, left, right NodeID, st *completion) NodeID {
	ln := t.Node(left)
	if ln.Label == st.start {
		for _, ch := range t.Children(left) {
			t.Node(ch).Head = false
		}
		ln.Label = t.Node(right).Label
		t.Node(right).Head = true
		t.AppendChild(left, right)
		return left
	}
	t.Node(right).Head = false
	t.AppendChild(left, right)
	return left
}
