package syntaxis

import (
	"fmt"
	"log/slog"
)

// cellRef addresses a chart cell: Span is the span length minus one,
// Start the index of the first word.
type cellRef struct {
	Span  int
	Start int
}

// edge is a rule instantiated at a chart position. The dot splits the
// rule's right side into matched and remaining symbols.
type edge struct {
	rule     *Rule
	dot      int
	backpath []cellRef
}

func (e *edge) head() string        { return e.rule.Head }
func (e *edge) matched() []string   { return e.rule.Right[:e.dot] }
func (e *edge) remaining() []string { return e.rule.Right[e.dot:] }
func (e *edge) active() bool        { return e.dot < len(e.rule.Right) }

// shift consumes the next symbol, produced by cell (span, start), and
// returns the extended copy.
func (e *edge) shift(span, start int) *edge {
	bp := make([]cellRef, len(e.backpath), len(e.backpath)+1)
	copy(bp, e.backpath)
	return &edge{rule: e.rule, dot: e.dot + 1, backpath: append(bp, cellRef{span, start})}
}

type edgeKey struct {
	rule *Rule
	dot  int
}

type cell struct {
	edges []*edge
	seen  map[edgeKey]bool
}

// Chart is a triangular CYK table built for one sentence.
type Chart struct {
	grammar *Grammar
	logger  *slog.Logger
	size    int
	cells   []cell
	words   []*Word

	// terminals shares one empty-bodied rule per terminal symbol so that
	// repeated readings deduplicate.
	terminals map[string]*Rule
	// building holds the edges on the current extraction path.
	building map[*edge]bool
}

// NewChart returns an empty chart over g.
func NewChart(g *Grammar, logger *slog.Logger) *Chart {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chart{grammar: g, logger: logger}
}

// cellIndex maps (span, start) to a position in the triangular table
// of a chart over n words. Row span holds n-span cells.
func cellIndex(n, span, start int) int {
	return span*n - span*(span-1)/2 + start
}

func (c *Chart) index(span, start int) int {
	if span < 0 || start < 0 || span+start >= c.size {
		panic(fmt.Sprintf("chart cell (%d,%d) out of range for %d words", span, start, c.size))
	}
	return cellIndex(c.size, span, start)
}

func (c *Chart) cell(span, start int) *cell {
	return &c.cells[c.index(span, start)]
}

// insert adds e to cell (span, start). Duplicates of an already present
// (rule, dot) pair are dropped and reported as false.
func (c *Chart) insert(span, start int, e *edge) bool {
	cl := c.cell(span, start)
	k := edgeKey{e.rule, e.dot}
	if cl.seen[k] {
		return false
	}
	if cl.seen == nil {
		cl.seen = make(map[edgeKey]bool)
	}
	cl.seen[k] = true
	cl.edges = append(cl.edges, e)
	return true
}

// Load resets the chart and fills the first row with terminal edges for
// every selected reading of every word.
func (c *Chart) Load(s *Sentence) {
	c.size = len(s.Words)
	c.words = s.Words
	c.cells = make([]cell, c.size*(c.size+1)/2)
	c.terminals = make(map[string]*Rule)
	c.building = make(map[*edge]bool)
	for j, w := range s.Words {
		for _, a := range w.SelectedAnalyses() {
			for _, sym := range terminalSymbols(w, a) {
				r, ok := c.terminals[sym]
				if !ok {
					r = &Rule{Head: sym, Governor: NoGovernor}
					c.terminals[sym] = r
				}
				e := &edge{rule: r}
				if c.insert(0, j, e) {
					c.expand(e, 0, j)
				}
			}
		}
	}
}

// expand applies every rule triggered by the complete edge e in cell
// (span, start), chaining through a FIFO worklist. Each head is expanded
// once per call, which bounds unary chains.
func (c *Chart) expand(e *edge, span, start int) {
	queue := []string{e.head()}
	visited := make(map[string]bool)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if visited[h] {
			continue
		}
		visited[h] = true

		trigger := func(r *Rule) {
			ne := (&edge{rule: r}).shift(span, start)
			if !c.insert(span, start, ne) {
				return
			}
			if !ne.active() {
				queue = append(queue, ne.head())
			}
		}
		if c.grammar.IsTerminal(h) && h != "" {
			for _, bucket := range [2]byte{h[0], '*'} {
				for _, r := range c.grammar.RulesRightWildcard(bucket) {
					if c.grammar.MatchCategory(r.Right[0], h) {
						trigger(r)
					}
				}
			}
		}
		for _, r := range c.grammar.RulesRight(h) {
			trigger(r)
		}
	}
}

// Parse fills the table bottom-up and returns the best tree over the
// whole sentence. When no single edge spans the sentence, the tree root
// is a fictitious start node over a cover of partial constituents.
func (c *Chart) Parse() (*ParseTree, error) {
	for k := 1; k < c.size; k++ {
		for i := 0; i+k < c.size; i++ {
			for a := 0; a < k; a++ {
				right := c.cell(k-a-1, i+a+1)
				left := c.cell(a, i)
				for n := 0; n < len(left.edges); n++ {
					e := left.edges[n]
					if !e.active() {
						continue
					}
					needed := e.remaining()[0]
					if !c.hasComplete(right, needed) {
						continue
					}
					ne := e.shift(k-a-1, i+a+1)
					if c.insert(k, i, ne) && !ne.active() {
						c.expand(ne, k, i)
					}
				}
			}
		}
	}

	t := NewParseTree()
	if c.size == 0 {
		t.Root = t.NewNode(c.grammar.Start(), nil)
		return t, nil
	}

	if best := c.bestEdge(c.cell(c.size-1, 0), "", true); best != nil {
		t.Root = c.tree(t, best, c.size-1, 0)
		return t, nil
	}

	parts, err := c.cover(c.size-1, 0)
	if err != nil {
		return nil, err
	}
	fict := &Rule{Head: c.grammar.Start(), Governor: NoGovernor}
	root := &edge{rule: fict}
	for _, p := range parts {
		fict.Right = append(fict.Right, p.label)
		root.backpath = append(root.backpath, p.ref)
	}
	root.dot = len(fict.Right)
	t.Root = c.tree(t, root, c.size-1, 0)
	return t, nil
}

func (c *Chart) hasComplete(cl *cell, needed string) bool {
	for _, e := range cl.edges {
		if !e.active() && c.grammar.MatchCategory(needed, e.head()) {
			return true
		}
	}
	return false
}

// betterEdge reports whether e1 ranks strictly above e2: the start
// symbol beats everything, nonterminals beat terminals, terminals rank
// by specificity and nonterminals by priority then matched length.
func (c *Chart) betterEdge(e1, e2 *edge) bool {
	g := c.grammar
	h1, h2 := e1.head(), e2.head()
	s1, s2 := h1 == g.Start(), h2 == g.Start()
	if s1 != s2 {
		return s1
	}
	t1, t2 := g.IsTerminal(h1), g.IsTerminal(h2)
	switch {
	case t1 && t2:
		return g.Specificity(h1) < g.Specificity(h2)
	case !t1 && !t2:
		p1, p2 := g.Priority(h1), g.Priority(h2)
		if p1 != p2 {
			return p1 < p2
		}
		return len(e1.matched()) > len(e2.matched())
	default:
		return !t1
	}
}

// bestEdge returns the best complete edge of cl whose head matches
// label, or the best overall when label is empty. With root set, edges
// whose head is @NOTOP are skipped.
func (c *Chart) bestEdge(cl *cell, label string, root bool) *edge {
	var best *edge
	for _, e := range cl.edges {
		if e.active() || c.building[e] {
			continue
		}
		if root && c.grammar.IsNoTop(e.head()) {
			continue
		}
		if label != "" && !c.grammar.MatchCategory(label, e.head()) {
			continue
		}
		if best == nil || c.betterEdge(e, best) {
			best = e
		}
	}
	return best
}

type coverPart struct {
	ref   cellRef
	label string
}

// cover splits the region (span, start) into a left-to-right sequence
// of the largest complete constituents it contains.
func (c *Chart) cover(span, start int) ([]coverPart, error) {
	for x := span; x >= 0; x-- {
		for y := start; y+x <= start+span; y++ {
			best := c.bestEdge(c.cell(x, y), "", false)
			if best == nil {
				continue
			}
			var parts []coverPart
			if y > start {
				left, err := c.cover(y-start-1, start)
				if err != nil {
					return nil, err
				}
				parts = append(parts, left...)
			}
			parts = append(parts, coverPart{cellRef{x, y}, best.head()})
			if end := start + span; y+x < end {
				right, err := c.cover(end-(y+x+1), y+x+1)
				if err != nil {
					return nil, err
				}
				parts = append(parts, right...)
			}
			return parts, nil
		}
	}
	return nil, fmt.Errorf("%w: no complete edge in span %d at word %d", ErrChartInvariant, span+1, start)
}

// GetTree extracts the subtree rooted at the best complete edge of cell
// (span, start) matching label. An empty label selects the best root
// edge. It returns NoNode when no such edge exists.
func (c *Chart) GetTree(t *ParseTree, span, start int, label string) NodeID {
	e := c.bestEdge(c.cell(span, start), label, label == "")
	if e == nil {
		return NoNode
	}
	return c.tree(t, e, span, start)
}

// tree builds the node for e, splicing children whose labels are
// hidden, only allowed at the top, or flat repetitions of the parent.
func (c *Chart) tree(t *ParseTree, e *edge, span, start int) NodeID {
	g := c.grammar
	if len(e.rule.Right) == 0 {
		w := c.words[start]
		category, _ := splitSymbol(e.head())
		w.selectTag(category)
		return t.NewNode(category, w)
	}

	c.building[e] = true
	defer delete(c.building, e)

	id := t.NewNode(e.head(), nil)
	for j, ref := range e.backpath {
		child := c.GetTree(t, ref.Span, ref.Start, e.rule.Right[j])
		if child == NoNode {
			continue
		}
		isHead := j == e.rule.Governor
		cn := t.Node(child)
		splice := !t.IsLeaf(child) &&
			(g.IsHidden(cn.Label) || g.IsOnlyTop(cn.Label) || (g.IsFlat(cn.Label) && cn.Label == e.head()))
		if !splice {
			cn.Head = isHead
			t.AppendChild(id, child)
			continue
		}
		for _, gc := range append([]NodeID(nil), t.Children(child)...) {
			if !isHead {
				t.Node(gc).Head = false
			}
			t.AppendChild(id, gc)
		}
	}

	if e.head() != g.Start() && t.HeadChild(id) == NoNode {
		c.logger.Warn("constituent without head", slog.String("label", e.head()),
			slog.Int("start", start), slog.Int("span", span+1))
	}
	return id
}
