package syntaxis

import "strings"

// DepNode is a word in a dependency tree.
type DepNode struct {
	// Label is the relation to the governor, set by the labeler.
	Label string
	// Link is the parse node this word heads at the highest level.
	Link    NodeID
	Word    *Word
	ChunkID int

	Children []*DepNode
}

// DepTree is a dependency tree whose links resolve through the parse
// tree it was built from.
type DepTree struct {
	Root  *DepNode
	parse *ParseTree
}

// ParseTree returns the constituency tree the links refer to.
func (d *DepTree) ParseTree() *ParseTree { return d.parse }

// LinkLabel returns the label of the parse node linked to n.
func (d *DepTree) LinkLabel(n *DepNode) string {
	if pn := d.parse.Node(n.Link); pn != nil {
		return pn.Label
	}
	return ""
}

// Walk visits every node in pre-order with its governor, nil for the
// root.
func (d *DepTree) Walk(fn func(n, gov *DepNode)) {
	var visit func(n, gov *DepNode)
	visit = func(n, gov *DepNode) {
		fn(n, gov)
		for _, c := range n.Children {
			visit(c, n)
		}
	}
	if d.Root != nil {
		visit(d.Root, nil)
	}
}

func (d *DepTree) cloneWith(parse *ParseTree, remap map[*Word]*Word) *DepTree {
	var cp func(n *DepNode) *DepNode
	cp = func(n *DepNode) *DepNode {
		c := &DepNode{Label: n.Label, Link: n.Link, Word: n.Word, ChunkID: n.ChunkID}
		if w, ok := remap[n.Word]; ok {
			c.Word = w
		}
		for _, ch := range n.Children {
			c.Children = append(c.Children, cp(ch))
		}
		return c
	}
	out := &DepTree{parse: parse}
	if d.Root != nil {
		out.Root = cp(d.Root)
	}
	return out
}

// String renders the tree one word per line as
// "relation/link-label/(form lemma tag)", dependents indented.
func (d *DepTree) String() string {
	var b strings.Builder
	var write func(n *DepNode, depth int)
	write = func(n *DepNode, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Label)
		b.WriteByte('/')
		b.WriteString(d.LinkLabel(n))
		b.WriteString("/(")
		if n.Word != nil {
			b.WriteString(n.Word.Form + " " + n.Word.Lemma() + " " + n.Word.Tag())
		}
		b.WriteString(")")
		if len(n.Children) > 0 {
			b.WriteString(" [")
		}
		b.WriteByte('\n')
		for _, c := range n.Children {
			write(c, depth+1)
		}
		if len(n.Children) > 0 {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString("]\n")
		}
	}
	if d.Root != nil {
		write(d.Root, 0)
	}
	return b.String()
}
