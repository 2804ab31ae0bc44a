package syntaxis

import "strings"

// NodeID is a stable handle to a node in a ParseTree arena. Handles stay
// valid while the tree is restructured by the completer.
type NodeID int32

// NoNode is the null handle.
const NoNode NodeID = -1

// Node is a constituent of a parse tree.
type Node struct {
	// Label is the grammar symbol, or the tag for leaves.
	Label string
	// Head marks the node as the head among its siblings.
	Head bool
	// Word is set on leaves only.
	Word *Word
	// ChunkID numbers top-level chunks from 1; 0 means none.
	ChunkID int

	parent   NodeID
	children []NodeID
}

// ParseTree is an ordered constituency tree stored in an arena.
type ParseTree struct {
	nodes []*Node
	Root  NodeID
}

// NewParseTree returns an empty tree.
func NewParseTree() *ParseTree {
	return &ParseTree{Root: NoNode}
}

// NewNode allocates a detached node.
func (t *ParseTree) NewNode(label string, word *Word) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &Node{Label: label, Word: word, parent: NoNode})
	return id
}

// Node resolves a handle. It returns nil for NoNode.
func (t *ParseTree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Children returns the ordered children of id. The slice must not be
// modified by the caller.
func (t *ParseTree) Children(id NodeID) []NodeID {
	return t.nodes[id].children
}

// NumChildren returns the number of children of id.
func (t *ParseTree) NumChildren(id NodeID) int {
	return len(t.nodes[id].children)
}

// Parent returns the parent of id, or NoNode for a root or detached node.
func (t *ParseTree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// IsLeaf reports whether id has no children.
func (t *ParseTree) IsLeaf(id NodeID) bool {
	return len(t.nodes[id].children) == 0
}

// AppendChild hangs child as the last child of parent.
func (t *ParseTree) AppendChild(parent, child NodeID) {
	t.InsertChild(parent, len(t.nodes[parent].children), child)
}

// PrependChild hangs child as the first child of parent.
func (t *ParseTree) PrependChild(parent, child NodeID) {
	t.InsertChild(parent, 0, child)
}

// InsertChild hangs child at position idx among the children of parent.
// A child still attached elsewhere is detached first.
func (t *ParseTree) InsertChild(parent NodeID, idx int, child NodeID) {
	if t.nodes[child].parent != NoNode {
		t.Detach(child)
	}
	p := t.nodes[parent]
	if idx < 0 {
		idx = 0
	}
	if idx > len(p.children) {
		idx = len(p.children)
	}
	p.children = append(p.children, NoNode)
	copy(p.children[idx+1:], p.children[idx:])
	p.children[idx] = child
	t.nodes[child].parent = parent
}

// Detach removes id from its parent and returns the former parent and
// position. A root or detached node yields (NoNode, -1).
func (t *ParseTree) Detach(id NodeID) (NodeID, int) {
	parent := t.nodes[id].parent
	if parent == NoNode {
		return NoNode, -1
	}
	p := t.nodes[parent]
	idx := -1
	for i, c := range p.children {
		if c == id {
			idx = i
			break
		}
	}
	if idx >= 0 {
		p.children = append(p.children[:idx], p.children[idx+1:]...)
	}
	t.nodes[id].parent = NoNode
	return parent, idx
}

// HeadChild returns the first child of id flagged as head, or NoNode.
func (t *ParseTree) HeadChild(id NodeID) NodeID {
	for _, c := range t.nodes[id].children {
		if t.nodes[c].Head {
			return c
		}
	}
	return NoNode
}

// HeadLeaf follows head children from id down to a leaf. Nodes without a
// head child fall back to their first child.
func (t *ParseTree) HeadLeaf(id NodeID) NodeID {
	for !t.IsLeaf(id) {
		h := t.HeadChild(id)
		if h == NoNode {
			h = t.nodes[id].children[0]
		}
		id = h
	}
	return id
}

// HeadWord returns the word of the head leaf of id.
func (t *ParseTree) HeadWord(id NodeID) *Word {
	return t.nodes[t.HeadLeaf(id)].Word
}

// Leaves returns the leaves under id in left-to-right order.
func (t *ParseTree) Leaves(id NodeID) []NodeID {
	if t.IsLeaf(id) {
		return []NodeID{id}
	}
	var out []NodeID
	for _, c := range t.nodes[id].children {
		out = append(out, t.Leaves(c)...)
	}
	return out
}

// Clone returns an independent copy with identical handles.
func (t *ParseTree) Clone() *ParseTree {
	return t.cloneWith(nil)
}

func (t *ParseTree) cloneWith(remap map[*Word]*Word) *ParseTree {
	c := &ParseTree{Root: t.Root, nodes: make([]*Node, len(t.nodes))}
	for i, n := range t.nodes {
		cn := *n
		cn.children = append([]NodeID(nil), n.children...)
		if remap != nil && n.Word != nil {
			if w, ok := remap[n.Word]; ok {
				cn.Word = w
			}
		}
		c.nodes[i] = &cn
	}
	return c
}

// String renders the tree in bracketed form, one constituent per line:
//
//	S_[
//	  NP_[
//	    Det_(The the Det)
//	    +N_(cat cat N)
//	  ]
//	  ...
func (t *ParseTree) String() string {
	if t.Root == NoNode {
		return ""
	}
	var b strings.Builder
	t.write(&b, t.Root, 0)
	return b.String()
}

func (t *ParseTree) write(b *strings.Builder, id NodeID, depth int) {
	n := t.nodes[id]
	b.WriteString(strings.Repeat("  ", depth))
	if n.Head {
		b.WriteByte('+')
	}
	b.WriteString(n.Label)
	if n.Word != nil && len(n.children) == 0 {
		b.WriteString("_(")
		b.WriteString(n.Word.Form)
		b.WriteByte(' ')
		b.WriteString(n.Word.Lemma())
		b.WriteByte(' ')
		b.WriteString(n.Word.Tag())
		b.WriteString(")\n")
		return
	}
	b.WriteString("_[\n")
	for _, c := range n.children {
		t.write(b, c, depth+1)
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString("]\n")
}
