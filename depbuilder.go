package syntaxis

import "log/slog"

// DependencyBuilder projects a headed constituency tree onto a
// dependency tree.
type DependencyBuilder struct {
	logger *slog.Logger
}

// NewDependencyBuilder returns a builder logging to logger.
func NewDependencyBuilder(logger *slog.Logger) *DependencyBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &DependencyBuilder{logger: logger}
}

// Build returns the dependency tree of t. It returns nil for an empty
// tree.
func (b *DependencyBuilder) Build(t *ParseTree) *DepTree {
	d := &DepTree{parse: t}
	if t == nil || t.Root == NoNode {
		return d
	}
	if t.IsLeaf(t.Root) && t.Node(t.Root).Word == nil {
		return d
	}
	d.Root = b.build(t, t.Root, t.Root)
	return d
}

// build creates the dependency subtree of node id. link is the highest
// parse node headed by id's head word; the head child inherits it and
// every other child starts its own.
func (b *DependencyBuilder) build(t *ParseTree, id, link NodeID) *DepNode {
	n := t.Node(id)
	if t.IsLeaf(id) {
		return &DepNode{Link: link, Word: n.Word, ChunkID: n.ChunkID}
	}

	children := t.Children(id)
	head := -1
	for i, c := range children {
		if !t.Node(c).Head {
			continue
		}
		if head < 0 {
			head = i
			continue
		}
		b.logger.Warn("more than one head detected, first prevails", slog.String("label", n.Label))
		break
	}
	if head < 0 {
		b.logger.Warn("no head detected, first child taken", slog.String("label", n.Label))
		head = 0
	}

	dn := b.build(t, children[head], link)
	for i := head - 1; i >= 0; i-- {
		dep := b.build(t, children[i], children[i])
		dn.Children = append([]*DepNode{dep}, dn.Children...)
	}
	for i := head + 1; i < len(children); i++ {
		dn.Children = append(dn.Children, b.build(t, children[i], children[i]))
	}
	if n.ChunkID != 0 {
		dn.ChunkID = n.ChunkID
	}
	return dn
}
