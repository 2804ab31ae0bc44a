package syntaxis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedCatEatsFish(t *testing.T) (*Sentence, *ParseTree) {
	t.Helper()
	s := catEatsFish()
	c := NewChart(loadToyGrammar(t), quietLogger())
	c.Load(s)
	tr, err := c.Parse()
	require.NoError(t, err)
	return s, tr
}

func TestBuildDependencies(t *testing.T) {
	s, tr := parsedCatEatsFish(t)
	d := NewDependencyBuilder(quietLogger()).Build(tr)

	require.NotNil(t, d.Root)
	assert.Same(t, s.Words[2], d.Root.Word, "eats is the root")
	require.Len(t, d.Root.Children, 2)
	cat, fish := d.Root.Children[0], d.Root.Children[1]
	assert.Same(t, s.Words[1], cat.Word)
	assert.Same(t, s.Words[3], fish.Word)
	require.Len(t, cat.Children, 1)
	assert.Same(t, s.Words[0], cat.Children[0].Word)
	assert.Empty(t, fish.Children)

	assert.Equal(t, "S", d.LinkLabel(d.Root))
	assert.Equal(t, "NP", d.LinkLabel(cat))
	assert.Equal(t, "NP", d.LinkLabel(fish))
	assert.Equal(t, "Det", d.LinkLabel(cat.Children[0]))
}

// The link of every dependency node is the highest node of the head
// chain ending at its word's leaf.
func TestBuildLinksFollowHeadPath(t *testing.T) {
	_, tr := parsedCatEatsFish(t)
	d := NewDependencyBuilder(quietLogger()).Build(tr)

	leafOf := make(map[*Word]NodeID)
	for _, l := range tr.Leaves(tr.Root) {
		leafOf[tr.Node(l).Word] = l
	}
	d.Walk(func(n, gov *DepNode) {
		leaf := leafOf[n.Word]
		assert.Equal(t, leaf, tr.HeadLeaf(n.Link), "link of %s heads down to its leaf", n.Word.Form)
		if n.Link != tr.Root {
			p := tr.Parent(n.Link)
			assert.NotEqual(t, n.Link, tr.HeadChild(p), "link of %s is a maximal projection", n.Word.Form)
		}
	})
}

func TestBuildWordOrder(t *testing.T) {
	tr := NewParseTree()
	words := []*Word{{Form: "a"}, {Form: "b"}, {Form: "c"}, {Form: "d"}, {Form: "e"}}
	NewSentence(words...)
	tr.Root = tr.NewNode("X", nil)
	for i, w := range words {
		leaf := tr.NewNode("t", w)
		tr.Node(leaf).Head = i == 2
		tr.AppendChild(tr.Root, leaf)
	}

	d := NewDependencyBuilder(quietLogger()).Build(tr)
	assert.Equal(t, "c", d.Root.Word.Form)
	var forms []string
	for _, ch := range d.Root.Children {
		forms = append(forms, ch.Word.Form)
	}
	assert.Equal(t, []string{"a", "b", "d", "e"}, forms)
}

func TestBuildHeadFallbacks(t *testing.T) {
	build := func(heads ...bool) *DepTree {
		tr := NewParseTree()
		tr.Root = tr.NewNode("X", nil)
		for i, h := range heads {
			leaf := tr.NewNode("t", &Word{Form: string(rune('a' + i)), Position: i})
			tr.Node(leaf).Head = h
			tr.AppendChild(tr.Root, leaf)
		}
		return NewDependencyBuilder(quietLogger()).Build(tr)
	}

	assert.Equal(t, "a", build(false, false, false).Root.Word.Form, "no head: first child")
	d := build(false, true, true)
	assert.Equal(t, "b", d.Root.Word.Form, "several heads: first prevails")
	assert.Len(t, d.Root.Children, 2)
}

func TestBuildChunkIDs(t *testing.T) {
	c := loadTestCompleter(t, "")
	tr, chunks := chunked("S", "A", "B")
	out := c.Complete(tr, "S")
	require.Equal(t, 2, out.Node(chunks[1]).ChunkID)

	d := NewDependencyBuilder(quietLogger()).Build(out)
	assert.Equal(t, 1, d.Root.ChunkID)
	require.Len(t, d.Root.Children, 1)
	assert.Equal(t, 2, d.Root.Children[0].ChunkID)
}

func TestBuildEmpty(t *testing.T) {
	b := NewDependencyBuilder(nil)
	assert.Nil(t, b.Build(nil).Root)

	tr := NewParseTree()
	tr.Root = tr.NewNode("S", nil)
	assert.Nil(t, b.Build(tr).Root)
}

func TestDepTreeString(t *testing.T) {
	s, tr := parsedCatEatsFish(t)
	d := NewDependencyBuilder(quietLogger()).Build(tr)
	s.Deps = d

	want := "/S/(eats eat V) [\n" +
		"  /NP/(cat cat N) [\n" +
		"    /Det/(The the Det)\n" +
		"  ]\n" +
		"  /NP/(fish fish N)\n" +
		"]\n"
	assert.Equal(t, want, d.String())
}
