package syntaxis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCompleterRules = "<GRPAR>\n1 - $$ (NP,V) top_left RELABEL SV\n</GRPAR>\n"
	testLabelerRules   = `<GRLAB>
S subj d.side=left
S dobj d.side=right
SV pred d.label=V
</GRLAB>
`
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	dir := t.TempDir()
	a, err := New(Options{
		GrammarFile:   writeTestFile(t, dir, "toy.gram", toyGrammar),
		CompleterFile: writeTestFile(t, dir, "complete.dat", testCompleterRules),
		LabelerFile:   writeTestFile(t, dir, "label.dat", testLabelerRules),
		Logger:        quietLogger(),
	})
	require.NoError(t, err)
	return a
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()
	gram := writeTestFile(t, dir, "toy.gram", toyGrammar)

	_, err := New(Options{GrammarFile: dir + "/absent.gram", Logger: quietLogger()})
	assert.Error(t, err)
	_, err = New(Options{GrammarFile: gram, CompleterFile: dir + "/absent.dat", Logger: quietLogger()})
	assert.ErrorContains(t, err, "load completer")
	_, err = New(Options{GrammarFile: gram, LabelerFile: dir + "/absent.dat", Logger: quietLogger()})
	assert.ErrorContains(t, err, "load labeler")

	a, err := New(Options{GrammarFile: gram, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, "S", a.Grammar().Start())
}

func TestProcess(t *testing.T) {
	a := newTestAnalyzer(t)
	full := catEatsFish()
	partial := tagged("cat", "cat", "N", "eats", "eat", "V")

	require.NoError(t, a.Process(context.Background(), []*Sentence{full, partial}))

	require.NotNil(t, full.Tree)
	d := full.Deps
	require.NotNil(t, d)
	assert.Equal(t, "eats", d.Root.Word.Form)
	assert.Equal(t, LabelTop, d.Root.Label)
	require.Len(t, d.Root.Children, 2)
	assert.Equal(t, "subj", d.Root.Children[0].Label)
	assert.Equal(t, "dobj", d.Root.Children[1].Label)
	assert.Equal(t, LabelNoRule, d.Root.Children[0].Children[0].Label)

	// the incomplete parse is merged by the completer rule
	d = partial.Deps
	require.NotNil(t, d)
	assert.Equal(t, "cat", d.Root.Word.Form)
	assert.Equal(t, "SV", d.LinkLabel(d.Root))
	require.Len(t, d.Root.Children, 1)
	assert.Equal(t, "eats", d.Root.Children[0].Word.Form)
	assert.Equal(t, "pred", d.Root.Children[0].Label)
}

func TestProcessDefaultCompletion(t *testing.T) {
	dir := t.TempDir()
	a, err := New(Options{GrammarFile: writeTestFile(t, dir, "toy.gram", toyGrammar), Logger: quietLogger()})
	require.NoError(t, err)

	s := tagged("cat", "cat", "N", "eats", "eat", "V")
	require.NoError(t, a.Process(context.Background(), []*Sentence{s}))
	assert.Equal(t, "cat", s.Deps.Root.Word.Form)
	require.Len(t, s.Deps.Root.Children, 1)
	assert.Equal(t, LabelNoRule, s.Deps.Root.Children[0].Label)
}

func TestProcessKeepsUncoveredWords(t *testing.T) {
	dir := t.TempDir()
	a, err := New(Options{GrammarFile: writeTestFile(t, dir, "toy.gram", toyGrammar), Logger: quietLogger()})
	require.NoError(t, err)

	s := tagged("eats", "eat", "V", "fish", "fish", "N")
	require.NoError(t, a.Process(context.Background(), []*Sentence{s}))

	var forms []string
	s.Deps.Walk(func(n, _ *DepNode) { forms = append(forms, n.Word.Form) })
	assert.Len(t, forms, 2)
	assert.Equal(t, "eats", s.Deps.Root.Word.Form)
	require.Len(t, s.Deps.Root.Children, 1)
	assert.Equal(t, "fish", s.Deps.Root.Children[0].Word.Form)
	assert.Contains(t, s.Tree.String(), "(eats eat V)")
}

func TestProcessSentenceErrors(t *testing.T) {
	a := newTestAnalyzer(t)
	sents := []*Sentence{
		catEatsFish(),
		NewSentence(&Word{Form: "???"}),
		tagged("fish", "fish", "N"),
	}

	err := a.Process(context.Background(), sents)
	require.Error(t, err)
	var se *SentenceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Index)
	assert.True(t, errors.Is(err, ErrChartInvariant))

	assert.NotNil(t, sents[0].Deps)
	assert.Nil(t, sents[1].Deps)
	require.NotNil(t, sents[2].Deps)
	assert.Equal(t, "fish", sents[2].Deps.Root.Word.Form)
}

func TestProcessCanceled(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sents := []*Sentence{catEatsFish()}
	err := a.Process(ctx, sents)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, sents[0].Tree)

	err = a.ProcessParallel(ctx, []*Sentence{catEatsFish(), catEatsFish()}, 2)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProcessParallelMatchesProcess(t *testing.T) {
	a := newTestAnalyzer(t)
	batch := func() []*Sentence {
		var out []*Sentence
		for i := 0; i < 10; i++ {
			out = append(out, catEatsFish(), tagged("cat", "cat", "N", "eats", "eat", "V"))
		}
		return out
	}

	seq, par := batch(), batch()
	require.NoError(t, a.Process(context.Background(), seq))
	require.NoError(t, a.ProcessParallel(context.Background(), par, 4))
	for i := range seq {
		assert.Equal(t, seq[i].Deps.String(), par[i].Deps.String(), "sentence %d", i)
	}
}

func TestAnalyzeCopy(t *testing.T) {
	a := newTestAnalyzer(t)
	in := []*Sentence{catEatsFish()}

	parsed, err := a.Parser.AnalyzeCopy(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, in[0].Tree)
	require.NotNil(t, parsed[0].Tree)
	assert.NotSame(t, in[0].Words[0], parsed[0].Words[0])

	deps, err := a.Deps.AnalyzeCopy(context.Background(), parsed)
	require.NoError(t, err)
	assert.Nil(t, parsed[0].Deps)
	require.NotNil(t, deps[0].Deps)
	assert.Equal(t, "eats", deps[0].Deps.Root.Word.Form)
	assert.Same(t, deps[0].Words[2], deps[0].Deps.Root.Word)
}

func TestBuildSentenceNotParsed(t *testing.T) {
	d := NewDepTxala(nil, nil, "S", quietLogger())
	err := d.BuildSentence(catEatsFish())
	assert.True(t, errors.Is(err, ErrNotParsed))

	err = d.Analyze(context.Background(), []*Sentence{catEatsFish()})
	var se *SentenceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 0, se.Index)
}
