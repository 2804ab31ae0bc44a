package syntaxis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTagged(t *testing.T) {
	in := `# first sentence
The the Det
cat cat N
sleeps sleep V


fish fish N fish V
`
	sents, err := ReadTagged(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, sents, 2)

	s := sents[0]
	require.Equal(t, 3, s.Len())
	assert.Equal(t, "cat", s.Words[1].Form)
	assert.Equal(t, 1, s.Words[1].Position)
	assert.Equal(t, "sleep", s.Words[2].Lemma())
	assert.Equal(t, "V", s.Words[2].Tag())

	fish := sents[1].Words[0]
	require.Len(t, fish.Analyses, 2)
	assert.True(t, fish.Analyses[0].Selected)
	assert.False(t, fish.Analyses[1].Selected)
	assert.Equal(t, "N", fish.Tag())
}

func TestReadTaggedErrors(t *testing.T) {
	for _, in := range []string{"cat cat\n", "cat\n", "fish fish N fish\n"} {
		_, err := ReadTagged(strings.NewReader(in))
		require.Error(t, err, "input %q", in)
		assert.Contains(t, err.Error(), "line 1")
	}

	_, err := ReadTaggedFile(t.TempDir() + "/absent.txt")
	assert.Error(t, err)
}

func TestReadTaggedFile(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "in.txt", "cat cat N\n")
	sents, err := ReadTaggedFile(path)
	require.NoError(t, err)
	require.Len(t, sents, 1)
	assert.Equal(t, "cat", sents[0].Words[0].Form)
}

func TestWriteCoNLL(t *testing.T) {
	s := catEatsFish()
	require.NoError(t, NewChartParser(loadToyGrammar(t), quietLogger()).ParseSentence(s))
	require.NoError(t, NewDepTxala(nil, nil, "S", quietLogger()).BuildSentence(s))
	bare := tagged("fish", "fish", "N")

	var buf bytes.Buffer
	require.NoError(t, WriteCoNLL(&buf, []*Sentence{s, bare}))

	want := "1\tThe\tthe\tDet\t2\tmodnorule\n" +
		"2\tcat\tcat\tN\t3\tmodnorule\n" +
		"3\teats\teat\tV\t0\ttop\n" +
		"4\tfish\tfish\tN\t3\tmodnorule\n" +
		"\n" +
		"1\tfish\tfish\tN\t_\t_\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}
