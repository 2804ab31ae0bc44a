package syntaxis

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// tagged builds a sentence from form, lemma, tag triples.
func tagged(triples ...string) *Sentence {
	var words []*Word
	for i := 0; i+2 < len(triples); i += 3 {
		words = append(words, &Word{
			Form:     triples[i],
			Analyses: []Analysis{{Lemma: triples[i+1], Tag: triples[i+2], Selected: true}},
		})
	}
	return NewSentence(words...)
}

const toyGrammar = `% toy English grammar
@START S.
NP ==> Det, +N | +N.
S ==> NP, +V, NP.
`

func loadToyGrammar(t *testing.T) *Grammar {
	t.Helper()
	path := writeTestFile(t, t.TempDir(), "toy.gram", toyGrammar)
	g, err := LoadGrammar(path, quietLogger())
	require.NoError(t, err)
	return g
}

func catEatsFish() *Sentence {
	return tagged(
		"The", "the", "Det",
		"cat", "cat", "N",
		"eats", "eat", "V",
		"fish", "fish", "N",
	)
}
