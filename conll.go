package syntaxis

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadTagged reads tagged sentences, one word per line as
// "form lemma tag [lemma tag ...]". The first reading is selected. A
// blank line ends a sentence and lines starting with '#' are skipped.
func ReadTagged(r io.Reader) ([]*Sentence, error) {
	var (
		sents []*Sentence
		words []*Word
	)
	flush := func() {
		if len(words) > 0 {
			sents = append(sents, NewSentence(words...))
			words = nil
		}
	}

	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 || len(fields)%2 == 0 {
			return nil, fmt.Errorf("line %d: expected form followed by lemma/tag pairs, got %q", n, line)
		}
		w := &Word{Form: fields[0]}
		for i := 1; i+1 < len(fields); i += 2 {
			w.Analyses = append(w.Analyses, Analysis{Lemma: fields[i], Tag: fields[i+1], Selected: i == 1})
		}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return sents, nil
}

// ReadTaggedFile opens path and reads it with ReadTagged.
func ReadTaggedFile(path string) ([]*Sentence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTagged(f)
}

// WriteCoNLL writes one tab-separated "ID FORM LEMMA TAG HEAD DEPREL"
// row per word, HEAD 0 for the dependency root and '_' for words of a
// sentence without dependencies. Sentences are separated by a blank line.
func WriteCoNLL(w io.Writer, sents []*Sentence) error {
	bw := bufio.NewWriter(w)
	for _, s := range sents {
		heads := make(map[*Word]string, len(s.Words))
		rels := make(map[*Word]string, len(s.Words))
		if s.Deps != nil {
			s.Deps.Walk(func(n, gov *DepNode) {
				if n.Word == nil {
					return
				}
				heads[n.Word] = "0"
				if gov != nil && gov.Word != nil {
					heads[n.Word] = strconv.Itoa(gov.Word.Position + 1)
				}
				rels[n.Word] = n.Label
			})
		}
		for i, word := range s.Words {
			row := []string{
				strconv.Itoa(i + 1),
				word.Form,
				orUnderscore(word.Lemma()),
				orUnderscore(word.Tag()),
				orUnderscore(heads[word]),
				orUnderscore(rels[word]),
			}
			bw.WriteString(strings.Join(row, "\t"))
			bw.WriteByte('\n')
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func orUnderscore(s string) string {
	if s == "" {
		return "_"
	}
	return s
}
