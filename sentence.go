package syntaxis

// Sentence is a tagged sentence together with the analyses attached to it
// by the parser and the dependency builder.
type Sentence struct {
	Words []*Word
	// Tree is the constituency parse, nil until parsed.
	Tree *ParseTree
	// Deps is the labeled dependency tree, nil until built.
	Deps *DepTree
}

// NewSentence builds a sentence from words, fixing their positions.
func NewSentence(words ...*Word) *Sentence {
	for i, w := range words {
		w.Position = i
	}
	return &Sentence{Words: words}
}

// Len returns the number of words.
func (s *Sentence) Len() int { return len(s.Words) }

// Clone returns a deep copy of the words and of any attached trees.
// Trees of the copy reference the copied words.
func (s *Sentence) Clone() *Sentence {
	c := &Sentence{Words: make([]*Word, len(s.Words))}
	remap := make(map[*Word]*Word, len(s.Words))
	for i, w := range s.Words {
		c.Words[i] = w.clone()
		remap[w] = c.Words[i]
	}
	if s.Tree != nil {
		c.Tree = s.Tree.cloneWith(remap)
	}
	if s.Deps != nil && c.Tree != nil {
		c.Deps = s.Deps.cloneWith(c.Tree, remap)
	}
	return c
}

func cloneSentences(in []*Sentence) []*Sentence {
	out := make([]*Sentence, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
