package syntaxis

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// SemanticDB answers the sense-level questions asked by labeling rules.
type SemanticDB interface {
	// Senses returns the synsets of a lemma for a part of speech given
	// as the first letter of a tag, most frequent first.
	Senses(lemma, pos string) []string
	// Lemmas returns the lemmas sharing a synset.
	Lemmas(synset string) []string
	// Hypernyms returns the direct hypernyms of a synset.
	Hypernyms(synset string) []string
	// TopOntology returns the top-ontology classes of a synset.
	TopOntology(synset string) []string
	// SemFile returns the semantic file of a synset.
	SemFile(synset string) string
}

type synsetInfo struct {
	hypernyms []string
	tonto     []string
	semfile   string
}

// FileSemanticDB is a SemanticDB read from a sense file and a synset
// file.
//
// Sense file lines: "lemma pos synset synset ...".
// Synset file lines: "synset hyper:hyper tonto:tonto semfile", '-' for
// an empty field.
type FileSemanticDB struct {
	senses  map[string][]string
	lemmas  map[string][]string
	synsets map[string]synsetInfo
}

// LoadSemanticDB reads both files. wnFile may be empty.
func LoadSemanticDB(senseFile, wnFile string) (*FileSemanticDB, error) {
	db := &FileSemanticDB{
		senses:  make(map[string][]string),
		lemmas:  make(map[string][]string),
		synsets: make(map[string]synsetInfo),
	}
	err := scanFields(senseFile, func(f []string) {
		if len(f) < 3 {
			return
		}
		key := f[0] + "#" + f[1]
		db.senses[key] = append(db.senses[key], f[2:]...)
		for _, s := range f[2:] {
			db.lemmas[s] = append(db.lemmas[s], f[0])
		}
	})
	if err != nil {
		return nil, err
	}
	if wnFile == "" {
		return db, nil
	}
	err = scanFields(wnFile, func(f []string) {
		if len(f) < 4 {
			return
		}
		db.synsets[f[0]] = synsetInfo{
			hypernyms: splitList(f[1]),
			tonto:     splitList(f[2]),
			semfile:   f[3],
		}
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func splitList(s string) []string {
	if s == "-" || s == "" {
		return nil
	}
	return strings.Split(s, ":")
}

// scanFields calls fn with the fields of each non-comment line.
func scanFields(path string, fn func([]string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}
		fn(strings.Fields(line))
	}
	return sc.Err()
}

func (db *FileSemanticDB) Senses(lemma, pos string) []string {
	return db.senses[lemma+"#"+pos]
}

func (db *FileSemanticDB) Lemmas(synset string) []string { return db.lemmas[synset] }

func (db *FileSemanticDB) Hypernyms(synset string) []string {
	return db.synsets[synset].hypernyms
}

func (db *FileSemanticDB) TopOntology(synset string) []string {
	return db.synsets[synset].tonto
}

func (db *FileSemanticDB) SemFile(synset string) string {
	return db.synsets[synset].semfile
}

// wordSenses returns the senses annotated on the word, falling back to
// the database entries for its lemma and coarse part of speech.
func wordSenses(db SemanticDB, w *Word) []string {
	if s := w.Senses(); len(s) > 0 {
		return s
	}
	tag := w.Tag()
	if tag == "" {
		return nil
	}
	return db.Senses(w.Lemma(), strings.ToLower(tag[:1]))
}

// ancestors returns the synsets plus all their transitive hypernyms.
func ancestors(db SemanticDB, synsets []string) map[string]bool {
	seen := make(map[string]bool)
	queue := append([]string(nil), synsets...)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if seen[s] {
			continue
		}
		seen[s] = true
		queue = append(queue, db.Hypernyms(s)...)
	}
	return seen
}
