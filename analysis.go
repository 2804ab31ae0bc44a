package syntaxis

import "strings"

// Analysis holds a single morphological reading of a word.
type Analysis struct {
	// Lemma is the dictionary form, e.g. "eat".
	Lemma string
	// Tag is the part-of-speech tag, e.g. "VMIP3S0".
	Tag string
	// Prob is the tagger probability for this reading (0 when unknown).
	Prob float64
	// Selected marks readings kept by the tagger or chosen by the parser.
	Selected bool
	// Senses lists synset identifiers assigned by a sense annotator, most
	// probable first. Empty when no annotator ran.
	Senses []string
}

// Word is one token of a tagged sentence.
type Word struct {
	// Form is the surface form as it appears in the text.
	Form string
	// Position is the 0-based index of the word in its sentence.
	Position int
	// Analyses lists the candidate readings for the word.
	Analyses []Analysis
}

// LcForm returns the lowercased surface form.
func (w *Word) LcForm() string {
	return strings.ToLower(w.Form)
}

// SelectedAnalyses returns the readings flagged as selected. When no
// reading is flagged every reading is considered selected.
func (w *Word) SelectedAnalyses() []Analysis {
	var out []Analysis
	for _, a := range w.Analyses {
		if a.Selected {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return w.Analyses
	}
	return out
}

// first returns the first selected analysis, or a zero Analysis for a
// word without readings.
func (w *Word) first() Analysis {
	sel := w.SelectedAnalyses()
	if len(sel) == 0 {
		return Analysis{}
	}
	return sel[0]
}

// Lemma returns the lemma of the first selected analysis.
func (w *Word) Lemma() string { return w.first().Lemma }

// Tag returns the tag of the first selected analysis.
func (w *Word) Tag() string { return w.first().Tag }

// Senses returns the senses of the first selected analysis.
func (w *Word) Senses() []string { return w.first().Senses }

// selectTag keeps only the analyses carrying tag as selected. It is a
// no-op when no analysis has that tag.
func (w *Word) selectTag(tag string) {
	found := false
	for _, a := range w.Analyses {
		if a.Tag == tag {
			found = true
			break
		}
	}
	if !found {
		return
	}
	for i := range w.Analyses {
		w.Analyses[i].Selected = w.Analyses[i].Tag == tag
	}
}

func (w *Word) clone() *Word {
	c := &Word{Form: w.Form, Position: w.Position}
	c.Analyses = make([]Analysis, len(w.Analyses))
	for i, a := range w.Analyses {
		a.Senses = append([]string(nil), a.Senses...)
		c.Analyses[i] = a
	}
	return c
}
