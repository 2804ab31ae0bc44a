package syntaxis

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// WordClasses maps a class name to the lemmas it contains. The table is
// filled by the rule loaders and only read afterwards, so one instance
// can be shared by a completer and a labeler.
type WordClasses struct {
	classes map[string]map[string]bool
}

// NewWordClasses returns an empty table.
func NewWordClasses() *WordClasses {
	return &WordClasses{classes: make(map[string]map[string]bool)}
}

// Contains reports whether lemma belongs to class.
func (wc *WordClasses) Contains(class, lemma string) bool {
	if wc == nil {
		return false
	}
	return wc.classes[class][lemma]
}

// Has reports whether class is defined.
func (wc *WordClasses) Has(class string) bool {
	if wc == nil {
		return false
	}
	_, ok := wc.classes[class]
	return ok
}

// Len returns the number of classes.
func (wc *WordClasses) Len() int {
	if wc == nil {
		return 0
	}
	return len(wc.classes)
}

func (wc *WordClasses) add(class string, lemmas ...string) {
	set, ok := wc.classes[class]
	if !ok {
		set = make(map[string]bool)
		wc.classes[class] = set
	}
	for _, l := range lemmas {
		set[l] = true
	}
}

// parseClassLine reads a <CLASS> line: "name lemma lemma ..." or
// "name "file"", the file being resolved against dir.
func (wc *WordClasses) parseClassLine(line, dir string, logger *slog.Logger) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		logger.Warn("class without members", slog.String("line", line))
		return nil
	}
	name := fields[0]
	if file, ok := quoted(fields[1]); ok && len(fields) == 2 {
		items, err := readItemFile(filepath.Join(dir, file))
		if err != nil {
			return fmt.Errorf("class %s: %w", name, err)
		}
		for item := range items {
			wc.add(name, item)
		}
		return nil
	}
	wc.add(name, fields[1:]...)
	return nil
}
