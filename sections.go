package syntaxis

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// sectionLine is a non-empty line of a sectioned rule file.
type sectionLine struct {
	// section is the enclosing <NAME>, empty outside any section.
	section string
	text    string
	n       int
}

// readSectionFile reads a file made of <NAME> ... </NAME> blocks, with
// '%' comments. Unreadable files are errors.
func readSectionFile(path string) ([]sectionLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var (
		out     []sectionLine
		section string
		n       int
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
		line := strings.TrimSpace(stripComment(sc.Text()))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "</") && strings.HasSuffix(line, ">") {
			section = ""
			continue
		}
		if strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">") && !strings.ContainsAny(line, " \t") {
			section = line[1 : len(line)-1]
			continue
		}
		out = append(out, sectionLine{section: section, text: line, n: n})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
