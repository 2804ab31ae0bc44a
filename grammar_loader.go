package syntaxis

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// statement is one '.'-terminated grammar statement and the line it
// starts on.
type statement struct {
	text string
	line int
}

// LoadGrammar reads a grammar file. An unreadable grammar or set file is
// an error; malformed statements are logged and skipped.
func LoadGrammar(path string, logger *slog.Logger) (*Grammar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grammar %s: %w", path, err)
	}
	defer f.Close()

	stmts, err := readStatements(bufio.NewScanner(f))
	if err != nil {
		return nil, fmt.Errorf("read grammar %s: %w", path, err)
	}

	g := newGrammar()
	nextPrior := 1
	for _, st := range stmts {
		warn := func(msg string, args ...any) {
			logger.Warn(msg, append([]any{slog.String("file", path), slog.Int("line", st.line)}, args...)...)
		}
		if strings.HasPrefix(st.text, "@") {
			fields := splitSymbols(st.text)
			directive, syms := fields[0], fields[1:]
			switch directive {
			case "@START":
				if len(syms) != 1 {
					warn("@START expects one symbol", slog.String("statement", st.text))
					continue
				}
				g.start = syms[0]
			case "@PRIOR":
				for _, s := range syms {
					if _, ok := g.priority[s]; !ok {
						g.priority[s] = nextPrior
						nextPrior++
					}
				}
			case "@HIDDEN":
				g.setFlag(syms, flagHidden)
			case "@ONLYTOP":
				g.setFlag(syms, flagOnlyTop)
			case "@FLAT":
				g.setFlag(syms, flagFlat)
			case "@NOTOP":
				g.setFlag(syms, flagNoTop)
			default:
				warn("unknown grammar directive", slog.String("directive", directive))
			}
			continue
		}

		head, body, ok := strings.Cut(st.text, "==>")
		head = strings.TrimSpace(head)
		if !ok || head == "" || strings.ContainsAny(head, " \t,") {
			warn("malformed grammar rule", slog.String("statement", st.text))
			continue
		}
		for _, alt := range splitTopLevel(body, '|') {
			r, multiGov := parseAlternative(head, alt)
			if r == nil {
				warn("empty rule alternative", slog.String("head", head))
				continue
			}
			if multiGov {
				warn("more than one governor in rule, first prevails", slog.String("head", head))
			}
			if r.Governor == NoGovernor && len(r.Right) > 1 {
				warn("rule without governor", slog.String("head", head), slog.String("rule", alt))
			}
			g.addRule(r)
		}
	}

	if g.start == "" {
		return nil, fmt.Errorf("grammar %s: %w", path, ErrNoStartSymbol)
	}
	if err := g.loadSetFiles(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grammar) setFlag(syms []string, flag int) {
	for _, s := range syms {
		g.flags[s] |= flag
	}
}

// loadSetFiles reads every file named by a quoted literal in a rule.
func (g *Grammar) loadSetFiles(dir string) error {
	for _, r := range g.rules {
		for _, sym := range r.Right {
			_, suffix := splitSymbol(sym)
			_, content := suffixValue(suffix)
			name, ok := quoted(content)
			if !ok {
				continue
			}
			if _, done := g.filemap[name]; done {
				continue
			}
			items, err := readItemFile(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			g.filemap[name] = items
		}
	}
	return nil
}

// readItemFile reads one item per line, skipping blanks and '%' comments.
func readItemFile(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	items := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		items[line] = true
	}
	return items, sc.Err()
}

// parseAlternative builds a rule from one '|' alternative. It reports
// whether more than one '+' governor mark was found.
func parseAlternative(head, alt string) (*Rule, bool) {
	syms := splitSymbols(alt)
	if len(syms) == 0 {
		return nil, false
	}
	r := &Rule{Head: head, Governor: NoGovernor, Right: make([]string, 0, len(syms))}
	multi := false
	for i, s := range syms {
		if strings.HasPrefix(s, "+") && len(s) > 1 {
			s = s[1:]
			if r.Governor == NoGovernor {
				r.Governor = i
			} else {
				multi = true
			}
		}
		r.Right = append(r.Right, s)
	}
	if r.Governor == NoGovernor && len(r.Right) == 1 {
		r.Governor = 0
	}
	return r, multi
}

// readStatements strips comments and splits the input at '.' characters
// found outside brackets and quotes.
func readStatements(sc *bufio.Scanner) ([]statement, error) {
	var (
		out   []statement
		cur   strings.Builder
		start int
		depth int
		inQ   bool
		lineN int
	)
	for sc.Scan() {
		lineN++
		line := stripComment(sc.Text())
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case c == '"':
				inQ = !inQ
			case inQ:
			case c == '(' || c == '<':
				depth++
			case (c == ')' || c == '>') && depth > 0:
				depth--
			case c == '.' && depth == 0:
				if text := strings.TrimSpace(cur.String()); text != "" {
					out = append(out, statement{text: text, line: start})
				}
				cur.Reset()
				continue
			}
			if cur.Len() == 0 && (c == ' ' || c == '\t') {
				continue
			}
			if cur.Len() == 0 {
				start = lineN
			}
			cur.WriteByte(c)
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
	}
	if text := strings.TrimSpace(cur.String()); text != "" {
		out = append(out, statement{text: text, line: start})
	}
	return out, sc.Err()
}

// stripComment cuts a line at a '%' that starts the line or follows
// whitespace, so literals such as Fz(%) survive.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '%' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}

// splitSymbols splits on commas and whitespace outside brackets.
func splitSymbols(s string) []string {
	var out []string
	for _, part := range splitTopLevel(s, ',') {
		out = append(out, strings.Fields(part)...)
	}
	return out
}

// splitTopLevel splits s on sep where sep is outside (), <>, {}, [] and
// double quotes.
func splitTopLevel(s string, sep byte) []string {
	var (
		out   []string
		depth int
		inQ   bool
		last  int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQ = !inQ
		case inQ:
		case c == '(' || c == '<' || c == '{' || c == '[':
			depth++
		case (c == ')' || c == '>' || c == '}' || c == ']') && depth > 0:
			depth--
		case c == sep && depth == 0:
			out = append(out, s[last:i])
			last = i + 1
		}
	}
	return append(out, s[last:])
}
