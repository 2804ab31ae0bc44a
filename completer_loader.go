package syntaxis

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// LoadCompleter reads a completion rule file with <CLASS> and <GRPAR>
// sections. Classes are added to the shared table. An unreadable file is
// an error; malformed rules are logged and skipped, and rules with
// malformed chunk conditions are kept with bare labels.
func LoadCompleter(path string, classes *WordClasses, logger *slog.Logger) (*Completer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if classes == nil {
		classes = NewWordClasses()
	}
	lines, err := readSectionFile(path)
	if err != nil {
		return nil, err
	}

	c := &Completer{
		rules:   make(map[[2]string][]*CompleterRule),
		classes: classes,
		logger:  logger,
	}
	dir := filepath.Dir(path)
	for _, ln := range lines {
		log := logger.With(slog.String("file", path), slog.Int("line", ln.n))
		switch ln.section {
		case "CLASS":
			if err := classes.parseClassLine(ln.text, dir, log); err != nil {
				return nil, err
			}
		case "GRPAR":
			r, key, err := parseCompleterRule(ln.text, log)
			if err != nil {
				log.Warn("completer rule ignored", slog.String("error", err.Error()))
				continue
			}
			r.index = c.count
			c.count++
			c.rules[key] = append(c.rules[key], r)
		default:
			log.Warn("line outside known section ignored", slog.String("section", ln.section))
		}
	}
	return c, nil
}

// parseCompleterRule reads
//
//	weight flags context (left,right) operation RELABEL|MATCHING label [+flag|-flag ...]
func parseCompleterRule(line string, log *slog.Logger) (*CompleterRule, [2]string, error) {
	fields := strings.Fields(line)
	if len(fields) < 7 {
		return nil, [2]string{}, fmt.Errorf("expected at least 7 fields, got %d", len(fields))
	}
	r := &CompleterRule{}

	w, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, [2]string{}, fmt.Errorf("bad weight %q", fields[0])
	}
	r.Weight = w

	if fields[1] != "-" {
		r.Enabling = strings.Split(fields[1], "|")
	}

	r.context, err = parseContext(fields[2])
	if err != nil {
		return nil, [2]string{}, err
	}

	r.left, r.right, err = parseChunkPair(fields[3], log)
	if err != nil {
		return nil, [2]string{}, err
	}

	op, ok := operationNames[fields[4]]
	if !ok {
		return nil, [2]string{}, fmt.Errorf("unknown operation %q", fields[4])
	}
	r.Op = op

	switch fields[5] {
	case "RELABEL":
		r.Relabel = true
	case "MATCHING":
		if !op.locates() {
			log.Warn("MATCHING on a top operation has no effect", slog.String("operation", fields[4]))
		}
	default:
		return nil, [2]string{}, fmt.Errorf("expected RELABEL or MATCHING, got %q", fields[5])
	}
	r.NewLabel = fields[6]

	for _, f := range fields[7:] {
		switch {
		case len(f) > 1 && f[0] == '+':
			r.FlagsOn = append(r.FlagsOn, f[1:])
		case len(f) > 1 && f[0] == '-':
			r.FlagsOff = append(r.FlagsOff, f[1:])
		default:
			log.Warn("flag operation ignored", slog.String("token", f))
		}
	}
	for _, f := range r.FlagsOn {
		if slices.Contains(r.FlagsOff, f) {
			log.Warn("ambiguous flag toggle, flag is switched off", slog.String("flag", f))
			r.FlagsOn = slices.DeleteFunc(r.FlagsOn, func(s string) bool { return s == f })
		}
	}

	return r, [2]string{r.left.label, r.right.label}, nil
}

// parseContext reads "-" or an '_' separated pattern with one "$$".
func parseContext(s string) (contextPattern, error) {
	if s == "-" {
		return contextPattern{always: true}, nil
	}
	var p contextPattern
	if strings.HasPrefix(s, "!") {
		p.negated = true
		s = s[1:]
	}
	elems := strings.Split(s, "_")
	at := slices.Index(elems, contextPair)
	if at < 0 || slices.Contains(elems[at+1:], contextPair) {
		return p, fmt.Errorf("context %q needs exactly one %s", s, contextPair)
	}
	for i := at - 1; i >= 0; i-- {
		p.left = append(p.left, elems[i])
	}
	p.right = elems[at+1:]
	return p, nil
}

var errChunkPair = errors.New("malformed chunk pair")

// parseChunkPair reads "(left,right)". A pair with bad delimiters keeps
// its bare labels and loses its conditions. A side with bad condition
// brackets loses only its own conditions.
func parseChunkPair(pair string, log *slog.Logger) (left, right sideCondition, err error) {
	inner, opened := strings.CutPrefix(pair, "(")
	inner, closed := strings.CutSuffix(inner, ")")
	sides := splitTopLevel(inner, ',')
	if !opened || !closed || len(sides) != 2 {
		l, r, ok := strings.Cut(inner, ",")
		l, r = bareLabel(l), bareLabel(r)
		if !ok || l == "" || r == "" {
			return left, right, fmt.Errorf("%w %q", errChunkPair, pair)
		}
		log.Warn("chunk pair malformed, conditions dropped", slog.String("pair", pair))
		return sideCondition{label: l}, sideCondition{label: r}, nil
	}

	var conds [2]sideCondition
	for i, side := range sides {
		cond, err := parseSide(side)
		if err != nil {
			log.Warn("chunk conditions dropped", slog.String("side", side), slog.String("error", err.Error()))
		}
		if cond.label == "" {
			return left, right, fmt.Errorf("%w %q", errChunkPair, pair)
		}
		conds[i] = cond
	}
	return conds[0], conds[1], nil
}

// bareLabel cuts s at its first condition bracket.
func bareLabel(s string) string {
	if i := strings.IndexAny(s, "<({[)>}]"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

var closers = map[byte]byte{'<': '>', '(': ')', '{': '}', '[': ']'}

var errBracket = errors.New("malformed condition brackets")

// parseSide reads a chunk label with optional <lemmas>, (forms),
// {class} and [pos-regex] conditions. On error the bare label is still
// returned.
func parseSide(s string) (sideCondition, error) {
	i := strings.IndexAny(s, "<({[")
	if i < 0 {
		return sideCondition{label: s}, nil
	}
	bare := sideCondition{label: s[:i]}
	cond := bare
	seen := make(map[byte]bool)
	rest := s[i:]
	for rest != "" {
		open := rest[0]
		want, ok := closers[open]
		if !ok {
			return bare, fmt.Errorf("%w: unexpected %q in %q", errBracket, open, s)
		}
		j := strings.IndexAny(rest[1:], ">)}]")
		if j < 0 {
			return bare, fmt.Errorf("%w: unclosed %q in %q", errBracket, open, s)
		}
		if got := rest[1+j]; got != want {
			return bare, fmt.Errorf("%w: %q closed by %q in %q", errBracket, open, got, s)
		}
		if seen[open] {
			return bare, fmt.Errorf("%w: duplicate %q in %q", errBracket, open, s)
		}
		seen[open] = true
		content := rest[1 : 1+j]
		switch open {
		case '<':
			cond.lemmas = strings.Split(content, "|")
		case '(':
			cond.forms = strings.Split(content, "|")
		case '{':
			cond.class = content
		case '[':
			re, err := regexp.Compile("^(?:" + content + ")$")
			if err != nil {
				return bare, fmt.Errorf("pos pattern %q: %w", content, err)
			}
			cond.pos = re
		}
		rest = rest[2+j:]
	}
	return cond, nil
}
