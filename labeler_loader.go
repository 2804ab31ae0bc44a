package syntaxis

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
)

// LoadLabeler reads a labeling rule file with <CLASS>, <GRLAB> and
// <SEMDB> sections. Classes are added to the shared table. Rules using
// semantic functions require a <SEMDB> section.
func LoadLabeler(path string, classes *WordClasses, logger *slog.Logger) (*Labeler, error) {
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

	l := &Labeler{
		rules:   make(map[string][]*LabelRule),
		classes: classes,
		logger:  logger,
	}
	dir := filepath.Dir(path)
	var senseFile, wnFile string
	needsSemDB := false

	for _, ln := range lines {
		log := logger.With(slog.String("file", path), slog.Int("line", ln.n))
		switch ln.section {
		case "CLASS":
			if err := classes.parseClassLine(ln.text, dir, log); err != nil {
				return nil, err
			}
		case "SEMDB":
			key, value, _ := strings.Cut(ln.text, " ")
			value = strings.TrimSpace(value)
			switch key {
			case "SenseFile":
				senseFile = filepath.Join(dir, value)
			case "WNFile":
				wnFile = filepath.Join(dir, value)
			default:
				log.Warn("unknown SEMDB keyword ignored", slog.String("keyword", key))
			}
		case "GRLAB":
			r, err := parseLabelRule(ln.text)
			if err != nil {
				log.Warn("labeling rule ignored", slog.String("error", err.Error()))
				continue
			}
			for _, c := range r.checks {
				needsSemDB = needsSemDB || c.fn.semantic()
			}
			l.rules[r.Ancestor] = append(l.rules[r.Ancestor], r)
			l.count++
		default:
			log.Warn("line outside known section ignored", slog.String("section", ln.section))
		}
	}

	if senseFile != "" {
		db, err := LoadSemanticDB(senseFile, wnFile)
		if err != nil {
			return nil, err
		}
		l.semdb = db
	}
	if needsSemDB && l.semdb == nil {
		return nil, fmt.Errorf("labeler %s: %w", path, ErrNoSemanticDB)
	}
	return l, nil
}

// parseLabelRule reads "ancestor label cond cond ...", each condition
// being node.function=value or node.function!=value.
func parseLabelRule(line string) (*LabelRule, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("expected ancestor and label in %q", line)
	}
	r := &LabelRule{Ancestor: fields[0], Label: fields[1]}
	for _, f := range fields[2:] {
		c, err := parseCheck(f)
		if err != nil {
			return nil, err
		}
		r.checks = append(r.checks, c)
	}
	return r, nil
}

func parseCheck(s string) (check, error) {
	var c check
	lhs, value, ok := strings.Cut(s, "=")
	if !ok || value == "" {
		return c, fmt.Errorf("condition %q has no value", s)
	}
	if strings.HasSuffix(lhs, "!") {
		c.negated = true
		lhs = lhs[:len(lhs)-1]
	}
	node, fn, ok := strings.Cut(lhs, ".")
	if !ok {
		return c, fmt.Errorf("condition %q has no node", s)
	}
	switch node {
	case "p":
		c.node = nodeParent
	case "d":
		c.node = nodeDependent
	default:
		return c, fmt.Errorf("unknown node %q in %q", node, s)
	}
	f, ok := checkFuncNames[fn]
	if !ok {
		return c, fmt.Errorf("unknown function %q in %q", fn, s)
	}
	c.fn = f
	if f == fnPos {
		re, err := regexp.Compile("^(?:" + value + ")$")
		if err != nil {
			return c, fmt.Errorf("pos pattern %q: %w", value, err)
		}
		c.re = re
	}
	c.values = strings.Split(value, "|")
	return c, nil
}
