package syntaxis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("syntaxis")

// ErrNotParsed is returned for a sentence given to the dependency stage
// without a parse tree.
var ErrNotParsed = errors.New("sentence has no parse tree")

// ChartParser annotates sentences with their best chart parse.
type ChartParser struct {
	grammar *Grammar
	logger  *slog.Logger
}

// NewChartParser returns a parser over g.
func NewChartParser(g *Grammar, logger *slog.Logger) *ChartParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartParser{grammar: g, logger: logger}
}

// Grammar returns the grammar the parser uses.
func (p *ChartParser) Grammar() *Grammar { return p.grammar }

// ParseSentence sets s.Tree. A fresh chart is used for every call.
func (p *ChartParser) ParseSentence(s *Sentence) error {
	c := NewChart(p.grammar, p.logger)
	c.Load(s)
	t, err := c.Parse()
	if err != nil {
		return err
	}
	s.Tree = t
	return nil
}

// Analyze parses every sentence in place. Failing sentences are skipped
// and reported as *SentenceError values joined in the result.
func (p *ChartParser) Analyze(ctx context.Context, sents []*Sentence) error {
	ctx, span := tracer.Start(ctx, "ChartParser.Analyze",
		trace.WithAttributes(attribute.Int("sentences", len(sents))))
	defer span.End()
	return finish(span, eachSentence(ctx, sents, p.ParseSentence))
}

// AnalyzeCopy parses copies of the sentences and returns them, leaving
// the input untouched.
func (p *ChartParser) AnalyzeCopy(ctx context.Context, sents []*Sentence) ([]*Sentence, error) {
	out := cloneSentences(sents)
	return out, p.Analyze(ctx, out)
}

// DepTxala completes parse trees, converts them to dependencies and
// labels the relations.
type DepTxala struct {
	completer *Completer
	builder   *DependencyBuilder
	labeler   *Labeler
	start     string
	logger    *slog.Logger
}

// NewDepTxala returns a dependency stage. start is the label of the
// fictitious root produced by the chart for incomplete parses.
func NewDepTxala(c *Completer, l *Labeler, start string, logger *slog.Logger) *DepTxala {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = &Completer{rules: make(map[[2]string][]*CompleterRule), classes: NewWordClasses(), logger: logger}
	}
	if l == nil {
		l = &Labeler{rules: make(map[string][]*LabelRule), classes: NewWordClasses(), logger: logger}
	}
	return &DepTxala{
		completer: c,
		builder:   NewDependencyBuilder(logger),
		labeler:   l,
		start:     start,
		logger:    logger,
	}
}

// BuildSentence completes s.Tree and sets s.Deps.
func (d *DepTxala) BuildSentence(s *Sentence) error {
	if s.Tree == nil {
		return ErrNotParsed
	}
	s.Tree = d.completer.Complete(s.Tree, d.start)
	s.Deps = d.builder.Build(s.Tree)
	d.labeler.Label(s.Deps)
	return nil
}

// Analyze builds labeled dependencies for every parsed sentence in
// place.
func (d *DepTxala) Analyze(ctx context.Context, sents []*Sentence) error {
	ctx, span := tracer.Start(ctx, "DepTxala.Analyze",
		trace.WithAttributes(
			attribute.Int("sentences", len(sents)),
			attribute.String("start", d.start),
		))
	defer span.End()
	return finish(span, eachSentence(ctx, sents, d.BuildSentence))
}

// AnalyzeCopy works on copies and returns them.
func (d *DepTxala) AnalyzeCopy(ctx context.Context, sents []*Sentence) ([]*Sentence, error) {
	out := cloneSentences(sents)
	return out, d.Analyze(ctx, out)
}

// eachSentence runs fn over sents, checking ctx between sentences.
func eachSentence(ctx context.Context, sents []*Sentence, fn func(*Sentence) error) error {
	var errs []error
	for i, s := range sents {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := fn(s); err != nil {
			errs = append(errs, &SentenceError{Index: i, Err: err})
		}
	}
	return errors.Join(errs...)
}

func finish(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Options configures New.
type Options struct {
	GrammarFile   string
	CompleterFile string
	LabelerFile   string
	// Start overrides the grammar's start symbol for completion.
	Start  string
	Logger *slog.Logger
}

// Analyzer is the full pipeline: chart parsing followed by completion,
// dependency building and labeling. It is safe for concurrent use.
type Analyzer struct {
	Parser *ChartParser
	Deps   *DepTxala
	logger *slog.Logger
}

// New loads the rule files named in opts. Completer and labeler files
// are optional; without them incomplete parses are merged left to right
// and every dependent is labeled modnorule.
func New(opts Options) (*Analyzer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	g, err := LoadGrammar(opts.GrammarFile, logger)
	if err != nil {
		return nil, fmt.Errorf("load grammar: %w", err)
	}
	classes := NewWordClasses()
	var comp *Completer
	if opts.CompleterFile != "" {
		if comp, err = LoadCompleter(opts.CompleterFile, classes, logger); err != nil {
			return nil, fmt.Errorf("load completer: %w", err)
		}
	}
	var lab *Labeler
	if opts.LabelerFile != "" {
		if lab, err = LoadLabeler(opts.LabelerFile, classes, logger); err != nil {
			return nil, fmt.Errorf("load labeler: %w", err)
		}
	}
	start := opts.Start
	if start == "" {
		start = g.Start()
	}
	logger.Info("analyzer loaded",
		slog.String("grammar", opts.GrammarFile),
		slog.Int("rules", g.Stats().Rules),
		slog.String("start", start))
	return &Analyzer{
		Parser: NewChartParser(g, logger),
		Deps:   NewDepTxala(comp, lab, start, logger),
		logger: logger,
	}, nil
}

// Grammar returns the loaded grammar.
func (a *Analyzer) Grammar() *Grammar { return a.Parser.Grammar() }

func (a *Analyzer) processSentence(s *Sentence) error {
	if err := a.Parser.ParseSentence(s); err != nil {
		return err
	}
	return a.Deps.BuildSentence(s)
}

// Process runs both stages over the sentences in order.
func (a *Analyzer) Process(ctx context.Context, sents []*Sentence) error {
	ctx, span := tracer.Start(ctx, "Analyzer.Process",
		trace.WithAttributes(attribute.Int("sentences", len(sents))))
	defer span.End()
	return finish(span, eachSentence(ctx, sents, a.processSentence))
}

// ProcessParallel runs both stages with at most workers sentences in
// flight. Per-sentence failures are joined as with Process.
func (a *Analyzer) ProcessParallel(ctx context.Context, sents []*Sentence, workers int) error {
	if workers <= 1 {
		return a.Process(ctx, sents)
	}
	ctx, span := tracer.Start(ctx, "Analyzer.ProcessParallel",
		trace.WithAttributes(
			attribute.Int("sentences", len(sents)),
			attribute.Int("workers", workers),
		))
	defer span.End()

	errs := make([]error, len(sents))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range sents {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := a.processSentence(s); err != nil {
				errs[i] = &SentenceError{Index: i, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	return finish(span, errors.Join(errs...))
}
