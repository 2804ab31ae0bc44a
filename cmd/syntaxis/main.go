// Package main provides the syntaxis command line tool: it parses
// tagged text with a chart grammar and prints constituency trees,
// dependency trees or CoNLL rows.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/cours-de-latin/syntaxis"
	"github.com/cours-de-latin/syntaxis/config"
	"github.com/cours-de-latin/syntaxis/telemetry"
)

const (
	Version = "0.1.0"
	appName = "syntaxis"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	grammar    string
	completer  string
	labeler    string
	start      string
	workers    int
	trace      string
}

func rootCmd() *cobra.Command {
	var gf globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Chart parser and dependency builder for tagged text",
		Long: `Syntaxis parses tagged sentences with a context-free chart grammar,
completes partial parses with a weighted rule base, converts the result
to dependencies and labels the relations.

Rule files are named in syntaxis.yaml or with flags.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&gf.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&gf.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVarP(&gf.grammar, "grammar", "g", "", "Grammar file")
	pf.StringVar(&gf.completer, "completer", "", "Completion rule file")
	pf.StringVar(&gf.labeler, "labeler", "", "Labeling rule file")
	pf.StringVar(&gf.start, "start", "", "Override the start symbol")
	pf.IntVarP(&gf.workers, "workers", "w", 0, "Sentences processed in parallel")
	pf.StringVar(&gf.trace, "trace", "", "Span exporter (none, stdout); spans go to stderr")

	cmd.AddCommand(parseCmd(&gf), checkCmd(&gf))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})
	return cmd
}

// setup loads the configuration and the analyzer and installs the span
// exporter. The returned shutdown flushes pending spans.
func setup(gf *globalFlags) (*config.Config, *syntaxis.Analyzer, func(context.Context) error, error) {
	overrides := &config.Config{
		Rules: config.RulesConfig{
			Grammar:   gf.grammar,
			Completer: gf.completer,
			Labeler:   gf.labeler,
			Start:     gf.start,
		},
		Worker: config.WorkerConfig{Count: gf.workers},
		Log:    config.LogConfig{Level: gf.logLevel},
		Trace:  config.TraceConfig{Exporter: gf.trace},
	}
	cfg, err := config.NewLoader(nil).Load(gf.configPath, overrides)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	shutdown, err := telemetry.Init(cfg.Trace.Exporter, Version, os.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := syntaxis.New(syntaxis.Options{
		GrammarFile:   cfg.Rules.Grammar,
		CompleterFile: cfg.Rules.Completer,
		LabelerFile:   cfg.Rules.Labeler,
		Start:         cfg.Rules.Start,
		Logger:        logger,
	})
	if err != nil {
		_ = shutdown(context.Background())
		return nil, nil, nil, err
	}
	return cfg, a, shutdown, nil
}

// expandInputs resolves each argument as a glob pattern, "**" included.
// A pattern matching nothing is an error.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, pattern := range args {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no input file matches %s", pattern)
		}
		slices.Sort(matches)
		out = append(out, matches...)
	}
	return out, nil
}

// readInputs reads the tagged sentences of every input file in order,
// or stdin when there is none.
func readInputs(stdin io.Reader, args []string) ([]*syntaxis.Sentence, error) {
	if len(args) == 0 {
		return syntaxis.ReadTagged(stdin)
	}
	files, err := expandInputs(args)
	if err != nil {
		return nil, err
	}
	var sents []*syntaxis.Sentence
	for _, f := range files {
		s, err := syntaxis.ReadTaggedFile(f)
		if err != nil {
			return nil, err
		}
		sents = append(sents, s...)
	}
	return sents, nil
}

func parseCmd(gf *globalFlags) *cobra.Command {
	var (
		format    string
		parseOnly bool
	)
	cmd := &cobra.Command{
		Use:   "parse [file|glob ...]",
		Short: "Parse tagged text (stdin when no file is given)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "tree", "deps", "conll":
			default:
				return fmt.Errorf("unknown format %q (tree, deps, conll)", format)
			}
			cfg, a, shutdown, err := setup(gf)
			if err != nil {
				return err
			}
			defer shutdown(context.Background())

			sents, err := readInputs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if parseOnly {
				err = a.Parser.Analyze(ctx, sents)
			} else {
				err = a.ProcessParallel(ctx, sents, cfg.Worker.Count)
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			if err != nil {
				slog.Warn("some sentences were skipped", slog.String("error", err.Error()))
			}
			return write(cmd.OutOrStdout(), format, sents)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "tree", "Output format (tree, deps, conll)")
	cmd.Flags().BoolVar(&parseOnly, "parse-only", false, "Stop after chart parsing")
	return cmd
}

func write(w io.Writer, format string, sents []*syntaxis.Sentence) error {
	if format == "conll" {
		return syntaxis.WriteCoNLL(w, sents)
	}
	for _, s := range sents {
		var out string
		switch {
		case format == "deps" && s.Deps != nil:
			out = s.Deps.String()
		case s.Tree != nil:
			out = s.Tree.String()
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}

func checkCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the rule files and print grammar statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, shutdown, err := setup(gf)
			if err != nil {
				return err
			}
			defer shutdown(context.Background())
			st := a.Grammar().Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "start symbol:   %s\n", st.Start)
			fmt.Fprintf(out, "rules:          %d\n", st.Rules)
			fmt.Fprintf(out, "nonterminals:   %d\n", st.Nonterminals)
			fmt.Fprintf(out, "wildcard rules: %d\n", st.WildcardRules)
			fmt.Fprintf(out, "set files:      %d\n", st.SetFiles)
			return nil
		},
	}
}
