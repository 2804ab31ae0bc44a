// Command server exposes the syntaxis parsing pipeline as a JSON REST API.
//
// Endpoints:
//
//	POST /api/parse     body: {"sentences":[[{"form":..,"lemma":..,"tag":..}]]}
//	                    or   {"tagged":"form lemma tag\n..."}
//	GET  /api/grammar
//	GET  /healthz
//	GET  /metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/cours-de-latin/syntaxis"
	"github.com/cours-de-latin/syntaxis/config"
	"github.com/cours-de-latin/syntaxis/telemetry"
)

const version = "0.1.0"

// ---- JSON request/response types ----------------------------------------

type analysisJSON struct {
	Lemma string  `json:"lemma"`
	Tag   string  `json:"tag"`
	Prob  float64 `json:"prob,omitempty"`
}

type wordJSON struct {
	Form     string         `json:"form"`
	Lemma    string         `json:"lemma,omitempty"`
	Tag      string         `json:"tag,omitempty"`
	Analyses []analysisJSON `json:"analyses,omitempty"`
}

type parseRequest struct {
	Sentences [][]wordJSON `json:"sentences"`
	Tagged    string       `json:"tagged"`
}

type depJSON struct {
	ID    int    `json:"id"`
	Form  string `json:"form"`
	Lemma string `json:"lemma"`
	Tag   string `json:"tag"`
	Head  int    `json:"head"`
	Rel   string `json:"rel"`
	Link  string `json:"link"`
	Chunk int    `json:"chunk,omitempty"`
}

type sentenceJSON struct {
	Tree         string    `json:"tree,omitempty"`
	Dependencies []depJSON `json:"dependencies,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type parseResponse struct {
	RequestID string         `json:"request_id"`
	Sentences []sentenceJSON `json:"sentences"`
}

type grammarResponse struct {
	syntaxis.GrammarStats
	LoadedAt time.Time `json:"loaded_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- helpers ------------------------------------------------------------

func toSentence(words []wordJSON) (*syntaxis.Sentence, error) {
	out := make([]*syntaxis.Word, 0, len(words))
	for i, wj := range words {
		if wj.Form == "" {
			return nil, fmt.Errorf("word %d has no form", i)
		}
		w := &syntaxis.Word{Form: wj.Form}
		if wj.Tag != "" {
			w.Analyses = append(w.Analyses, syntaxis.Analysis{Lemma: wj.Lemma, Tag: wj.Tag, Selected: true})
		}
		for _, a := range wj.Analyses {
			w.Analyses = append(w.Analyses, syntaxis.Analysis{Lemma: a.Lemma, Tag: a.Tag, Prob: a.Prob})
		}
		if len(w.Analyses) == 0 {
			return nil, fmt.Errorf("word %d (%s) has no analysis", i, wj.Form)
		}
		out = append(out, w)
	}
	return syntaxis.NewSentence(out...), nil
}

func toDepsJSON(s *syntaxis.Sentence) []depJSON {
	if s.Deps == nil || s.Deps.Root == nil {
		return nil
	}
	var out []depJSON
	s.Deps.Walk(func(n, gov *syntaxis.DepNode) {
		if n.Word == nil {
			return
		}
		head := 0
		if gov != nil && gov.Word != nil {
			head = gov.Word.Position + 1
		}
		out = append(out, depJSON{
			ID:    n.Word.Position + 1,
			Form:  n.Word.Form,
			Lemma: n.Word.Lemma(),
			Tag:   n.Word.Tag(),
			Head:  head,
			Rel:   n.Label,
			Link:  s.Deps.LinkLabel(n),
			Chunk: n.ChunkID,
		})
	})
	// walk is pre-order; sort by word position for deterministic output
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// sentenceErrors indexes the per-sentence failures of a joined error.
func sentenceErrors(err error) map[int]string {
	out := make(map[int]string)
	if err == nil {
		return out
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var se *syntaxis.SentenceError
		if errors.As(e, &se) {
			out[se.Index] = se.Err.Error()
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode error", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// ---- server -------------------------------------------------------------

type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	analyzer atomic.Pointer[syntaxis.Analyzer]
	loadedAt atomic.Pointer[time.Time]
}

// load builds a new analyzer from the configured rule files and swaps
// it in. The previous analyzer stays in service when loading fails.
func (s *server) load() error {
	a, err := syntaxis.New(syntaxis.Options{
		GrammarFile:   s.cfg.Rules.Grammar,
		CompleterFile: s.cfg.Rules.Completer,
		LabelerFile:   s.cfg.Rules.Labeler,
		Start:         s.cfg.Rules.Start,
		Logger:        s.logger,
	})
	if err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		return err
	}
	now := time.Now()
	s.analyzer.Store(a)
	s.loadedAt.Store(&now)
	reloadsTotal.WithLabelValues("ok").Inc()
	return nil
}

func (s *server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var body parseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "body must be JSON with 'sentences' or 'tagged'")
		return
	}

	var sents []*syntaxis.Sentence
	if body.Tagged != "" {
		parsed, err := syntaxis.ReadTagged(strings.NewReader(body.Tagged))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sents = parsed
	}
	for i, words := range body.Sentences {
		sent, err := toSentence(words)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("sentence %d: %v", i, err))
			return
		}
		sents = append(sents, sent)
	}
	if len(sents) == 0 {
		writeError(w, http.StatusBadRequest, "no sentences")
		return
	}
	if len(sents) > s.cfg.Server.MaxSentences {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("at most %d sentences per request", s.cfg.Server.MaxSentences))
		return
	}

	start := time.Now()
	err := s.analyzer.Load().ProcessParallel(r.Context(), sents, s.cfg.Worker.Count)
	parseDuration.Observe(time.Since(start).Seconds())
	if ctxErr := r.Context().Err(); ctxErr != nil {
		writeError(w, http.StatusServiceUnavailable, ctxErr.Error())
		return
	}

	failed := sentenceErrors(err)
	out := make([]sentenceJSON, len(sents))
	for i, sent := range sents {
		if msg, ok := failed[i]; ok {
			out[i] = sentenceJSON{Error: msg}
			sentencesTotal.WithLabelValues("error").Inc()
			continue
		}
		out[i] = sentenceJSON{Tree: sent.Tree.String(), Dependencies: toDepsJSON(sent)}
		sentencesTotal.WithLabelValues("ok").Inc()
	}
	writeJSON(w, http.StatusOK, parseResponse{
		RequestID: w.Header().Get(requestIDHeader),
		Sentences: out,
	})
}

func (s *server) handleGrammar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, grammarResponse{
		GrammarStats: s.analyzer.Load().Grammar().Stats(),
		LoadedAt:     *s.loadedAt.Load(),
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- middleware ---------------------------------------------------------

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// newLimiter returns nil when no rate is configured. The burst defaults
// to the rate rounded up.
func newLimiter(cfg config.ServerConfig) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = int(math.Ceil(cfg.RateLimit))
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}

// limit answers 429 once l is exhausted. A nil limiter lets everything
// through.
func limit(l *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	if l == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow() {
			rateLimitedTotal.Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// instrument tags the request with an ID, logs it and counts it.
func instrument(endpoint string, logger *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		logger.Info("request",
			slog.String("request_id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", time.Since(start)))
	}
}

// ---- main ---------------------------------------------------------------

func main() {
	configPath := flag.String("config", "", "path to syntaxis.yaml")
	addr := flag.String("addr", "", "listen address (overrides config)")
	grammar := flag.String("grammar", "", "grammar file (overrides config)")
	watch := flag.Bool("watch", false, "reload rule files when they change")
	flag.Parse()

	overrides := &config.Config{
		Rules:  config.RulesConfig{Grammar: *grammar},
		Server: config.ServerConfig{Addr: *addr, Watch: *watch},
	}
	cfg, err := config.NewLoader(nil).Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Init(cfg.Trace.Exporter, version, os.Stderr)
	if err != nil {
		logger.Error("failed to init tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	srv := &server{cfg: cfg, logger: logger}
	logger.Info("loading rules", slog.String("grammar", cfg.Rules.Grammar))
	if err := srv.load(); err != nil {
		logger.Error("failed to load rules", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Watch {
		w, err := newRuleWatcher(srv, logger)
		if err != nil {
			logger.Error("failed to watch rules", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer w.Close()
		go w.Run(ctx)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/parse", instrument("parse", logger, limit(newLimiter(cfg.Server), srv.handleParse)))
	mux.HandleFunc("/api/grammar", instrument("grammar", logger, srv.handleGrammar))
	mux.HandleFunc("/healthz", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
	}).Handler(mux)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", slog.String("addr", cfg.Server.Addr))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
