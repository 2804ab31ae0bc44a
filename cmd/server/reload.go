package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// ruleWatcher reloads the server's analyzer when a rule file changes.
// Directories are watched rather than files so that editors replacing a
// file by rename are noticed.
type ruleWatcher struct {
	srv     *server
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	files   map[string]bool
}

func newRuleWatcher(srv *server, logger *slog.Logger) (*ruleWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &ruleWatcher{srv: srv, logger: logger, watcher: fsw, files: make(map[string]bool)}
	dirs := make(map[string]bool)
	for _, p := range []string{srv.cfg.Rules.Grammar, srv.cfg.Rules.Completer, srv.cfg.Rules.Labeler} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
		logger.Debug("watching rule directory", slog.String("path", dir))
	}
	return w, nil
}

// Run processes events until ctx is done.
func (w *ruleWatcher) Run(ctx context.Context) {
	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("rule file change detected", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			timer.Reset(reloadDebounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			if err := w.srv.load(); err != nil {
				w.logger.Warn("rule reload failed, keeping previous rules", slog.String("error", err.Error()))
				continue
			}
			w.logger.Info("rules reloaded")
		}
	}
}

func (w *ruleWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && w.files[abs]
}

// Close stops watching.
func (w *ruleWatcher) Close() error {
	return w.watcher.Close()
}
