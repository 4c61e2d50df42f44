// Package watch rebuilds the site when sources change and optionally serves
// the output directory and Prometheus metrics while doing so.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitemedia/internal/logfields"
	"git.home.luguber.info/inful/sitemedia/internal/metrics"
	"git.home.luguber.info/inful/sitemedia/internal/site"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Builder runs one build.
type Builder interface {
	Build(ctx context.Context) (*site.Report, error)
}

// Options configures a Watcher.
type Options struct {
	Paths     []string // Files and directories to watch recursively
	OutputDir string   // Served when Addr is set; events below it are ignored
	Addr      string   // Listen address; empty disables the server
	Registry  *prom.Registry
	Debounce  time.Duration
	Logger    *slog.Logger
}

// Watcher drives rebuilds from filesystem events.
type Watcher struct {
	builder Builder
	opts    Options
	logger  *slog.Logger
	status  buildStatus

	mu           sync.Mutex
	fingerprints map[string]string
}

// New returns a Watcher for b.
func New(b Builder, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{builder: b, opts: opts, logger: logger}
}

// Run performs an initial build and then rebuilds on every settled change
// until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	w.rebuild(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	for _, p := range w.opts.Paths {
		if err := addRecursive(fsw, p, w.logger); err != nil {
			return err
		}
	}

	var srv *http.Server
	if w.opts.Addr != "" {
		if srv, err = w.serve(); err != nil {
			return err
		}
	}

	requests, trigger := newDebouncer(w.opts.Debounce)
	done := w.startWorker(ctx, requests)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watcher")
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := srv.Shutdown(shutdownCtx); err != nil {
					w.logger.Warn("HTTP server shutdown error", logfields.Error(err))
				}
				cancel()
			}
			<-done
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev, trigger)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnore(ev.Name, w.opts.OutputDir) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addRecursive(fsw, ev.Name, w.logger)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

// rebuild runs a build and logs which pages changed since the previous one.
func (w *Watcher) rebuild(ctx context.Context) {
	report, err := w.builder.Build(ctx)
	if err != nil {
		w.status.setError(err)
		w.logger.Warn("Rebuild failed", logfields.Error(err))
		return
	}
	w.status.setSuccess()

	next := report.Fingerprints()
	w.mu.Lock()
	prev := w.fingerprints
	w.fingerprints = next
	w.mu.Unlock()
	if prev == nil {
		return
	}
	changed, removed := site.ChangedPages(prev, next)
	for _, p := range changed {
		w.logger.Info("Page changed", logfields.Page(p))
	}
	for _, p := range removed {
		w.logger.Info("Page removed", logfields.Page(p))
	}
}

// newDebouncer returns a request channel and a trigger that signals it once
// changes have been quiet for d.
func newDebouncer(d time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	requests := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case requests <- struct{}{}:
			default:
			}
		})
	}
	return requests, trigger
}

// startWorker serializes rebuilds. Requests arriving during a build are
// coalesced into one follow-up build. The returned channel closes when the
// worker exits.
func (w *Watcher) startWorker(ctx context.Context, requests <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-requests:
				w.logger.Info("Change detected; rebuilding site")
				w.rebuild(ctx)
			}
		}
	}()
	return done
}

func (w *Watcher) serve() (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/", w.siteHandler(http.FileServer(http.Dir(w.opts.OutputDir))))
	if w.opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(w.opts.Registry))
	}

	ln, err := net.Listen("tcp", w.opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", w.opts.Addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger.Error("HTTP server error", logfields.Error(err))
		}
	}()
	w.logger.Info("Serving site", slog.String("url", "http://"+ln.Addr().String()))
	return srv, nil
}

// siteHandler reports the last build error until a build has succeeded.
func (w *Watcher) siteHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if failed, err, hasGood := w.status.get(); failed && !hasGood {
			http.Error(rw, "build failed: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

func addRecursive(fsw *fsnotify.Watcher, root string, logger *slog.Logger) error {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		logger.Warn("Skipping missing watch path", logfields.Path(root))
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if err := fsw.Add(path); err != nil {
				logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnore filters hidden, editor temporary and output files.
func shouldIgnore(path, outputDir string) bool {
	if outputDir != "" {
		if absOut, err := filepath.Abs(outputDir); err == nil {
			if absPath, err := filepath.Abs(path); err == nil {
				if rel, err := filepath.Rel(absOut, absPath); err == nil && !strings.HasPrefix(rel, "..") {
					return true
				}
			}
		}
	}

	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}

type buildStatus struct {
	mu      sync.RWMutex
	lastErr error
	hasGood bool
}

func (s *buildStatus) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

func (s *buildStatus) setSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
	s.hasGood = true
}

func (s *buildStatus) get() (failed bool, err error, hasGood bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr != nil, s.lastErr, s.hasGood
}
