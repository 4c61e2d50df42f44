package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitemedia/internal/config"
	"git.home.luguber.info/inful/sitemedia/internal/site"
	"git.home.luguber.info/inful/sitemedia/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Addr    string `help:"Serve the output directory on this address (empty disables)" default:"localhost:8080"`
	Metrics bool   `help:"Expose Prometheus metrics on /metrics"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	logger := loggerFrom(g)

	reg, recorder := newRegistry()
	processor, closeStore, err := newProcessor(cfg, logger, recorder)
	if err != nil {
		return err
	}
	defer closeStore()
	builder := site.New(cfg, processor, site.WithLogger(logger), site.WithRecorder(recorder))

	opts := watch.Options{
		Paths:     watchPaths(cfg),
		OutputDir: cfg.Output.Directory,
		Addr:      w.Addr,
		Logger:    logger,
	}
	if w.Metrics {
		opts.Registry = reg
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return watch.New(builder, opts).Run(ctx)
}

// watchPaths lists the source tree, the media root when separate, and the
// passthrough sources.
func watchPaths(cfg *config.Config) []string {
	paths := []string{cfg.Site.Source}
	if cfg.Media.SourceRoot != "" && cfg.Media.SourceRoot != cfg.Site.Source {
		paths = append(paths, cfg.Media.SourceRoot)
	}
	for _, p := range cfg.Passthrough {
		paths = append(paths, p.From)
	}
	return paths
}
