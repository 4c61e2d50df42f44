package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitemedia/internal/config"
	"git.home.luguber.info/inful/sitemedia/internal/metrics"
	"git.home.luguber.info/inful/sitemedia/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (overrides output.directory)"`
	Clean  bool   `help:"Remove the output directory before building"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.Clean {
		cfg.Output.Clean = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := RunBuild(ctx, g, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Built %d pages into %s (%s)\n", len(report.Pages), cfg.Output.Directory, report.Summary())
	return nil
}

// RunBuild performs a single build of cfg.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config) (*site.Report, error) {
	logger := loggerFrom(g)
	recorder := metrics.NoopRecorder{}

	processor, closeStore, err := newProcessor(cfg, logger, recorder)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	builder := site.New(cfg, processor, site.WithLogger(logger), site.WithRecorder(recorder))
	return builder.Build(ctx)
}
