package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemedia/internal/config"
)

func parse(t *testing.T, args ...string) (*kong.Context, *CLI) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Bind(&Global{}, cli), kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return ctx, cli
}

func TestCLI_ParsesCommands(t *testing.T) {
	ctx, cli := parse(t, "-c", "site.yaml", "build", "-o", "public", "--clean")
	assert.Equal(t, "build", ctx.Command())
	assert.Equal(t, "site.yaml", cli.Config)
	assert.Equal(t, "public", cli.Build.Output)
	assert.True(t, cli.Build.Clean)

	ctx, cli = parse(t, "watch", "--addr", ":9000", "--metrics")
	assert.Equal(t, "watch", ctx.Command())
	assert.Equal(t, ":9000", cli.Watch.Addr)
	assert.True(t, cli.Watch.Metrics)

	ctx, cli = parse(t, "audit")
	assert.Equal(t, "audit", ctx.Command())
	assert.Equal(t, "sitemedia.yaml", cli.Config)
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv("SITEMEDIA_LOG_LEVEL", "warning")
	assert.Equal(t, slog.LevelWarn, parseLogLevel(false))
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true))

	t.Setenv("SITEMEDIA_LOG_LEVEL", "")
	assert.Equal(t, slog.LevelInfo, parseLogLevel(false))
}

func TestScaffoldAndBuild(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, config.Init("sitemedia.yaml", false))
	cfg, err := config.Load("sitemedia.yaml")
	require.NoError(t, err)
	require.NoError(t, Scaffold(cfg))

	// The vendor manifest points at node_modules, which tests do not install.
	cfg.Passthrough = []config.PassthroughCopy{}
	cfg.Build.MinifyHTML = false
	report, err := RunBuild(context.Background(), &Global{Logger: slog.New(slog.DiscardHandler)}, cfg)
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)

	index, err := os.ReadFile(filepath.Join(dir, "_site", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "<title>Home | My Site</title>")
	assert.Contains(t, string(index), `<a class="button cta" href="/about/">Read more</a>`)
	assert.Contains(t, string(index), ".gallery-item{display:inline-block;margin:.25rem}")
}

func TestScaffold_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Parse([]byte("site:\n  source: " + filepath.Join(dir, "src") + "\npassthrough: []\n"))
	require.NoError(t, err)

	index := filepath.Join(dir, "src", "index.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(index), 0o750))
	require.NoError(t, os.WriteFile(index, []byte("mine"), 0o600))

	require.NoError(t, Scaffold(cfg))
	data, err := os.ReadFile(index)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
	assert.FileExists(t, filepath.Join(dir, "src", "_layouts", "default.html"))
}

func TestWatchPaths(t *testing.T) {
	cfg, err := config.Parse([]byte("site:\n  source: src\nmedia:\n  source_root: assets\npassthrough:\n  - from: vendor/a.js\n    to: lib/a.js\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "assets", "vendor/a.js"}, watchPaths(cfg))
}
