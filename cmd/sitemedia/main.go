package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitemedia/cmd/sitemedia/commands"
	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Logger: slog.Default()}
	parser := kong.Parse(cli,
		kong.Name("sitemedia"),
		kong.Description("Static site builder with responsive image shortcodes"),
		kong.Vars{"version": version.String()},
		kong.Bind(global, cli),
	)

	if err := parser.Run(); err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.HandleError(err))
	}
}
