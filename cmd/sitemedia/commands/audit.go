package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitemedia/internal/audit"
	"git.home.luguber.info/inful/sitemedia/internal/config"
)

// AuditCmd implements the 'audit' command.
type AuditCmd struct {
	Output string `short:"o" help:"Where to write the Lighthouse CI configuration (overrides audit.config_file)"`
}

func (a *AuditCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	path := cfg.Audit.ConfigFile
	if a.Output != "" {
		path = a.Output
	}

	lc := audit.FromConfig(cfg, nil)
	if err := audit.Write(path, lc); err != nil {
		return err
	}
	if lc.CI.Upload.GitHubAppToken == "" {
		loggerFrom(g).Info("GitHub app token not set; status checks will not be posted",
			"env", cfg.Audit.TokenEnv)
	}
	fmt.Printf("Lighthouse CI configuration written to %s\n", path)
	return nil
}
