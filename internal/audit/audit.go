// Package audit writes the Lighthouse CI configuration used to audit the
// performance of the published site.
package audit

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitemedia/internal/config"
	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
)

// LighthouseConfig is the lighthouserc document.
type LighthouseConfig struct {
	CI CI `yaml:"ci"`
}

// CI holds the collect and upload sections.
type CI struct {
	Collect Collect `yaml:"collect"`
	Upload  Upload  `yaml:"upload"`
}

// Collect configures which site Lighthouse audits and how often.
type Collect struct {
	StaticDistDir string `yaml:"staticDistDir"`
	NumberOfRuns  int    `yaml:"numberOfRuns"`
}

// Upload configures where reports are uploaded.
type Upload struct {
	Target         string `yaml:"target"`
	GitHubAppToken string `yaml:"githubAppToken,omitempty"`
}

// FromConfig builds the Lighthouse configuration for cfg. The GitHub app
// token is read through getenv from the variable named by audit.token_env
// and omitted when unset.
func FromConfig(cfg *config.Config, getenv func(string) string) LighthouseConfig {
	if getenv == nil {
		getenv = os.Getenv
	}
	return LighthouseConfig{CI: CI{
		Collect: Collect{
			StaticDistDir: distDir(cfg.Output.Directory),
			NumberOfRuns:  cfg.Audit.Runs,
		},
		Upload: Upload{
			Target:         cfg.Audit.UploadTarget,
			GitHubAppToken: getenv(cfg.Audit.TokenEnv),
		},
	}}
}

func distDir(dir string) string {
	dir = filepath.ToSlash(filepath.Clean(dir))
	if filepath.IsAbs(dir) || strings.HasPrefix(dir, ".") {
		return dir
	}
	return "./" + dir
}

// Write encodes lc as YAML to path. The file may hold a token, so it is only
// readable by its owner.
func Write(path string, lc LighthouseConfig) error {
	data, err := yaml.Marshal(&lc)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal lighthouse config").Build()
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write lighthouse config").
			WithContext("path", path).
			Fatal().
			Build()
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapError(err, errors.CategoryFileSystem, "replace lighthouse config").
			WithContext("path", path).
			Fatal().
			Build()
	}
	return nil
}
