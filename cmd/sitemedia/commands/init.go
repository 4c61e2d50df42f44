package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitemedia/internal/config"
	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/frontmatter"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force    bool `help:"Overwrite existing configuration file"`
	Scaffold bool `help:"Also create a starter page and layout in the source directory"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	fmt.Printf("Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	if !i.Scaffold {
		return nil
	}
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	return Scaffold(cfg)
}

const starterLayout = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{ .Page.Title }} | {{ .Site.Title }}</title>
  <link rel="stylesheet" href="/lib/lightgallery.css">
  <style>{{ cssmin ".gallery-item { display: inline-block; margin: 0.25rem; }" }}</style>
</head>
<body>
{{ .Content }}
<script src="/lib/lightgallery.js"></script>
<script>{{ jsmin "lightGallery(document.body, { selector: '.gallery-item' });" }}</script>
</body>
</html>
`

const starterBody = `# Welcome

{{ button "Read more" "/about/" "cta" }}
`

// Scaffold writes a starter page and default layout unless they already exist.
func Scaffold(cfg *config.Config) error {
	page, err := frontmatter.Compose(map[string]any{"title": "Home"}, []byte(starterBody))
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "compose starter page").Build()
	}
	files := map[string][]byte{
		filepath.Join(cfg.Site.Source, "index.md"):                         page,
		filepath.Join(cfg.Site.Source, cfg.Site.Layouts, "default.html"): []byte(starterLayout),
	}
	for path, content := range files {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Keeping existing %s\n", path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create scaffold directory").WithContext("path", path).Fatal().Build()
		}
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write scaffold file").WithContext("path", path).Fatal().Build()
		}
		fmt.Printf("Created %s\n", path)
	}
	return nil
}
