package config

import (
	"path"
	"runtime"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// defaultAppliers run in order; passthrough defaults depend on output paths.
var defaultAppliers = []DefaultApplier{
	&SiteDefaultApplier{},
	&OutputDefaultApplier{},
	&MediaDefaultApplier{},
	&BuildDefaultApplier{},
	&PassthroughDefaultApplier{},
	&AuditDefaultApplier{},
}

// ApplyDefaults runs every domain applier against cfg.
func ApplyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// SiteDefaultApplier handles Site configuration defaults.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "site" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Untitled Site"
	}
	if cfg.Site.Source == "" {
		cfg.Site.Source = "src"
	}
	if cfg.Site.Layouts == "" {
		cfg.Site.Layouts = "_layouts"
	}
	return nil
}

// OutputDefaultApplier handles Output configuration defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "_site"
	}
	if cfg.Output.ImagesPath == "" {
		cfg.Output.ImagesPath = "images/optimized"
	}
	if cfg.Output.LibPath == "" {
		cfg.Output.LibPath = "lib"
	}
	if cfg.Output.FontsPath == "" {
		cfg.Output.FontsPath = "fonts"
	}
	return nil
}

// MediaDefaultApplier handles Media configuration defaults.
type MediaDefaultApplier struct{}

func (m *MediaDefaultApplier) Domain() string { return "media" }

func (m *MediaDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Media.SourceRoot == "" {
		cfg.Media.SourceRoot = cfg.Site.Source
	}
	if len(cfg.Media.ImageWidths) == 0 {
		cfg.Media.ImageWidths = []int{560, 760}
	}
	if cfg.Media.ThumbWidth <= 0 {
		cfg.Media.ThumbWidth = 320
	}
	if len(cfg.Media.GalleryWidths) == 0 {
		cfg.Media.GalleryWidths = []int{1280, 1920}
	}
	if cfg.Media.Sizes == "" {
		cfg.Media.Sizes = "100vw"
	}
	cfg.Media.Whitespace = string(NormalizeWhitespaceMode(cfg.Media.Whitespace))
	if cfg.Media.Quality.JPEG <= 0 {
		cfg.Media.Quality.JPEG = 82
	}
	if cfg.Media.Quality.WebP <= 0 {
		cfg.Media.Quality.WebP = 80
	}
	if cfg.Media.Quality.AVIF <= 0 {
		cfg.Media.Quality.AVIF = 60
	}
	return nil
}

// BuildDefaultApplier handles Build configuration defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = runtime.NumCPU()
	}
	return nil
}

// PassthroughDefaultApplier installs the lightGallery vendor manifest when none is configured.
type PassthroughDefaultApplier struct{}

func (p *PassthroughDefaultApplier) Domain() string { return "passthrough" }

func (p *PassthroughDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Passthrough != nil {
		return nil
	}
	cfg.Passthrough = DefaultPassthrough(cfg.Output)
	return nil
}

// DefaultPassthrough returns the vendor asset manifest for the gallery viewer
// (lightGallery) and grid layout (justifiedGallery).
func DefaultPassthrough(out OutputConfig) []PassthroughCopy {
	const (
		lg = "node_modules/lightgallery"
		jg = "node_modules/justifiedGallery/dist"
	)
	lib := out.LibPath
	return []PassthroughCopy{
		{From: lg + "/css/lightgallery-bundle.min.css", To: path.Join(lib, "lightgallery.css")},
		{From: lg + "/lightgallery.min.js", To: path.Join(lib, "lightgallery.js")},
		{From: lg + "/plugins/zoom/lg-zoom.min.js", To: path.Join(lib, "lightgallery-zoom.js")},
		{From: lg + "/plugins/thumbnail/lg-thumbnail.min.js", To: path.Join(lib, "lightgallery-thumbnail.js")},
		{From: jg + "/css/justifiedGallery.min.css", To: path.Join(lib, "justifiedGallery.css")},
		{From: jg + "/js/jquery.justifiedGallery.min.js", To: path.Join(lib, "justifiedGallery.js")},
		{From: lg + "/fonts/lg.woff2", To: path.Join(out.FontsPath, "lg.woff2")},
		{From: lg + "/fonts/lg.woff", To: path.Join(out.FontsPath, "lg.woff")},
		{From: lg + "/fonts/lg.ttf", To: path.Join(out.FontsPath, "lg.ttf")},
		// lightgallery.css resolves its spinner as ../images/loading.gif.
		{From: lg + "/images/loading.gif", To: path.Join(path.Dir(lib), "images", "loading.gif")},
	}
}

// AuditDefaultApplier handles Lighthouse CI defaults.
type AuditDefaultApplier struct{}

func (a *AuditDefaultApplier) Domain() string { return "audit" }

func (a *AuditDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Audit.ConfigFile == "" {
		cfg.Audit.ConfigFile = "lighthouserc.yml"
	}
	if cfg.Audit.Runs <= 0 {
		cfg.Audit.Runs = 2
	}
	if cfg.Audit.UploadTarget == "" {
		cfg.Audit.UploadTarget = "temporary-public-storage"
	}
	if cfg.Audit.TokenEnv == "" {
		cfg.Audit.TokenEnv = "LHCI_GITHUB_APP_TOKEN"
	}
	return nil
}
