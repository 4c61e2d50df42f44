package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Site        SiteConfig        `yaml:"site"`
	Output      OutputConfig      `yaml:"output"`
	Media       MediaConfig       `yaml:"media"`
	Build       BuildConfig       `yaml:"build"`
	Passthrough []PassthroughCopy `yaml:"passthrough"`
	Audit       AuditConfig       `yaml:"audit"`
}

// SiteConfig describes the page source tree.
type SiteConfig struct {
	Title   string         `yaml:"title"`
	BaseURL string         `yaml:"base_url,omitempty"`
	Source  string         `yaml:"source"`  // Directory holding pages, defaults to "src"
	Layouts string         `yaml:"layouts"` // Directory (relative to source) holding layouts
	Params  map[string]any `yaml:"params,omitempty"`
}

// OutputConfig represents the published tree layout.
type OutputConfig struct {
	Directory  string `yaml:"directory"`
	Clean      bool   `yaml:"clean"`
	ImagesPath string `yaml:"images_path"` // Derived images, relative to Directory
	LibPath    string `yaml:"lib_path"`    // Vendor scripts and styles
	FontsPath  string `yaml:"fonts_path"`  // Vendor fonts
}

// MediaConfig configures the responsive image shortcodes.
type MediaConfig struct {
	SourceRoot    string        `yaml:"source_root"` // Image src paths resolve against this directory
	ImageWidths   []int         `yaml:"image_widths"`
	ThumbWidth    int           `yaml:"thumb_width"`
	GalleryWidths []int         `yaml:"gallery_widths"`
	Sizes         string        `yaml:"sizes"`
	Whitespace    string        `yaml:"whitespace"` // inline|block
	CachePath     string        `yaml:"cache_path"` // sqlite manifest; empty keeps the manifest in memory
	Quality       QualityConfig `yaml:"quality"`
}

// QualityConfig holds per-encoding quality settings (1-100).
type QualityConfig struct {
	JPEG int `yaml:"jpeg"`
	WebP int `yaml:"webp"`
	AVIF int `yaml:"avif"`
}

// BuildConfig controls the render pass.
type BuildConfig struct {
	Concurrency int  `yaml:"concurrency"`
	MinifyHTML  bool `yaml:"minify_html"`
}

// PassthroughCopy is a file copied verbatim from From to To (relative to the output directory).
type PassthroughCopy struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// AuditConfig configures the Lighthouse CI configuration writer.
type AuditConfig struct {
	ConfigFile   string `yaml:"config_file"`
	Runs         int    `yaml:"runs"`
	UploadTarget string `yaml:"upload_target"`
	TokenEnv     string `yaml:"token_env"`
}

// Load loads configuration from the specified file, applies defaults and validates it.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	// #nosec G304 -- configPath is supplied by the operator.
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read config file").Fatal().Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML (with environment expansion), applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "unmarshal config").Fatal().Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		Site: SiteConfig{
			Title:   "My Site",
			BaseURL: "https://example.com",
			Source:  "src",
		},
		Media: MediaConfig{
			ImageWidths:   []int{560, 760},
			ThumbWidth:    320,
			GalleryWidths: []int{1280, 1920},
		},
		Build: BuildConfig{MinifyHTML: true},
	}
	if err := ApplyDefaults(&example); err != nil {
		return err
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}
	fmt.Printf("Configuration file created: %s\n", configPath)
	return nil
}
