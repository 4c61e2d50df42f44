package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
)

// Validate checks a defaulted configuration for values that cannot produce a usable build.
func Validate(cfg *Config) error {
	validators := []func(*Config) error{
		validateOutput,
		validateMedia,
		validatePassthrough,
	}
	for _, v := range validators {
		if err := v(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	for field, rel := range map[string]string{
		"output.images_path": cfg.Output.ImagesPath,
		"output.lib_path":    cfg.Output.LibPath,
		"output.fonts_path":  cfg.Output.FontsPath,
	} {
		if escapesRoot(rel) {
			return errors.ConfigError("path must stay inside the output directory").
				WithContext("field", field).
				WithContext("value", rel).
				Build()
		}
	}
	if filepath.Clean(cfg.Output.Directory) == filepath.Clean(cfg.Site.Source) {
		return errors.ConfigError("output.directory must differ from site.source").
			WithContext("value", cfg.Output.Directory).
			Build()
	}
	return nil
}

func validateMedia(cfg *Config) error {
	check := func(field string, widths []int) error {
		for _, w := range widths {
			if w <= 0 {
				return errors.ConfigError("image widths must be positive").
					WithContext("field", field).
					WithContext("value", w).
					Build()
			}
		}
		return nil
	}
	if err := check("media.image_widths", cfg.Media.ImageWidths); err != nil {
		return err
	}
	if err := check("media.gallery_widths", cfg.Media.GalleryWidths); err != nil {
		return err
	}
	if len(cfg.Media.GalleryWidths) != 2 {
		return errors.ConfigError("media.gallery_widths must list exactly two widths").
			WithContext("value", cfg.Media.GalleryWidths).
			Build()
	}
	for field, q := range map[string]int{
		"media.quality.jpeg": cfg.Media.Quality.JPEG,
		"media.quality.webp": cfg.Media.Quality.WebP,
		"media.quality.avif": cfg.Media.Quality.AVIF,
	} {
		if q > 100 {
			return errors.ConfigError("quality must be between 1 and 100").
				WithContext("field", field).
				WithContext("value", q).
				Build()
		}
	}
	return nil
}

func validatePassthrough(cfg *Config) error {
	for i, p := range cfg.Passthrough {
		if p.From == "" || p.To == "" {
			return errors.ConfigError("passthrough entries need both from and to").
				WithContext("index", i).
				Build()
		}
		if escapesRoot(p.To) {
			return errors.ConfigError("passthrough destination must stay inside the output directory").
				WithContext("to", p.To).
				Build()
		}
	}
	return nil
}

func escapesRoot(rel string) bool {
	clean := filepath.Clean(rel)
	return filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
