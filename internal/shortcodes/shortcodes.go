package shortcodes

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitemedia/internal/config"
	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/logfields"
	"git.home.luguber.info/inful/sitemedia/internal/media"
)

// ImageFormats is the encoding order for responsive images: modern first, universal last.
var ImageFormats = []media.Format{media.FormatAVIF, media.FormatWebP, media.FormatJPEG}

// GalleryFormats is the encoding order for full-size gallery sources.
var GalleryFormats = []media.Format{media.FormatWebP, media.FormatJPEG}

// ThumbClass is always present on thumbnail images.
const ThumbClass = "thumb"

// Settings holds everything the shortcodes need from the build configuration.
type Settings struct {
	ImageWidths   []int
	ThumbWidth    int
	GalleryWidths []int
	Sizes         string
	Whitespace    media.Whitespace
	SourceRoot    string
	OutputDir     string // Filesystem directory receiving derived images
	URLPath       string // Public URL prefix of OutputDir
	Quality       media.Quality
}

// SettingsFromConfig derives shortcode settings from a defaulted configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ImageWidths:   cfg.Media.ImageWidths,
		ThumbWidth:    cfg.Media.ThumbWidth,
		GalleryWidths: cfg.Media.GalleryWidths,
		Sizes:         cfg.Media.Sizes,
		Whitespace:    media.Whitespace(config.NormalizeWhitespaceMode(cfg.Media.Whitespace)),
		SourceRoot:    cfg.Media.SourceRoot,
		OutputDir:     filepath.Join(cfg.Output.Directory, filepath.FromSlash(cfg.Output.ImagesPath)),
		URLPath:       "/" + strings.Trim(cfg.Output.ImagesPath, "/"),
		Quality: media.Quality{
			JPEG: cfg.Media.Quality.JPEG,
			WebP: cfg.Media.Quality.WebP,
			AVIF: cfg.Media.Quality.AVIF,
		},
	}
}

// ImageArgs are the parameters of the image and thumb shortcodes.
// A nil Alt means the alt text was omitted, which is an error; an empty
// string marks a decorative image.
type ImageArgs struct {
	Src   string
	Alt   *string
	Sizes string
	Class string
}

// GalleryArgs are the parameters of the gallery shortcode.
type GalleryArgs struct {
	Src     string
	Alt     *string
	Caption string
}

// Shortcodes formats transcoder output into markup.
type Shortcodes struct {
	transcoder media.Transcoder
	settings   Settings
	logger     *slog.Logger
}

// New returns shortcodes backed by t.
func New(t media.Transcoder, settings Settings, logger *slog.Logger) *Shortcodes {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.Sizes == "" {
		settings.Sizes = "100vw"
	}
	if settings.Whitespace == "" {
		settings.Whitespace = media.WhitespaceInline
	}
	return &Shortcodes{transcoder: t, settings: settings, logger: logger}
}

// Image renders a responsive <picture> for args.Src at the configured widths.
func (s *Shortcodes) Image(ctx context.Context, args ImageArgs) (string, error) {
	return s.responsive(ctx, "image", args, s.settings.ImageWidths, args.Class)
}

// Thumb renders a single-width thumbnail carrying the thumb class.
func (s *Shortcodes) Thumb(ctx context.Context, args ImageArgs) (string, error) {
	return s.responsive(ctx, "thumb", args, []int{s.settings.ThumbWidth}, joinClass(ThumbClass, args.Class))
}

func (s *Shortcodes) responsive(ctx context.Context, name string, args ImageArgs, widths []int, class string) (string, error) {
	if args.Alt == nil {
		return "", media.ErrMissingAlt
	}
	md, err := s.generate(ctx, name, args.Src, widths, ImageFormats)
	if err != nil {
		return "", err
	}

	sizes := args.Sizes
	if sizes == "" {
		sizes = s.settings.Sizes
	}
	attrs := media.Attributes{
		"alt":      *args.Alt,
		"sizes":    sizes,
		"loading":  "lazy",
		"decoding": "async",
		"class":    class,
	}
	out, err := media.GenerateHTML(md, attrs, media.HTMLOptions{Whitespace: s.settings.Whitespace})
	if err != nil {
		return "", withSource(err, name, args.Src)
	}
	return out, nil
}

func (s *Shortcodes) generate(ctx context.Context, name, src string, widths []int, formats []media.Format) (media.Metadata, error) {
	if strings.TrimSpace(src) == "" {
		return media.Metadata{}, errors.ValidationError("image source is required").
			WithContext("shortcode", name).
			Build()
	}
	s.logger.DebugContext(ctx, "Generating image variants",
		logfields.Shortcode(name),
		logfields.Source(src),
		slog.Any("widths", widths))

	md, err := s.transcoder.Generate(ctx, s.resolve(src), media.Options{
		Widths:     widths,
		Formats:    formats,
		SourceRoot: s.settings.SourceRoot,
		OutputDir:  s.settings.OutputDir,
		URLPath:    s.settings.URLPath,
		Quality:    s.settings.Quality,
	})
	if err != nil {
		return media.Metadata{}, withSource(err, name, src)
	}
	return md, nil
}

// resolve maps a template src onto the filesystem. Site-absolute and relative
// paths both resolve against the media source root.
func (s *Shortcodes) resolve(src string) string {
	if filepath.IsAbs(src) && fileUnder(src, s.settings.SourceRoot) {
		return src
	}
	rel := strings.TrimPrefix(filepath.ToSlash(src), "/")
	return filepath.Join(s.settings.SourceRoot, filepath.FromSlash(rel))
}

func fileUnder(path, root string) bool {
	if root == "" {
		return true
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, path)
	return err == nil && !strings.HasPrefix(rel, "..")
}

func joinClass(base, extra string) string {
	extra = strings.TrimSpace(extra)
	if extra == "" {
		return base
	}
	return base + " " + extra
}

func withSource(err error, shortcode, src string) error {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.WithContext("shortcode", shortcode).WithContext("source", src)
	}
	return errors.WrapError(err, errors.CategoryMedia, "generate image variants").
		WithContext("shortcode", shortcode).
		WithContext("source", src).
		Build()
}
