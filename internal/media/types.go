package media

import (
	"context"
	"fmt"
	"strings"
)

// Format is an output encoding.
type Format string

const (
	FormatAVIF Format = "avif"
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Extension returns the file extension (without dot) for f.
func (f Format) Extension() string {
	return string(f)
}

// MIMEType returns the type attribute used for <source> elements.
func (f Format) MIMEType() string {
	return "image/" + string(f)
}

// ParseFormat maps a format name onto a Format.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "avif":
		return FormatAVIF, nil
	case "webp":
		return FormatWebP, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", raw)
	}
}

// Variant describes one encoded, resized rendition of a source image.
type Variant struct {
	Format     Format
	Width      int
	Height     int
	Filename   string
	OutputPath string
	URL        string
	Size       int64
}

// SourceType returns the MIME type of the variant.
func (v Variant) SourceType() string {
	return v.Format.MIMEType()
}

// Srcset returns the srcset fragment ("<url> <width>w") for the variant.
func (v Variant) Srcset() string {
	return fmt.Sprintf("%s %dw", v.URL, v.Width)
}

// Metadata maps each format to its variants in ascending width order.
// Formats preserves the order in which formats were requested.
type Metadata struct {
	Formats  []Format
	Variants map[Format][]Variant
}

// Get returns the variants for f, smallest first.
func (m Metadata) Get(f Format) []Variant {
	return m.Variants[f]
}

// Empty reports whether no variants were produced.
func (m Metadata) Empty() bool {
	for _, vs := range m.Variants {
		if len(vs) > 0 {
			return false
		}
	}
	return true
}

// Srcset joins the srcset fragments of every variant of f.
func (m Metadata) Srcset(f Format) string {
	vs := m.Variants[f]
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, v.Srcset())
	}
	return strings.Join(parts, ", ")
}

// Fallback returns the last requested format that has variants, which is the
// format used for the plain <img> element.
func (m Metadata) Fallback() (Format, bool) {
	for i := len(m.Formats) - 1; i >= 0; i-- {
		if len(m.Variants[m.Formats[i]]) > 0 {
			return m.Formats[i], true
		}
	}
	return "", false
}

// All returns every variant in format order, then width order.
func (m Metadata) All() []Variant {
	var out []Variant
	for _, f := range m.Formats {
		out = append(out, m.Variants[f]...)
	}
	return out
}

// Quality holds per-encoding quality settings.
type Quality struct {
	JPEG int
	WebP int
	AVIF int
}

// Options describes which variants to produce for a source image and where to put them.
type Options struct {
	Widths     []int
	Formats    []Format
	SourceRoot string // Source directory mirrored under OutputDir
	OutputDir  string // Filesystem directory receiving the variants
	URLPath    string // Public URL prefix for OutputDir
	Quality    Quality
}

// Transcoder produces image variants. *Processor is the production implementation.
type Transcoder interface {
	Generate(ctx context.Context, src string, opts Options) (Metadata, error)
}
