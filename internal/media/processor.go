package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/logfields"
	"git.home.luguber.info/inful/sitemedia/internal/metrics"
)

// Processor resizes and encodes source images. It is safe for concurrent use.
type Processor struct {
	store    Store
	recorder metrics.Recorder
	logger   *slog.Logger
	encoders map[Format]Encoder
	group    singleflight.Group
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithStore sets the manifest used to reuse previously generated variants.
func WithStore(s Store) ProcessorOption {
	return func(p *Processor) { p.store = s }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) ProcessorOption {
	return func(p *Processor) { p.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithEncoder overrides the encoder for one format.
func WithEncoder(f Format, enc Encoder) ProcessorOption {
	return func(p *Processor) { p.encoders[f] = enc }
}

// NewProcessor creates a Processor with an in-memory manifest and no metrics.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:    NewMemoryStore(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		encoders: defaultEncoders(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate produces every (width, format) variant of src described by opts.
// Concurrent calls for the same source and options share one encode pass.
func (p *Processor) Generate(ctx context.Context, src string, opts Options) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	if err := p.validate(opts); err != nil {
		return Metadata{}, err
	}

	info, err := os.Stat(src)
	if err != nil {
		return Metadata{}, errors.WrapError(err, errors.CategoryMedia, "stat source image").
			Fatal().
			WithContext("source", src).
			Build()
	}
	key := cacheKey(src, info, opts)

	// Shared work outlives any single caller; each caller still stops waiting on its own ctx.
	work := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) {
		return p.generate(work, key, src, opts)
	})
	select {
	case <-ctx.Done():
		return Metadata{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Metadata{}, res.Err
		}
		return res.Val.(Metadata), nil
	}
}

func (p *Processor) validate(opts Options) error {
	if len(opts.Formats) == 0 {
		return errors.ValidationError("at least one output format is required").Build()
	}
	if len(opts.Widths) == 0 {
		return errors.ValidationError("at least one width is required").Build()
	}
	for _, w := range opts.Widths {
		if w < 0 {
			return errors.ValidationError("widths must not be negative").WithContext("width", w).Build()
		}
	}
	for _, f := range opts.Formats {
		if _, ok := p.encoders[f]; !ok {
			return errors.ValidationError("unsupported output format").WithContext("format", string(f)).Build()
		}
	}
	if opts.OutputDir == "" {
		return errors.ValidationError("output directory is required").Build()
	}
	return nil
}

func (p *Processor) generate(ctx context.Context, key, src string, opts Options) (Metadata, error) {
	if md, ok := p.reuse(ctx, key); ok {
		for _, v := range md.All() {
			p.recorder.IncVariant(string(v.Format), metrics.VariantReused)
		}
		p.logger.Debug("Reusing image variants", logfields.Source(src))
		return md, nil
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return Metadata{}, errors.WrapError(err, errors.CategoryMedia, "decode source image").
			Fatal().
			WithContext("source", src).
			Build()
	}

	subdir := variantSubdir(src, opts.SourceRoot)
	outDir := filepath.Join(opts.OutputDir, filepath.FromSlash(subdir))
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return Metadata{}, errors.WrapError(err, errors.CategoryFileSystem, "create image output directory").
			Fatal().
			WithContext("path", outDir).
			Build()
	}

	md := Metadata{
		Formats:  slices.Clone(opts.Formats),
		Variants: make(map[Format][]Variant, len(opts.Formats)),
	}
	for _, width := range resolveWidths(opts.Widths, img.Bounds().Dx()) {
		resized := resize(img, width)
		for _, f := range opts.Formats {
			v, err := p.encodeVariant(resized, src, subdir, outDir, width, f, opts)
			if err != nil {
				return Metadata{}, err
			}
			md.Variants[f] = append(md.Variants[f], v)
		}
	}

	if err := p.store.Save(ctx, key, md); err != nil {
		// Non-fatal: the variants are already on disk.
		p.logger.Warn("Failed to record image variants", logfields.Source(src), logfields.Error(err))
	}
	return md, nil
}

func (p *Processor) encodeVariant(img image.Image, src, subdir, outDir string, width int, f Format, opts Options) (Variant, error) {
	start := time.Now()
	var buf bytes.Buffer
	if err := p.encoders[f](&buf, img, opts.Quality); err != nil {
		return Variant{}, errors.WrapError(err, errors.CategoryMedia, "encode image variant").
			Fatal().
			WithContext("source", src).
			WithContext("format", string(f)).
			WithContext("width", width).
			Build()
	}
	p.recorder.ObserveEncodeDuration(string(f), time.Since(start))

	name := VariantFilename(src, width, f)
	outPath := filepath.Join(outDir, name)
	if err := writeFileAtomic(outPath, buf.Bytes()); err != nil {
		return Variant{}, errors.WrapError(err, errors.CategoryFileSystem, "write image variant").
			Fatal().
			WithContext("path", outPath).
			Build()
	}
	p.recorder.IncVariant(string(f), metrics.VariantEncoded)
	p.logger.Debug("Encoded image variant",
		logfields.Source(src), logfields.Format(string(f)), logfields.Width(width), logfields.Path(outPath))

	return Variant{
		Format:     f,
		Width:      width,
		Height:     img.Bounds().Dy(),
		Filename:   name,
		OutputPath: outPath,
		URL:        variantURL(opts.URLPath, subdir, name),
		Size:       int64(buf.Len()),
	}, nil
}

// reuse returns stored metadata when every recorded output still exists.
func (p *Processor) reuse(ctx context.Context, key string) (Metadata, bool) {
	md, ok, err := p.store.Lookup(ctx, key)
	if err != nil {
		p.logger.Warn("Image manifest lookup failed", logfields.Error(err))
		return Metadata{}, false
	}
	if !ok || md.Empty() {
		return Metadata{}, false
	}
	for _, v := range md.All() {
		if st, err := os.Stat(v.OutputPath); err != nil || st.Size() != v.Size {
			return Metadata{}, false
		}
	}
	return md, true
}

func resize(img image.Image, width int) image.Image {
	if width == img.Bounds().Dx() {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// resolveWidths clamps widths to the source width (no upscaling), maps 0 to
// the source width, and returns them sorted and deduplicated.
func resolveWidths(requested []int, original int) []int {
	out := make([]int, 0, len(requested))
	for _, w := range requested {
		if w == 0 || w > original {
			w = original
		}
		out = append(out, w)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func variantURL(prefix, subdir, name string) string {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return path.Join(prefix, subdir, name)
}

// cacheKey identifies a source revision plus the options that shape its variants.
func cacheKey(src string, info os.FileInfo, opts Options) string {
	h := sha256.New()
	abs, err := filepath.Abs(src)
	if err != nil {
		abs = src
	}
	fmt.Fprintf(h, "%s|%d|%d|", abs, info.Size(), info.ModTime().UnixNano())
	fmt.Fprintf(h, "%v|%v|%s|%s|%s|%+v", opts.Widths, opts.Formats, opts.SourceRoot, opts.OutputDir, opts.URLPath, opts.Quality)
	return hex.EncodeToString(h.Sum(nil))
}

// writeFileAtomic writes data next to path and renames it into place so
// readers never observe a partially written variant.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
