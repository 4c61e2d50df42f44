package shortcodes

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitemedia/internal/config"
	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/media"
)

type fakeTranscoder struct {
	mu    sync.Mutex
	srcs  []string
	calls []media.Options
	err   error
}

func (f *fakeTranscoder) Generate(_ context.Context, src string, opts media.Options) (media.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.srcs = append(f.srcs, src)
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return media.Metadata{}, f.err
	}

	md := media.Metadata{Formats: opts.Formats, Variants: map[media.Format][]media.Variant{}}
	for _, format := range opts.Formats {
		for _, w := range opts.Widths {
			name := media.VariantFilename(src, w, format)
			md.Variants[format] = append(md.Variants[format], media.Variant{
				Format:   format,
				Width:    w,
				Height:   w / 2,
				Filename: name,
				URL:      opts.URLPath + "/" + name,
			})
		}
	}
	return md, nil
}

func testSettings() Settings {
	return Settings{
		ImageWidths:   []int{400, 800, 1200},
		ThumbWidth:    320,
		GalleryWidths: []int{1280, 1920},
		Sizes:         "100vw",
		Whitespace:    media.WhitespaceInline,
		SourceRoot:    "src",
		OutputDir:     "_site/images/optimized",
		URLPath:       "/images/optimized",
	}
}

func newTestShortcodes() (*Shortcodes, *fakeTranscoder) {
	ft := &fakeTranscoder{}
	return New(ft, testSettings(), nil), ft
}

func ptr(s string) *string { return &s }

// parse returns every element of markup in document order.
func parse(t *testing.T, markup string) []*html.Node {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"})
	require.NoError(t, err)

	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func countAttr(nodes []*html.Node, key string) (int, []string) {
	var vals []string
	for _, n := range nodes {
		for _, a := range n.Attr {
			if a.Key == key {
				vals = append(vals, a.Val)
			}
		}
	}
	return len(vals), vals
}

func TestImage_AltPreservedExactlyOnce(t *testing.T) {
	sc, _ := newTestShortcodes()

	for _, alt := range []string{"", "Sunset over the bay", `He said "hi" & left`, "<b>not markup</b>"} {
		t.Run(alt, func(t *testing.T) {
			out, err := sc.Image(context.Background(), ImageArgs{Src: "photos/sunset.jpg", Alt: ptr(alt)})
			require.NoError(t, err)

			n, vals := countAttr(parse(t, out), "alt")
			assert.Equal(t, 1, n)
			assert.Equal(t, []string{alt}, vals)
		})
	}
}

func TestImage_MissingAlt(t *testing.T) {
	sc, ft := newTestShortcodes()

	out, err := sc.Image(context.Background(), ImageArgs{Src: "photos/sunset.jpg"})
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, media.ErrMissingAlt)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Empty(t, ft.calls, "no variants are generated without alt text")
}

func TestImage_RequestAndAttributes(t *testing.T) {
	sc, ft := newTestShortcodes()

	out, err := sc.Image(context.Background(), ImageArgs{Src: "/photos/sunset.jpg", Alt: ptr("Sunset"), Class: "hero"})
	require.NoError(t, err)

	require.Len(t, ft.calls, 1)
	assert.Equal(t, filepath.Join("src", "photos", "sunset.jpg"), ft.srcs[0])
	assert.Equal(t, []int{400, 800, 1200}, ft.calls[0].Widths)
	assert.Equal(t, []media.Format{media.FormatAVIF, media.FormatWebP, media.FormatJPEG}, ft.calls[0].Formats)
	assert.Equal(t, "/images/optimized", ft.calls[0].URLPath)

	assert.NotContains(t, out, "\n", "inline mode emits no whitespace between elements")

	nodes := parse(t, out)
	require.Len(t, nodes, 4)
	assert.Equal(t, "picture", nodes[0].Data)
	avifType, _ := attr(nodes[1], "type")
	webpType, _ := attr(nodes[2], "type")
	assert.Equal(t, "image/avif", avifType)
	assert.Equal(t, "image/webp", webpType)

	img := nodes[3]
	assert.Equal(t, "img", img.Data)
	for key, want := range map[string]string{
		"loading":  "lazy",
		"decoding": "async",
		"sizes":    "100vw",
		"class":    "hero",
		"src":      "/images/optimized/sunset-400w.jpeg",
	} {
		got, ok := attr(img, key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestImage_CustomSizes(t *testing.T) {
	sc, _ := newTestShortcodes()

	out, err := sc.Image(context.Background(), ImageArgs{Src: "a.jpg", Alt: ptr(""), Sizes: "(min-width: 30em) 50vw, 100vw"})
	require.NoError(t, err)

	_, vals := countAttr(parse(t, out), "sizes")
	for _, v := range vals {
		assert.Equal(t, "(min-width: 30em) 50vw, 100vw", v)
	}
}

func TestImage_RepeatedInvocationsAreIdentical(t *testing.T) {
	sc, _ := newTestShortcodes()
	args := ImageArgs{Src: "photos/Sunset Beach.JPG", Alt: ptr("x")}

	first, err := sc.Image(context.Background(), args)
	require.NoError(t, err)
	second, err := sc.Image(context.Background(), args)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "/images/optimized/sunset-beach-1200w.avif 1200w")
}

func TestImage_TranscoderErrorIsClassified(t *testing.T) {
	sc, ft := newTestShortcodes()
	ft.err = stderrors.New("decode failed")

	_, err := sc.Image(context.Background(), ImageArgs{Src: "broken.jpg", Alt: ptr("")})
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryMedia, ce.Category())
	src, _ := ce.Context().GetString("source")
	assert.Equal(t, "broken.jpg", src)
}

func TestImage_EmptySource(t *testing.T) {
	sc, ft := newTestShortcodes()

	_, err := sc.Image(context.Background(), ImageArgs{Src: "  ", Alt: ptr("")})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Empty(t, ft.calls)
}

func TestThumb(t *testing.T) {
	sc, ft := newTestShortcodes()

	out, err := sc.Thumb(context.Background(), ImageArgs{Src: "a.jpg", Alt: ptr("A"), Class: "featured"})
	require.NoError(t, err)

	require.Len(t, ft.calls, 1)
	assert.Equal(t, []int{320}, ft.calls[0].Widths)

	nodes := parse(t, out)
	img := nodes[len(nodes)-1]
	class, _ := attr(img, "class")
	assert.Equal(t, "thumb featured", class)
	_, hasSrcset := attr(img, "srcset")
	assert.False(t, hasSrcset, "single width needs no srcset on the img")
	n, _ := countAttr(nodes, "sizes")
	assert.Zero(t, n, "single width needs no sizes on any element")
}

func TestThumb_MissingAlt(t *testing.T) {
	sc, _ := newTestShortcodes()

	_, err := sc.Thumb(context.Background(), ImageArgs{Src: "a.jpg"})
	assert.ErrorIs(t, err, media.ErrMissingAlt)
}

func TestGallery(t *testing.T) {
	sc, ft := newTestShortcodes()

	out, err := sc.Gallery(context.Background(), GalleryArgs{Src: "trip/boat.png", Alt: ptr("Boat"), Caption: "<h4>Harbour</h4>"})
	require.NoError(t, err)

	require.Len(t, ft.calls, 2)
	assert.Equal(t, []int{320}, ft.calls[0].Widths)
	assert.Equal(t, []int{1280, 1920}, ft.calls[1].Widths)
	assert.Equal(t, []media.Format{media.FormatWebP, media.FormatJPEG}, ft.calls[1].Formats)

	assert.True(t, strings.HasPrefix(out, `<a class="gallery-item" data-src="/images/optimized/boat-1280w.jpeg"`))

	nodes := parse(t, out)
	anchor := nodes[0]
	require.Equal(t, "a", anchor.Data)
	caption, _ := attr(anchor, "data-sub-html")
	assert.Equal(t, "<h4>Harbour</h4>", caption)

	raw, ok := attr(anchor, "data-sources")
	require.True(t, ok)
	var sources []GallerySource
	require.NoError(t, json.Unmarshal([]byte(raw), &sources))
	assert.Equal(t, []GallerySource{
		{Srcset: "/images/optimized/boat-1280w.webp 1280w, /images/optimized/boat-1920w.webp 1920w", Type: "image/webp"},
		{Srcset: "/images/optimized/boat-1280w.jpeg 1280w, /images/optimized/boat-1920w.jpeg 1920w", Type: "image/jpeg"},
	}, sources)

	n, alts := countAttr(nodes, "alt")
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Boat"}, alts)
	class, _ := attr(nodes[len(nodes)-1], "class")
	assert.Equal(t, "thumb", class)
}

func TestGallery_ModernSourceAlwaysFirst(t *testing.T) {
	sc, _ := newTestShortcodes()

	for _, src := range []string{"a.jpg", "deep/dir/B.PNG", "c.webp"} {
		out, err := sc.Gallery(context.Background(), GalleryArgs{Src: src, Alt: ptr("")})
		require.NoError(t, err)

		raw, _ := attr(parse(t, out)[0], "data-sources")
		var sources []GallerySource
		require.NoError(t, json.Unmarshal([]byte(raw), &sources))
		require.Len(t, sources, 2)
		assert.Equal(t, "image/webp", sources[0].Type, src)
		assert.Equal(t, "image/jpeg", sources[1].Type, src)
	}
}

func TestGallery_MissingAlt(t *testing.T) {
	sc, ft := newTestShortcodes()

	out, err := sc.Gallery(context.Background(), GalleryArgs{Src: "a.jpg"})
	assert.ErrorIs(t, err, media.ErrMissingAlt)
	assert.Empty(t, out)
	assert.Empty(t, ft.calls)
}

func TestButton(t *testing.T) {
	assert.Equal(t, `<a class="button cta" href="/x">Go</a>`, Button("Go", "/x", "cta"))
	assert.Equal(t, `<a class="button" href="/x">Go</a>`, Button("Go", "/x", ""))
	assert.Equal(t, `<a class="button" href="/a?b=1&c=2"><em>Go</em></a>`, Button("<em>Go</em>", "/a?b=1&c=2", ""))
}

func TestSettingsFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte("site:\n  source: pages\noutput:\n  directory: public\n"))
	require.NoError(t, err)

	s := SettingsFromConfig(cfg)
	assert.Equal(t, []int{560, 760}, s.ImageWidths)
	assert.Equal(t, 320, s.ThumbWidth)
	assert.Equal(t, []int{1280, 1920}, s.GalleryWidths)
	assert.Equal(t, "pages", s.SourceRoot)
	assert.Equal(t, filepath.Join("public", "images", "optimized"), s.OutputDir)
	assert.Equal(t, "/images/optimized", s.URLPath)
	assert.Equal(t, media.WhitespaceInline, s.Whitespace)
	assert.Equal(t, 82, s.Quality.JPEG)
}
