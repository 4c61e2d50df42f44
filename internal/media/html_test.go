package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
)

// attrValues parses markup and collects every value of attribute key.
func attrValues(t *testing.T, markup, key string) []string {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"})
	require.NoError(t, err)

	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for _, a := range n.Attr {
			if a.Key == key {
				out = append(out, a.Val)
			}
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

func baseAttrs(alt string) Attributes {
	return Attributes{"alt": alt, "sizes": "100vw", "loading": "lazy", "decoding": "async"}
}

func TestGenerateHTML_Picture(t *testing.T) {
	out, err := GenerateHTML(sampleMetadata(), baseAttrs("A cat"), HTMLOptions{Whitespace: WhitespaceInline})
	require.NoError(t, err)

	assert.Equal(t,
		`<picture><source type="image/avif" srcset="/img/a-400.avif 400w, /img/a-800.avif 800w" sizes="100vw"/>`+
			`<img alt="A cat" loading="lazy" decoding="async" src="/img/a-400.jpeg" srcset="/img/a-400.jpeg 400w" sizes="100vw" width="400" height="200"/></picture>`,
		out)
}

func TestGenerateHTML_AltIsPreservedExactlyOnce(t *testing.T) {
	for _, alt := range []string{"", "A cat & a dog", `Quote "here"`, "émoji ☀"} {
		t.Run(alt, func(t *testing.T) {
			out, err := GenerateHTML(sampleMetadata(), baseAttrs(alt), HTMLOptions{})
			require.NoError(t, err)
			assert.Equal(t, []string{alt}, attrValues(t, out, "alt"))
		})
	}
}

func TestGenerateHTML_MissingAlt(t *testing.T) {
	attrs := baseAttrs("x")
	delete(attrs, "alt")

	out, err := GenerateHTML(sampleMetadata(), attrs, HTMLOptions{})
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, ErrMissingAlt)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestGenerateHTML_SingleFormat(t *testing.T) {
	md := Metadata{
		Formats: []Format{FormatJPEG},
		Variants: map[Format][]Variant{FormatJPEG: {
			{Format: FormatJPEG, Width: 320, Height: 240, URL: "/img/t-320.jpeg"},
		}},
	}
	out, err := GenerateHTML(md, Attributes{"alt": "", "class": "thumb", "sizes": "50vw"}, HTMLOptions{})
	require.NoError(t, err)
	assert.Equal(t, `<img alt="" class="thumb" src="/img/t-320.jpeg" width="320" height="240"/>`, out)
}

func TestGenerateHTML_SingleWidthPictureOmitsSizes(t *testing.T) {
	md := Metadata{
		Formats: []Format{FormatAVIF, FormatJPEG},
		Variants: map[Format][]Variant{
			FormatAVIF: {{Format: FormatAVIF, Width: 320, Height: 240, URL: "/img/t-320.avif"}},
			FormatJPEG: {{Format: FormatJPEG, Width: 320, Height: 240, URL: "/img/t-320.jpeg"}},
		},
	}
	out, err := GenerateHTML(md, Attributes{"alt": "", "sizes": "100vw"}, HTMLOptions{})
	require.NoError(t, err)
	assert.Equal(t,
		`<picture><source type="image/avif" srcset="/img/t-320.avif 320w"/>`+
			`<img alt="" src="/img/t-320.jpeg" width="320" height="240"/></picture>`,
		out)
}

func TestGenerateHTML_MultiWidthFallbackGetsSrcset(t *testing.T) {
	md := sampleMetadata()
	md.Formats = []Format{FormatAVIF}
	out, err := GenerateHTML(md, baseAttrs("x"), HTMLOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"/img/a-400.avif 400w, /img/a-800.avif 800w"}, attrValues(t, out, "srcset"))
	assert.Equal(t, []string{"800"}, attrValues(t, out, "width"))
}

func TestGenerateHTML_SizesRequiredForMultipleWidths(t *testing.T) {
	_, err := GenerateHTML(sampleMetadata(), Attributes{"alt": "x"}, HTMLOptions{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestGenerateHTML_Whitespace(t *testing.T) {
	inline, err := GenerateHTML(sampleMetadata(), baseAttrs("x"), HTMLOptions{Whitespace: WhitespaceInline})
	require.NoError(t, err)
	assert.NotContains(t, inline, "\n")

	block, err := GenerateHTML(sampleMetadata(), baseAttrs("x"), HTMLOptions{Whitespace: WhitespaceBlock})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(block, "<picture>\n  <source"))
	assert.True(t, strings.HasSuffix(block, "\n</picture>"))
}

func TestGenerateHTML_NoVariants(t *testing.T) {
	_, err := GenerateHTML(Metadata{}, Attributes{"alt": ""}, HTMLOptions{})
	require.Error(t, err)
}
