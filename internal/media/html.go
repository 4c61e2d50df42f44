package media

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
)

// Whitespace controls the whitespace emitted between generated elements.
type Whitespace string

const (
	// WhitespaceInline emits no whitespace, for markup embedded in flowing text.
	WhitespaceInline Whitespace = "inline"
	// WhitespaceBlock puts each child element on its own indented line.
	WhitespaceBlock Whitespace = "block"
)

// HTMLOptions configures GenerateHTML.
type HTMLOptions struct {
	Whitespace Whitespace
}

// Attributes are extra attributes for the <img> element. The "alt" key must be
// present; an empty value is allowed.
type Attributes map[string]string

// imgAttrOrder fixes the position of well-known attributes; others follow sorted.
var imgAttrOrder = []string{"alt", "class", "loading", "decoding", "src", "srcset", "sizes", "width", "height"}

// ErrMissingAlt is returned when markup is requested without an alt attribute.
var ErrMissingAlt = errors.ValidationError("alt attribute is required (use an empty string for decorative images)").Build()

// GenerateHTML renders <img> or <picture> markup for md.
//
// With a single format the result is a bare <img>. With several formats every
// format except the fallback (the last requested one) becomes a <source> and
// the fallback's smallest variant becomes the <img> src.
func GenerateHTML(md Metadata, attrs Attributes, opts HTMLOptions) (string, error) {
	if _, ok := attrs["alt"]; !ok {
		return "", ErrMissingAlt
	}
	fallback, ok := md.Fallback()
	if !ok {
		return "", errors.ValidationError("no image variants to render").Build()
	}
	multiWidth := false
	for _, f := range md.Formats {
		if len(md.Variants[f]) > 1 {
			multiWidth = true
		}
	}
	if multiWidth && attrs["sizes"] == "" {
		return "", errors.ValidationError("sizes attribute is required when several widths are generated").Build()
	}

	img := buildImg(md, fallback, attrs, multiWidth)

	var sources []*html.Node
	for _, f := range md.Formats {
		if f == fallback || len(md.Variants[f]) == 0 {
			continue
		}
		source := Element("source",
			html.Attribute{Key: "type", Val: f.MIMEType()},
			html.Attribute{Key: "srcset", Val: md.Srcset(f)},
		)
		if sizes := attrs["sizes"]; multiWidth && sizes != "" {
			source.Attr = append(source.Attr, html.Attribute{Key: "sizes", Val: sizes})
		}
		sources = append(sources, source)
	}

	if len(sources) == 0 {
		return Render(img)
	}

	picture := Element("picture")
	for _, child := range append(sources, img) {
		if opts.Whitespace == WhitespaceBlock {
			picture.AppendChild(&html.Node{Type: html.TextNode, Data: "\n  "})
		}
		picture.AppendChild(child)
	}
	if opts.Whitespace == WhitespaceBlock {
		picture.AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
	}
	return Render(picture)
}

func buildImg(md Metadata, fallback Format, attrs Attributes, multiWidth bool) *html.Node {
	variants := md.Variants[fallback]
	low, high := variants[0], variants[len(variants)-1]

	values := map[string]string{
		"src":    low.URL,
		"width":  strconv.Itoa(high.Width),
		"height": strconv.Itoa(high.Height),
	}
	if multiWidth {
		values["srcset"] = md.Srcset(fallback)
	}
	for k, v := range attrs {
		if k == "sizes" && !multiWidth {
			continue
		}
		values[k] = v
	}
	// An empty class attribute carries no meaning.
	if strings.TrimSpace(values["class"]) == "" {
		delete(values, "class")
	}

	img := Element("img")
	seen := make(map[string]bool, len(imgAttrOrder))
	for _, k := range imgAttrOrder {
		seen[k] = true
		if v, ok := values[k]; ok {
			img.Attr = append(img.Attr, html.Attribute{Key: k, Val: v})
		}
	}
	rest := make([]string, 0, len(values))
	for k := range values {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		img.Attr = append(img.Attr, html.Attribute{Key: k, Val: values[k]})
	}
	return img
}

// Element builds an element node for name with attrs.
func Element(name string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: atom.Lookup([]byte(name)), Data: name, Attr: attrs}
}

// Render serializes n.
func Render(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "render image markup").Build()
	}
	return b.String(), nil
}
