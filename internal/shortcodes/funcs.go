package shortcodes

import (
	"context"
	htmltemplate "html/template"
	texttemplate "text/template"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
)

// Minifier provides the cssmin and jsmin filters.
type Minifier interface {
	CSS(code string) (string, error)
	JS(ctx context.Context, code string) string
}

// funcs holds the string-valued template functions; FuncMap and TextFuncMap
// adapt them to each template package.
type funcs struct {
	image   func(src string, rest ...string) (string, error)
	thumb   func(src string, rest ...string) (string, error)
	gallery func(src string, rest ...string) (string, error)
	button  func(text, href string, class ...string) (string, error)
	cssmin  func(code string) (string, error)
	jsmin   func(code string) string
}

func (s *Shortcodes) funcs(ctx context.Context, m Minifier) funcs {
	return funcs{
		image: func(src string, rest ...string) (string, error) {
			args, err := parseImageArgs("image", src, rest)
			if err != nil {
				return "", err
			}
			return s.Image(ctx, args)
		},
		thumb: func(src string, rest ...string) (string, error) {
			args, err := parseImageArgs("thumb", src, rest)
			if err != nil {
				return "", err
			}
			return s.Thumb(ctx, args)
		},
		gallery: func(src string, rest ...string) (string, error) {
			if len(rest) > 2 {
				return "", tooManyArgs("gallery", 3, len(rest)+1)
			}
			args := GalleryArgs{Src: src}
			if len(rest) > 0 {
				args.Alt = &rest[0]
			}
			if len(rest) > 1 {
				args.Caption = rest[1]
			}
			return s.Gallery(ctx, args)
		},
		button: func(text, href string, class ...string) (string, error) {
			switch len(class) {
			case 0:
				return Button(text, href, ""), nil
			case 1:
				return Button(text, href, class[0]), nil
			default:
				return "", tooManyArgs("button", 3, len(class)+2)
			}
		},
		cssmin: m.CSS,
		jsmin: func(code string) string {
			return m.JS(ctx, code)
		},
	}
}

// FuncMap returns the shortcodes and filters for html/template. Markup is
// returned as template.HTML so it is not escaped again.
func (s *Shortcodes) FuncMap(ctx context.Context, m Minifier) htmltemplate.FuncMap {
	f := s.funcs(ctx, m)
	markup := func(fn func(string, ...string) (string, error)) func(string, ...string) (htmltemplate.HTML, error) {
		return func(first string, rest ...string) (htmltemplate.HTML, error) {
			out, err := fn(first, rest...)
			// #nosec G203 -- shortcode markup is generated from escaped nodes.
			return htmltemplate.HTML(out), err
		}
	}
	return htmltemplate.FuncMap{
		"image":   markup(f.image),
		"thumb":   markup(f.thumb),
		"gallery": markup(f.gallery),
		"button": func(text, href string, class ...string) (htmltemplate.HTML, error) {
			out, err := f.button(text, href, class...)
			// #nosec G203 -- button output is passed through verbatim by contract.
			return htmltemplate.HTML(out), err
		},
		"cssmin": func(code string) (htmltemplate.CSS, error) {
			out, err := f.cssmin(code)
			// #nosec G203 -- minified author stylesheet.
			return htmltemplate.CSS(out), err
		},
		"jsmin": func(code string) htmltemplate.JS {
			// #nosec G203 -- minified author script.
			return htmltemplate.JS(f.jsmin(code))
		},
	}
}

// TextFuncMap returns the same functions for text/template, used to expand
// shortcodes inside Markdown before it is converted.
func (s *Shortcodes) TextFuncMap(ctx context.Context, m Minifier) texttemplate.FuncMap {
	f := s.funcs(ctx, m)
	return texttemplate.FuncMap{
		"image":   f.image,
		"thumb":   f.thumb,
		"gallery": f.gallery,
		"button":  f.button,
		"cssmin":  f.cssmin,
		"jsmin":   f.jsmin,
	}
}

func parseImageArgs(name, src string, rest []string) (ImageArgs, error) {
	if len(rest) > 3 {
		return ImageArgs{}, tooManyArgs(name, 4, len(rest)+1)
	}
	args := ImageArgs{Src: src}
	if len(rest) > 0 {
		args.Alt = &rest[0]
	}
	if len(rest) > 1 {
		args.Sizes = rest[1]
	}
	if len(rest) > 2 {
		args.Class = rest[2]
	}
	return args, nil
}

func tooManyArgs(name string, maxArgs, got int) error {
	return errors.ValidationError("too many shortcode arguments").
		WithContext("shortcode", name).
		WithContext("max", maxArgs).
		WithContext("got", got).
		Build()
}
