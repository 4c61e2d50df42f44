package site

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"os"
	"path"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/frontmatter"
)

// SiteData is exposed to templates as .Site.
type SiteData struct {
	Title   string
	BaseURL string
	BuildID string
	Params  map[string]any
}

// PageData is exposed to templates as .Page.
type PageData struct {
	Title       string
	Description string
	URL         string
	Source      string
	Params      map[string]any
}

// TemplateData is the root value for page and layout templates.
type TemplateData struct {
	Site    SiteData
	Page    PageData
	Content htmltemplate.HTML
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// Shortcodes expand to raw markup before conversion.
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
}

// pass is the state of one build's render pass.
type pass struct {
	b        *Builder
	ctx      context.Context
	site     SiteData
	layouts  *htmltemplate.Template
	markdown goldmark.Markdown
}

// loadLayouts parses every *.html file under dir into one template set. Layouts
// are looked up by file name, with or without the extension.
func (p *pass) loadLayouts(dir string) error {
	set := htmltemplate.New("").Funcs(p.b.shortcodes.FuncMap(p.ctx, p.b.minifier))
	p.layouts = set

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "stat layouts directory").Fatal().Build()
	}
	if !info.IsDir() {
		return errors.ConfigError("layouts path is not a directory").WithContext("path", dir).Build()
	}

	return filepath.WalkDir(dir, func(file string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.EqualFold(filepath.Ext(file), ".html") {
			return err
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		// #nosec G304 -- layouts live under the configured source directory.
		data, err := os.ReadFile(file)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "read layout").WithContext("path", file).Fatal().Build()
		}
		if _, err := set.New(filepath.ToSlash(rel)).Parse(string(data)); err != nil {
			return errors.WrapError(err, errors.CategoryTemplate, "parse layout").WithContext("path", file).Build()
		}
		return nil
	})
}

// renderPage renders one page. It returns nil for drafts.
func (p *pass) renderPage(rel string) (*PageResult, error) {
	kind, _ := pageKind(rel)
	src := filepath.Join(p.b.cfg.Site.Source, filepath.FromSlash(rel))
	// #nosec G304 -- pages live under the configured source directory.
	content, err := os.ReadFile(src)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read page").WithContext("page", rel).Fatal().Build()
	}
	page, err := frontmatter.Parse(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "parse front matter").WithContext("page", rel).Fatal().Build()
	}
	if page.Meta.Draft {
		return nil, nil
	}

	file, url := outputPath(rel, kind, page.Meta)
	data := TemplateData{
		Site: p.site,
		Page: PageData{
			Title:       page.Meta.Title,
			Description: page.Meta.Description,
			URL:         url,
			Source:      rel,
			Params:      page.Fields,
		},
	}

	tmpl, err := p.layouts.Clone()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "clone layouts").Build()
	}

	var body []byte
	switch kind {
	case KindMarkdown:
		body, err = p.renderMarkdown(rel, page.Body, data)
	default:
		body, err = renderHTML(tmpl, rel, page.Body, data)
	}
	if err != nil {
		return nil, err
	}

	layout := page.Meta.Layout
	if layout == "" && kind == KindMarkdown && tmpl.Lookup(defaultLayout) != nil {
		layout = defaultLayout
	}
	out := body
	if layout != "" {
		data.Content = htmltemplate.HTML(body) // #nosec G203 -- rendered page content.
		if out, err = applyLayout(tmpl, layout, data); err != nil {
			return nil, withPage(err, rel)
		}
	}

	if p.b.cfg.Build.MinifyHTML {
		if out, err = p.b.minifier.HTML(out); err != nil {
			return nil, withPage(err, rel)
		}
	}

	dst := filepath.Join(p.b.cfg.Output.Directory, filepath.FromSlash(file))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create page directory").WithContext("page", rel).Fatal().Build()
	}
	if err := os.WriteFile(dst, out, 0o600); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "write page").WithContext("page", rel).Fatal().Build()
	}

	fp, err := Fingerprint(page.Fields, page.Body)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "fingerprint page").WithContext("page", rel).Build()
	}
	return &PageResult{Source: rel, Output: file, URL: url, Fingerprint: fp}, nil
}

// defaultLayout wraps Markdown pages that do not name a layout.
const defaultLayout = "default.html"

func (p *pass) renderMarkdown(rel string, body []byte, data TemplateData) ([]byte, error) {
	expander, err := texttemplate.New(rel).
		Funcs(p.b.shortcodes.TextFuncMap(p.ctx, p.b.minifier)).
		Parse(string(body))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "parse page").WithContext("page", rel).Build()
	}
	var expanded bytes.Buffer
	if err := expander.Execute(&expanded, data); err != nil {
		return nil, withPage(err, rel)
	}

	var out bytes.Buffer
	if err := p.markdown.Convert(expanded.Bytes(), &out); err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "convert markdown").WithContext("page", rel).Build()
	}
	return out.Bytes(), nil
}

func renderHTML(tmpl *htmltemplate.Template, rel string, body []byte, data TemplateData) ([]byte, error) {
	name := "page:" + rel
	if _, err := tmpl.New(name).Parse(string(body)); err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "parse page").WithContext("page", rel).Build()
	}
	var out bytes.Buffer
	if err := tmpl.ExecuteTemplate(&out, name, data); err != nil {
		return nil, withPage(err, rel)
	}
	return out.Bytes(), nil
}

func applyLayout(tmpl *htmltemplate.Template, layout string, data TemplateData) ([]byte, error) {
	name := layout
	if tmpl.Lookup(name) == nil && path.Ext(name) == "" {
		name += ".html"
	}
	if tmpl.Lookup(name) == nil {
		return nil, errors.TemplateError("layout not found").WithContext("layout", layout).Build()
	}
	var out bytes.Buffer
	if err := tmpl.ExecuteTemplate(&out, name, data); err != nil {
		if _, ok := errors.AsClassified(err); ok {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryTemplate, "render layout").WithContext("layout", layout).Build()
	}
	return out.Bytes(), nil
}

// withPage keeps the classification of shortcode errors raised inside
// templates and attaches the page.
func withPage(err error, rel string) error {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.WithContext("page", rel)
	}
	return errors.WrapError(err, errors.CategoryTemplate, "render page").WithContext("page", rel).Build()
}
