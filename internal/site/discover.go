package site

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitemedia/internal/frontmatter"
)

// PageKind distinguishes Markdown pages from HTML template pages.
type PageKind string

const (
	KindMarkdown PageKind = "markdown"
	KindHTML     PageKind = "html"
)

// sourceTree lists the renderable pages and static files of a source directory.
type sourceTree struct {
	pages  []string // slash-separated, relative to the source root
	static []string
}

// discover walks root. Entries whose name starts with "_" or "." are skipped,
// which keeps layouts and editor files out of the output, as are the
// directories listed in skip (relative to root).
func discover(root string, skip ...string) (sourceTree, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[path.Clean(filepath.ToSlash(s))] = true
	}
	var tree sourceTree
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if ignoredName(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if skipped[rel] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := pageKind(rel); ok {
			tree.pages = append(tree.pages, rel)
		} else {
			tree.static = append(tree.static, rel)
		}
		return nil
	})
	sort.Strings(tree.pages)
	sort.Strings(tree.static)
	return tree, err
}

func ignoredName(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func pageKind(rel string) (PageKind, bool) {
	switch strings.ToLower(path.Ext(rel)) {
	case ".md", ".markdown":
		return KindMarkdown, true
	case ".html", ".htm":
		return KindHTML, true
	default:
		return "", false
	}
}

// outputPath maps a page onto its output file (relative, slash-separated) and URL.
// Markdown pages get pretty URLs: about.md is written to about/index.html.
func outputPath(rel string, kind PageKind, meta frontmatter.Meta) (file, url string) {
	if p := strings.TrimSpace(meta.Permalink); p != "" {
		p = strings.TrimPrefix(path.Clean("/"+p), "/")
		if p == "" || strings.HasSuffix(meta.Permalink, "/") || path.Ext(p) == "" {
			return path.Join(p, "index.html"), dirURL(p)
		}
		return p, "/" + p
	}

	if kind == KindHTML {
		if path.Base(rel) == "index.html" {
			dir := path.Dir(rel)
			return rel, dirURL(dir)
		}
		return rel, "/" + rel
	}

	stem := strings.TrimSuffix(rel, path.Ext(rel))
	if path.Base(stem) == "index" {
		dir := path.Dir(stem)
		return path.Join(dir, "index.html"), dirURL(dir)
	}
	return path.Join(stem, "index.html"), "/" + stem + "/"
}

func dirURL(dir string) string {
	if dir == "." || dir == "" {
		return "/"
	}
	return "/" + dir + "/"
}
