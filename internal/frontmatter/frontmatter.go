// Package frontmatter splits pages into YAML front matter and body.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrUnterminated indicates a page opened a front matter block but never closed it.
var ErrUnterminated = errors.New("front matter opened with --- but not closed")

// Meta holds the front matter keys the renderer understands. Everything else
// stays available through Page.Fields.
type Meta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Layout      string `yaml:"layout"`
	Permalink   string `yaml:"permalink"`
	Draft       bool   `yaml:"draft"`
}

// Page is a parsed source page.
type Page struct {
	Meta   Meta
	Fields map[string]any
	Raw    []byte // Front matter without delimiters
	Body   []byte
	Had    bool
}

// Parse splits content and decodes its front matter.
func Parse(content []byte) (*Page, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return nil, err
	}
	page := &Page{Raw: raw, Body: body, Had: had, Fields: map[string]any{}}
	if len(bytes.TrimSpace(raw)) == 0 {
		return page, nil
	}
	if err := yaml.Unmarshal(raw, &page.Fields); err != nil {
		return nil, err
	}
	if page.Fields == nil {
		page.Fields = map[string]any{}
	}
	if err := yaml.Unmarshal(raw, &page.Meta); err != nil {
		return nil, err
	}
	return page, nil
}

// Split separates `---` delimited front matter from the body. Pages without
// an opening delimiter are returned whole with had set to false.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := newline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closing := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closing)
	if idx < 0 {
		// A closing delimiter at EOF without a trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrUnterminated
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closing):], true, nil
}

// Join reassembles a page from raw front matter and body.
func Join(fm []byte, body []byte) []byte {
	out := make([]byte, 0, len(fm)+len(body)+8)
	out = append(out, "---\n"...)
	out = append(out, fm...)
	if len(fm) > 0 && fm[len(fm)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, "---\n"...)
	return append(out, body...)
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
