package shortcodes

import "strings"

// Button renders a button-styled link. Inputs are emitted verbatim; callers
// are responsible for any escaping.
func Button(text, href, class string) string {
	var b strings.Builder
	b.WriteString(`<a class="button`)
	if class != "" {
		b.WriteString(" ")
		b.WriteString(class)
	}
	b.WriteString(`" href="`)
	b.WriteString(href)
	b.WriteString(`">`)
	b.WriteString(text)
	b.WriteString(`</a>`)
	return b.String()
}
