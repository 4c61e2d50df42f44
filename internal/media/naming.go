package media

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug turns a file stem into a lowercase, ASCII, dash separated name.
func Slug(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "image"
	}
	return out
}

// VariantFilename returns the deterministic file name for a source at width in format f.
func VariantFilename(src string, width int, f Format) string {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return fmt.Sprintf("%s-%dw.%s", Slug(stem), width, f.Extension())
}

// variantSubdir mirrors the source's directory relative to root, slugged per segment.
// Sources outside root land at the top of the output directory.
func variantSubdir(src, root string) string {
	if root == "" {
		return ""
	}
	rel, err := filepath.Rel(root, filepath.Dir(src))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, s := range segments {
		segments[i] = Slug(s)
	}
	return path.Join(segments...)
}
