package site

import (
	"sort"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitemedia/internal/frontmatter"
)

// Fingerprint computes the content fingerprint of a page from its front
// matter fields (excluding any stored fingerprint) and body.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}

	fm := ""
	if len(forHash) > 0 {
		serialized, err := frontmatter.Serialize(forHash)
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// ChangedPages compares two fingerprint maps and returns the sources that
// were added or modified in next, and those removed from prev.
func ChangedPages(prev, next map[string]string) (changed, removed []string) {
	for src, fp := range next {
		if old, ok := prev[src]; !ok || old != fp {
			changed = append(changed, src)
		}
	}
	for src := range prev {
		if _, ok := next[src]; !ok {
			removed = append(removed, src)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)
	return changed, removed
}
