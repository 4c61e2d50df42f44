package shortcodes

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/media"
)

// GallerySource is one entry of the data-sources attribute read by the lightbox.
type GallerySource struct {
	Srcset string `json:"srcset"`
	Type   string `json:"type"`
}

// Gallery renders a thumbnail wrapped in a lightbox anchor. The anchor carries
// the caption, the first universal variant as a single-image fallback and the
// full-size source list, modern encoding first.
func (s *Shortcodes) Gallery(ctx context.Context, args GalleryArgs) (string, error) {
	thumb, err := s.Thumb(ctx, ImageArgs{Src: args.Src, Alt: args.Alt})
	if err != nil {
		return "", err
	}

	md, err := s.generate(ctx, "gallery", args.Src, s.settings.GalleryWidths, GalleryFormats)
	if err != nil {
		return "", err
	}
	sources, err := gallerySources(md)
	if err != nil {
		return "", withSource(err, "gallery", args.Src)
	}
	fallback := md.Get(media.FormatJPEG)
	if len(fallback) == 0 {
		return "", errors.MediaError("no jpeg variant for gallery item").
			WithContext("source", args.Src).
			Build()
	}

	return fmt.Sprintf(`<a class="gallery-item" data-src="%s" data-sub-html="%s" data-sources='%s'>%s</a>`,
		html.EscapeString(fallback[0].URL),
		html.EscapeString(args.Caption),
		sources,
		thumb,
	), nil
}

// gallerySources serializes the source list in GalleryFormats order.
func gallerySources(md media.Metadata) (string, error) {
	list := make([]GallerySource, 0, len(GalleryFormats))
	for _, f := range GalleryFormats {
		if len(md.Get(f)) == 0 {
			continue
		}
		list = append(list, GallerySource{Srcset: md.Srcset(f), Type: f.MIMEType()})
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "encode gallery sources").Build()
	}
	// The attribute value is single-quoted.
	return strings.ReplaceAll(string(data), "'", "&#39;"), nil
}
