package site

import (
	"context"
	"sync/atomic"

	"git.home.luguber.info/inful/sitemedia/internal/media"
)

// countingTranscoder counts the variants handed to shortcodes during a build.
type countingTranscoder struct {
	inner    media.Transcoder
	variants atomic.Int64
}

func (c *countingTranscoder) Generate(ctx context.Context, src string, opts media.Options) (media.Metadata, error) {
	md, err := c.inner.Generate(ctx, src, opts)
	if err == nil {
		c.variants.Add(int64(len(md.All())))
	}
	return md, err
}
