package media

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"

	// Register the WebP decoder so WebP sources can be resized.
	_ "golang.org/x/image/webp"
)

// Encoder writes img to w in one output format.
type Encoder func(w io.Writer, img image.Image, q Quality) error

// avifSpeed trades encode time for size; 0 is slowest, 10 fastest.
const avifSpeed = 8

func defaultEncoders() map[Format]Encoder {
	return map[Format]Encoder{
		FormatJPEG: encodeJPEG,
		FormatPNG:  encodePNG,
		FormatWebP: encodeWebP,
		FormatAVIF: encodeAVIF,
	}
}

func encodeJPEG(w io.Writer, img image.Image, q Quality) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(q.JPEG))
}

func encodePNG(w io.Writer, img image.Image, _ Quality) error {
	return imaging.Encode(w, img, imaging.PNG)
}

func encodeWebP(w io.Writer, img image.Image, q Quality) error {
	if err := webp.Encode(w, img, webp.Options{Quality: q.WebP}); err != nil {
		return fmt.Errorf("webp: %w", err)
	}
	return nil
}

func encodeAVIF(w io.Writer, img image.Image, q Quality) error {
	if err := avif.Encode(w, img, avif.Options{Quality: q.AVIF, QualityAlpha: q.AVIF, Speed: avifSpeed}); err != nil {
		return fmt.Errorf("avif: %w", err)
	}
	return nil
}
