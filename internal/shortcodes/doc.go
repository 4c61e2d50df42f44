// Package shortcodes implements the template-callable media shortcodes:
// image, thumb, gallery and button, plus the cssmin and jsmin filters.
//
// Image shortcodes request variants from a media.Transcoder and format the
// returned metadata into markup. Every shortcode call is independent; the only
// shared state is the transcoder's output directory.
package shortcodes
