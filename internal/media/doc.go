// Package media turns source images into responsive variants and markup.
//
// A Processor resizes a source image to a set of widths and encodes every width
// in every requested format, writing files whose names depend only on the
// source name, width and format. Repeated builds therefore produce the same
// files, and concurrent requests for the same variant write identical bytes to
// the same path (writes go through a temp file and a rename).
//
// GenerateHTML assembles <picture>/<img> markup from the resulting Metadata and
// refuses to do so without an alt attribute. An empty alt is valid.
package media
