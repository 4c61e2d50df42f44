// Package site renders a source tree of Markdown and HTML pages into the
// output directory.
//
// A build discovers pages and static files under the source directory,
// renders pages concurrently with the media shortcodes available to every
// template, copies the passthrough manifest and records a Report.
//
// Markdown pages are expanded as text/template first so shortcodes can be
// used inline, then converted with goldmark. HTML pages are html/template
// documents sharing the layout set. Both may name a layout in front matter.
package site
