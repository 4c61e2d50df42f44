package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPage       = "page"
	KeySource     = "source"
	KeyFormat     = "format"
	KeyWidth      = "width"
	KeyFilter     = "filter"
	KeyShortcode  = "shortcode"
	KeyAsset      = "asset"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Width(w int) slog.Attr           { return slog.Int(KeyWidth, w) }
func Filter(name string) slog.Attr    { return slog.String(KeyFilter, name) }
func Shortcode(name string) slog.Attr { return slog.String(KeyShortcode, name) }
func Asset(a string) slog.Attr        { return slog.String(KeyAsset, a) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
