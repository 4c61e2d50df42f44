package config

import (
	"git.home.luguber.info/inful/sitemedia/internal/foundation/normalization"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// WhitespaceMode controls whitespace between generated markup elements.
type WhitespaceMode string

const (
	WhitespaceInline WhitespaceMode = "inline"
	WhitespaceBlock  WhitespaceMode = "block"
)

var whitespaceNormalizer = normalization.NewNormalizer(map[string]WhitespaceMode{
	"inline": WhitespaceInline,
	"block":  WhitespaceBlock,
}, WhitespaceInline)

// NormalizeWhitespaceMode maps raw config values onto a WhitespaceMode (inline by default).
func NormalizeWhitespaceMode(raw string) WhitespaceMode {
	return whitespaceNormalizer.Normalize(raw)
}
