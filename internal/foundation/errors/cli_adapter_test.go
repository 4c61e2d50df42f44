package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("alt text is required").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"media", MediaError("encode failed").Build(), 9},
		{"wrapped minify", fmt.Errorf("page: %w", MinifyError("css").Build()), 9},
		{"filesystem", FileSystemError("copy failed").Build(), 11},
		{"internal", InternalError("boom").Build(), 10},
		{"unclassified", errors.New("unknown error"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	err := WrapError(errors.New("no such file"), CategoryFileSystem, "copy passthrough asset").Build()

	if got := quiet.FormatError(err); got != "Error: copy passthrough asset: no such file" {
		t.Errorf("unexpected quiet message: %q", got)
	}
	if got := verbose.FormatError(err); !strings.HasPrefix(got, "[filesystem:fatal]") {
		t.Errorf("unexpected verbose message: %q", got)
	}
	if got := quiet.FormatError(InternalError("x").Build()); !strings.Contains(got, "use -v") {
		t.Errorf("expected internal errors to be hidden, got %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logBuf, outBuf bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logBuf, nil)))
	adapter.out = &outBuf

	code := adapter.HandleError(ValidationError("alt text is required").WithContext("source", "a.jpg").Build())

	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(logBuf.String(), "source=a.jpg") {
		t.Errorf("expected context in log output, got %q", logBuf.String())
	}
	if !strings.Contains(outBuf.String(), "alt text is required") {
		t.Errorf("expected message on stderr writer, got %q", outBuf.String())
	}
}
