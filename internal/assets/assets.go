// Package assets copies passthrough files (vendor scripts, styles, fonts and
// images) verbatim into the output directory.
package assets

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitemedia/internal/config"
	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/logfields"
	"git.home.luguber.info/inful/sitemedia/internal/metrics"
)

// Copier copies a passthrough manifest into an output directory.
type Copier struct {
	outputDir string
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// NewCopier returns a Copier writing below outputDir.
func NewCopier(outputDir string, logger *slog.Logger, recorder metrics.Recorder) *Copier {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Copier{outputDir: outputDir, logger: logger, recorder: recorder}
}

// Copy copies every entry of manifest and returns the number of files written.
// Entries may name files or directories; a missing source fails the copy.
func (c *Copier) Copy(ctx context.Context, manifest []config.PassthroughCopy) (int, error) {
	total := 0
	for _, entry := range manifest {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		dst := filepath.Join(c.outputDir, filepath.FromSlash(entry.To))

		n, err := CopyPath(entry.From, dst)
		if err != nil {
			return total, errors.WrapError(err, errors.CategoryFileSystem, "copy passthrough asset").
				WithContext("from", entry.From).
				WithContext("to", entry.To).
				Fatal().
				Build()
		}
		c.logger.DebugContext(ctx, "Copied passthrough asset",
			logfields.Asset(entry.From),
			logfields.Path(dst),
			slog.Int("files", n))
		total += n
	}
	c.recorder.AddAssetsCopied(total)
	return total, nil
}

// CopyPath copies a file or directory tree from src to dst and returns the number of files copied.
func CopyPath(src, dst string) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return CopyDir(src, dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return 0, err
	}
	if err := CopyFile(src, dst); err != nil {
		return 0, err
	}
	return 1, nil
}

// CopyDir recursively copies a directory from src to dst.
func CopyDir(src, dst string) (int, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}

	copied := 0
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			n, err := CopyDir(srcPath, dstPath)
			if err != nil {
				return copied, err
			}
			copied += n
			continue
		}
		if err := CopyFile(srcPath, dstPath); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// CopyFile copies a single file from src to dst, preserving its permissions.
func CopyFile(src, dst string) error {
	// #nosec G304 -- paths come from the site configuration.
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	// A previous build may have left a read-only copy behind.
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	// #nosec G304 -- destination is inside the output directory.
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}
